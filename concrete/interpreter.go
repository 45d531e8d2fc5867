package concrete

import (
	"fmt"
	"math/bits"

	"github.com/gostoke/gostoke/isa"
)

// evalOperand resolves an operand to a concrete 64-bit value.
func evalOperand(s State, op isa.Operand) uint64 {
	if op.IsRegister() {
		return s.Get(op.Reg)
	}
	return uint64(op.Imm)
}

// Execute applies a single instruction to state and returns the
// resulting state. All arithmetic is modular in 64 bits; shift amounts
// are taken modulo 64 (spec.md §4.2).
func Execute(s State, instr isa.Instruction) State {
	switch instr.Op {
	case isa.OpMovReg:
		s.Set(instr.Rd, s.Get(instr.Rn))

	case isa.OpMovImm:
		s.Set(instr.Rd, uint64(instr.Op2.Imm))

	case isa.OpAdd:
		s.Set(instr.Rd, s.Get(instr.Rn)+evalOperand(s, instr.Op2))

	case isa.OpSub:
		s.Set(instr.Rd, s.Get(instr.Rn)-evalOperand(s, instr.Op2))

	case isa.OpAnd:
		s.Set(instr.Rd, s.Get(instr.Rn)&evalOperand(s, instr.Op2))

	case isa.OpOrr:
		s.Set(instr.Rd, s.Get(instr.Rn)|evalOperand(s, instr.Op2))

	case isa.OpEor:
		s.Set(instr.Rd, s.Get(instr.Rn)^evalOperand(s, instr.Op2))

	case isa.OpLsl:
		shift := evalOperand(s, instr.Op2) & 63
		s.Set(instr.Rd, s.Get(instr.Rn)<<shift)

	case isa.OpLsr:
		shift := evalOperand(s, instr.Op2) & 63
		s.Set(instr.Rd, s.Get(instr.Rn)>>shift)

	case isa.OpAsr:
		shift := evalOperand(s, instr.Op2) & 63
		s.SetSigned(instr.Rd, s.GetSigned(instr.Rn)>>shift)

	case isa.OpMul:
		s.Set(instr.Rd, s.Get(instr.Rn)*s.Get(instr.Rm))

	case isa.OpSdiv:
		s.SetSigned(instr.Rd, sdiv(s.GetSigned(instr.Rn), s.GetSigned(instr.Rm)))

	case isa.OpUdiv:
		s.Set(instr.Rd, udiv(s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpCmp:
		lhs, rhs := s.Get(instr.Rn), evalOperand(s, instr.Op2)
		result := lhs - rhs
		c, v := subFlags(lhs, rhs, result)
		s.SetFlags(isa.Flags{N: msb(result), Z: result == 0, C: c, V: v})

	case isa.OpCmn:
		lhs, rhs := s.Get(instr.Rn), evalOperand(s, instr.Op2)
		result := lhs + rhs
		c, v := addFlags(lhs, rhs, result)
		s.SetFlags(isa.Flags{N: msb(result), Z: result == 0, C: c, V: v})

	case isa.OpTst:
		result := s.Get(instr.Rn) & evalOperand(s, instr.Op2)
		s.SetFlags(isa.Flags{N: msb(result), Z: result == 0})

	case isa.OpCsel:
		s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpCsinc:
		s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), s.Get(instr.Rm)+1))

	case isa.OpCsinv:
		s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), ^s.Get(instr.Rm)))

	case isa.OpCsneg:
		s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), -s.Get(instr.Rm)))

	case isa.OpUnused:
		// Identity: zero-cost no-op slot (spec.md §4.7).

	default:
		panic(fmt.Sprintf("concrete: unsupported opcode %v", instr.Op))
	}
	return s
}

// selectCond implements the "c ? t : f" shape shared by Csel/Csinc/Csinv/Csneg.
func selectCond(s State, instr isa.Instruction, t, f uint64) uint64 {
	if s.Flags().Holds(instr.Cond) {
		return t
	}
	return f
}

// ExecuteSequence applies every instruction in seq in order, threading
// state through left to right.
func ExecuteSequence(s State, seq isa.Sequence) State {
	for _, instr := range seq {
		s = Execute(s, instr)
	}
	return s
}

func msb(v uint64) bool {
	return v>>63 != 0
}

// subFlags computes the carry and overflow flags for lhs-rhs, matching
// AArch64 SUBS semantics: carry means "no borrow" (unsigned lhs >= rhs).
func subFlags(lhs, rhs, result uint64) (carry, overflow bool) {
	carry = lhs >= rhs
	lhsNeg, rhsNeg, resNeg := msb(lhs), msb(rhs), msb(result)
	overflow = (lhsNeg != rhsNeg) && (lhsNeg != resNeg)
	return
}

// addFlags computes the carry and overflow flags for lhs+rhs.
func addFlags(lhs, rhs, result uint64) (carry, overflow bool) {
	_, carryOut := bits.Add64(lhs, rhs, 0)
	carry = carryOut != 0
	lhsNeg, rhsNeg, resNeg := msb(lhs), msb(rhs), msb(result)
	overflow = (lhsNeg == rhsNeg) && (lhsNeg != resNeg)
	return
}

// sdiv implements AArch64 SDIV: division by zero yields zero, and
// dividing the most-negative value by -1 yields the most-negative value
// again instead of overflowing (spec.md §3 invariants).
func sdiv(lhs, rhs int64) int64 {
	if rhs == 0 {
		return 0
	}
	if lhs == minInt64 && rhs == -1 {
		return minInt64
	}
	return lhs / rhs
}

// udiv implements AArch64 UDIV: division by zero yields zero.
func udiv(lhs, rhs uint64) uint64 {
	if rhs == 0 {
		return 0
	}
	return lhs / rhs
}

const minInt64 = -1 << 63
