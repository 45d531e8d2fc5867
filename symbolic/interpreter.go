package symbolic

import (
	"fmt"

	"github.com/gostoke/gostoke/isa"
)

// evalOperand resolves an operand to a symbolic expression.
func evalOperand(s State, op isa.Operand) Expr {
	if op.IsRegister() {
		return s.Get(op.Reg)
	}
	return NewConst(uint64(op.Imm))
}

// Translate builds the symbolic effect of a single instruction on s,
// mirroring concrete.Execute opcode for opcode so the two interpreters
// can never drift apart (spec.md §4.3: "the symbolic interpreter's
// opcode semantics are defined to exactly match the concrete
// interpreter's"). Division is routed through the ite-guarded
// constructors in expr.go so SDIV/UDIV edge cases match the ISA
// regardless of what the downstream decision procedure's native
// division operator does with them.
func Translate(s State, instr isa.Instruction) State {
	switch instr.Op {
	case isa.OpMovReg:
		return s.Set(instr.Rd, s.Get(instr.Rn))

	case isa.OpMovImm:
		return s.Set(instr.Rd, NewConst(uint64(instr.Op2.Imm)))

	case isa.OpAdd:
		return s.Set(instr.Rd, NewBinary(ADD, s.Get(instr.Rn), evalOperand(s, instr.Op2)))

	case isa.OpSub:
		return s.Set(instr.Rd, NewBinary(SUB, s.Get(instr.Rn), evalOperand(s, instr.Op2)))

	case isa.OpAnd:
		return s.Set(instr.Rd, NewBinary(AND, s.Get(instr.Rn), evalOperand(s, instr.Op2)))

	case isa.OpOrr:
		return s.Set(instr.Rd, NewBinary(OR, s.Get(instr.Rn), evalOperand(s, instr.Op2)))

	case isa.OpEor:
		return s.Set(instr.Rd, NewBinary(XOR, s.Get(instr.Rn), evalOperand(s, instr.Op2)))

	case isa.OpLsl:
		return s.Set(instr.Rd, NewBinary(SHL, s.Get(instr.Rn), shiftAmount(s, instr.Op2)))

	case isa.OpLsr:
		return s.Set(instr.Rd, NewBinary(LSHR, s.Get(instr.Rn), shiftAmount(s, instr.Op2)))

	case isa.OpAsr:
		return s.Set(instr.Rd, NewBinary(ASHR, s.Get(instr.Rn), shiftAmount(s, instr.Op2)))

	case isa.OpMul:
		return s.Set(instr.Rd, NewBinary(MUL, s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpSdiv:
		return s.Set(instr.Rd, NewBinary(SDIV, s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpUdiv:
		return s.Set(instr.Rd, NewBinary(UDIV, s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpCmp:
		lhs, rhs := s.Get(instr.Rn), evalOperand(s, instr.Op2)
		result := NewBinary(SUB, lhs, rhs)
		return s.SetFlags(subFlags(lhs, rhs, result))

	case isa.OpCmn:
		lhs, rhs := s.Get(instr.Rn), evalOperand(s, instr.Op2)
		result := NewBinary(ADD, lhs, rhs)
		return s.SetFlags(addFlags(lhs, rhs, result))

	case isa.OpTst:
		result := NewBinary(AND, s.Get(instr.Rn), evalOperand(s, instr.Op2))
		return s.SetFlags(FlagExprs{N: MSB(result), Z: IsZero(result), C: NewConstBool(false), V: NewConstBool(false)})

	case isa.OpCsel:
		return s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), s.Get(instr.Rm)))

	case isa.OpCsinc:
		return s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), NewBinary(ADD, s.Get(instr.Rm), NewConst(1))))

	case isa.OpCsinv:
		return s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), NewUnary(NOT, s.Get(instr.Rm))))

	case isa.OpCsneg:
		return s.Set(instr.Rd, selectCond(s, instr, s.Get(instr.Rn), NewUnary(NEG, s.Get(instr.Rm))))

	case isa.OpUnused:
		return s

	default:
		panic(fmt.Sprintf("symbolic: unsupported opcode %v", instr.Op))
	}
}

// selectCond builds "ConditionExpr(cond) ? t : f", the symbolic shape
// shared by Csel/Csinc/Csinv/Csneg.
func selectCond(s State, instr isa.Instruction, t, f Expr) Expr {
	return NewIte(ConditionExpr(instr.Cond, s.Flags()), t, f)
}

// shiftAmount masks a shift-amount operand to the low 6 bits, matching
// concrete.Execute's "& 63" modular shift behavior.
func shiftAmount(s State, op isa.Operand) Expr {
	return NewBinary(AND, evalOperand(s, op), NewConst(63))
}

// TranslateSequence applies Translate to every instruction in seq in
// order, threading state through left to right.
func TranslateSequence(s State, seq isa.Sequence) State {
	for _, instr := range seq {
		s = Translate(s, instr)
	}
	return s
}

// subFlags builds the NZCV flag terms for lhs-rhs, matching
// concrete.subFlags: carry means "no borrow" (unsigned lhs >= rhs).
func subFlags(lhs, rhs, result Expr) FlagExprs {
	carry := NewBinary(BOOL_OR, NewBinary(UGT, lhs, rhs), NewBinary(EQ, lhs, rhs))
	lhsNeg, rhsNeg, resNeg := MSB(lhs), MSB(rhs), MSB(result)
	signsDiffer := NewBinary(NE, lhsNeg, rhsNeg)
	resultTookRhsSign := NewBinary(NE, lhsNeg, resNeg)
	overflow := NewBinary(BOOL_AND, signsDiffer, resultTookRhsSign)
	return FlagExprs{N: resNeg, Z: IsZero(result), C: carry, V: overflow}
}

// addFlags builds the NZCV flag terms for lhs+rhs, matching
// concrete.addFlags (carry via the 65th bit of the unsigned sum).
func addFlags(lhs, rhs, result Expr) FlagExprs {
	carry := NewBinary(ULT, result, lhs)
	lhsNeg, rhsNeg, resNeg := MSB(lhs), MSB(rhs), MSB(result)
	signsMatch := NewBinary(EQ, lhsNeg, rhsNeg)
	resultChangedSign := NewBinary(NE, lhsNeg, resNeg)
	overflow := NewBinary(BOOL_AND, signsMatch, resultChangedSign)
	return FlagExprs{N: resNeg, Z: IsZero(result), C: carry, V: overflow}
}
