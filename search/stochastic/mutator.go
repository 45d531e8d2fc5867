package stochastic

import (
	"math/rand"

	"github.com/gostoke/gostoke/isa"
)

// mutator proposes single-instruction-sequence neighbors for the MCMC
// walk, using the four mutation kinds from spec.md §4.7.
type mutator struct {
	regs []isa.Register
	imms []int64
	rnd  *rand.Rand
}

// mutableOpcodes includes isa.OpUnused (spec.md §4.7 mutation kind 4:
// whole-instruction replacement may produce the UNUSED marker, not just
// a fresh instruction), so the walk can shrink the effective instruction
// count under length-sensitive cost metrics.
var mutableOpcodes = []isa.Opcode{
	isa.OpAdd, isa.OpSub, isa.OpAnd, isa.OpOrr, isa.OpEor,
	isa.OpLsl, isa.OpLsr, isa.OpAsr, isa.OpMul, isa.OpSdiv, isa.OpUdiv,
	isa.OpCmp, isa.OpCmn, isa.OpTst,
	isa.OpCsel, isa.OpCsinc, isa.OpCsinv, isa.OpCsneg,
	isa.OpMovReg, isa.OpMovImm,
	isa.OpUnused,
}

// propose returns a new sequence obtained by applying exactly one
// mutation to seq, chosen by the configured probabilities.
func (m *mutator) propose(seq isa.Sequence) isa.Sequence {
	next := seq.Clone()
	if len(next) == 0 {
		return next
	}

	switch roll := m.rnd.Float64(); {
	case roll < probOpcode:
		m.mutateOpcode(next)
	case roll < probOpcode+probOperand:
		m.mutateOperand(next)
	case roll < probOpcode+probOperand+probSwap:
		m.swapInstructions(next)
	default:
		m.mutateInstruction(next)
	}
	return next
}

func (m *mutator) randomRegister() isa.Register {
	if len(m.regs) == 0 {
		return isa.X0
	}
	return m.regs[m.rnd.Intn(len(m.regs))]
}

func (m *mutator) randomOperand() isa.Operand {
	useImmediate := len(m.imms) > 0 && (len(m.regs) == 0 || m.rnd.Intn(2) == 0)
	if useImmediate {
		return isa.Imm(m.imms[m.rnd.Intn(len(m.imms))])
	}
	return isa.Reg(m.randomRegister())
}

func (m *mutator) randomCondition() isa.Condition {
	all := isa.AllConditions()
	return all[m.rnd.Intn(len(all))]
}

// randomInstruction builds a fresh instruction over the operand pool,
// for seeding a sequence or replacing a slot outright.
func (m *mutator) randomInstruction() isa.Instruction {
	op := mutableOpcodes[m.rnd.Intn(len(mutableOpcodes))]
	rd, rn, rm := m.randomRegister(), m.randomRegister(), m.randomRegister()
	op2 := m.randomOperand()
	cond := m.randomCondition()

	switch op {
	case isa.OpMovReg:
		return isa.MovReg(rd, rn)
	case isa.OpMovImm:
		imm := int64(0)
		if len(m.imms) > 0 {
			imm = m.imms[m.rnd.Intn(len(m.imms))]
		}
		return isa.MovImm(rd, imm)
	case isa.OpAdd:
		return isa.Add(rd, rn, op2)
	case isa.OpSub:
		return isa.Sub(rd, rn, op2)
	case isa.OpAnd:
		return isa.And(rd, rn, op2)
	case isa.OpOrr:
		return isa.Orr(rd, rn, op2)
	case isa.OpEor:
		return isa.Eor(rd, rn, op2)
	case isa.OpLsl:
		return isa.Lsl(rd, rn, op2)
	case isa.OpLsr:
		return isa.Lsr(rd, rn, op2)
	case isa.OpAsr:
		return isa.Asr(rd, rn, op2)
	case isa.OpMul:
		return isa.Mul(rd, rn, rm)
	case isa.OpSdiv:
		return isa.Sdiv(rd, rn, rm)
	case isa.OpUdiv:
		return isa.Udiv(rd, rn, rm)
	case isa.OpCmp:
		return isa.Cmp(rn, op2)
	case isa.OpCmn:
		return isa.Cmn(rn, op2)
	case isa.OpTst:
		return isa.Tst(rn, op2)
	case isa.OpCsel:
		return isa.Csel(rd, rn, rm, cond)
	case isa.OpCsinc:
		return isa.Csinc(rd, rn, rm, cond)
	case isa.OpCsinv:
		return isa.Csinv(rd, rn, rm, cond)
	case isa.OpCsneg:
		return isa.Csneg(rd, rn, rm, cond)
	case isa.OpUnused:
		return isa.Unused()
	default:
		return isa.Unused()
	}
}

// mutateOpcode replaces a random instruction's opcode with a compatible
// one of the same arity, keeping its operands.
func (m *mutator) mutateOpcode(seq isa.Sequence) {
	i := m.rnd.Intn(len(seq))
	instr := seq[i]
	arity := instr.Op.Arity()

	var candidates []isa.Opcode
	for _, op := range mutableOpcodes {
		if op.Arity() == arity && op != instr.Op {
			candidates = append(candidates, op)
		}
	}
	if len(candidates) == 0 {
		return
	}
	newOp := candidates[m.rnd.Intn(len(candidates))]
	instr.Op = newOp
	seq[i] = instr
}

// mutateOperand replaces one operand field of a random instruction.
func (m *mutator) mutateOperand(seq isa.Sequence) {
	i := m.rnd.Intn(len(seq))
	instr := seq[i]

	switch m.rnd.Intn(4) {
	case 0:
		if instr.Op.HasDestination() {
			instr.Rd = m.randomRegister()
		}
	case 1:
		instr.Rn = m.randomRegister()
	case 2:
		switch instr.Op.Arity() {
		case isa.ArityBinaryRegReg, isa.ArityCondSelect:
			instr.Rm = m.randomRegister()
		default:
			instr.Op2 = m.randomOperand()
		}
	case 3:
		if instr.Op.Arity() == isa.ArityCondSelect {
			instr.Cond = m.randomCondition()
		}
	}
	seq[i] = instr
}

// swapInstructions exchanges the positions of two random instructions.
func (m *mutator) swapInstructions(seq isa.Sequence) {
	if len(seq) < 2 {
		return
	}
	i := m.rnd.Intn(len(seq))
	j := m.rnd.Intn(len(seq))
	seq[i], seq[j] = seq[j], seq[i]
}

// mutateInstruction replaces an entire instruction with a fresh random
// one, the largest single jump the walk can take. randomInstruction's
// pool includes the UNUSED marker, so this can also shrink the
// effective instruction count.
func (m *mutator) mutateInstruction(seq isa.Sequence) {
	i := m.rnd.Intn(len(seq))
	seq[i] = m.randomInstruction()
}
