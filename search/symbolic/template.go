package symbolic

import (
	"iter"
	"strconv"

	"github.com/gostoke/gostoke/isa"
	symb "github.com/gostoke/gostoke/symbolic"
)

// holeableOpcodes are the immediate-consuming opcodes whose Op2 a
// template can leave as a synthesis hole rather than enumerating
// concrete values for. Comparison opcodes (Cmp/Cmn/Tst) are excluded:
// their flag computation isn't exposed by the symbolic package, so
// templates only include them with concrete register operands.
var holeableOpcodes = []isa.Opcode{
	isa.OpAdd, isa.OpSub, isa.OpAnd, isa.OpOrr, isa.OpEor,
	isa.OpLsl, isa.OpLsr, isa.OpAsr, isa.OpMovImm,
}

// hole identifies one immediate operand in a template's skeleton that
// synthesis will fill in, by position and by the free-variable name used
// in the CEGIS constraints.
type hole struct {
	index   int
	varName string
}

// template is a partially concrete candidate: every register operand is
// fixed, but instructions built from holeableOpcodes carry a symbolic
// immediate in place of a concrete one.
type template struct {
	instructions []isa.Instruction
	holes        []hole
}

func (t template) holeAt(i int) (hole, bool) {
	for _, h := range t.holes {
		if h.index == i {
			return h, true
		}
	}
	return hole{}, false
}

// instantiate substitutes values (keyed by hole.varName, as returned by a
// Decider's model) for every hole, producing a concrete candidate.
// Instructions that aren't encodable under whatever checker asmenc has
// registered are rejected: instantiate then returns nil.
func (t template) instantiate(values map[string]uint64) isa.Sequence {
	seq := make(isa.Sequence, len(t.instructions))
	copy(seq, t.instructions)
	for _, h := range t.holes {
		instr := seq[h.index]
		instr.Op2 = isa.Imm(int64(values[h.varName]))
		if !isa.IsEncodable(instr) {
			return nil
		}
		seq[h.index] = instr
	}
	return seq
}

// liveOut returns the registers synthesis must match target on: every
// register target reads or writes. The caller's live-out mask is not
// consulted here.
func (t template) liveOut(target isa.Sequence) []isa.Register {
	return target.Registers()
}

// translateSymbolic runs the symbolic interpreter over t's skeleton,
// substituting each hole's placeholder immediate with a fresh symbolic
// variable so the resulting expressions are parametric in the holes'
// eventual values.
func (t template) translateSymbolic(s symb.State) symb.State {
	for i, instr := range t.instructions {
		if h, ok := t.holeAt(i); ok {
			s = translateWithHole(s, instr, symb.NewVar(h.varName))
			continue
		}
		s = symb.Translate(s, instr)
	}
	return s
}

// translateWithHole mirrors symbolic.Translate for the holeableOpcodes
// subset, using imm directly instead of reading instr.Op2.
func translateWithHole(s symb.State, instr isa.Instruction, imm symb.Expr) symb.State {
	lhs := s.Get(instr.Rn)
	switch instr.Op {
	case isa.OpAdd:
		return s.Set(instr.Rd, symb.NewBinary(symb.ADD, lhs, imm))
	case isa.OpSub:
		return s.Set(instr.Rd, symb.NewBinary(symb.SUB, lhs, imm))
	case isa.OpAnd:
		return s.Set(instr.Rd, symb.NewBinary(symb.AND, lhs, imm))
	case isa.OpOrr:
		return s.Set(instr.Rd, symb.NewBinary(symb.OR, lhs, imm))
	case isa.OpEor:
		return s.Set(instr.Rd, symb.NewBinary(symb.XOR, lhs, imm))
	case isa.OpLsl:
		return s.Set(instr.Rd, symb.NewBinary(symb.SHL, lhs, symb.NewBinary(symb.AND, imm, symb.NewConst(63))))
	case isa.OpLsr:
		return s.Set(instr.Rd, symb.NewBinary(symb.LSHR, lhs, symb.NewBinary(symb.AND, imm, symb.NewConst(63))))
	case isa.OpAsr:
		return s.Set(instr.Rd, symb.NewBinary(symb.ASHR, lhs, symb.NewBinary(symb.AND, imm, symb.NewConst(63))))
	case isa.OpMovImm:
		return s.Set(instr.Rd, imm)
	default:
		return symb.Translate(s, instr)
	}
}

// registerOnlySlots enumerates every concrete (hole-free) instruction
// over the register pool: destination-producing reg/reg ops, compares,
// and the conditional-select family.
func registerOnlySlots(regs []isa.Register) []isa.Instruction {
	var out []isa.Instruction
	for _, rd := range regs {
		for _, rn := range regs {
			for _, rm := range regs {
				out = append(out,
					isa.Add(rd, rn, isa.Reg(rm)),
					isa.Sub(rd, rn, isa.Reg(rm)),
					isa.And(rd, rn, isa.Reg(rm)),
					isa.Orr(rd, rn, isa.Reg(rm)),
					isa.Eor(rd, rn, isa.Reg(rm)),
					isa.Mul(rd, rn, rm),
					isa.Sdiv(rd, rn, rm),
					isa.Udiv(rd, rn, rm),
				)
				for _, cond := range isa.AllConditions() {
					out = append(out,
						isa.Csel(rd, rn, rm, cond),
						isa.Csinc(rd, rn, rm, cond),
						isa.Csinv(rd, rn, rm, cond),
						isa.Csneg(rd, rn, rm, cond),
					)
				}
			}
			out = append(out, isa.MovReg(rd, rn))
		}
	}
	for _, rn := range regs {
		for _, rm := range regs {
			out = append(out, isa.Cmp(rn, isa.Reg(rm)), isa.Cmn(rn, isa.Reg(rm)), isa.Tst(rn, isa.Reg(rm)))
		}
	}

	encodable := out[:0]
	for _, instr := range out {
		if isa.IsEncodable(instr) {
			encodable = append(encodable, instr)
		}
	}
	return encodable
}

// holeSlots enumerates every (opcode, Rd, Rn) combination from
// holeableOpcodes, each standing for "this instruction with a
// to-be-synthesized immediate". Op2 is a placeholder until instantiate.
func holeSlots(regs []isa.Register) []isa.Instruction {
	var out []isa.Instruction
	for _, rd := range regs {
		for _, rn := range regs {
			for _, op := range holeableOpcodes {
				switch op {
				case isa.OpAdd:
					out = append(out, isa.Add(rd, rn, isa.Imm(0)))
				case isa.OpSub:
					out = append(out, isa.Sub(rd, rn, isa.Imm(0)))
				case isa.OpAnd:
					out = append(out, isa.And(rd, rn, isa.Imm(0)))
				case isa.OpOrr:
					out = append(out, isa.Orr(rd, rn, isa.Imm(0)))
				case isa.OpEor:
					out = append(out, isa.Eor(rd, rn, isa.Imm(0)))
				case isa.OpLsl:
					out = append(out, isa.Lsl(rd, rn, isa.Imm(0)))
				case isa.OpLsr:
					out = append(out, isa.Lsr(rd, rn, isa.Imm(0)))
				case isa.OpAsr:
					out = append(out, isa.Asr(rd, rn, isa.Imm(0)))
				case isa.OpMovImm:
					out = append(out, isa.MovImm(rd, 0))
				}
			}
		}
	}
	return out
}

// slot pairs one alternative instruction with whether it still needs an
// immediate synthesized.
type slot struct {
	instr  isa.Instruction
	isHole bool
}

// templates yields every length-bound template over the register pool:
// an odometer over the combined register-only/hole alphabet, assigning
// each hole position a unique free-variable name.
func templates(regs []isa.Register, length int) iter.Seq[template] {
	var alphabet []slot
	for _, instr := range registerOnlySlots(regs) {
		alphabet = append(alphabet, slot{instr: instr})
	}
	for _, instr := range holeSlots(regs) {
		alphabet = append(alphabet, slot{instr: instr, isHole: true})
	}

	return func(yield func(template) bool) {
		if length <= 0 || len(alphabet) == 0 {
			return
		}
		indices := make([]int, length)
		for {
			t := template{instructions: make([]isa.Instruction, length)}
			for i, idx := range indices {
				s := alphabet[idx]
				t.instructions[i] = s.instr
				if s.isHole {
					t.holes = append(t.holes, hole{index: i, varName: "imm" + strconv.Itoa(i)})
				}
			}
			if !yield(t) {
				return
			}

			pos := length - 1
			for pos >= 0 {
				indices[pos]++
				if indices[pos] < len(alphabet) {
					break
				}
				indices[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}
}
