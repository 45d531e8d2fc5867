package enumerative

import (
	"iter"
	"sort"

	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
)

// generator enumerates candidate sequences over a fixed operand pool.
type generator struct {
	registers    []isa.Register
	immediates   []int64
	destinations []isa.Register // live-out registers are good destination candidates
	instructions []isa.Instruction
	metric       cost.Metric
}

func newGenerator(registers []isa.Register, immediates []int64, liveOut []isa.Register, metric cost.Metric) *generator {
	g := &generator{registers: registers, immediates: immediates, destinations: liveOut, metric: metric}
	if len(g.destinations) == 0 {
		g.destinations = registers
	}
	g.instructions = g.singleInstructions()
	return g
}

// singleInstructions enumerates every encodable single instruction over
// the operand pool: this is the alphabet sequences(length) draws from.
func (g *generator) singleInstructions() []isa.Instruction {
	var out []isa.Instruction
	operands := g.operands()

	for _, rd := range g.destinations {
		for _, rn := range g.registers {
			for _, op2 := range operands {
				out = append(out,
					isa.Add(rd, rn, op2),
					isa.Sub(rd, rn, op2),
					isa.And(rd, rn, op2),
					isa.Orr(rd, rn, op2),
					isa.Eor(rd, rn, op2),
					isa.Lsl(rd, rn, op2),
					isa.Lsr(rd, rn, op2),
					isa.Asr(rd, rn, op2),
				)
			}
			out = append(out, isa.MovReg(rd, rn))
			for _, cond := range isa.AllConditions() {
				for _, rm := range g.registers {
					out = append(out,
						isa.Csel(rd, rn, rm, cond),
						isa.Csinc(rd, rn, rm, cond),
						isa.Csinv(rd, rn, rm, cond),
						isa.Csneg(rd, rn, rm, cond),
					)
				}
			}
			for _, rm := range g.registers {
				out = append(out, isa.Mul(rd, rn, rm), isa.Sdiv(rd, rn, rm), isa.Udiv(rd, rn, rm))
			}
		}
		for _, imm := range g.immediates {
			out = append(out, isa.MovImm(rd, imm))
		}
	}

	for _, rn := range g.registers {
		for _, op2 := range operands {
			out = append(out, isa.Cmp(rn, op2), isa.Cmn(rn, op2), isa.Tst(rn, op2))
		}
	}

	encodable := out[:0]
	for _, instr := range out {
		if isa.IsEncodable(instr) {
			encodable = append(encodable, instr)
		}
	}

	// Sort by actual per-instruction cost under the configured metric so
	// the alphabet itself is in non-decreasing cost order: under Latency,
	// opcodes like Mul/Sdiv/Udiv cost more than the rest of the alphabet,
	// so building it in opcode-declaration order is not enough. For
	// length > 1, odometer order over this alphabet is not monotonic in
	// summed sequence cost.
	sort.SliceStable(encodable, func(i, j int) bool {
		return cost.Instruction(encodable[i], g.metric) < cost.Instruction(encodable[j], g.metric)
	})
	return encodable
}

func (g *generator) operands() []isa.Operand {
	ops := make([]isa.Operand, 0, len(g.registers)+len(g.immediates))
	for _, r := range g.registers {
		ops = append(ops, isa.Reg(r))
	}
	for _, imm := range g.immediates {
		ops = append(ops, isa.Imm(imm))
	}
	return ops
}

// sequences yields every length-instruction sequence over the
// instruction alphabet in odometer order. The alphabet itself is sorted
// by ascending per-instruction cost (see singleInstructions), so for
// length 1 this visits candidates in exact non-decreasing cost order;
// for length > 1 the odometer's per-position cycling is not itself
// monotonic in whole-sequence cost, which is why Algorithm.Run tracks a
// running minimum across the tier rather than stopping at the first
// equivalent match.
func (g *generator) sequences(length int) iter.Seq[isa.Sequence] {
	return func(yield func(isa.Sequence) bool) {
		if length <= 0 || len(g.instructions) == 0 {
			return
		}
		indices := make([]int, length)
		for {
			seq := make(isa.Sequence, length)
			for i, idx := range indices {
				seq[i] = g.instructions[idx]
			}
			if !yield(seq) {
				return
			}

			pos := length - 1
			for pos >= 0 {
				indices[pos]++
				if indices[pos] < len(g.instructions) {
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
