// Package cost implements the superoptimizer's cost model (spec.md §4.5):
// a configurable per-opcode cost table and the sequence-cost sum built
// from it.
package cost

import (
	"fmt"

	"github.com/gostoke/gostoke/isa"
)

// Metric selects which cost table instruction and sequence costs are
// computed against.
type Metric uint8

const (
	// InstructionCount costs every opcode 1.
	InstructionCount Metric = iota
	// Latency distinguishes slow opcodes (multiply, divide) from fast ones.
	Latency
	// CodeSize costs every opcode 4 bytes (one AArch64 machine word).
	CodeSize
)

func (m Metric) String() string {
	switch m {
	case InstructionCount:
		return "instruction_count"
	case Latency:
		return "latency"
	case CodeSize:
		return "code_size"
	default:
		return fmt.Sprintf("metric<%d>", uint8(m))
	}
}

// ParseMetric parses the §6 configuration value for cost_metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "instruction_count", "":
		return InstructionCount, nil
	case "latency":
		return Latency, nil
	case "code_size":
		return CodeSize, nil
	default:
		return 0, fmt.Errorf("cost: unknown metric %q", s)
	}
}

// Instruction returns the cost of a single instruction under m. The
// Unused marker always costs 0 regardless of metric, since it is not a
// real instruction (spec.md §4.7).
func Instruction(instr isa.Instruction, m Metric) uint64 {
	if instr.Op == isa.OpUnused {
		return 0
	}
	switch m {
	case InstructionCount:
		return 1
	case Latency:
		return latency(instr)
	case CodeSize:
		return 4
	default:
		panic(fmt.Sprintf("cost: unknown metric %d", m))
	}
}

// latency distinguishes the slow multiply/divide opcodes (cost 4) from
// every other opcode (cost 1). Only the relative ordering matters
// (spec.md §4.5) — these are not meant to model real AArch64 cycle counts.
func latency(instr isa.Instruction) uint64 {
	switch instr.Op {
	case isa.OpMul, isa.OpSdiv, isa.OpUdiv:
		return 4
	default:
		return 1
	}
}

// Sequence sums the cost of every instruction in seq. The empty
// sequence costs 0.
func Sequence(seq isa.Sequence, m Metric) uint64 {
	var total uint64
	for _, instr := range seq {
		total += Instruction(instr, m)
	}
	return total
}

// Cheaper reports whether a costs strictly less than b under m.
func Cheaper(a, b isa.Sequence, m Metric) bool {
	return Sequence(a, m) < Sequence(b, m)
}

// Difference returns cost(a) - cost(b) under m, as a signed value:
// positive means a is more expensive.
func Difference(a, b isa.Sequence, m Metric) int64 {
	return int64(Sequence(a, m)) - int64(Sequence(b, m))
}
