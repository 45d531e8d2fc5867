// Package equiv implements the two-phase equivalence checker (spec.md
// §4.4): a mandatory fast concrete random-testing phase, optionally
// followed by an SMT decision procedure that either proves equivalence
// or returns a genuine counterexample.
package equiv

import (
	"fmt"

	"github.com/gostoke/gostoke/concrete"
	"github.com/gostoke/gostoke/isa"
)

// Outcome classifies the result of a Check call.
type Outcome uint8

const (
	// Equivalent means both random testing and (if run) the decision
	// procedure found no disagreement — a proof, not a guess, whenever
	// the SMT phase ran.
	Equivalent Outcome = iota
	// NotEquivalent means a concrete input was found on which the two
	// sequences disagree; Counterexample describes it.
	NotEquivalent
	// Unknown means the decision procedure could not decide (timeout,
	// resource limit, or an unhandled construct) after random testing
	// found no disagreement. Unknown is never promoted to Equivalent.
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Equivalent:
		return "equivalent"
	case NotEquivalent:
		return "not_equivalent"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Counterexample is a concrete input on which two sequences disagree,
// plus the register and values where they first diverge.
type Counterexample struct {
	Input         map[isa.Register]uint64
	MismatchReg   isa.Register
	ExpectedValue uint64
	ActualValue   uint64
}

func (c Counterexample) String() string {
	return fmt.Sprintf("input=%v mismatch at %s: want %#x, got %#x",
		c.Input, c.MismatchReg, c.ExpectedValue, c.ActualValue)
}

// Result is the full outcome of a Check call.
type Result struct {
	Outcome          Outcome
	Counterexample   *Counterexample
	RandomTestsRun   int
	UsedDecisionProc bool
	Err              error // non-nil only when Outcome == Unknown due to a solver error
}

// DecisionProcedure is the method of smt/z3.EquivChecker that equiv
// needs; kept as an interface here so equiv does not import cgo, and so
// tests can supply a fake.
type DecisionProcedure interface {
	CheckEquivalent(regs []isa.Register, lhs, rhs isa.Sequence, mask isa.LiveOutMask) (proved bool, counterexample map[isa.Register]uint64, unknown bool, err error)
}

// Config controls how Check runs.
type Config struct {
	// RandomTests is how many concrete input vectors phase 1 tries
	// before calling the decision procedure. Spec default is 64.
	RandomTests int
	// FastOnly skips the SMT phase entirely: a result of Equivalent
	// then means only "no counterexample found among RandomTests
	// inputs", not a proof (spec.md §4.4 fast-only mode).
	FastOnly bool
	// LiveOut restricts comparison to these registers; a nil/empty mask
	// compares every register.
	LiveOut isa.LiveOutMask
	// Rand supplies register input vectors for phase 1.
	Rand InputGenerator
	// Solver is consulted in phase 2 when FastOnly is false and phase 1
	// found no disagreement. May be nil iff FastOnly is true.
	Solver DecisionProcedure
}

// InputGenerator produces concrete register assignments for random
// testing.
type InputGenerator interface {
	Next(regs []isa.Register) map[isa.Register]uint64
}

// Check determines whether lhs and rhs compute the same live-out state
// for every input, per cfg.
func Check(lhs, rhs isa.Sequence, cfg Config) Result {
	mask := cfg.LiveOut
	if mask.Empty() {
		mask = liveOutUnion(lhs, rhs)
	}

	regs := registerUnion(lhs, rhs)
	tests := cfg.RandomTests
	if tests <= 0 {
		tests = DefaultRandomTests
	}

	for i := 0; i < tests; i++ {
		values := cfg.Rand.Next(regs)
		input := concrete.NewStateFromValues(values)

		outLHS := concrete.ExecuteSequence(input, lhs)
		outRHS := concrete.ExecuteSequence(input, rhs)

		if reg, a, b, mismatched := outLHS.FirstDifference(outRHS, mask); mismatched {
			return Result{
				Outcome: NotEquivalent,
				Counterexample: &Counterexample{
					Input:         values,
					MismatchReg:   reg,
					ExpectedValue: a,
					ActualValue:   b,
				},
				RandomTestsRun: i + 1,
			}
		}
	}

	if cfg.FastOnly {
		return Result{Outcome: Equivalent, RandomTestsRun: tests}
	}

	proved, counterexample, unknown, err := cfg.Solver.CheckEquivalent(regs, lhs, rhs, mask)
	if err != nil {
		return Result{Outcome: Unknown, RandomTestsRun: tests, UsedDecisionProc: true, Err: err}
	}
	if unknown {
		return Result{Outcome: Unknown, RandomTestsRun: tests, UsedDecisionProc: true}
	}
	if proved {
		return Result{Outcome: Equivalent, RandomTestsRun: tests, UsedDecisionProc: true}
	}

	reg, a, b := firstCounterexampleMismatch(counterexample, mask, lhs, rhs)
	return Result{
		Outcome: NotEquivalent,
		Counterexample: &Counterexample{
			Input:         counterexample,
			MismatchReg:   reg,
			ExpectedValue: a,
			ActualValue:   b,
		},
		RandomTestsRun:   tests,
		UsedDecisionProc: true,
	}
}

// firstCounterexampleMismatch re-executes both sequences concretely on
// the solver-provided counterexample to recover the same
// (register, expected, actual) triple random testing would have
// reported, so callers get one uniform Counterexample shape regardless
// of which phase found it.
func firstCounterexampleMismatch(input map[isa.Register]uint64, mask isa.LiveOutMask, lhs, rhs isa.Sequence) (isa.Register, uint64, uint64) {
	s := concrete.NewStateFromValues(input)
	outLHS := concrete.ExecuteSequence(s, lhs)
	outRHS := concrete.ExecuteSequence(s, rhs)
	if reg, a, b, ok := outLHS.FirstDifference(outRHS, mask); ok {
		return reg, a, b
	}
	return 0, 0, 0
}

// DefaultRandomTests is the spec's default random-testing sample size.
const DefaultRandomTests = 64

func registerUnion(lhs, rhs isa.Sequence) []isa.Register {
	seen := make(map[isa.Register]struct{})
	var out []isa.Register
	for _, r := range append(lhs.Registers(), rhs.Registers()...) {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func liveOutUnion(lhs, rhs isa.Sequence) isa.LiveOutMask {
	return isa.NewLiveOutMask(registerUnion(lhs, rhs)...)
}
