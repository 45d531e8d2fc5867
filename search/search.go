// Package search defines the shared vocabulary of the four search
// strategies (spec.md §4.6-§4.9): a common Algorithm interface, the
// Result/Statistics types every strategy reports, and the register/
// immediate operand pools enumerative and stochastic search draw from.
package search

import (
	"context"
	"time"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
)

// Algorithm searches for a cheaper sequence equivalent to Target.
type Algorithm interface {
	// Run searches until ctx is done or the algorithm's own stopping
	// condition is met, and returns the best sequence found.
	Run(ctx context.Context, target isa.Sequence, cfg Config) Result
}

// Config is the common input every strategy needs alongside the target
// passed to Run: the cost metric it is optimized against, the live-out
// mask, the equivalence-checking configuration used to validate
// candidates, and the operand pools.
type Config struct {
	Metric  cost.Metric
	LiveOut isa.LiveOutMask
	Equiv   equiv.Config
	// Registers is the operand pool; empty defaults to
	// DefaultRegisters(target).
	Registers []isa.Register
	// Immediates is the operand pool; empty defaults to
	// DefaultImmediates(target).
	Immediates []int64
}

// Result is what every strategy returns: the best sequence found (which
// may just be the original target, unimproved), its cost, and search
// statistics for logging/reporting.
type Result struct {
	Best     isa.Sequence
	BestCost uint64
	Stats    Statistics
	// Equivalent reports whether Best was verified equivalent to target.
	// It is true only when Outcome == equiv.Equivalent.
	Equivalent bool
	// Outcome is the equivalence-check outcome backing Equivalent. A
	// caller that needs to distinguish a solver-backed proof from a
	// random-testing-only result should inspect this alongside
	// FastOnly rather than trusting Equivalent in isolation.
	Outcome equiv.Outcome
	// FastOnly reports whether Outcome was established without ever
	// consulting a decision procedure (spec.md §4.4 fast-only mode) —
	// true means "no counterexample found among the sampled inputs",
	// not a proof.
	FastOnly bool
}

// Statistics accumulates counters a caller can log (spec.md §5: workers
// report these so the coordinator and CLI can show progress).
type Statistics struct {
	CandidatesTried   int
	EquivalenceChecks int
	Elapsed           time.Duration
}

// DefaultRegisters returns target's default register pool: the
// registers target mentions, plus XZR (spec.md §4.6: "R defaults to the
// registers mentioned by the original sequence, plus XZR").
func DefaultRegisters(target isa.Sequence) []isa.Register {
	return append(target.Registers(), isa.XZR)
}

// DefaultImmediates returns target's default immediate pool: the
// immediates target mentions, plus {0, 1} (spec.md §4.6: "I defaults to
// the immediates appearing in the original plus {0, 1}").
func DefaultImmediates(target isa.Sequence) []int64 {
	out := target.Immediates()
	seen := make(map[int64]struct{}, len(out)+2)
	for _, v := range out {
		seen[v] = struct{}{}
	}
	for _, extra := range [2]int64{0, 1} {
		if _, ok := seen[extra]; !ok {
			out = append(out, extra)
			seen[extra] = struct{}{}
		}
	}
	return out
}
