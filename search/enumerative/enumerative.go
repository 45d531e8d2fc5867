// Package enumerative implements exhaustive search (spec.md §4.6):
// candidates are enumerated over a fixed operand pool, pruning any
// candidate no cheaper than the best equivalent found so far and
// keeping a running minimum, since the odometer visiting order is not
// itself guaranteed to be non-decreasing cost order once multi-
// instruction sequences are involved.
package enumerative

import (
	"context"
	"time"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
)

// Algorithm is the enumerative search strategy.
type Algorithm struct {
	// MaxLength bounds how many instructions a candidate sequence may
	// have; enumeration stops without improvement if exhausted.
	MaxLength int
}

var _ search.Algorithm = (*Algorithm)(nil)

// Run implements search.Algorithm.
func (a *Algorithm) Run(ctx context.Context, target isa.Sequence, cfg search.Config) search.Result {
	start := time.Now()
	best := target
	bestCost := cost.Sequence(target, cfg.Metric)
	stats := search.Statistics{}

	regs := cfg.Registers
	if len(regs) == 0 {
		regs = search.DefaultRegisters(target)
	}
	imms := cfg.Immediates
	if len(imms) == 0 {
		imms = search.DefaultImmediates(target)
	}

	maxLen := a.MaxLength
	if maxLen <= 0 {
		maxLen = len(target)
	}

	gen := newGenerator(regs, imms, cfg.LiveOut.Registers(), cfg.Metric)

	for length := 1; length <= maxLen; length++ {
		for candidate := range gen.sequences(length) {
			select {
			case <-ctx.Done():
				stats.Elapsed = time.Since(start)
				return search.Result{Best: best, BestCost: bestCost, Stats: stats, Equivalent: true, Outcome: equiv.Equivalent, FastOnly: cfg.Equiv.FastOnly}
			default:
			}

			candidateCost := cost.Sequence(candidate, cfg.Metric)
			if candidateCost >= bestCost {
				continue // already worse than (or tied with) the best found so far
			}

			stats.CandidatesTried++
			stats.EquivalenceChecks++
			result := equiv.Check(target, candidate, cfg.Equiv)
			if result.Outcome == equiv.Equivalent {
				// Keep the running minimum rather than returning on the
				// first match: the alphabet is cost-sorted but odometer
				// order over it does not guarantee whole-sequence cost
				// order once length > 1, so a cheaper candidate may still
				// appear later in this or a later length tier.
				best, bestCost = candidate.Clone(), candidateCost
			}
		}
	}

	stats.Elapsed = time.Since(start)
	return search.Result{Best: best, BestCost: bestCost, Stats: stats, Equivalent: true, Outcome: equiv.Equivalent, FastOnly: cfg.Equiv.FastOnly}
}
