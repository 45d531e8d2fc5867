// Package stochastic implements Metropolis-Hastings MCMC search
// (spec.md §4.7): candidates are proposed by randomly mutating the
// current sequence, then accepted or rejected according to an energy
// function that trades off correctness against performance. The inverse
// temperature Beta stays fixed for the whole run; there is no annealing
// schedule.
package stochastic

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
)

// Mutation kind probabilities (spec.md §4.7): opcode/operand mutation
// dominates since it explores the cost landscape without changing
// sequence shape; swap and whole-instruction replacement are rarer,
// larger jumps that help escape local minima.
const (
	probOpcode      = 0.50
	probOperand     = 0.18
	probSwap        = 0.16
	probInstruction = 0.16
)

// Config configures the MCMC walk. Zero values take the spec defaults.
type Config struct {
	// Beta is the inverse temperature scaling acceptance probability;
	// spec default is 1.0.
	Beta float64
	// Iterations bounds how many proposals the walk considers.
	Iterations int
	// Length is the fixed length of the candidate sequence the walk
	// searches over.
	Length int
	// PerformanceWeight weights the cost term of the energy function
	// once a candidate matches on all test inputs (spec.md §4.7 design
	// note: w_p stays 0 until mismatch reaches 0, so the walk optimizes
	// correctness first, performance second). Zero defaults to 1.0.
	PerformanceWeight float64
	Seed              int64
}

// Algorithm is the stochastic search strategy.
type Algorithm struct {
	Config Config
}

var _ search.Algorithm = (*Algorithm)(nil)

// Run implements search.Algorithm.
func (a *Algorithm) Run(ctx context.Context, target isa.Sequence, cfg search.Config) search.Result {
	start := time.Now()
	c := a.Config
	if c.Beta <= 0 {
		c.Beta = 1.0
	}
	if c.Iterations <= 0 {
		c.Iterations = 10000
	}
	if c.Length <= 0 {
		c.Length = len(target)
	}
	if c.PerformanceWeight <= 0 {
		c.PerformanceWeight = 1.0
	}

	regs := cfg.Registers
	if len(regs) == 0 {
		regs = search.DefaultRegisters(target)
	}
	imms := cfg.Immediates
	if len(imms) == 0 {
		imms = search.DefaultImmediates(target)
	}

	rnd := rand.New(rand.NewSource(c.Seed))
	mutator := &mutator{regs: regs, imms: imms, rnd: rnd}

	current := seedSequence(target, c.Length, mutator)
	currentEnergy, currentMismatch := energy(target, current, cfg, c.PerformanceWeight)

	best := current.Clone()
	bestCost := cost.Sequence(current, cfg.Metric)
	bestMismatch := currentMismatch

	stats := search.Statistics{}

	for i := 0; i < c.Iterations; i++ {
		select {
		case <-ctx.Done():
			return finish(target, best, bestCost, bestMismatch, cfg, stats, start)
		default:
		}

		candidate := mutator.propose(current)
		stats.CandidatesTried++
		candidateEnergy, candidateMismatch := energy(target, candidate, cfg, c.PerformanceWeight)
		stats.EquivalenceChecks++

		if accept(currentEnergy, candidateEnergy, c.Beta, rnd) {
			current, currentEnergy, currentMismatch = candidate, candidateEnergy, candidateMismatch
		}

		candidateCost := cost.Sequence(candidate, cfg.Metric)
		if candidateMismatch == 0 && (bestMismatch != 0 || candidateCost < bestCost) {
			best, bestCost, bestMismatch = candidate.Clone(), candidateCost, candidateMismatch
		}
	}

	return finish(target, best, bestCost, bestMismatch, cfg, stats, start)
}

// finish builds the walk's final Result. A zero-mismatch best only
// passed phase-1 random testing during the walk (energy always runs
// FastOnly, to stay cheap inside the hot loop) — before reporting it as
// an improvement, spec.md §4.7/§4.9 require running it through the
// caller's actual equivalence checker (cfg.Equiv, with whatever
// Solver/FastOnly the caller configured) exactly once here.
func finish(target, best isa.Sequence, bestCost uint64, bestMismatch int, cfg search.Config, stats search.Statistics, start time.Time) search.Result {
	stats.Elapsed = time.Since(start)
	if bestMismatch != 0 {
		return search.Result{Best: best, BestCost: bestCost, Stats: stats, Equivalent: false, Outcome: equiv.NotEquivalent}
	}

	stats.EquivalenceChecks++
	verifyCfg := cfg.Equiv
	verifyCfg.RandomTests = testRuns(cfg)
	verifyCfg.Rand = equivRand(cfg)
	verified := equiv.Check(target, best, verifyCfg)
	return search.Result{
		Best:       best,
		BestCost:   bestCost,
		Stats:      stats,
		Equivalent: verified.Outcome == equiv.Equivalent,
		Outcome:    verified.Outcome,
		FastOnly:   verifyCfg.FastOnly,
	}
}

// energy combines a correctness term (how many random tests mismatch)
// with a performance term (candidate cost), weighted so correctness
// dominates until a candidate is fully correct (spec.md §4.7).
func energy(target, candidate isa.Sequence, cfg search.Config, perfWeight float64) (e float64, mismatches int) {
	rnd := equivRand(cfg)
	for i := 0; i < testRuns(cfg); i++ {
		result := equiv.Check(target, candidate, equiv.Config{
			FastOnly:    true,
			RandomTests: 1,
			LiveOut:     cfg.LiveOut,
			Rand:        rnd,
		})
		if result.Outcome != equiv.Equivalent {
			mismatches++
		}
	}

	correctnessTerm := float64(mismatches)
	performanceTerm := 0.0
	if mismatches == 0 {
		performanceTerm = perfWeight * float64(cost.Sequence(candidate, cfg.Metric))
	}
	return correctnessTerm + performanceTerm, mismatches
}

func testRuns(cfg search.Config) int {
	if cfg.Equiv.RandomTests > 0 {
		return cfg.Equiv.RandomTests
	}
	return equiv.DefaultRandomTests
}

func equivRand(cfg search.Config) equiv.InputGenerator {
	if cfg.Equiv.Rand != nil {
		return cfg.Equiv.Rand
	}
	return equiv.NewMixedGenerator(0)
}

// accept implements the Metropolis acceptance rule: always accept an
// improvement, otherwise accept with probability exp(-beta * delta).
func accept(currentEnergy, candidateEnergy, beta float64, rnd *rand.Rand) bool {
	if candidateEnergy <= currentEnergy {
		return true
	}
	p := math.Exp(-beta * (candidateEnergy - currentEnergy))
	return rnd.Float64() < p
}

func seedSequence(target isa.Sequence, length int, m *mutator) isa.Sequence {
	seq := make(isa.Sequence, length)
	for i := range seq {
		if i < len(target) {
			seq[i] = target[i]
		} else {
			seq[i] = m.randomInstruction()
		}
	}
	return seq
}
