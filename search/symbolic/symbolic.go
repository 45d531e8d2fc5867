// Package symbolic implements cost-bounded symbolic synthesis
// (spec.md §4.8): templates (opcode/register skeletons with immediate
// operands left as holes) are enumerated one length bound at a time, in
// the order SearchMode gives, and for each template the decision procedure is asked to
// synthesize immediate values that make the template equivalent to the
// target, via counterexample-guided inductive synthesis (CEGIS) so the
// search never has to brute-force the full immediate domain.
package symbolic

import (
	"context"
	"strconv"
	"time"

	"github.com/gostoke/gostoke/concrete"
	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
	symb "github.com/gostoke/gostoke/symbolic"
)

// SearchMode selects how Algorithm walks the cost-bound space.
type SearchMode uint8

const (
	// Linear tries bound = 1, 2, 3, ... up to MaxBound, stopping at the
	// first bound with a verified synthesis.
	Linear SearchMode = iota
	// Binary visits the bounds in [1, MaxBound] in bisection order
	// (midpoint first, then the lower half, then the upper half) and
	// stops at the first bound in that order with a verified synthesis.
	// Smaller bounds later in the order are not tried once one succeeds,
	// so the result is not necessarily at the smallest succeeding bound.
	Binary
)

// Decider is what the SMT layer provides: Solve returns satisfiability
// and a model over the constraints' free variables. search/symbolic only
// depends on this interface, not on cgo, so it stays test-friendly; wire
// smt/z3.Solver in from cmd/gostoke.
type Decider interface {
	Solve(constraints []symb.Expr) (sat bool, model map[string]uint64, err error)
}

// Config configures the symbolic search.
type Config struct {
	Mode SearchMode
	// MaxBound is the largest candidate length, in instructions, the
	// search will try before giving up.
	MaxBound int
	// TemplateTimeout bounds how long CEGIS spends per template before
	// moving to the next one. It is checked before each refinement
	// round, so a Decider call already in progress is not interrupted.
	// Zero means no limit.
	TemplateTimeout time.Duration
	// MaxCounterexamples bounds the CEGIS refinement loop per template.
	MaxCounterexamples int
	Decider            Decider
}

// Algorithm is the symbolic search strategy.
type Algorithm struct {
	Config Config
}

var _ search.Algorithm = (*Algorithm)(nil)

// Run implements search.Algorithm.
func (a *Algorithm) Run(ctx context.Context, target isa.Sequence, cfg search.Config) search.Result {
	start := time.Now()
	c := a.Config
	if c.MaxBound <= 0 {
		c.MaxBound = len(target)
	}
	if c.MaxCounterexamples <= 0 {
		c.MaxCounterexamples = 8
	}

	regs := cfg.Registers
	if len(regs) == 0 {
		regs = search.DefaultRegisters(target)
	}

	stats := search.Statistics{}
	mask := cfg.LiveOut
	if mask.Empty() {
		mask = isa.NewLiveOutMask(target.Registers()...)
	}

	bounds := searchOrder(c.Mode, c.MaxBound)
	for _, bound := range bounds {
		select {
		case <-ctx.Done():
			return finish(target, cfg.Metric, stats, start, false)
		default:
		}

		for tmpl := range templates(regs, bound) {
			stats.CandidatesTried++
			candidate, ok := a.synthesize(tmpl, target, mask, regs, c)
			if !ok {
				continue
			}

			stats.EquivalenceChecks++
			result := equiv.Check(target, candidate, cfg.Equiv)
			if result.Outcome == equiv.Equivalent {
				return search.Result{
					Best:       candidate,
					BestCost:   cost.Sequence(candidate, cfg.Metric),
					Stats:      withElapsed(stats, start),
					Equivalent: true,
					Outcome:    result.Outcome,
					FastOnly:   cfg.Equiv.FastOnly,
				}
			}
		}
	}

	return finish(target, cfg.Metric, stats, start, true)
}

func finish(target isa.Sequence, metric cost.Metric, stats search.Statistics, start time.Time, equivalentToItself bool) search.Result {
	outcome := equiv.Unknown
	if equivalentToItself {
		outcome = equiv.Equivalent // target trivially equals itself
	}
	return search.Result{
		Best:       target,
		BestCost:   cost.Sequence(target, metric),
		Stats:      withElapsed(stats, start),
		Equivalent: equivalentToItself,
		Outcome:    outcome,
	}
}

func withElapsed(stats search.Statistics, start time.Time) search.Statistics {
	stats.Elapsed = time.Since(start)
	return stats
}

// searchOrder returns the sequence of bounds Run tries, in the order
// determined by mode.
func searchOrder(mode SearchMode, maxBound int) []int {
	if mode == Linear {
		bounds := make([]int, maxBound)
		for i := range bounds {
			bounds[i] = i + 1
		}
		return bounds
	}

	// Binary: visit bounds in a bisection order over [1, maxBound] so a
	// caller who stops the search early (context deadline) has sampled
	// across the whole range rather than only the smallest bounds.
	var order []int
	seen := make(map[int]bool)
	var bisect func(lo, hi int)
	bisect = func(lo, hi int) {
		if lo > hi {
			return
		}
		mid := (lo + hi) / 2
		if !seen[mid] {
			seen[mid] = true
			order = append(order, mid)
		}
		bisect(lo, mid-1)
		bisect(mid+1, hi)
	}
	bisect(1, maxBound)
	return order
}

// synthesize runs CEGIS for one template: it holds register slots fixed
// (per tmpl) and searches for an assignment of tmpl's immediate holes
// using the decision procedure, refining against counterexamples the
// concrete interpreter finds until either a verified candidate emerges
// or MaxCounterexamples is exhausted.
func (a *Algorithm) synthesize(tmpl template, target isa.Sequence, mask isa.LiveOutMask, regs []isa.Register, c Config) (isa.Sequence, bool) {
	var tests []map[isa.Register]uint64
	gen := equiv.NewMixedGenerator(int64(len(tmpl.instructions)))
	var deadline time.Time
	if c.TemplateTimeout > 0 {
		deadline = time.Now().Add(c.TemplateTimeout)
	}

	for round := 0; round < c.MaxCounterexamples; round++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, false
		}
		if len(tests) == 0 {
			tests = append(tests, gen.Next(regs))
		}

		immValues, ok := a.solveImmediates(tmpl, target, tests)
		if !ok {
			return nil, false
		}
		candidate := tmpl.instantiate(immValues)
		if candidate == nil {
			return nil, false
		}

		cx, matched := firstMismatch(target, candidate, mask, tests)
		if matched {
			return candidate, true
		}
		tests = append(tests, cx)
	}
	return nil, false
}

// solveImmediates asks the decision procedure for immediate values
// making tmpl agree with target on every input in tests — the
// quantifier-free inner loop of CEGIS.
func (a *Algorithm) solveImmediates(tmpl template, target isa.Sequence, tests []map[isa.Register]uint64) (map[string]uint64, bool) {
	if len(tmpl.holes) == 0 {
		// Nothing to synthesize: the template is already concrete.
		return map[string]uint64{}, true
	}
	if a.Config.Decider == nil {
		return nil, false
	}

	var constraints []symb.Expr
	for i, input := range tests {
		initial := symb.NewFreshState(holeInputPrefix(i))
		for r, v := range input {
			initial = initial.Set(r, symb.NewConst(v))
		}

		candidateOut := tmpl.translateSymbolic(initial)
		targetOut := symb.TranslateSequence(initial, target)

		for _, r := range tmpl.liveOut(target) {
			constraints = append(constraints, symb.NewBinary(symb.EQ, candidateOut.Get(r), targetOut.Get(r)))
		}
	}

	sat, model, err := a.Config.Decider.Solve(constraints)
	if err != nil || !sat {
		return nil, false
	}
	return model, true
}

func holeInputPrefix(i int) string {
	return "test" + strconv.Itoa(i) + "_"
}

func firstMismatch(target, candidate isa.Sequence, mask isa.LiveOutMask, tests []map[isa.Register]uint64) (map[isa.Register]uint64, bool) {
	for _, input := range tests {
		s := concrete.NewStateFromValues(input)
		outTarget := concrete.ExecuteSequence(s, target)
		outCandidate := concrete.ExecuteSequence(s, candidate)
		if !outTarget.EqualOn(outCandidate, mask) {
			return input, false
		}
	}
	return nil, true
}
