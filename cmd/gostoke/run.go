package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gostoke/gostoke/asmdec"
	"github.com/gostoke/gostoke/asmtext"
	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
	"github.com/gostoke/gostoke/search/enumerative"
	"github.com/gostoke/gostoke/search/parallel"
	"github.com/gostoke/gostoke/search/stochastic"
	"github.com/gostoke/gostoke/search/symbolic"
	"github.com/gostoke/gostoke/smt/z3"

	// asmenc's init() registers it as the pruning oracle isa.IsEncodable
	// consults; every search strategy needs real encodability checks to
	// avoid proposing unemittable candidates.
	_ "github.com/gostoke/gostoke/asmenc"
)

func runOptimize(ctx context.Context, path string, opts *options, out io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gostoke: %w", err)
	}

	target, err := asmtext.Parse(string(src))
	if err != nil {
		return fmt.Errorf("gostoke: %w", err)
	}
	if len(target) == 0 {
		return fmt.Errorf("gostoke: %s contains no instructions", path)
	}

	metric, err := cost.ParseMetric(opts.costMetric)
	if err != nil {
		return fmt.Errorf("gostoke: %w", err)
	}
	liveOut, err := parseLiveOut(opts.liveOut)
	if err != nil {
		return fmt.Errorf("gostoke: %w", err)
	}

	solver := z3.NewSolver(opts.solverTimeout)
	equivCfg := equiv.Config{
		RandomTests: opts.testPanelSize,
		FastOnly:    opts.fastOnly,
		LiveOut:     liveOut,
		Rand:        equiv.NewMixedGenerator(opts.seed),
		Solver:      &z3.EquivChecker{Solver: solver},
	}
	searchCfg := search.Config{Metric: metric, LiveOut: liveOut, Equiv: equivCfg}

	algo, err := buildAlgorithm(opts, target, solver)
	if err != nil {
		return fmt.Errorf("gostoke: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	result := algo.Run(runCtx, target, searchCfg)
	writeReport(out, target, result, metric)
	return nil
}

func buildAlgorithm(opts *options, target isa.Sequence, solver *z3.Solver) (search.Algorithm, error) {
	mode, err := parseSearchMode(opts.searchMode)
	if err != nil {
		return nil, err
	}

	switch opts.algorithm {
	case "enumerative":
		return &enumerative.Algorithm{MaxLength: len(target)}, nil
	case "stochastic":
		return &stochastic.Algorithm{Config: stochastic.Config{
			Beta:       opts.beta,
			Iterations: opts.iterations,
			Length:     len(target),
			Seed:       opts.seed,
		}}, nil
	case "symbolic":
		return &symbolic.Algorithm{Config: symbolic.Config{
			Mode:     mode,
			MaxBound: len(target),
			Decider:  &solverDecider{solver},
		}}, nil
	case "hybrid":
		return &parallel.Algorithm{Config: parallel.Config{
			Workers:         opts.workers,
			Seed:            opts.seed,
			ExcludeSymbolic: opts.noSymbolic,
			Stochastic: stochastic.Config{
				Beta:       opts.beta,
				Iterations: opts.iterations,
				Length:     len(target),
			},
			Symbolic: symbolic.Config{
				Mode:     mode,
				MaxBound: len(target),
				Decider:  &solverDecider{solver},
			},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", opts.algorithm)
	}
}

func parseLiveOut(tokens []string) (isa.LiveOutMask, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	regs := make([]isa.Register, 0, len(tokens))
	for _, t := range tokens {
		r, ok := asmdec.ParseRegister(t)
		if !ok {
			return nil, fmt.Errorf("invalid live-out register %q", t)
		}
		regs = append(regs, r)
	}
	return isa.NewLiveOutMask(regs...), nil
}

func writeReport(out io.Writer, original isa.Sequence, result search.Result, metric cost.Metric) {
	fmt.Fprintln(out, "original:")
	fmt.Fprint(out, indent(original.String()))

	fmt.Fprintln(out, "best:")
	fmt.Fprint(out, indent(result.Best.String()))

	fmt.Fprintf(out, "cost (%s): %d\n", metric, result.BestCost)
	fmt.Fprintf(out, "verification: %s\n", verificationStatus(result))
	fmt.Fprintf(out, "candidates tried: %d, equivalence checks: %d, elapsed: %s\n",
		result.Stats.CandidatesTried, result.Stats.EquivalenceChecks, result.Stats.Elapsed.Round(time.Millisecond))
}

// verificationStatus reports how much confidence backs result.Best:
// "equivalent" only when a decision procedure actually proved it,
// "tests_only" when it passed random testing under FastOnly without a
// solver ever running, "unknown" when the solver ran but couldn't
// decide, and "not_equivalent" otherwise — the FastOnly/Unknown cases
// must never be reported as "equivalent", since neither is a proof.
func verificationStatus(result search.Result) string {
	switch result.Outcome {
	case equiv.Equivalent:
		if result.FastOnly {
			return "tests_only"
		}
		return "equivalent"
	case equiv.Unknown:
		return "unknown"
	default:
		return "not_equivalent"
	}
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
