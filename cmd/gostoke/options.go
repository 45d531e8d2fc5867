package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/search/symbolic"
)

// options mirrors the configuration table: every knob a caller can set
// to steer the search, independent of which strategy ends up running.
type options struct {
	algorithm     string
	costMetric    string
	liveOut       []string
	workers       int
	timeout       time.Duration
	solverTimeout time.Duration
	iterations    int
	beta          float64
	seed          int64
	searchMode    string
	fastOnly      bool
	noSymbolic    bool
	testPanelSize int
}

func newOptions() *options {
	return &options{
		algorithm:     "enumerative",
		costMetric:    "instruction_count",
		workers:       0, // 0 means runtime.NumCPU(), resolved by search/parallel
		timeout:       30 * time.Second,
		solverTimeout: 5 * time.Second,
		iterations:    10000,
		beta:          1.0,
		seed:          1,
		searchMode:    "linear",
		testPanelSize: equiv.DefaultRandomTests,
	}
}

func (o *options) registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.algorithm, "algorithm", o.algorithm, "search strategy: enumerative, stochastic, symbolic, hybrid")
	fs.StringVar(&o.costMetric, "cost-metric", o.costMetric, "cost model: instruction_count, latency, code_size")
	fs.StringSliceVar(&o.liveOut, "live-out", nil, "comma-separated registers whose final value is observed (default: every register either sequence reads or writes)")
	fs.IntVar(&o.workers, "workers", o.workers, "worker pool size for the hybrid strategy (0 = number of CPUs)")
	fs.DurationVar(&o.timeout, "timeout", o.timeout, "overall search budget")
	fs.DurationVar(&o.solverTimeout, "solver-timeout", o.solverTimeout, "per-query SMT solver budget")
	fs.IntVar(&o.iterations, "iterations", o.iterations, "proposal budget for the stochastic strategy")
	fs.Float64Var(&o.beta, "beta", o.beta, "inverse temperature for the stochastic strategy's acceptance rule")
	fs.Int64Var(&o.seed, "seed", o.seed, "random seed for random testing and the stochastic strategy")
	fs.StringVar(&o.searchMode, "search-mode", o.searchMode, "symbolic cost-bound walk: linear or binary")
	fs.BoolVar(&o.fastOnly, "fast-only", o.fastOnly, "skip the SMT decision procedure; only random-test candidates")
	fs.BoolVar(&o.noSymbolic, "no-symbolic", o.noSymbolic, "exclude the symbolic worker from the hybrid strategy")
	fs.IntVar(&o.testPanelSize, "test-panel-size", o.testPanelSize, "number of random inputs tried before the SMT phase")
}

func parseSearchMode(s string) (symbolic.SearchMode, error) {
	switch s {
	case "linear", "":
		return symbolic.Linear, nil
	case "binary":
		return symbolic.Binary, nil
	default:
		return 0, fmt.Errorf("gostoke: unknown search mode %q", s)
	}
}
