// Package parallel implements the coordinator search strategy (spec.md
// §4.9): a pool of workers running the symbolic and stochastic
// strategies concurrently against the same target, sharing one
// best-so-far record. The default mix is hybrid — one symbolic worker
// plus stochastic workers filling the rest of the pool — mirroring
// STOKE-family superoptimizers, which lean on stochastic search for
// breadth and symbolic synthesis for the final, provably-minimal polish.
package parallel

import (
	"context"
	"io"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
	"github.com/gostoke/gostoke/search/stochastic"
	symbolicsearch "github.com/gostoke/gostoke/search/symbolic"
)

// defaultRestartProbability is the chance a stochastic worker whose walk
// has finished restarts from a fresh random seed rather than stopping
// for good (spec.md §4.9).
const defaultRestartProbability = 0.25

// Config configures the coordinator.
type Config struct {
	// Workers is the total pool size; default runtime.NumCPU().
	Workers int
	// RestartProbability is the chance a stochastic worker whose walk has
	// finished restarts instead of giving up; default 0.25.
	RestartProbability float64
	// MaxRestarts bounds how many times any one stochastic worker slot
	// restarts, so a run with an unreachable target still terminates.
	MaxRestarts int
	Stochastic  stochastic.Config
	Symbolic    symbolicsearch.Config
	Seed        int64
	// ExcludeSymbolic drops the one reserved symbolic slot, making every
	// worker stochastic; useful when no SMT solver is configured.
	ExcludeSymbolic bool
	// Log receives progress messages; nil defaults to a discard logger.
	Log *logrus.Entry
}

// discardLog is the zero-configuration logger core packages fall back
// to, so passing no Config.Log costs nothing.
var discardLog = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}()

// Algorithm is the parallel coordinator.
type Algorithm struct {
	Config Config
}

var _ search.Algorithm = (*Algorithm)(nil)

// record is the shared best-so-far state, guarded by a mutex; workers
// report into it and read it back to decide whether their own find is
// worth keeping.
type record struct {
	mu     sync.Mutex
	result search.Result
}

func newRecord(target isa.Sequence, metric cost.Metric) *record {
	return &record{
		result: search.Result{
			Best:       target,
			BestCost:   cost.Sequence(target, metric),
			Equivalent: true,
			Outcome:    equiv.Equivalent, // target trivially equals itself
		},
	}
}

// offer reports a candidate result; it is adopted iff it is verified
// equivalent and strictly cheaper than whatever is currently recorded.
// It trusts candidate.Equivalent/Outcome at face value: every strategy
// in this package (enumerative, stochastic, symbolic) only sets
// Equivalent true after running the candidate through cfg.Equiv's
// actual Solver/FastOnly settings, not an internally hardcoded
// fast-only check, so there is no weaker verification to re-run here.
func (r *record) offer(candidate search.Result) (accepted bool) {
	if !candidate.Equivalent || candidate.Outcome != equiv.Equivalent {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if candidate.BestCost >= r.result.BestCost {
		return false
	}
	r.result = candidate
	return true
}

func (r *record) snapshot() search.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// worker identifies one pool slot for logging/reporting, grounded on
// the gosafe.WorkerManager idiom of a uuid-keyed registry of running
// tasks — here used to track per-worker statistics rather than to
// support cancellation, since ctx already does that.
type worker struct {
	id    string
	label string
}

// Run implements search.Algorithm. It fans out Config.Workers workers —
// one symbolic, the rest stochastic by default — against target, merges
// whichever of their results are strictly improving into a shared
// record, and returns that record's contents once every worker has
// stopped (by exhausting its own budget or by ctx being done).
func (a *Algorithm) Run(ctx context.Context, target isa.Sequence, cfg search.Config) search.Result {
	start := time.Now()
	c := a.Config
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.RestartProbability <= 0 {
		c.RestartProbability = defaultRestartProbability
	}
	if c.MaxRestarts <= 0 {
		c.MaxRestarts = 32
	}
	log := c.Log
	if log == nil {
		log = discardLog
	}

	rec := newRecord(target, cfg.Metric)
	workers := a.spawnRoster(c)
	log.WithField("workers", len(workers)).Info("[coordinator] starting pool")

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	total := search.Statistics{}

	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			stats := a.runWorker(gctx, i, w, target, cfg, rec, c, log)
			mu.Lock()
			total.CandidatesTried += stats.CandidatesTried
			total.EquivalenceChecks += stats.EquivalenceChecks
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	best := rec.snapshot()
	total.Elapsed = time.Since(start)
	best.Stats = total
	log.WithField("cost", best.BestCost).Info("[coordinator] pool finished")
	return best
}

// spawnRoster assigns each pool slot a uuid and a strategy label, one
// symbolic worker and the rest stochastic (spec.md §4.9's hybrid mix).
func (a *Algorithm) spawnRoster(c Config) []worker {
	roster := make([]worker, c.Workers)
	for i := range roster {
		label := "stochastic"
		if i == 0 && !c.ExcludeSymbolic {
			label = "symbolic"
		}
		roster[i] = worker{id: uuid.NewString(), label: label}
	}
	return roster
}

// runWorker drives one pool slot until ctx is done or (for stochastic
// slots) its restart budget is exhausted, feeding every completed run
// into rec.
func (a *Algorithm) runWorker(ctx context.Context, slot int, w worker, target isa.Sequence, cfg search.Config, rec *record, c Config, log *logrus.Entry) search.Statistics {
	rnd := rand.New(rand.NewSource(c.Seed + int64(slot)))
	stats := search.Statistics{}
	wlog := log.WithFields(logrus.Fields{"worker": w.id, "label": w.label})

	if w.label == "symbolic" {
		symCfg := c.Symbolic
		alg := &symbolicsearch.Algorithm{Config: symCfg}
		result := alg.Run(ctx, target, cfg)
		stats.CandidatesTried += result.Stats.CandidatesTried
		stats.EquivalenceChecks += result.Stats.EquivalenceChecks
		if rec.offer(result) {
			wlog.WithField("cost", result.BestCost).Info("[worker] improved best")
		}
		return stats
	}

	for restarts := 0; ; restarts++ {
		select {
		case <-ctx.Done():
			return stats
		default:
		}

		stoCfg := c.Stochastic
		stoCfg.Seed = rnd.Int63()
		alg := &stochastic.Algorithm{Config: stoCfg}
		result := alg.Run(ctx, target, cfg)
		stats.CandidatesTried += result.Stats.CandidatesTried
		stats.EquivalenceChecks += result.Stats.EquivalenceChecks
		if rec.offer(result) {
			wlog.WithFields(logrus.Fields{"cost": result.BestCost, "restarts": restarts}).Info("[worker] improved best")
		}

		if restarts >= c.MaxRestarts || rnd.Float64() >= c.RestartProbability {
			wlog.WithField("restarts", restarts).Debug("[worker] stopping")
			return stats
		}
	}
}
