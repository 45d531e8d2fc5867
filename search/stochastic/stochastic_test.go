package stochastic_test

import (
	"context"
	"testing"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
	"github.com/gostoke/gostoke/search/stochastic"
)

func TestRun_FindsEquivalentSequence(t *testing.T) {
	target := isa.Sequence{isa.Add(isa.X0, isa.X1, isa.Imm(1))}

	alg := &stochastic.Algorithm{Config: stochastic.Config{
		Iterations: 2000,
		Length:     1,
		Seed:       42,
	}}
	cfg := search.Config{
		Metric:     cost.InstructionCount,
		LiveOut:    isa.NewLiveOutMask(isa.X0),
		Registers:  []isa.Register{isa.X0, isa.X1},
		Immediates: []int64{1},
		Equiv: equiv.Config{
			FastOnly: true,
			Rand:     equiv.NewMixedGenerator(7),
		},
	}

	result := alg.Run(context.Background(), target, cfg)
	if !result.Equivalent {
		t.Fatalf("expected the walk to converge to an equivalent sequence, got %v", result.Best)
	}
}

// fakeSolver stands in for smt/z3.EquivChecker so the walk's final
// verification step can be exercised without an SMT dependency.
type fakeSolver struct {
	unknown bool
}

func (f *fakeSolver) CheckEquivalent(regs []isa.Register, lhs, rhs isa.Sequence, mask isa.LiveOutMask) (bool, map[isa.Register]uint64, bool, error) {
	return !f.unknown, nil, f.unknown, nil
}

func TestRun_FinalVerificationConsultsConfiguredSolver(t *testing.T) {
	target := isa.Sequence{isa.Add(isa.X0, isa.X1, isa.Imm(1))}

	alg := &stochastic.Algorithm{Config: stochastic.Config{
		Iterations: 500,
		Length:     1,
		Seed:       42,
	}}
	cfg := search.Config{
		Metric:     cost.InstructionCount,
		LiveOut:    isa.NewLiveOutMask(isa.X0),
		Registers:  []isa.Register{isa.X0, isa.X1},
		Immediates: []int64{1},
		Equiv: equiv.Config{
			Rand:   equiv.NewMixedGenerator(7),
			Solver: &fakeSolver{unknown: true},
		},
	}

	result := alg.Run(context.Background(), target, cfg)
	if result.Equivalent {
		t.Fatal("a solver-Unknown verification must not be reported as Equivalent")
	}
	if result.Outcome != equiv.Unknown {
		t.Fatalf("Outcome = %v, want Unknown (the fake solver was actually consulted)", result.Outcome)
	}
}

func TestRun_RespectsContextCancellation(t *testing.T) {
	target := isa.Sequence{isa.Add(isa.X0, isa.X1, isa.Imm(1))}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	alg := &stochastic.Algorithm{Config: stochastic.Config{Iterations: 1000, Length: 1}}
	cfg := search.Config{
		Metric: cost.InstructionCount,
		Equiv:  equiv.Config{FastOnly: true, Rand: equiv.NewMixedGenerator(1)},
	}

	result := alg.Run(ctx, target, cfg)
	if result.Stats.CandidatesTried != 0 {
		t.Errorf("cancelled-before-first-iteration walk tried %d candidates, want 0", result.Stats.CandidatesTried)
	}
}
