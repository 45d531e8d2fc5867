package enumerative_test

import (
	"context"
	"testing"

	"github.com/gostoke/gostoke/equiv"
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/isa/cost"
	"github.com/gostoke/gostoke/search"
	"github.com/gostoke/gostoke/search/enumerative"
)

func TestRun_FindsCheaperEquivalent(t *testing.T) {
	// x0 = x1 + 0 is equivalent to, and cheaper in instruction count
	// than, this two-instruction original: the search should find a
	// one-instruction MovReg replacement.
	target := isa.Sequence{
		isa.MovReg(isa.X0, isa.X1),
		isa.Add(isa.X0, isa.X0, isa.Imm(0)),
	}

	cfg := search.Config{
		Metric:  cost.InstructionCount,
		LiveOut: isa.NewLiveOutMask(isa.X0),
		Equiv: equiv.Config{
			FastOnly: true,
			Rand:     equiv.NewMixedGenerator(1),
		},
		Registers:  []isa.Register{isa.X0, isa.X1},
		Immediates: []int64{0},
	}

	alg := &enumerative.Algorithm{MaxLength: 1}
	result := alg.Run(context.Background(), target, cfg)

	if result.BestCost >= cost.Sequence(target, cost.InstructionCount) {
		t.Fatalf("expected a cheaper result, got cost %d for %v", result.BestCost, result.Best)
	}
	if len(result.Best) != 1 {
		t.Fatalf("expected a 1-instruction replacement, got %v", result.Best)
	}
}

func TestRun_RespectsContextCancellation(t *testing.T) {
	target := isa.Sequence{isa.Add(isa.X0, isa.X1, isa.Imm(1))}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := search.Config{
		Metric: cost.InstructionCount,
		Equiv:  equiv.Config{FastOnly: true, Rand: equiv.NewMixedGenerator(1)},
	}
	alg := &enumerative.Algorithm{MaxLength: 2}
	result := alg.Run(ctx, target, cfg)

	if len(result.Best) != 1 || result.Best[0] != target[0] {
		t.Fatalf("cancelled search should return the original target, got %v", result.Best)
	}
}
