package equiv

import (
	"math/rand"

	"github.com/gostoke/gostoke/isa"
)

// MixedGenerator is the default InputGenerator (spec.md §4.4, §8): each
// call to Next assigns every register from a distribution over four
// input shapes, cycling through them so a fixed test budget still
// samples every shape rather than converging on whichever the RNG
// favors early.
type MixedGenerator struct {
	rnd *rand.Rand
	n   int
}

// NewMixedGenerator returns a MixedGenerator seeded deterministically
// from seed, so a failing Check is reproducible.
func NewMixedGenerator(seed int64) *MixedGenerator {
	return &MixedGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// boundaryValues are edge values likely to expose flag and
// division-edge-case bugs: zero, all-ones, the sign bit alone, the two
// division-overflow operands, and the 32-bit signed boundary (spec.md
// §4.4), which overflow/shift bugs around 32-bit operations tend to hit
// even though the ISA is fixed at 64-bit width.
var boundaryValues = []uint64{
	0,
	^uint64(0),
	1,
	1 << 63,
	(1 << 63) - 1,
	^uint64(0) - 1, // -2
	1 << 31,
	(1 << 31) - 1,
}

// Next assigns every register in regs a value drawn from one of four
// shapes, round-robined across calls: uniform random, small signed
// integers, boundary values, and one-hot/all-but-one-bit patterns.
func (g *MixedGenerator) Next(regs []isa.Register) map[isa.Register]uint64 {
	shape := g.n % 4
	g.n++

	values := make(map[isa.Register]uint64, len(regs))
	for _, r := range regs {
		switch shape {
		case 0:
			values[r] = g.rnd.Uint64()
		case 1:
			values[r] = uint64(int64(g.rnd.Intn(21)) - 10)
		case 2:
			values[r] = boundaryValues[g.rnd.Intn(len(boundaryValues))]
		case 3:
			values[r] = g.onehotOrComplement()
		}
	}
	return values
}

func (g *MixedGenerator) onehotOrComplement() uint64 {
	bit := uint(g.rnd.Intn(64))
	pattern := uint64(1) << bit
	if g.rnd.Intn(2) == 0 {
		return pattern
	}
	return ^pattern
}
