package service

import (
	"math/rand/v2"

	"github.com/wricardo/mcp-training/blockfall/game/engine"
)

// KindPicker chooses the next piece uniformly at random.
type KindPicker struct {
	rng *rand.Rand
}

// NewKindPicker returns a picker seeded with seed. A zero seed draws a fresh
// one.
func NewKindPicker(seed uint64) *KindPicker {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &KindPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *KindPicker) Next() engine.Kind {
	kinds := engine.Kinds()
	return kinds[p.rng.IntN(len(kinds))]
}
