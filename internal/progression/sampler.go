package progression

import "math/rand"

// WeightedSampler draws an index in proportion to fixed integer weights
// using a cumulative-distribution walk: draw uniform in [0, total), then
// subtract each weight in order until the remainder drops to zero. The
// random source is injected so tests can pin the sequence.
type WeightedSampler struct {
	weights []int
	total   int
}

func NewWeightedSampler(weights []int) *WeightedSampler {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		panic("progression: sampler weights must sum to a positive total")
	}
	return &WeightedSampler{weights: weights, total: total}
}

func (ws *WeightedSampler) Sample(rng *rand.Rand) int {
	r := rng.Float64() * float64(ws.total)
	for i, w := range ws.weights {
		r -= float64(w)
		if r <= 0 {
			return i
		}
	}
	return len(ws.weights) - 1
}
