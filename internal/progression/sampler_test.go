package progression

import (
	"math/rand"
	"testing"
)

func TestWeightedSamplerDistribution(t *testing.T) {
	ws := NewWeightedSampler([]int{50, 30, 15, 5})
	rng := rand.New(rand.NewSource(1))

	const draws = 100000
	counts := make([]int, 4)
	for i := 0; i < draws; i++ {
		counts[ws.Sample(rng)]++
	}

	expected := []float64{0.50, 0.30, 0.15, 0.05}
	for i, want := range expected {
		got := float64(counts[i]) / draws
		// 100k draws keep the sample proportion well within a percent.
		if got < want-0.01 || got > want+0.01 {
			t.Errorf("index %d drawn %.3f of the time, want ~%.2f", i, got, want)
		}
	}
}

func TestWeightedSamplerSingleWeight(t *testing.T) {
	ws := NewWeightedSampler([]int{7})
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		if got := ws.Sample(rng); got != 0 {
			t.Fatalf("Sample = %d, want 0", got)
		}
	}
}

func TestWeightedSamplerRejectsZeroTotal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on zero total weight")
		}
	}()
	NewWeightedSampler([]int{0, 0})
}
