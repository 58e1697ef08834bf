package alns

import "math/rand"

// epsilonWeight floors an operator's weight so it never starves out of the
// roulette wheel entirely, per spec.md §4.5 step 7.
const epsilonWeight = 1e-8

// weightVector tracks one operator class's current weights plus the
// reward/usage accumulators collected since the last segment update.
type weightVector struct {
	weight []float64
	reward []float64
	usage  []int
}

func newWeightVector(n int, initial float64) *weightVector {
	wv := &weightVector{
		weight: make([]float64, n),
		reward: make([]float64, n),
		usage:  make([]int, n),
	}
	for i := range wv.weight {
		wv.weight[i] = initial
	}
	return wv
}

// Select draws an operator index by weighted roulette-wheel; if every
// weight is non-positive it falls back to a uniform draw.
func (wv *weightVector) Select(rng *rand.Rand) int {
	sum := 0.0
	for _, w := range wv.weight {
		sum += w
	}
	if sum <= 0 {
		return rng.Intn(len(wv.weight))
	}
	target := rng.Float64() * sum
	cum := 0.0
	for i, w := range wv.weight {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(wv.weight) - 1
}

// Use increments the usage counter for operator i.
func (wv *weightVector) Use(i int) { wv.usage[i]++ }

// Credit adds amount to operator i's reward accumulator.
func (wv *weightVector) Credit(i int, amount int) { wv.reward[i] += float64(amount) }

// UpdateSegment applies spec.md §4.5 step 7's weight update and resets the
// accumulators for the next segment.
func (wv *weightVector) UpdateSegment(r float64) {
	for i := range wv.weight {
		if wv.usage[i] > 0 {
			avg := wv.reward[i] / float64(wv.usage[i])
			next := (1-r)*wv.weight[i] + r*avg
			if next < epsilonWeight {
				next = epsilonWeight
			}
			wv.weight[i] = next
		} else if wv.weight[i] < epsilonWeight {
			wv.weight[i] = epsilonWeight
		}
		wv.reward[i] = 0
		wv.usage[i] = 0
	}
}
