package temperature

import "math"

// SpikeFilter rejects single readings that jump away from the last accepted
// one. A run of Confirm readings that agree with each other is taken as a
// real change and accepted.
type SpikeFilter struct {
	MaxDelta float64
	Confirm  int

	last    float64
	primed  bool
	pending []float64
}

func NewSpikeFilter(maxDelta float64, confirm int) *SpikeFilter {
	if confirm < 1 {
		confirm = 1
	}
	return &SpikeFilter{MaxDelta: maxDelta, Confirm: confirm}
}

// Accept reports whether temp should be recorded.
func (f *SpikeFilter) Accept(temp float64) bool {
	if !f.primed || math.Abs(temp-f.last) <= f.MaxDelta {
		f.take(temp)
		return true
	}

	f.pending = append(f.pending, temp)
	if len(f.pending) > f.Confirm {
		f.pending = f.pending[1:]
	}
	if len(f.pending) == f.Confirm && stdDev(f.pending) < f.MaxDelta/2 {
		f.take(temp)
		return true
	}
	return false
}

// Baseline is the last accepted reading.
func (f *SpikeFilter) Baseline() (float64, bool) {
	return f.last, f.primed
}

func (f *SpikeFilter) take(temp float64) {
	f.last = temp
	f.primed = true
	f.pending = f.pending[:0]
}

func stdDev(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))

	var variance float64
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(vals))
	return math.Sqrt(variance)
}
