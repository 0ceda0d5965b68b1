package component

import (
	"sync"
	"time"
)

// DefaultHistorySize keeps a day of samples taken every two seconds.
const DefaultHistorySize = 43200

type Sample struct {
	At    time.Time
	Value float64
}

// Point is the chart form of a sample: seconds since the history started.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// History is a bounded, append-only series of samples shared between one
// sampler and any number of readers. Indices are absolute: the n-th sample
// ever appended keeps index n after older samples are evicted.
type History struct {
	mu      sync.Mutex
	start   time.Time
	maxSize int
	samples []Sample
	evicted int
}

func NewHistory(start time.Time, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{start: start, maxSize: maxSize}
}

func (h *History) Append(at time.Time, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
		h.evicted++
	}
	h.samples = append(h.samples, Sample{At: at, Value: v})
}

// Latest returns the newest value, or 0 before the first sample.
func (h *History) Latest() float64 {
	s, _ := h.LatestSample()
	return s.Value
}

func (h *History) LatestSample() (Sample, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Len is the number of samples ever appended, i.e. the next index.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.evicted + len(h.samples)
}

// Since copies the samples from index onward, at most max of them when
// max > 0. An index older than the oldest retained sample starts there.
func (h *History) Since(index, max int) []Sample {
	samples, _ := h.Range(index, max)
	return samples
}

// Range is Since plus the absolute index to ask for next. Readers resume
// from next rather than counting what they received, which would fall
// behind once samples are evicted.
func (h *History) Range(index, max int) ([]Sample, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < h.evicted {
		index = h.evicted
	}
	from := index - h.evicted
	if from >= len(h.samples) {
		return []Sample{}, h.evicted + len(h.samples)
	}
	to := len(h.samples)
	if max > 0 && to-from > max {
		to = from + max
	}
	out := make([]Sample, to-from)
	copy(out, h.samples[from:to])
	return out, h.evicted + to
}

// Points converts samples to chart points relative to the history start.
func (h *History) Points(samples []Sample) []Point {
	points := make([]Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, Point{
			X: int64(s.At.Sub(h.start) / time.Second),
			Y: s.Value,
		})
	}
	return points
}
