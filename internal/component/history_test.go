package component

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistory_SinceReturnsAppendOrder(t *testing.T) {
	start := time.Unix(1000, 0)
	h := NewHistory(start, 100)
	assert.Equal(t, 0.0, h.Latest(), "empty history reads zero")

	for i := 0; i < 5; i++ {
		h.Append(start.Add(time.Duration(i*2)*time.Second), float64(100+i))
	}

	all := h.Since(0, 0)
	assert.Len(t, all, 5)
	for i, s := range all {
		assert.Equal(t, float64(100+i), s.Value)
	}
	assert.Empty(t, h.Since(5, 0))
	assert.Empty(t, h.Since(50, 0))
	assert.Equal(t, 104.0, h.Latest())
	assert.Equal(t, 5, h.Len())
}

func TestHistory_BatchCap(t *testing.T) {
	h := NewHistory(time.Now(), 100)
	for i := 0; i < 10; i++ {
		h.Append(time.Now(), float64(i))
	}

	batch := h.Since(2, 3)
	assert.Len(t, batch, 3)
	assert.Equal(t, 2.0, batch[0].Value)
	assert.Equal(t, 4.0, batch[2].Value)
}

func TestHistory_EvictionKeepsAbsoluteIndices(t *testing.T) {
	h := NewHistory(time.Now(), 3)
	for i := 0; i < 5; i++ {
		h.Append(time.Now(), float64(i))
	}

	assert.Equal(t, 5, h.Len())
	assert.Equal(t, []float64{3, 4}, values(h.Since(3, 0)))
	assert.Equal(t, []float64{2, 3, 4}, values(h.Since(0, 0)), "evicted indices start at the oldest kept sample")
}

func TestHistory_RangeResumesAfterEviction(t *testing.T) {
	h := NewHistory(time.Now(), 3)
	for i := 0; i < 10; i++ {
		h.Append(time.Now(), float64(i))
	}

	var received []float64
	next := 0
	for i := 0; i < 4; i++ {
		batch, n := h.Range(next, 2)
		received = append(received, values(batch)...)
		next = n
	}
	assert.Equal(t, []float64{7, 8, 9}, received)
	assert.Equal(t, 10, next)

	h.Append(time.Now(), 10)
	batch, next := h.Range(next, 2)
	assert.Equal(t, []float64{10}, values(batch))
	assert.Equal(t, 11, next)
}

func TestHistory_SinceIsACopy(t *testing.T) {
	h := NewHistory(time.Now(), 10)
	h.Append(time.Now(), 1)

	got := h.Since(0, 0)
	got[0].Value = 99
	assert.Equal(t, 1.0, h.Latest())
}

func TestHistory_Points(t *testing.T) {
	start := time.Unix(0, 0)
	h := NewHistory(start, 10)
	h.Append(start.Add(4*time.Second), 117.5)

	assert.Equal(t, []Point{{X: 4, Y: 117.5}}, h.Points(h.Since(0, 0)))
}

func TestHistory_ConcurrentAppendAndRead(t *testing.T) {
	h := NewHistory(time.Now(), 50)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.Append(time.Now(), float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = h.Since(h.Len()-10, 5)
			_ = h.Latest()
		}
	}()
	wg.Wait()

	assert.Equal(t, 1000, h.Len())
	assert.Equal(t, 999.0, h.Latest())
}

func values(samples []Sample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Value)
	}
	return out
}
