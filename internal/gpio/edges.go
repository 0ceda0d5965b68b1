package gpio

import (
	"fmt"
	"sync/atomic"
)

// EdgeCounter counts edges on one input line. The driver holds a callback
// into the counter, so it is only ever used through the pointer returned by
// NewEdgeCounter.
type EdgeCounter struct {
	edges atomic.Int64
	stop  func() error
}

func NewEdgeCounter(d Driver, pin int, edge Edge) (*EdgeCounter, error) {
	c := &EdgeCounter{}
	stop, err := d.WatchEdges(pin, edge, func() { c.edges.Add(1) })
	if err != nil {
		return nil, fmt.Errorf("watch %s edges on pin %d: %w", edge, pin, err)
	}
	c.stop = stop
	return c, nil
}

func (c *EdgeCounter) Edges() int64 {
	return c.edges.Load()
}

// Close stops counting.
func (c *EdgeCounter) Close() error {
	if c.stop == nil {
		return nil
	}
	return c.stop()
}
