package gpio

import (
	"fmt"
	"sync"
)

type watcher struct {
	edge Edge
	fn   func()
}

// Mock is an in-memory Driver used when no hardware is attached.
type Mock struct {
	mu       sync.Mutex
	modes    map[int]Mode
	levels   map[int]bool
	analog   map[int]int
	watchers map[int]map[int]watcher
	nextID   int
	writes   int
}

func NewMock() *Mock {
	return &Mock{
		modes:    make(map[int]Mode),
		levels:   make(map[int]bool),
		analog:   make(map[int]int),
		watchers: make(map[int]map[int]watcher),
	}
}

func (m *Mock) ConfigurePin(pin int, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[pin] = mode
	return nil
}

func (m *Mock) ReadDigital(pin int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *Mock) WriteDigital(pin int, high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode, ok := m.modes[pin]; !ok || mode != ModeOutput {
		return fmt.Errorf("pin %d is not configured as an output", pin)
	}
	m.levels[pin] = high
	m.writes++
	return nil
}

func (m *Mock) ReadAnalog(pin int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.analog[pin]
	if !ok {
		return 0, fmt.Errorf("no analog value on pin %d", pin)
	}
	return raw, nil
}

func (m *Mock) WatchEdges(pin int, edge Edge, fn func()) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watchers[pin] == nil {
		m.watchers[pin] = make(map[int]watcher)
	}
	id := m.nextID
	m.nextID++
	m.watchers[pin][id] = watcher{edge: edge, fn: fn}

	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[pin], id)
		return nil
	}, nil
}

// SetLevel sets what ReadDigital returns for an input pin.
func (m *Mock) SetLevel(pin int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = high
}

func (m *Mock) Level(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// SetAnalog sets what ReadAnalog returns for pin.
func (m *Mock) SetAnalog(pin, raw int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analog[pin] = raw
}

// Fire raises an edge on pin, calling every watcher interested in it.
func (m *Mock) Fire(pin int, edge Edge) {
	m.mu.Lock()
	var fns []func()
	for _, w := range m.watchers[pin] {
		if w.edge == Both || w.edge == edge {
			fns = append(fns, w.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Writes counts successful WriteDigital calls.
func (m *Mock) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
