package gpio

import "errors"

type Mode int

const (
	ModeInput Mode = iota
	ModeOutput
)

type Edge int

const (
	Rising Edge = iota
	Falling
	Both
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "both"
	}
}

// ErrUnsupported is returned by drivers for operations their hardware cannot do.
var ErrUnsupported = errors.New("gpio: operation not supported by driver")

// Driver is the hardware line abstraction the device tree is built on.
type Driver interface {
	ConfigurePin(pin int, mode Mode) error
	ReadDigital(pin int) (bool, error)
	WriteDigital(pin int, high bool) error
	// ReadAnalog returns the raw reading of an analog or virtual pin.
	ReadAnalog(pin int) (int, error)
	// WatchEdges calls fn for every matching edge on pin until stop is called.
	// fn runs on the driver's goroutine and must not block.
	WatchEdges(pin int, edge Edge, fn func()) (stop func() error, err error)
}
