package device

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/datadog"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/model"
)

// Heater is a setpoint in degrees F plus the element's output line. The
// setpoint is the component's value; the line is driven by the control loop.
type Heater struct {
	*component.Target[float64]
	out *gpio.Output

	mu        sync.Mutex
	energized bool
}

func NewHeater(name string, d gpio.Driver, pin model.GPIOPin, min, max float64) (*Heater, error) {
	out := gpio.NewOutput(d, pin)
	if err := out.Setup(); err != nil {
		return nil, fmt.Errorf("heater %s: %w", name, err)
	}
	return &Heater{
		Target: component.NewTarget(name, min, max, nil),
		out:    out,
	}, nil
}

func (h *Heater) Output() *gpio.Output {
	return h.out
}

func (h *Heater) On() error {
	return h.drive(true)
}

func (h *Heater) Off() error {
	return h.drive(false)
}

func (h *Heater) Energized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.energized
}

// drive writes the line only when the state changes.
func (h *Heater) drive(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.energized == on {
		return nil
	}
	if err := h.out.Set(on); err != nil {
		return fmt.Errorf("heater %s: %w", h.Name(), err)
	}
	h.energized = on

	log.Info().Str("device", h.Name()).Bool("on", on).Float64("setpoint", h.Get()).Msg("Heater switched")
	var v float64
	if on {
		v = 1
	}
	datadog.Gauge("heater.energized", v, "heater:"+h.Name())
	return nil
}
