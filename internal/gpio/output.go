package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/model"
)

var safeMode bool

// SetSafeMode disables every output write system-wide.
func SetSafeMode(enabled bool) {
	safeMode = enabled
}

// Output drives one relay, SSR or digital output line.
type Output struct {
	driver Driver
	pin    model.GPIOPin
}

func NewOutput(d Driver, pin model.GPIOPin) *Output {
	return &Output{driver: d, pin: pin}
}

func (o *Output) Pin() model.GPIOPin {
	return o.pin
}

// Setup configures the line as an output and leaves it inactive.
func (o *Output) Setup() error {
	if err := o.driver.ConfigurePin(o.pin.Number, ModeOutput); err != nil {
		return fmt.Errorf("configure pin %d: %w", o.pin.Number, err)
	}
	return o.Deactivate()
}

func (o *Output) Activate() error {
	return o.Set(true)
}

func (o *Output) Deactivate() error {
	return o.Set(false)
}

func (o *Output) Set(active bool) error {
	if safeMode {
		log.Debug().Int("pin", o.pin.Number).Bool("active", active).Msg("Safe mode, skipping pin write")
		return nil
	}
	// active-low boards drive the line low to energise
	high := active == o.pin.ActiveHigh
	if err := o.driver.WriteDigital(o.pin.Number, high); err != nil {
		return fmt.Errorf("write pin %d: %w", o.pin.Number, err)
	}
	return nil
}
