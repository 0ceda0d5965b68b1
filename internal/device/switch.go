package device

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/datadog"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/model"
)

// Button is an on/off leaf driving one output line. Valves and pumps are
// buttons on relay and SSR channels.
type Button struct {
	*component.Switch
	out *gpio.Output
}

// NewButton sets the line up inactive. The relay and SSR boards are active low.
func NewButton(name string, d gpio.Driver, pin int) (*Button, error) {
	return newButton(name, gpio.NewOutput(d, model.GPIOPin{Number: pin, ActiveHigh: false}))
}

func NewValve(name string, d gpio.Driver, pin int) (*Button, error) {
	return NewButton(name, d, pin)
}

func NewPump(name string, d gpio.Driver, pin int) (*Button, error) {
	return NewButton(name, d, pin)
}

func newButton(name string, out *gpio.Output) (*Button, error) {
	if err := out.Setup(); err != nil {
		return nil, fmt.Errorf("button %s: %w", name, err)
	}
	b := &Button{out: out}
	b.Switch = component.NewSwitch(name, 0, func(v int) error {
		log.Info().Str("device", name).Bool("on", v != 0).Msg("Switching output")
		if err := out.Set(v != 0); err != nil {
			return err
		}
		datadog.Gauge("output.active", float64(v), "device:"+name)
		return nil
	})
	return b, nil
}

func (b *Button) Output() *gpio.Output {
	return b.out
}
