package pinctrl

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/thatsimonsguy/brew-controller/internal/gpio"
)

// Driver drives Raspberry Pi lines with the pinctrl tool. Edge interrupts
// come from the GPIO character device, which pinctrl cannot watch.
type Driver struct {
	chip string
}

func NewDriver(chip string) *Driver {
	if chip == "" {
		chip = "gpiochip0"
	}
	return &Driver{chip: chip}
}

func (d *Driver) ConfigurePin(pin int, mode gpio.Mode) error {
	if mode == gpio.ModeOutput {
		return SetPin(pin, "op", "pn")
	}
	return SetPin(pin, "ip", "pu")
}

func (d *Driver) ReadDigital(pin int) (bool, error) {
	return ReadLevel(pin)
}

func (d *Driver) WriteDigital(pin int, high bool) error {
	drive := "dl"
	if high {
		drive = "dh"
	}
	return SetPin(pin, "op", "pn", drive)
}

func (d *Driver) ReadAnalog(pin int) (int, error) {
	return 0, fmt.Errorf("read analog pin %d: %w", pin, gpio.ErrUnsupported)
}

func (d *Driver) WatchEdges(pin int, edge gpio.Edge, fn func()) (func() error, error) {
	var edgeOpt gpiocdev.LineReqOption
	switch edge {
	case gpio.Rising:
		edgeOpt = gpiocdev.WithRisingEdge
	case gpio.Falling:
		edgeOpt = gpiocdev.WithFallingEdge
	default:
		edgeOpt = gpiocdev.WithBothEdges
	}

	line, err := gpiocdev.RequestLine(d.chip, pin,
		gpiocdev.WithPullUp,
		edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { fn() }),
	)
	if err != nil {
		return nil, fmt.Errorf("request line %s:%d: %w", d.chip, pin, err)
	}
	log.Debug().Str("chip", d.chip).Int("pin", pin).Str("edge", edge.String()).Msg("Watching edges")
	return line.Close, nil
}
