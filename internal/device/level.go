package device

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
)

// LevelSensor reports 1 while a float switch is closed. The line is read by
// Poll so that status requests never touch hardware. A sensor built without
// a pin always reads 0.
type LevelSensor struct {
	*component.Reading[int]
	driver gpio.Driver
	pin    *int
	level  atomic.Int32
}

func NewLevelSensor(name string, d gpio.Driver, pin *int) (*LevelSensor, error) {
	l := &LevelSensor{driver: d, pin: pin}
	l.Reading = component.NewReading(name, func() int { return int(l.level.Load()) })
	if pin == nil {
		return l, nil
	}
	if err := d.ConfigurePin(*pin, gpio.ModeInput); err != nil {
		return nil, fmt.Errorf("level sensor %s: %w", name, err)
	}
	return l, nil
}

// Poll samples the line once.
func (l *LevelSensor) Poll(ctx context.Context) error {
	if l.pin == nil {
		return nil
	}
	high, err := l.driver.ReadDigital(*l.pin)
	if err != nil {
		return fmt.Errorf("level sensor %s: %w", l.Name(), err)
	}
	var v int32
	if high {
		v = 1
	}
	l.level.Store(v)
	return nil
}
