package device

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
)

const (
	LitersPerGallon      = 3.785412
	DefaultEdgesPerLiter = 600
)

// FlowSensor reports gallons through a hall-effect flow meter since the last
// reset.
type FlowSensor struct {
	*component.Reading[float64]
	counter       *gpio.EdgeCounter
	edgesPerLiter int
	initial       atomic.Int64
}

func NewFlowSensor(name string, d gpio.Driver, pin, edgesPerLiter int) (*FlowSensor, error) {
	if edgesPerLiter <= 0 {
		edgesPerLiter = DefaultEdgesPerLiter
	}
	if err := d.ConfigurePin(pin, gpio.ModeInput); err != nil {
		return nil, fmt.Errorf("flow sensor %s: %w", name, err)
	}
	counter, err := gpio.NewEdgeCounter(d, pin, gpio.Rising)
	if err != nil {
		return nil, fmt.Errorf("flow sensor %s: %w", name, err)
	}

	f := &FlowSensor{counter: counter, edgesPerLiter: edgesPerLiter}
	f.Reading = component.NewReading(name, f.Gallons)
	f.Reset()
	return f, nil
}

func (f *FlowSensor) edgeCount() int64 {
	return f.counter.Edges() - f.initial.Load()
}

func (f *FlowSensor) Liters() float64 {
	return float64(f.edgeCount()) / float64(f.edgesPerLiter)
}

func (f *FlowSensor) Gallons() float64 {
	return f.Liters() / LitersPerGallon
}

// Reset starts counting from zero again.
func (f *FlowSensor) Reset() error {
	f.initial.Store(f.counter.Edges())
	log.Debug().Str("device", f.Name()).Msg("Flow count reset")
	return nil
}

func (f *FlowSensor) Close() error {
	return f.counter.Close()
}

func (f *FlowSensor) Register(r component.Router, prefix string) {
	f.Reading.Register(r, prefix)
	r.Get(prefix+"/"+f.Name()+"/reset", component.ActionHandler(f.Reset))
}

// Modify accepts [name, "reset"]. The reading itself cannot be written.
func (f *FlowSensor) Modify(path []string) (bool, error) {
	if len(path) >= 2 && path[0] == f.Name() && path[1] == "reset" {
		return true, f.Reset()
	}
	return f.Reading.Modify(path)
}

