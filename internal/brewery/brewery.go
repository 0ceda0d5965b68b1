// Package brewery assembles the rig's devices into the component tree served
// by the controller.
package brewery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/config"
	"github.com/thatsimonsguy/brew-controller/internal/controller"
	"github.com/thatsimonsguy/brew-controller/internal/device"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/model"
	"github.com/thatsimonsguy/brew-controller/internal/temperature"
)

// ProbeFactory opens the temperature probe for a configured sensor.
type ProbeFactory func(s config.Sensor) (temperature.Probe, error)

// W1Probes opens DS18B20 probes on the 1-wire bus under dir.
func W1Probes(dir string) ProbeFactory {
	return func(s config.Sensor) (temperature.Probe, error) {
		return temperature.NewW1Probe(dir, model.SensorID(s.DeviceID))
	}
}

// AnalogProbes reads each sensor from its virtual analog pin on d.
func AnalogProbes(d gpio.Driver) ProbeFactory {
	return func(s config.Sensor) (temperature.Probe, error) {
		return temperature.NewAnalogProbe(d, s.Pin), nil
	}
}

type HotLiquorTank struct {
	*component.Tuple
	InputFlow   *device.FlowSensor
	Heater      *device.Heater
	ReflowValve *device.Button
	Pump        *device.Button
	ReflowTemp  *device.TempSensor
	OutputFlow  *device.FlowSensor
}

// ErrNoReading means the reflow probe has not produced a sample yet.
var ErrNoReading = errors.New("no reflow temperature sample yet")

// Update energises the heater while the reflow temperature is below the
// setpoint. Until the probe has been sampled the heater is held off.
func (h *HotLiquorTank) Update() error {
	sample, ok := h.ReflowTemp.History().LatestSample()
	if !ok {
		return errors.Join(ErrNoReading, h.Heater.Off())
	}
	if sample.Value < h.Heater.Get() {
		return h.Heater.On()
	}
	return h.Heater.Off()
}

type MashTun struct {
	*component.Tuple
	LiquidMax  *device.LevelSensor
	OutputFlow *device.FlowSensor
}

type BrewKettle struct {
	*component.Tuple
	Heater *device.Button
}

type PumpAssembly struct {
	*component.Tuple
	InputValve  *device.Button
	Pump        *device.Button
	Temp        *device.TempSensor
	OutputValve *device.Button
}

type Brewery struct {
	*component.Tuple
	HLT          *HotLiquorTank
	MashTun      *MashTun
	BrewKettle   *BrewKettle
	PumpAssembly *PumpAssembly

	cfg *config.Config
}

// New builds the brewery on d. Every output is set up inactive. A device
// that cannot be opened fails construction.
func New(cfg *config.Config, d gpio.Driver, probes ProbeFactory, start time.Time) (*Brewery, error) {
	b := &Brewery{cfg: cfg}
	var err error

	if b.HLT, err = newHotLiquorTank(cfg, d, probes, start); err != nil {
		return nil, err
	}
	if b.MashTun, err = newMashTun(cfg, d); err != nil {
		return nil, err
	}
	if b.BrewKettle, err = newBrewKettle(cfg, d); err != nil {
		return nil, err
	}
	if b.PumpAssembly, err = newPumpAssembly(cfg, d, probes, start); err != nil {
		return nil, err
	}

	b.Tuple = component.NewTuple("brewery", b.HLT, b.MashTun, b.BrewKettle, b.PumpAssembly)
	return b, nil
}

func newHotLiquorTank(cfg *config.Config, d gpio.Driver, probes ProbeFactory, start time.Time) (*HotLiquorTank, error) {
	h := &HotLiquorTank{}
	var err error

	if h.InputFlow, err = device.NewFlowSensor("input_flow", d, *cfg.GPIO.HLTInputFlow, cfg.EdgesPerLiter); err != nil {
		return nil, err
	}
	heaterPin := model.GPIOPin{Number: *cfg.GPIO.HLTHeater, ActiveHigh: true}
	if h.Heater, err = device.NewHeater("heater", d, heaterPin, cfg.HeaterMin, cfg.HeaterMax); err != nil {
		return nil, err
	}
	if h.ReflowValve, err = device.NewValve("reflow_valve", d, *cfg.GPIO.HLTReflowValve); err != nil {
		return nil, err
	}
	if h.Pump, err = device.NewPump("pump", d, *cfg.GPIO.HLTPump); err != nil {
		return nil, err
	}
	if h.ReflowTemp, err = newTempSensor("reflow_temp", cfg, cfg.Sensors.HLTTemp, probes, start); err != nil {
		return nil, err
	}
	if h.OutputFlow, err = device.NewFlowSensor("output_flow", d, *cfg.GPIO.HLTOutputFlow, cfg.EdgesPerLiter); err != nil {
		return nil, err
	}

	h.Tuple = component.NewTuple("hlt", h.InputFlow, h.Heater, h.ReflowValve, h.Pump, h.ReflowTemp, h.OutputFlow)
	return h, nil
}

func newMashTun(cfg *config.Config, d gpio.Driver) (*MashTun, error) {
	m := &MashTun{}
	var err error

	if m.LiquidMax, err = device.NewLevelSensor("liquid_max", d, cfg.GPIO.MTLiquidMax); err != nil {
		return nil, err
	}
	if m.OutputFlow, err = device.NewFlowSensor("output_flow", d, *cfg.GPIO.MTOutputFlow, cfg.EdgesPerLiter); err != nil {
		return nil, err
	}

	m.Tuple = component.NewTuple("mt", m.LiquidMax, m.OutputFlow)
	return m, nil
}

func newBrewKettle(cfg *config.Config, d gpio.Driver) (*BrewKettle, error) {
	heater, err := device.NewButton("heater", d, *cfg.GPIO.BKHeater)
	if err != nil {
		return nil, err
	}
	return &BrewKettle{Tuple: component.NewTuple("bk", heater), Heater: heater}, nil
}

func newPumpAssembly(cfg *config.Config, d gpio.Driver, probes ProbeFactory, start time.Time) (*PumpAssembly, error) {
	p := &PumpAssembly{}
	var err error

	if p.InputValve, err = device.NewValve("input_valve", d, *cfg.GPIO.PumpAssemblyInputValve); err != nil {
		return nil, err
	}
	if p.Pump, err = device.NewPump("pump", d, *cfg.GPIO.PumpAssemblyPump); err != nil {
		return nil, err
	}
	if p.Temp, err = newTempSensor("temp", cfg, cfg.Sensors.PumpAssemblyTemp, probes, start); err != nil {
		return nil, err
	}
	if p.OutputValve, err = device.NewValve("output_valve", d, *cfg.GPIO.PumpAssemblyOutputValve); err != nil {
		return nil, err
	}

	p.Tuple = component.NewTuple("pump_assembly", p.InputValve, p.Pump, p.Temp, p.OutputValve)
	return p, nil
}

func newTempSensor(name string, cfg *config.Config, s config.Sensor, probes ProbeFactory, start time.Time) (*device.TempSensor, error) {
	probe, err := probes(s)
	if err != nil {
		return nil, fmt.Errorf("temperature sensor %s: %w", name, err)
	}
	return device.NewTempSensor(name, probe, component.NewHistory(start, cfg.HistorySize), cfg.HistoryBatch), nil
}

// Update runs the control rules once.
func (b *Brewery) Update(ctx context.Context) error {
	return b.HLT.Update()
}

// Outputs lists every output line, labelled by its path in the tree.
func (b *Brewery) Outputs() []model.NamedPin {
	return []model.NamedPin{
		{Name: "hlt/heater", Pin: b.HLT.Heater.Output().Pin()},
		{Name: "hlt/reflow_valve", Pin: b.HLT.ReflowValve.Output().Pin()},
		{Name: "hlt/pump", Pin: b.HLT.Pump.Output().Pin()},
		{Name: "bk/heater", Pin: b.BrewKettle.Heater.Output().Pin()},
		{Name: "pump_assembly/input_valve", Pin: b.PumpAssembly.InputValve.Output().Pin()},
		{Name: "pump_assembly/pump", Pin: b.PumpAssembly.Pump.Output().Pin()},
		{Name: "pump_assembly/output_valve", Pin: b.PumpAssembly.OutputValve.Output().Pin()},
	}
}

// Loops returns the control loop followed by one sampler per history sensor
// and the level poller.
func (b *Brewery) Loops() []*controller.Loop {
	loops := []*controller.Loop{
		controller.NewLoop("control", b.cfg.ControlPeriod(), b.Update),
	}
	for _, ts := range []*device.TempSensor{b.HLT.ReflowTemp, b.PumpAssembly.Temp} {
		s := ts.Sampler()
		loops = append(loops, controller.NewLoop("sample_"+s.Name(), b.cfg.SamplePeriod(), s.Tick))
	}
	loops = append(loops, controller.NewLoop("poll_liquid_max", b.cfg.LevelPollPeriod(), b.MashTun.LiquidMax.Poll))

	for _, l := range loops {
		l.MaxFailures = b.cfg.MaxLoopFailures
	}
	return loops
}

// Shutdown turns every output off and stops the flow counters.
func (b *Brewery) Shutdown() error {
	var errs []error
	errs = append(errs, b.HLT.Heater.Off())
	for _, s := range []*device.Button{
		b.HLT.ReflowValve, b.HLT.Pump, b.BrewKettle.Heater,
		b.PumpAssembly.InputValve, b.PumpAssembly.Pump, b.PumpAssembly.OutputValve,
	} {
		errs = append(errs, s.Set(0))
	}
	for _, f := range []*device.FlowSensor{b.HLT.InputFlow, b.HLT.OutputFlow, b.MashTun.OutputFlow} {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}
