// Package temperature reads the brewery's temperature probes and keeps their
// histories current.
package temperature

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/model"
	"github.com/thatsimonsguy/brew-controller/internal/onewire"
)

// ErrBadReading is returned when a probe answered with data that is not a temperature.
var ErrBadReading = errors.New("bad temperature reading")

// Probe is one temperature sensor.
type Probe interface {
	ReadFahrenheit() (float64, error)
}

// W1Probe is a DS18B20 on the 1-wire bus.
type W1Probe struct {
	id   model.SensorID
	path string
}

// NewW1Probe fails if the probe is not on the bus.
func NewW1Probe(dir string, id model.SensorID) (*W1Probe, error) {
	path, err := onewire.Setup(dir, id)
	if err != nil {
		return nil, err
	}
	return &W1Probe{id: id, path: path}, nil
}

func (p *W1Probe) ID() model.SensorID {
	return p.id
}

func (p *W1Probe) ReadFahrenheit() (float64, error) {
	data, err := os.ReadFile(filepath.Join(p.path, "w1_slave"))
	if err != nil {
		return 0, fmt.Errorf("failed to read sensor %s: %w", p.id, err)
	}
	return parseW1Slave(string(data))
}

// parseW1Slave reads the kernel's two-line w1_slave format: a CRC line ending
// in YES and a data line ending in t=<millidegrees C>.
func parseW1Slave(data string) (float64, error) {
	lines := strings.Split(data, "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "t=") {
		return 0, fmt.Errorf("%w: temperature data missing or malformed", ErrBadReading)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, fmt.Errorf("%w: crc check failed", ErrBadReading)
	}

	parts := strings.Split(lines[1], "t=")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: could not parse temperature line", ErrBadReading)
	}

	tempMilliC, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadReading, err)
	}

	// Celsius to Fahrenheit: F = C × 9/5 + 32
	tempC := float64(tempMilliC) / 1000.0
	return tempC*9.0/5.0 + 32.0, nil
}

// AnalogProbe reads a pin reporting tenths of a degree Celsius. The mock
// driver serves these for bench runs without probes attached.
type AnalogProbe struct {
	driver gpio.Driver
	pin    int
}

func NewAnalogProbe(d gpio.Driver, pin int) *AnalogProbe {
	return &AnalogProbe{driver: d, pin: pin}
}

func (p *AnalogProbe) ReadFahrenheit() (float64, error) {
	raw, err := p.driver.ReadAnalog(p.pin)
	if err != nil {
		return 0, fmt.Errorf("failed to read analog pin %d: %w", p.pin, err)
	}
	return float64(raw)/10*1.8 + 32, nil
}
