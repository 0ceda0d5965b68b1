package temperature

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/datadog"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
	// DS18B20 readings jump less than this between 2 s samples in a kettle.
	defaultMaxDelta = 10.0
	defaultConfirm  = 3
)

// Sampler reads one probe into its history. It is the only writer of that
// history.
type Sampler struct {
	name       string
	probe      Probe
	history    *component.History
	filter     *SpikeFilter
	retries    int
	retryDelay time.Duration
	now        func() time.Time
}

func NewSampler(name string, probe Probe, history *component.History) *Sampler {
	return &Sampler{
		name:       name,
		probe:      probe,
		history:    history,
		filter:     NewSpikeFilter(defaultMaxDelta, defaultConfirm),
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
}

func (s *Sampler) Name() string {
	return s.name
}

// Tick takes one sample. A probe that keeps failing leaves the history
// untouched and returns the last error.
func (s *Sampler) Tick(ctx context.Context) error {
	temp, err := s.readWithRetries(ctx)
	if err != nil {
		return fmt.Errorf("sample %s: %w", s.name, err)
	}

	if !s.filter.Accept(temp) {
		baseline, _ := s.filter.Baseline()
		log.Warn().
			Str("sensor", s.name).
			Float64("temp", temp).
			Float64("baseline", baseline).
			Msg("Temperature reading rejected as anomalous")
		datadog.Count("temperature.rejected", 1, "sensor:"+s.name)
		return nil
	}

	s.history.Append(s.now(), temp)
	datadog.Gauge("temperature", temp, "sensor:"+s.name)
	log.Debug().Str("sensor", s.name).Float64("temp", temp).Msg("Temperature reading accepted")
	return nil
}

func (s *Sampler) readWithRetries(ctx context.Context) (float64, error) {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		var temp float64
		temp, err = s.probe.ReadFahrenheit()
		if err == nil {
			return temp, nil
		}
		log.Debug().Err(err).Str("sensor", s.name).Int("attempt", attempt).Msg("Temperature read failed")
	}
	return 0, err
}
