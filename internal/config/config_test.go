package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate_DefaultBoard(t *testing.T) {
	cfg := Default()
	assert.NotPanics(t, func() { cfg.validate() })
	assert.Equal(t, 100*time.Millisecond, cfg.ControlPeriod())
	assert.Equal(t, 2*time.Second, cfg.SamplePeriod())
}

func TestValidate_OptionalLevelPin(t *testing.T) {
	cfg := Default()
	cfg.GPIO.MTLiquidMax = intPtr(12)
	assert.NotPanics(t, func() { cfg.validate() })
}

func TestValidate_GPIO_Missing(t *testing.T) {
	cfg := Default()
	cfg.GPIO.HLTHeater = nil

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic due to missing GPIO config, but got none")
		}
		assert.Contains(t, r, "gpio.hlt_heater")
	}()

	cfg.validate()
}

func TestValidate_GPIO_Conflict(t *testing.T) {
	cfg := Default()
	cfg.GPIO.BKHeater = intPtr(5) // same as hlt_heater

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to conflicting pin numbers, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_SensorPinConflict(t *testing.T) {
	cfg := Default()
	cfg.Sensors.PumpAssemblyTemp.Pin = 65

	assert.Panics(t, func() { cfg.validate() })
}

func TestValidate_BadPeriods(t *testing.T) {
	cfg := Default()
	cfg.ControlPeriodMillis = 0
	assert.Panics(t, func() { cfg.validate() })

	cfg = Default()
	cfg.HeaterMin, cfg.HeaterMax = 200, 50
	assert.Panics(t, func() { cfg.validate() })
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("debug").String())
	assert.Equal(t, "warn", parseLogLevel("warn").String())
	assert.Equal(t, "info", parseLogLevel("bogus").String())
}

func TestValidate_MQTT(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Enabled = true
	assert.NotPanics(t, func() { cfg.validate() })
	assert.Equal(t, 5*time.Second, cfg.MQTTPublishPeriod())

	cfg.MQTT.PublishSeconds = 0
	assert.Panics(t, func() { cfg.validate() })
}
