package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GPIO is the board pin map. Every field must be set unless tagged optional.
type GPIO struct {
	// relay outputs
	HLTReflowValve          *int `json:"hlt_reflow_valve"`
	PumpAssemblyInputValve  *int `json:"pump_assembly_input_valve"`
	PumpAssemblyOutputValve *int `json:"pump_assembly_output_valve"`

	// SSR outputs
	HLTPump          *int `json:"hlt_pump"`
	PumpAssemblyPump *int `json:"pump_assembly_pump"`

	// digital inputs
	HLTInputFlow  *int `json:"hlt_input_flow"`
	HLTOutputFlow *int `json:"hlt_output_flow"`
	MTOutputFlow  *int `json:"mt_output_flow"`
	MTLiquidMax   *int `json:"mt_liquid_max" optional:"true"`

	// digital outputs
	HLTHeater *int `json:"hlt_heater"`
	BKHeater  *int `json:"bk_heater"`
}

// Sensor is a DS18B20 probe. Pin is the virtual pin used for its analog
// reading when running without hardware.
type Sensor struct {
	Pin      int    `json:"pin"`
	DeviceID string `json:"device_id"`
}

type Sensors struct {
	HLTTemp          Sensor `json:"hlt_temp"`
	PumpAssemblyTemp Sensor `json:"pump_assembly_temp"`
}

type DatadogConfig struct {
	Enabled   bool     `json:"enabled"`
	AgentAddr string   `json:"agent_addr"`
	Namespace string   `json:"namespace"`
	Tags      []string `json:"tags"`
}

type MQTTConfig struct {
	Enabled        bool   `json:"enabled"`
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TopicPrefix    string `json:"topic_prefix"`
	PublishSeconds int    `json:"publish_seconds"`
}

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	LogFile    string
	Mock       bool
	SafeMode   bool

	Port        int    `json:"port"`
	Title       string `json:"title"`
	TemplateDir string `json:"template_dir"`
	GPIOChip    string `json:"gpio_chip"`
	W1Dir       string `json:"w1_dir"`

	ControlPeriodMillis int `json:"control_period_ms"`
	SamplePeriodMillis  int `json:"sample_period_ms"`
	LevelPollMillis     int `json:"level_poll_ms"`
	PushPeriodMillis    int `json:"push_period_ms"`
	HistorySize         int `json:"history_size"`
	HistoryBatch        int `json:"history_batch"`
	EdgesPerLiter       int `json:"edges_per_liter"`
	MaxLoopFailures     int `json:"max_loop_failures"`

	HeaterMin float64 `json:"heater_min"`
	HeaterMax float64 `json:"heater_max"`

	JournalPath        string `json:"journal_path"`
	NtfyTopic          string `json:"ntfy_topic"`
	BootScriptFilePath string `json:"boot_script_file_path"`
	OSServicePath      string `json:"os_service_path"`
	MainServicePath    string `json:"main_service_path"`

	Datadog DatadogConfig `json:"datadog"`
	MQTT    MQTTConfig    `json:"mqtt"`
	Sensors Sensors       `json:"sensors"`
	GPIO    GPIO          `json:"gpio"`
}

func intPtr(i int) *int {
	return &i
}

// Default is the brew board as wired: relays, SSRs and digital lines.
func Default() Config {
	return Config{
		LogLevel:            zerolog.InfoLevel,
		Port:                40080,
		Title:               "brewery controller",
		GPIOChip:            "gpiochip0",
		W1Dir:               "/sys/bus/w1/devices",
		ControlPeriodMillis: 100,
		SamplePeriodMillis:  2000,
		LevelPollMillis:     1000,
		PushPeriodMillis:    1000,
		HistorySize:         43200,
		HistoryBatch:        500,
		EdgesPerLiter:       600,
		MaxLoopFailures:     50,
		HeaterMin:           50,
		HeaterMax:           200,
		BootScriptFilePath:  "/usr/local/bin/brew-gpio-boot.sh",
		OSServicePath:       "/etc/systemd/system/brew-gpio.service",
		MainServicePath:     "/etc/systemd/system/brew-controller.service",
		Datadog: DatadogConfig{
			AgentAddr: "127.0.0.1:8125",
			Namespace: "brewery.",
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://127.0.0.1:1883",
			ClientID:       "brew-controller",
			TopicPrefix:    "brewery",
			PublishSeconds: 5,
		},
		Sensors: Sensors{
			HLTTemp:          Sensor{Pin: 65, DeviceID: "0000055823d0"},
			PumpAssemblyTemp: Sensor{Pin: 66, DeviceID: "derpderpderp"},
		},
		GPIO: GPIO{
			HLTReflowValve:          intPtr(21),
			PumpAssemblyInputValve:  intPtr(20),
			PumpAssemblyOutputValve: intPtr(16),
			HLTPump:                 intPtr(13),
			PumpAssemblyPump:        intPtr(19),
			HLTInputFlow:            intPtr(17),
			HLTOutputFlow:           intPtr(27),
			MTOutputFlow:            intPtr(22),
			HLTHeater:               intPtr(5),
			BKHeater:                intPtr(6),
		},
	}
}

func Load() Config {
	cfg := Default()
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "", "Path to controller config file (built-in board layout if empty)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Append logs to this file instead of stderr")
	flag.BoolVar(&cfg.Mock, "mock", false, "Run against an in-memory GPIO driver and mock sensors")
	flag.BoolVar(&cfg.SafeMode, "safe-mode", false, "Never write to output pins")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	if cfg.ConfigFile != "" {
		file, err := os.Open(cfg.ConfigFile)
		if err != nil {
			panic("Failed to load config file: " + err.Error())
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			panic("Failed to parse config file: " + err.Error())
		}
	}

	cfg.validate()
	return cfg
}

func (cfg Config) ControlPeriod() time.Duration {
	return time.Duration(cfg.ControlPeriodMillis) * time.Millisecond
}

func (cfg Config) SamplePeriod() time.Duration {
	return time.Duration(cfg.SamplePeriodMillis) * time.Millisecond
}

func (cfg Config) LevelPollPeriod() time.Duration {
	return time.Duration(cfg.LevelPollMillis) * time.Millisecond
}

func (cfg Config) PushPeriod() time.Duration {
	return time.Duration(cfg.PushPeriodMillis) * time.Millisecond
}

func (cfg Config) MQTTPublishPeriod() time.Duration {
	return time.Duration(cfg.MQTT.PublishSeconds) * time.Second
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
		problems      []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			if t.Field(i).Tag.Get("optional") != "true" {
				missingFields = append(missingFields, "gpio."+fieldName)
			}
			continue
		}

		pin := int(field.Elem().Int())
		if other, exists := usedPins[pin]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[pin] = fieldName
		}
	}

	for _, s := range []struct {
		name   string
		sensor Sensor
	}{
		{"sensors.hlt_temp", cfg.Sensors.HLTTemp},
		{"sensors.pump_assembly_temp", cfg.Sensors.PumpAssemblyTemp},
	} {
		if other, exists := usedPins[s.sensor.Pin]; exists {
			conflicts = append(conflicts, fmt.Sprintf("%s and %s both use pin %d", s.name, other, s.sensor.Pin))
		} else {
			usedPins[s.sensor.Pin] = s.name
		}
	}

	if cfg.ControlPeriodMillis <= 0 || cfg.SamplePeriodMillis <= 0 || cfg.LevelPollMillis <= 0 || cfg.PushPeriodMillis <= 0 {
		problems = append(problems, "periods must be positive")
	}
	if cfg.HeaterMin > cfg.HeaterMax {
		problems = append(problems, fmt.Sprintf("heater range [%g, %g] is empty", cfg.HeaterMin, cfg.HeaterMax))
	}
	if cfg.MQTT.Enabled && (cfg.MQTT.Broker == "" || cfg.MQTT.PublishSeconds <= 0) {
		problems = append(problems, "mqtt needs a broker and a positive publish_seconds")
	}
	if cfg.EdgesPerLiter <= 0 {
		problems = append(problems, "edges_per_liter must be positive")
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, ", "))
	}
}
