package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/db"
	"github.com/thatsimonsguy/brew-controller/internal/api"
	"github.com/thatsimonsguy/brew-controller/internal/brewery"
	"github.com/thatsimonsguy/brew-controller/internal/config"
	"github.com/thatsimonsguy/brew-controller/internal/controller"
	"github.com/thatsimonsguy/brew-controller/internal/datadog"
	"github.com/thatsimonsguy/brew-controller/internal/env"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/logging"
	"github.com/thatsimonsguy/brew-controller/internal/mqtt"
	"github.com/thatsimonsguy/brew-controller/internal/notifications"
	"github.com/thatsimonsguy/brew-controller/internal/pinctrl"
)

// mockRawTemp is an analog reading of about 68°F.
const mockRawTemp = 200

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Int("port", cfg.Port).
		Bool("mock", cfg.Mock).
		Msg("Starting brewery controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED, output pins will not be written")
	}

	datadog.InitMetrics(cfg.Datadog)
	defer datadog.Close()
	notifications.Init(cfg.NtfyTopic)

	driver, probes := hardware(&cfg)

	var journal *sql.DB
	if cfg.JournalPath != "" {
		var err error
		journal, err = db.Open(cfg.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.JournalPath).Msg("Failed to open command journal")
		}
		defer journal.Close()
	}

	b, err := brewery.New(&cfg, driver, probes, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build brewery")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := api.NewServer(b, &cfg, journal, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build HTTP server")
	}

	var loops controller.Group
	for _, l := range b.Loops() {
		loops.Go(ctx, l)
	}
	loops.Go(ctx, controller.NewLoop("push_status", cfg.PushPeriod(), server.Push))

	if cfg.MQTT.Enabled {
		bridge, err := mqtt.Connect(cfg.MQTT, b, journal)
		if err != nil {
			log.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT unavailable, continuing without it")
		} else {
			defer bridge.Close()
			loops.Go(ctx, controller.NewLoop("mqtt_status", cfg.MQTTPublishPeriod(), bridge.PublishStatus))
		}
	}

	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
		stop()
	}

	loops.Wait()
	if err := b.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to turn outputs off cleanly")
	}
	log.Info().Msg("Brewery controller stopped")
}

// hardware picks the GPIO driver and temperature probes for this run.
func hardware(cfg *config.Config) (gpio.Driver, brewery.ProbeFactory) {
	if cfg.Mock {
		m := gpio.NewMock()
		m.SetAnalog(cfg.Sensors.HLTTemp.Pin, mockRawTemp)
		m.SetAnalog(cfg.Sensors.PumpAssemblyTemp.Pin, mockRawTemp)
		return m, brewery.AnalogProbes(m)
	}
	return pinctrl.NewDriver(cfg.GPIOChip), brewery.W1Probes(cfg.W1Dir)
}
