// Package mqtt mirrors the brewery onto an MQTT broker: status snapshots are
// published and dispatch paths received on the command topic are applied.
package mqtt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/db"
	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	qos                      = 1
)

var ErrConnectionFailed = errors.New("mqtt connection failed")

type Topics struct {
	Prefix string
}

func (t Topics) Status() string  { return t.Prefix + "/status" }
func (t Topics) Command() string { return t.Prefix + "/command" }
func (t Topics) Online() string  { return t.Prefix + "/online" }

type Bridge struct {
	client  pahomqtt.Client
	topics  Topics
	root    component.Component
	journal *sql.DB

	publish func(topic string, retained bool, payload []byte) error
}

// Connect dials the broker and subscribes to the command topic. journal may
// be nil.
func Connect(cfg config.MQTTConfig, root component.Component, journal *sql.DB) (*Bridge, error) {
	b := &Bridge{
		topics:  Topics{Prefix: cfg.TopicPrefix},
		root:    root,
		journal: journal,
	}

	opts := buildClientOptions(cfg)
	opts.SetWill(b.topics.Online(), "false", qos, true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
		c.Subscribe(b.topics.Command(), qos, b.wrapHandler)
		c.Publish(b.topics.Online(), qos, true, "true")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	b.client = pahomqtt.NewClient(opts)
	b.publish = b.pahoPublish

	token := b.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		b.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		b.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return b, nil
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	return opts
}

func (b *Bridge) pahoPublish(topic string, retained bool, payload []byte) error {
	token := b.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// PublishStatus sends the whole-tree status, retained.
func (b *Bridge) PublishStatus(ctx context.Context) error {
	payload, err := json.Marshal(b.root.Status())
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return b.publish(b.topics.Status(), true, payload)
}

func (b *Bridge) wrapHandler(_ pahomqtt.Client, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("topic", msg.Topic()).Msg("MQTT handler panic recovered")
		}
	}()
	if err := b.handleCommand(msg.Payload()); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("MQTT command rejected")
	}
}

// handleCommand applies a payload such as "brewery/hlt/pump/toggle" or
// "brewery hlt heater set_target 150".
func (b *Bridge) handleCommand(payload []byte) error {
	raw := string(payload)
	matched, err := b.root.Modify(component.SplitPath(raw))

	status := 200
	switch {
	case err != nil:
		status = component.StatusFor(err)
	case !matched:
		status = 404
	}
	if b.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, jerr := db.RecordCommand(ctx, b.journal, db.SourceMQTT, "PUBLISH", raw, status); jerr != nil {
			log.Warn().Err(jerr).Msg("Failed to journal command")
		}
	}

	if err != nil {
		return err
	}
	if !matched {
		log.Warn().Str("path", raw).Msg("MQTT command matched nothing")
	}
	return nil
}

func (b *Bridge) Close() {
	if b.client == nil {
		return
	}
	if b.client.IsConnected() {
		_ = b.publish(b.topics.Online(), true, []byte("false"))
	}
	b.client.Disconnect(defaultDisconnectQuiesce)
}
