package mqtt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/brew-controller/db"
	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/config"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

func newTestBridge(t *testing.T) (*Bridge, *component.Switch, *component.Target[float64], *[]published) {
	t.Helper()
	pump := component.NewSwitch("pump", 0, nil)
	heater := component.NewTarget[float64]("heater", 50, 200, nil)
	root := component.NewTuple("brewery", component.NewTuple("hlt", heater, pump))

	journal, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	var sent []published
	b := &Bridge{
		topics:  Topics{Prefix: "brewery"},
		root:    root,
		journal: journal,
		publish: func(topic string, retained bool, payload []byte) error {
			sent = append(sent, published{topic, retained, payload})
			return nil
		},
	}
	return b, pump, heater, &sent
}

func TestPublishStatus(t *testing.T) {
	b, _, _, sent := newTestBridge(t)

	require.NoError(t, b.PublishStatus(context.Background()))
	require.Len(t, *sent, 1)
	assert.Equal(t, "brewery/status", (*sent)[0].topic)
	assert.True(t, (*sent)[0].retained)

	var status map[string]map[string]float64
	require.NoError(t, json.Unmarshal((*sent)[0].payload, &status))
	assert.Equal(t, map[string]float64{"heater": 50, "pump": 0}, status["hlt"])
}

func TestHandleCommand(t *testing.T) {
	b, pump, heater, _ := newTestBridge(t)

	require.NoError(t, b.handleCommand([]byte("brewery/hlt/pump/toggle")))
	assert.Equal(t, 1, pump.Get())

	require.NoError(t, b.handleCommand([]byte("brewery hlt heater set_target 150")))
	assert.Equal(t, 150.0, heater.Get())

	require.NoError(t, b.handleCommand([]byte("brewery/hlt/valve/toggle")), "unmatched commands are ignored")

	err := b.handleCommand([]byte("brewery/hlt/heater/set_target/hot"))
	assert.ErrorIs(t, err, component.ErrInvalidValue)

	commands, err := db.RecentCommands(context.Background(), b.journal, 10)
	require.NoError(t, err)
	require.Len(t, commands, 4)
	statuses := map[string]int{}
	for _, c := range commands {
		assert.Equal(t, db.SourceMQTT, c.Source)
		statuses[c.Path] = c.Status
	}
	assert.Equal(t, 200, statuses["brewery/hlt/pump/toggle"])
	assert.Equal(t, 404, statuses["brewery/hlt/valve/toggle"])
	assert.Equal(t, 400, statuses["brewery/hlt/heater/set_target/hot"])
}

func TestTopicsAndOptions(t *testing.T) {
	topics := Topics{Prefix: "brewery"}
	assert.Equal(t, "brewery/command", topics.Command())
	assert.Equal(t, "brewery/online", topics.Online())

	opts := buildClientOptions(config.MQTTConfig{
		Broker:   "tcp://broker.local:1883",
		ClientID: "brew-controller",
		Username: "brewer",
		Password: "hops",
	})
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker.local:1883", opts.Servers[0].Host)
	assert.Equal(t, "brew-controller", opts.ClientID)
	assert.Equal(t, "brewer", opts.Username)
	assert.True(t, opts.AutoReconnect)
}
