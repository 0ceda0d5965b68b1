package shutdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/brew-controller/internal/config"
	"github.com/thatsimonsguy/brew-controller/internal/env"
)

func stubRun(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	old := run
	run = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}
	t.Cleanup(func() { run = old })
	return &calls
}

func TestRebootAndPowerOff(t *testing.T) {
	calls := stubRun(t)
	env.Cfg = &config.Config{}

	require.NoError(t, Reboot())
	require.NoError(t, PowerOff())
	assert.Equal(t, [][]string{
		{"shutdown", "-r", "now"},
		{"shutdown", "-P", "now"},
	}, *calls)
}

func TestSafeModeDoesNothing(t *testing.T) {
	calls := stubRun(t)
	env.Cfg = &config.Config{SafeMode: true}
	defer func() { env.Cfg = nil }()

	require.NoError(t, Reboot())
	assert.Empty(t, *calls)
}
