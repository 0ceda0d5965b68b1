package temperature

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
)

const goodW1 = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"

func TestParseW1Slave(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    float64
		wantErr bool
	}{
		{"valid", goodW1, 73.625, false},
		{"negative", "xx : crc=aa YES\nxx t=-1250\n", 29.75, false},
		{"crc failure", "xx : crc=aa NO\nxx t=23125\n", 0, true},
		{"missing data line", "xx : crc=aa YES\n", 0, true},
		{"garbage value", "xx : crc=aa YES\nxx t=abc\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseW1Slave(tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadReading)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestW1Probe(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "28-0000055823d0")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "w1_slave"), []byte(goodW1), 0o644))

	p, err := NewW1Probe(dir, "0000055823d0")
	require.NoError(t, err)
	temp, err := p.ReadFahrenheit()
	require.NoError(t, err)
	assert.InDelta(t, 73.625, temp, 0.001)

	_, err = NewW1Probe(dir, "derpderpderp")
	assert.Error(t, err)
}

func TestAnalogProbe(t *testing.T) {
	m := gpio.NewMock()
	m.SetAnalog(65, 472) // 47.2 C

	temp, err := NewAnalogProbe(m, 65).ReadFahrenheit()
	require.NoError(t, err)
	assert.InDelta(t, 116.96, temp, 0.001)

	_, err = NewAnalogProbe(m, 66).ReadFahrenheit()
	assert.Error(t, err)
}

func TestSpikeFilter(t *testing.T) {
	f := NewSpikeFilter(10, 3)

	readings := []struct {
		temp     float64
		accepted bool
	}{
		{100, true},
		{101, true},
		{185, false}, // power-on reset value
		{100.5, true},
		{150, false},
		{151, false},
		{150.5, true}, // three readings agree on the new level
		{152, true},
	}

	for i, r := range readings {
		assert.Equal(t, r.accepted, f.Accept(r.temp), "reading %d (%.1f)", i, r.temp)
	}
	baseline, ok := f.Baseline()
	assert.True(t, ok)
	assert.Equal(t, 152.0, baseline)
}

type fakeProbe struct {
	temps []float64
	errs  []error
	calls int
}

func (p *fakeProbe) ReadFahrenheit() (float64, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return 0, p.errs[i]
	}
	if i < len(p.temps) {
		return p.temps[i], nil
	}
	return p.temps[len(p.temps)-1], nil
}

func newTestSampler(p Probe) (*Sampler, *component.History) {
	h := component.NewHistory(time.Unix(0, 0), 10)
	s := NewSampler("reflow_temp", p, h)
	s.retryDelay = time.Millisecond
	s.now = func() time.Time { return time.Unix(2, 0) }
	return s, h
}

func TestSampler_AppendsAcceptedReadings(t *testing.T) {
	s, h := newTestSampler(&fakeProbe{temps: []float64{117, 118, 400}})
	ctx := context.Background()

	require.NoError(t, s.Tick(ctx))
	require.NoError(t, s.Tick(ctx))
	require.NoError(t, s.Tick(ctx), "rejected spikes are not errors")

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 118.0, h.Latest())
}

func TestSampler_RetriesThenSucceeds(t *testing.T) {
	boom := errors.New("bus busy")
	p := &fakeProbe{temps: []float64{0, 0, 120}, errs: []error{boom, boom}}
	s, h := newTestSampler(p)

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, 120.0, h.Latest())
}

func TestSampler_FailureKeepsHistory(t *testing.T) {
	boom := errors.New("bus busy")
	p := &fakeProbe{temps: []float64{0}, errs: []error{boom, boom, boom, boom, boom}}
	s, h := newTestSampler(p)

	err := s.Tick(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, defaultRetries+1, p.calls)
}
