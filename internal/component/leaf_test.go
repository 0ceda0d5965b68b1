package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_SetThenGet(t *testing.T) {
	f := NewValue("ratio", 0.0, nil)
	require.NoError(t, f.Set(0.1+0.2))
	assert.Equal(t, 0.1+0.2, f.Get())

	i := NewValue("count", 0, nil)
	require.NoError(t, i.Set(42))
	assert.Equal(t, 42, i.Get())
}

func TestValue_ApplyRunsBeforeStore(t *testing.T) {
	var driven []int
	v := NewValue("relay", 0, func(x int) error {
		driven = append(driven, x)
		return nil
	})

	require.NoError(t, v.Set(1))
	assert.Equal(t, []int{1}, driven)
	assert.Equal(t, 1, v.Get())
}

func TestValue_FailedApplyKeepsValue(t *testing.T) {
	v := NewValue("relay", 0, func(int) error { return errors.New("line stuck") })

	err := v.Set(1)
	assert.ErrorContains(t, err, "line stuck")
	assert.Equal(t, 0, v.Get())
}

func TestSwitch_ToggleTwiceRestores(t *testing.T) {
	for _, initial := range []int{0, 1} {
		s := NewSwitch("pump", initial, nil)
		require.NoError(t, s.Toggle())
		assert.NotEqual(t, initial, s.Get())
		require.NoError(t, s.Toggle())
		assert.Equal(t, initial, s.Get())
	}
}

func TestSwitch_ModifyActions(t *testing.T) {
	s := NewSwitch("valve", 0, nil)

	matched, err := s.Modify([]string{"valve"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.True(t, s.On())

	matched, err = s.Modify([]string{"valve", "set", "0"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.False(t, s.On())

	matched, err = s.Modify([]string{"valve", "explode"})
	assert.True(t, matched)
	assert.ErrorIs(t, err, ErrUnsupported)

	matched, err = s.Modify([]string{"pump", "toggle"})
	assert.NoError(t, err)
	assert.False(t, matched)
	assert.False(t, s.On())
}

func TestTarget_SetIsNotClamped(t *testing.T) {
	h := NewTarget[float64]("heater", 50, 200, nil)
	assert.Equal(t, 50.0, h.Get(), "target starts at its minimum")

	require.NoError(t, h.Set(250))
	assert.Equal(t, 250.0, h.Get())
	assert.Equal(t, 50.0, h.Min())
	assert.Equal(t, 200.0, h.Max())
}

func TestTarget_RejectsEmptyRange(t *testing.T) {
	assert.Panics(t, func() { NewTarget("heater", 10, 5, nil) })
}

func TestParseValue(t *testing.T) {
	f, err := ParseValue[float64](" 151.5 ")
	require.NoError(t, err)
	assert.Equal(t, 151.5, f)

	i, err := ParseValue[int]("7")
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	for _, raw := range []string{"", "abc", "NaN", "Inf"} {
		_, err := ParseValue[float64](raw)
		assert.ErrorIs(t, err, ErrInvalidValue, "raw %q", raw)
	}
	_, err = ParseValue[int]("1.5")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestLeafLayoutAndScript(t *testing.T) {
	h := NewTarget("heater", 50, 200, nil)
	assert.Equal(t, "<div id=\"heater_label\"></div>\n<input id=\"heater\" type='range'/>\n", h.Layout())
	assert.Equal(t, "registerTargetValue('/hlt/heater', '#hlt > #heater', 50, 200);\n", h.Script([]string{"hlt"}))

	r := NewReading("flow", func() float64 { return 0 })
	assert.Equal(t, "<div id=\"flow\"></div>\n", r.Layout())
	assert.Equal(t, "registerText('/flow', '#flow');\n", r.Script(nil))
}
