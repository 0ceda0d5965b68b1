package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hltFixture struct {
	tank      *Tuple
	heater    *Target[float64]
	valve     *Switch
	pump      *Switch
	inputFlow *Reading[float64]
}

func newHLT() hltFixture {
	f := hltFixture{
		heater:    NewTarget[float64]("heater", 50, 200, nil),
		valve:     NewSwitch("reflow_valve", 0, nil),
		pump:      NewSwitch("pump", 0, nil),
		inputFlow: NewReading("input_flow", func() float64 { return 5.0 }),
	}
	f.tank = NewTuple("hlt",
		f.inputFlow,
		f.heater,
		f.valve,
		f.pump,
		NewReading("reflow_temp", func() float64 { return 117.0 }),
		NewReading("output_flow", func() float64 { return 5.0 }),
	)
	return f
}

func TestTupleStatus_OneEntryPerChild(t *testing.T) {
	f := newHLT()

	status, ok := f.tank.Status().(map[string]any)
	require.True(t, ok)
	assert.Len(t, status, 6)
	for _, name := range []string{"input_flow", "heater", "reflow_valve", "pump", "reflow_temp", "output_flow"} {
		assert.Contains(t, status, name)
	}
	assert.Equal(t, 117.0, status["reflow_temp"])
	assert.Equal(t, 50.0, status["heater"])
	assert.Equal(t, 0, status["pump"])
}

func TestTupleStatus_Nested(t *testing.T) {
	f := newHLT()
	root := NewTuple("brewery",
		f.tank,
		NewTuple("bk", NewSwitch("heater", 0, nil)),
	)

	status := root.Status().(map[string]any)
	require.Len(t, status, 2)
	assert.Len(t, status["hlt"], 6)
	assert.Equal(t, map[string]any{"heater": 0}, status["bk"])
}

func TestTupleStatus_Idempotent(t *testing.T) {
	f := newHLT()
	assert.Equal(t, f.tank.Status(), f.tank.Status())
}

func TestTupleModify_TogglesOnlyAddressedLeaf(t *testing.T) {
	f := newHLT()

	matched, err := f.tank.Modify([]string{"hlt", "pump", "toggle"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, 1, f.pump.Get())
	assert.Equal(t, 0, f.valve.Get())
	assert.Equal(t, 50.0, f.heater.Get())
}

func TestTupleModify_UnknownChildIsNoop(t *testing.T) {
	f := newHLT()
	before := f.tank.Status()

	matched, err := f.tank.Modify([]string{"hlt", "nonexistent", "toggle"})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, before, f.tank.Status())
}

func TestTupleModify_MismatchedRootIsNoop(t *testing.T) {
	f := newHLT()
	before := f.tank.Status()

	for _, path := range [][]string{
		{"mt", "pump", "toggle"},
		{},
		{"hlt"},
	} {
		matched, err := f.tank.Modify(path)
		assert.NoError(t, err)
		assert.False(t, matched, "path %v", path)
	}
	assert.Equal(t, before, f.tank.Status())
}

func TestTupleModify_NestedPath(t *testing.T) {
	f := newHLT()
	kettle := NewSwitch("heater", 0, nil)
	root := NewTuple("brewery", f.tank, NewTuple("bk", kettle))

	matched, err := root.Modify([]string{"brewery", "bk", "heater", "toggle"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, 1, kettle.Get())
	assert.Equal(t, 50.0, f.heater.Get(), "same-named leaf in another branch must not change")

	matched, err = root.Modify([]string{"brewery", "hlt", "heater", "set_target", "150"})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, 150.0, f.heater.Get())
	assert.Equal(t, 1, kettle.Get())
}

func TestTupleModify_ParseErrorSurfaces(t *testing.T) {
	f := newHLT()

	matched, err := f.tank.Modify([]string{"hlt", "heater", "set_target", "hot"})
	assert.True(t, matched)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, 50.0, f.heater.Get())
}

func TestTupleModify_ReadOnlyLeaf(t *testing.T) {
	f := newHLT()

	matched, err := f.tank.Modify([]string{"hlt", "input_flow", "toggle"})
	assert.True(t, matched)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestTupleChild(t *testing.T) {
	f := newHLT()

	c, err := f.tank.Child(3)
	require.NoError(t, err)
	assert.Same(t, f.pump, c)

	_, err = f.tank.Child(6)
	assert.ErrorIs(t, err, ErrNoChild)
	_, err = f.tank.Child(-1)
	assert.ErrorIs(t, err, ErrNoChild)
}

func TestNewTuple_RejectsDuplicateNames(t *testing.T) {
	assert.Panics(t, func() {
		NewTuple("hlt", NewSwitch("pump", 0, nil), NewSwitch("pump", 0, nil))
	})
	assert.Panics(t, func() { NewTuple("hlt") })
	assert.Panics(t, func() { NewTuple("", NewSwitch("pump", 0, nil)) })
	assert.Panics(t, func() { NewTuple("bad name", NewSwitch("pump", 0, nil)) })
}

func TestTupleLayout(t *testing.T) {
	tank := NewTuple("bk", NewSwitch("heater", 0, nil), NewReading("level", func() int { return 0 }))

	expected := "<fieldset id=\"bk\">\n" +
		"<legend>bk</legend>\n" +
		"<button id=\"heater\">heater</button>\n" +
		"<div id=\"level\"></div>\n" +
		"</fieldset>\n"
	assert.Equal(t, expected, tank.Layout())
}

func TestTupleScript(t *testing.T) {
	root := NewTuple("brewery",
		NewTuple("hlt",
			NewTarget[float64]("heater", 50, 200, nil),
			NewSwitch("pump", 0, nil),
		),
		NewReading("flow", func() float64 { return 0 }),
	)

	expected := "registerTargetValue('/brewery/hlt/heater', '#brewery > #hlt > #heater', 50, 200);\n" +
		"registerButton('/brewery/hlt/pump', '#brewery > #hlt > #pump');\n" +
		"registerText('/brewery/flow', '#brewery > #flow');\n"
	assert.Equal(t, expected, root.Script(nil))
}

func TestFindAndWalk(t *testing.T) {
	f := newHLT()
	root := NewTuple("brewery", f.tank)

	c, ok := Find(root, []string{"brewery", "hlt", "pump"})
	require.True(t, ok)
	assert.Same(t, f.pump, c)

	_, ok = Find(root, []string{"brewery", "hlt", "pump", "deeper"})
	assert.False(t, ok)
	_, ok = Find(root, []string{"other"})
	assert.False(t, ok)

	var visited []string
	Walk(root, func(path []string, c Component) {
		visited = append(visited, Endpoint(c.Name(), path[:len(path)-1]))
	})
	assert.Equal(t, []string{
		"/brewery",
		"/brewery/hlt",
		"/brewery/hlt/input_flow",
		"/brewery/hlt/heater",
		"/brewery/hlt/reflow_valve",
		"/brewery/hlt/pump",
		"/brewery/hlt/reflow_temp",
		"/brewery/hlt/output_flow",
	}, visited)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"brewery", "hlt", "pump", "toggle"}, SplitPath("/brewery/hlt/pump/toggle"))
	assert.Equal(t, []string{"brewery", "hlt", "pump"}, SplitPath("brewery  hlt pump "))
	assert.Empty(t, SplitPath(""))
}
