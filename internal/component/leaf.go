package component

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Number is the scalar type carried by a leaf.
type Number interface {
	~int | ~int64 | ~float64
}

// Readable is a leaf reporting a value.
type Readable[T Number] interface {
	Component
	Get() T
}

// Writable is a readable leaf accepting a new value.
type Writable[T Number] interface {
	Readable[T]
	Set(v T) error
}

// Reading is a read-only leaf backed by a read function. The function must
// not block on hardware; samplers keep the value it returns current.
type Reading[T Number] struct {
	Named
	read func() T
}

func NewReading[T Number](name string, read func() T) *Reading[T] {
	return &Reading[T]{Named: NewNamed(name), read: read}
}

func (r *Reading[T]) Get() T {
	return r.read()
}

func (r *Reading[T]) Status() any {
	return r.Get()
}

func (r *Reading[T]) Layout() string {
	return `<div id="` + r.Name() + `"></div>` + "\n"
}

func (r *Reading[T]) Script(parent []string) string {
	return "registerText('" + Endpoint(r.Name(), parent) + "', '" + Selector(r.Name(), parent) + "');\n"
}

func (r *Reading[T]) Register(rt Router, prefix string) {
	rt.Get(prefix+"/"+r.Name()+"/status", StatusHandler(r))
}

func (r *Reading[T]) Modify(path []string) (bool, error) {
	if !r.addressed(path) {
		return false, nil
	}
	log.Debug().Str("component", r.Name()).Msg("Readable component cannot be modified")
	return true, fmt.Errorf("%w: %s is read-only", ErrUnsupported, r.Name())
}

// Value is a writable leaf. apply, when set, drives the hardware line and
// runs synchronously inside Set; the value is stored only if it succeeds.
type Value[T Number] struct {
	Named

	// setMu serialises writers across the hardware call, mu guards value only.
	setMu sync.Mutex
	mu    sync.Mutex
	value T
	apply func(T) error
}

func NewValue[T Number](name string, initial T, apply func(T) error) *Value[T] {
	return &Value[T]{Named: NewNamed(name), value: initial, apply: apply}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *Value[T]) Set(x T) error {
	return v.Update(func(T) T { return x })
}

// Update replaces the value with fn(current) as one write.
func (v *Value[T]) Update(fn func(T) T) error {
	v.setMu.Lock()
	defer v.setMu.Unlock()

	next := fn(v.Get())
	if v.apply != nil {
		if err := v.apply(next); err != nil {
			return fmt.Errorf("set %s: %w", v.Name(), err)
		}
	}

	v.mu.Lock()
	v.value = next
	v.mu.Unlock()
	return nil
}

func (v *Value[T]) Status() any {
	return v.Get()
}

func (v *Value[T]) Layout() string {
	return `<div id="` + v.Name() + `"></div>` + "\n"
}

func (v *Value[T]) Script(parent []string) string {
	return "registerText('" + Endpoint(v.Name(), parent) + "', '" + Selector(v.Name(), parent) + "');\n"
}

func (v *Value[T]) Register(rt Router, prefix string) {
	rt.Get(prefix+"/"+v.Name()+"/status", StatusHandler(v))
}

// Modify accepts [name, "set", value].
func (v *Value[T]) Modify(path []string) (bool, error) {
	if !v.addressed(path) {
		return false, nil
	}
	action := actionOf(path)
	if action != "set" {
		return true, unsupported(v.Name(), action)
	}
	return true, v.setRaw(argOf(path))
}

func (v *Value[T]) setRaw(raw string) error {
	x, err := ParseValue[T](raw)
	if err != nil {
		return err
	}
	log.Debug().Str("component", v.Name()).Str("value", raw).Msg("Setting value")
	return v.Set(x)
}

// Switch is an on/off writable leaf: a button, valve or pump.
type Switch struct {
	*Value[int]
}

func NewSwitch(name string, initial int, apply func(int) error) *Switch {
	return &Switch{Value: NewValue(name, initial, apply)}
}

// Toggle flips the switch.
func (s *Switch) Toggle() error {
	return s.Update(func(v int) int {
		if v != 0 {
			return 0
		}
		return 1
	})
}

func (s *Switch) On() bool {
	return s.Get() != 0
}

func (s *Switch) Layout() string {
	return `<button id="` + s.Name() + `">` + s.Name() + "</button>\n"
}

func (s *Switch) Script(parent []string) string {
	return "registerButton('" + Endpoint(s.Name(), parent) + "', '" + Selector(s.Name(), parent) + "');\n"
}

func (s *Switch) Register(rt Router, prefix string) {
	s.Value.Register(rt, prefix)
	rt.Get(prefix+"/"+s.Name()+"/toggle", ActionHandler(s.Toggle))
}

// Modify accepts [name], [name, "toggle"] and [name, "set", value].
func (s *Switch) Modify(path []string) (bool, error) {
	if !s.addressed(path) {
		return false, nil
	}
	switch action := actionOf(path); action {
	case "", "toggle":
		log.Debug().Str("component", s.Name()).Msg("Toggling value")
		return true, s.Toggle()
	case "set":
		return true, s.setRaw(argOf(path))
	default:
		return true, unsupported(s.Name(), action)
	}
}

// Target is a writable leaf with a [min, max] range. Set does not clamp;
// the range bounds the UI slider.
type Target[T Number] struct {
	*Value[T]
	min T
	max T
}

// NewTarget starts at min. It panics if min > max.
func NewTarget[T Number](name string, min, max T, apply func(T) error) *Target[T] {
	if min > max {
		panic(fmt.Sprintf("component: %s range [%v, %v] is empty", name, min, max))
	}
	return &Target[T]{Value: NewValue(name, min, apply), min: min, max: max}
}

func (t *Target[T]) Min() T { return t.min }
func (t *Target[T]) Max() T { return t.max }

func (t *Target[T]) Layout() string {
	return `<div id="` + t.Name() + `_label"></div>` + "\n" +
		`<input id="` + t.Name() + `" type='range'/>` + "\n"
}

func (t *Target[T]) Script(parent []string) string {
	return "registerTargetValue('" + Endpoint(t.Name(), parent) + "', '" + Selector(t.Name(), parent) + "', " +
		FormatNumber(t.min) + ", " + FormatNumber(t.max) + ");\n"
}

func (t *Target[T]) Register(rt Router, prefix string) {
	t.Value.Register(rt, prefix)
	rt.Get(prefix+"/"+t.Name()+"/set_target", SetHandler(t.setRaw))
}

// Modify accepts [name, "set_target", value] and [name, "set", value].
func (t *Target[T]) Modify(path []string) (bool, error) {
	if !t.addressed(path) {
		return false, nil
	}
	switch action := actionOf(path); action {
	case "set", "set_target":
		return true, t.setRaw(argOf(path))
	default:
		return true, unsupported(t.Name(), action)
	}
}

// ParseValue parses raw as T. Integer leaves reject fractional input.
func ParseValue[T Number](raw string) (T, error) {
	var zero T
	raw = strings.TrimSpace(raw)
	if isInteger[T]() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
		}
		return T(n), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return zero, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	return T(f), nil
}

// FormatNumber renders v the way it appears in generated scripts.
func FormatNumber[T Number](v T) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

func isInteger[T Number]() bool {
	half := 0.5
	return T(half) == 0
}

func actionOf(path []string) string {
	if len(path) < 2 {
		return ""
	}
	return path[1]
}

func argOf(path []string) string {
	if len(path) < 3 {
		return ""
	}
	return path[2]
}

func unsupported(name, action string) error {
	return fmt.Errorf("%w: %q on %s", ErrUnsupported, action, name)
}
