package component

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Tuple is an ordered, fixed set of named children presented as one
// component. Sibling names are unique; the children never change after
// construction.
type Tuple struct {
	Named
	children []Component
}

// NewTuple panics on an empty child list or duplicate sibling names.
func NewTuple(name string, children ...Component) *Tuple {
	if len(children) == 0 {
		panic(fmt.Sprintf("component: tuple %s has no children", name))
	}
	seen := make(map[string]bool, len(children))
	for _, c := range children {
		if seen[c.Name()] {
			panic(fmt.Sprintf("component: tuple %s has two children named %s", name, c.Name()))
		}
		seen[c.Name()] = true
	}
	return &Tuple{
		Named:    NewNamed(name),
		children: append([]Component(nil), children...),
	}
}

func (t *Tuple) Len() int {
	return len(t.children)
}

// Child returns the child at position i.
func (t *Tuple) Child(i int) (Component, error) {
	if i < 0 || i >= len(t.children) {
		return nil, fmt.Errorf("%w %d of %s (%d children)", ErrNoChild, i, t.Name(), len(t.children))
	}
	return t.children[i], nil
}

// Children returns a copy of the children in construction order.
func (t *Tuple) Children() []Component {
	return append([]Component(nil), t.children...)
}

// Lookup returns the first child named name.
func (t *Tuple) Lookup(name string) (Component, bool) {
	for _, c := range t.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

func (t *Tuple) Status() any {
	status := make(map[string]any, len(t.children))
	for _, c := range t.children {
		status[c.Name()] = c.Status()
	}
	return status
}

func (t *Tuple) Layout() string {
	var b strings.Builder
	b.WriteString(`<fieldset id="` + t.Name() + `">` + "\n")
	b.WriteString("<legend>" + t.Name() + "</legend>\n")
	for _, c := range t.children {
		b.WriteString(c.Layout())
	}
	b.WriteString("</fieldset>\n")
	return b.String()
}

func (t *Tuple) Script(parent []string) string {
	path := append(append([]string(nil), parent...), t.Name())
	var b strings.Builder
	for _, c := range t.children {
		b.WriteString(c.Script(path))
	}
	return b.String()
}

func (t *Tuple) Register(r Router, prefix string) {
	r.Get(prefix+"/"+t.Name()+"/status", StatusHandler(t))
	for _, c := range t.children {
		c.Register(r, prefix+"/"+t.Name())
	}
}

// Modify strips this tuple's name and forwards the rest of path to the
// first child named by the next element. Unaddressed or unknown paths are
// logged and ignored.
func (t *Tuple) Modify(path []string) (bool, error) {
	if !t.addressed(path) {
		log.Warn().Str("component", t.Name()).Strs("path", path).Msg("Path not addressed to this component, ignoring")
		return false, nil
	}
	rest := path[1:]
	if len(rest) == 0 {
		log.Warn().Str("component", t.Name()).Msg("Path ends at a group, nothing to modify")
		return false, nil
	}
	child, ok := t.Lookup(rest[0])
	if !ok {
		log.Warn().Str("component", t.Name()).Str("child", rest[0]).Msg("No child with that name, ignoring")
		return false, nil
	}
	log.Debug().Str("component", t.Name()).Str("child", child.Name()).Msg("Passing path along to child")
	return child.Modify(rest)
}
