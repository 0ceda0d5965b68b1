// Package component composes brewery hardware into a tree of named nodes.
//
// Leaves wrap one value (a sensor reading, a switch, a setpoint). A Tuple
// groups an ordered, fixed set of children under one name and is itself a
// Component, so status collection, layout, update script generation,
// endpoint registration and path dispatch are all written once and recurse.
package component

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var (
	// ErrInvalidValue is returned when a value sent to a writable leaf cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnsupported is returned when the addressed component does not offer the requested action.
	ErrUnsupported = errors.New("action not supported")
	// ErrNoChild is returned by positional access outside a tuple's arity.
	ErrNoChild = errors.New("no child at index")
)

// Router is the part of chi.Router the tree needs to register its endpoints.
type Router interface {
	Get(pattern string, h http.HandlerFunc)
}

// Component is any node of the device tree.
type Component interface {
	Name() string
	// Status is a number for leaves and a map keyed by child name for tuples.
	Status() any
	// Layout is the HTML fragment rendering this node.
	Layout() string
	// Script is the javascript registering this node with the page poller.
	// parent holds the names of the enclosing tuples, outermost first.
	Script(parent []string) string
	// Register adds this node's endpoints below prefix.
	Register(r Router, prefix string)
	// Modify routes a command addressed by path, whose first element must be
	// this node's name. matched reports whether a leaf was reached; err is
	// only set for commands a leaf rejected.
	Modify(path []string) (matched bool, err error)
}

// Parent is implemented by components with children.
type Parent interface {
	Children() []Component
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Named holds a component's immutable name.
type Named struct {
	name string
}

// NewNamed panics if name is empty or cannot be used as an HTML id and URL segment.
func NewNamed(name string) Named {
	if !namePattern.MatchString(name) {
		panic(fmt.Sprintf("component: invalid name %q", name))
	}
	return Named{name: name}
}

func (n Named) Name() string {
	return n.name
}

// addressed reports whether path targets the named node.
func (n Named) addressed(path []string) bool {
	return len(path) > 0 && path[0] == n.name
}

// Selector builds the CSS selector of a node below its enclosing tuples.
func Selector(name string, parent []string) string {
	var b strings.Builder
	for _, p := range parent {
		b.WriteString("#" + p + " > ")
	}
	b.WriteString("#" + name)
	return b.String()
}

// Endpoint builds the URL path of a node below its enclosing tuples.
func Endpoint(name string, parent []string) string {
	var b strings.Builder
	for _, p := range parent {
		b.WriteString("/" + p)
	}
	b.WriteString("/" + name)
	return b.String()
}

// SplitPath turns "brewery/hlt/pump/toggle" or "brewery hlt pump toggle"
// into a dispatch path. Empty segments are dropped.
func SplitPath(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ' '
	})
}

// Find resolves path from root, whose name must be path[0].
func Find(root Component, path []string) (Component, bool) {
	if len(path) == 0 || root.Name() != path[0] {
		return nil, false
	}
	cur := root
	for _, name := range path[1:] {
		p, ok := cur.(Parent)
		if !ok {
			return nil, false
		}
		var next Component
		for _, c := range p.Children() {
			if c.Name() == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Walk visits c and every descendant in pre-order, children in construction
// order. path ends with the visited node's own name.
func Walk(c Component, fn func(path []string, c Component)) {
	walk(nil, c, fn)
}

func walk(parent []string, c Component, fn func(path []string, c Component)) {
	path := append(append([]string(nil), parent...), c.Name())
	fn(path, c)
	if p, ok := c.(Parent); ok {
		for _, child := range p.Children() {
			walk(path, child, fn)
		}
	}
}
