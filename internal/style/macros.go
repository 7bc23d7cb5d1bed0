package style

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// MacroFunc expands positional arguments into ordered action strings.
type MacroFunc func(args ...string) ([]string, error)

// Macros is a registry of named macros. It is safe for concurrent use.
type Macros struct {
	mu     sync.RWMutex
	macros map[string]MacroFunc
}

// NewMacroRegistry returns an empty registry.
func NewMacroRegistry() *Macros {
	return &Macros{macros: make(map[string]MacroFunc)}
}

// DefaultMacros returns a registry holding the built-in macros.
func DefaultMacros() *Macros {
	m := NewMacroRegistry()
	m.Register("scaleAndCrop", ScaleAndCrop)
	return m
}

// Register adds or replaces the macro called name.
func (m *Macros) Register(name string, fn MacroFunc) {
	m.mu.Lock()
	m.macros[name] = fn
	m.mu.Unlock()
}

// Lookup returns the macro called name.
func (m *Macros) Lookup(name string) (MacroFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.macros[name]
	return fn, ok
}

// Names returns the registered macro names, sorted.
func (m *Macros) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.macros))
	for name := range m.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScaleAndCrop scales an image to cover a width x height box and crops the
// overflow: scaleAndCrop|width|height[|gravity]. Gravity defaults to Center.
//
// The vertical extent offset is height/2 using integer division: extent pins
// the image's gravity point to that row, so Center gravity yields a centered
// crop and North or South keep the top or bottom edge.
func ScaleAndCrop(args ...string) ([]string, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("scaleAndCrop requires width and height, got %d arguments", len(args))
	}
	width, height := args[0], args[1]
	gravity := "Center"
	if len(args) > 2 && args[2] != "" {
		gravity = args[2]
	}

	h, err := strconv.Atoi(height)
	if err != nil {
		return nil, fmt.Errorf("scaleAndCrop height %q is not an integer", height)
	}
	if _, err := strconv.Atoi(width); err != nil {
		return nil, fmt.Errorf("scaleAndCrop width %q is not an integer", width)
	}

	return []string{
		"gravity|" + gravity,
		fmt.Sprintf("resize|%s|%s^", width, height),
		fmt.Sprintf("extent|%s|%s|+0|+%d", width, height, h/2),
	}, nil
}
