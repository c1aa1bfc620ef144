package lifecycle

import (
	"sync"

	"github.com/genc-murat/crystalplaces/internal/core/ports"
)

// Environment holds the state a script loader shares with its consumers: the
// loaded maps namespace and load callbacks registered by name.
type Environment struct {
	mu        sync.RWMutex
	maps      ports.Maps
	callbacks map[string]*Registration
}

// Registration identifies one callback registered under a name
type Registration struct {
	name string
	fn   func()
}

func (r *Registration) Name() string {
	return r.name
}

var global = NewEnvironment()

// Global returns the process-wide environment
func Global() *Environment {
	return global
}

func NewEnvironment() *Environment {
	return &Environment{
		callbacks: make(map[string]*Registration),
	}
}

// Maps returns the loaded namespace or nil
func (e *Environment) Maps() ports.Maps {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maps
}

// SetMaps publishes (or with nil, removes) the loaded namespace
func (e *Environment) SetMaps(m ports.Maps) {
	e.mu.Lock()
	e.maps = m
	e.mu.Unlock()
}

// Register binds fn to name, replacing an earlier registration
func (e *Environment) Register(name string, fn func()) *Registration {
	reg := &Registration{name: name, fn: fn}

	e.mu.Lock()
	e.callbacks[name] = reg
	e.mu.Unlock()

	return reg
}

// Deregister removes reg if it is still the registration bound to its name
func (e *Environment) Deregister(reg *Registration) bool {
	if reg == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if current, ok := e.callbacks[reg.name]; ok && current == reg {
		delete(e.callbacks, reg.name)
		return true
	}
	return false
}

// Callback returns the function registered under name
func (e *Environment) Callback(name string) (func(), bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reg, ok := e.callbacks[name]
	if !ok {
		return nil, false
	}
	return reg.fn, true
}

// Invoke runs the callback registered under name, if any
func (e *Environment) Invoke(name string) bool {
	fn, ok := e.Callback(name)
	if !ok {
		return false
	}
	fn()
	return true
}
