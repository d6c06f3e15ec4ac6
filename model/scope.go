package model

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Runner is anything executing against a scope that must pause when the
// scope stops being active (a simulation controller's background loop).
type Runner interface {
	StopRun()
}

// Scope owns exactly one active Document plus the mutex under which new
// place, transition, and arc ids are allocated within it; the ids are
// prefixed random UUIDs, not counter values. Two goroutines
// importing into the same scope concurrently still get distinct ids.
type Scope struct {
	Name     string
	Document *Document

	mu     sync.Mutex
	runner Runner
}

// AttachRunner records the simulation driving this scope so Switch can
// pause it when another scope becomes active.
func (s *Scope) AttachRunner(r Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = r
}

func (s *Scope) pause() {
	s.mu.Lock()
	r := s.runner
	s.mu.Unlock()
	if r != nil {
		r.StopRun()
	}
}

// NewScope wraps doc under name. doc may be nil; callers that build a model
// incrementally set Scope.Document once ready.
func NewScope(name string, doc *Document) *Scope {
	return &Scope{Name: name, Document: doc}
}

// NextPlaceID returns a fresh, scope-unique place id.
func (s *Scope) NextPlaceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "p_" + uuid.NewString()
}

// NextTransitionID returns a fresh, scope-unique transition id.
func (s *Scope) NextTransitionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "t_" + uuid.NewString()
}

// NextArcID returns a fresh, scope-unique arc id.
func (s *Scope) NextArcID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "a_" + uuid.NewString()
}

// Registry owns a set of named scopes and tracks which one is active.
// Switching the active scope is the only way its identity changes;
// callers holding a *Scope from before a Switch keep a valid reference to
// that (now inactive) scope.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string]*Scope
	active string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[string]*Scope)}
}

// Register adds sc under its name, making it the active scope if the
// registry currently has none.
func (r *Registry) Register(sc *Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes[sc.Name] = sc
	if r.active == "" {
		r.active = sc.Name
	}
}

// Switch makes the named scope active and returns it, pausing any
// simulation attached to the previously active scope.
func (r *Registry) Switch(name string) (*Scope, error) {
	r.mu.Lock()
	sc, ok := r.scopes[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, name)
	}
	prev := r.scopes[r.active]
	r.active = name
	r.mu.Unlock()

	if prev != nil && prev != sc {
		prev.pause()
	}
	return sc, nil
}

// Active returns the currently active scope, or nil if none is registered.
func (r *Registry) Active() *Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil
	}
	return r.scopes[r.active]
}

// Get returns the named scope without changing which one is active.
func (r *Registry) Get(name string) (*Scope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scopes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, name)
	}
	return sc, nil
}
