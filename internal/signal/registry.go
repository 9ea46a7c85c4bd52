package signal

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Info is the read-only view of one registered generator.
type Info struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
	MinLookback int    `json:"min_lookback"`
}

type entry struct {
	gen    Generator
	active bool
}

// Registry maps generator ids to configured instances. Parameters arrive as
// raw JSON and are validated against the kind's schema before the
// constructor runs; a registered generator is immutable, re-registering an
// id replaces it.
type Registry struct {
	mu      sync.RWMutex
	kinds   map[string]kindSpec
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		kinds:   builtinKinds(),
		entries: make(map[string]*entry),
	}
}

// Kinds lists the registerable generator kinds, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Register validates rawParams against the kind schema, constructs the
// generator and stores it under id. Empty rawParams means kind defaults.
func (r *Registry) Register(id, kind string, rawParams []byte, active bool) (Generator, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: generator id cannot be empty", ErrInvalidParams)
	}
	spec, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	params := Params{}
	if len(rawParams) > 0 {
		var decoded any
		if err := json.Unmarshal(rawParams, &decoded); err != nil {
			return nil, fmt.Errorf("%w: params are not valid json: %v", ErrInvalidParams, err)
		}
		if err := spec.schema.Validate(decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		m, ok := decoded.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: params must be a json object", ErrInvalidParams)
		}
		params = Params(m)
	}
	gen, err := spec.build(id, params)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entries[id] = &entry{gen: gen, active: active}
	r.mu.Unlock()
	return gen, nil
}

// Add stores an already-constructed generator, bypassing schema
// validation. This is the hook for custom Generator implementations that
// are not built from a registered kind.
func (r *Registry) Add(gen Generator, active bool) error {
	if gen == nil || gen.ID() == "" {
		return fmt.Errorf("%w: generator and its id are required", ErrInvalidParams)
	}
	r.mu.Lock()
	r.entries[gen.ID()] = &entry{gen: gen, active: active}
	r.mu.Unlock()
	return nil
}

// Get looks up a generator by id.
func (r *Registry) Get(id string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.gen, true
}

// Remove deletes a generator. Reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

// SetActive toggles a generator in or out of the decision fan-out.
func (r *Registry) SetActive(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if ok {
		e.active = active
	}
	return ok
}

// Active returns the generators participating in the next fan-out, ordered
// by id so runs are reproducible.
func (r *Registry) Active() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Generator, 0, len(r.entries))
	for _, e := range r.entries {
		if e.active {
			out = append(out, e.gen)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// List describes every registered generator, ordered by id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Info{ID: id, Kind: e.gen.Kind(), Active: e.active, MinLookback: e.gen.MinLookback()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
