package connector

import (
	"context"
	"fmt"
	"sync"
)

// Registry is a thread-safe connector catalog indexed by slug and by id.
// Slug lookups are case-insensitive. Registering a connector whose slug is
// already present replaces the previous entry.
type Registry struct {
	mu     sync.RWMutex
	bySlug map[string]Connector
	byID   map[string]Connector
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySlug: make(map[string]Connector),
		byID:   make(map[string]Connector),
	}
}

// Register adds or replaces a connector. It panics on an empty slug since
// slugs are the primary lookup key.
func (r *Registry) Register(c Connector) {
	slug := normalizeSlug(c.Slug)
	if slug == "" {
		panic("connector: slug cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.bySlug[slug]; ok {
		delete(r.byID, prev.ID)
	} else {
		r.order = append(r.order, slug)
	}
	r.bySlug[slug] = c
	if c.ID != "" {
		r.byID[c.ID] = c
	}
}

// RegisterMany adds multiple connectors in one call.
func (r *Registry) RegisterMany(connectors ...Connector) {
	for _, c := range connectors {
		r.Register(c)
	}
}

// BySlug returns the connector registered under slug.
func (r *Registry) BySlug(slug string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.bySlug[normalizeSlug(slug)]
	return c, ok
}

// ByID returns the connector with the given catalog id.
func (r *Registry) ByID(id string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// MustBySlug returns the connector registered under slug or panics.
// Use only when absence is a programmer error, such as wiring built-in
// connectors at startup.
func (r *Registry) MustBySlug(slug string) Connector {
	c, ok := r.BySlug(slug)
	if !ok {
		panic(fmt.Sprintf("connector: slug %q not registered", slug))
	}
	return c
}

// Has reports whether a connector is registered under slug.
func (r *Registry) Has(slug string) bool {
	_, ok := r.BySlug(slug)
	return ok
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySlug)
}

// All returns the registered connectors in registration order.
func (r *Registry) All() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connector, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// Range calls fn for each connector in registration order until fn returns
// false. It iterates over a snapshot, so fn may call back into the registry.
func (r *Registry) Range(fn func(Connector) bool) {
	for _, c := range r.All() {
		if !fn(c) {
			return
		}
	}
}

// Load replaces the registry contents with the catalog served by src.
// On error the registry is left unchanged.
func (r *Registry) Load(ctx context.Context, src Source) error {
	connectors, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("load connectors: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bySlug = make(map[string]Connector, len(connectors))
	r.byID = make(map[string]Connector, len(connectors))
	r.order = r.order[:0]
	for _, c := range connectors {
		slug := normalizeSlug(c.Slug)
		if slug == "" {
			continue
		}
		if prev, ok := r.bySlug[slug]; ok {
			delete(r.byID, prev.ID)
		} else {
			r.order = append(r.order, slug)
		}
		r.bySlug[slug] = c
		if c.ID != "" {
			r.byID[c.ID] = c
		}
	}
	return nil
}
