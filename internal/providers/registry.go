package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

type entry struct {
	provider Provider
	active   atomic.Bool
}

// Registry holds the process's metadata sources. Registration happens at startup;
// the active flag may be flipped at any time, concurrently with dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ordered []*entry
}

// SourceStatus is a point-in-time view of one registered source
type SourceStatus struct {
	Info   models.SourceInfo `json:"info" yaml:"info"`
	Active bool              `json:"active" yaml:"active"`
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a source. Sources implementing Checker are registered inactive
// when Ready fails.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if strings.TrimSpace(info.ID) == "" {
		return fmt.Errorf("source %q has an empty id", info.Description)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[info.ID]; exists {
		return &DuplicateIDError{ID: info.ID}
	}

	e := &entry{provider: p}
	e.active.Store(true)
	if checker, ok := p.(Checker); ok {
		if err := checker.Ready(); err != nil {
			slog.Warn("Source disabled at registration", "source", info.ID, "err", err)
			e.active.Store(false)
		}
	}

	r.entries[info.ID] = e
	r.ordered = append(r.ordered, e)
	sort.SliceStable(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i].provider.Info(), r.ordered[j].provider.Info()
		an, bn := strings.ToLower(a.Description), strings.ToLower(b.Description)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})

	slog.Debug("Registered source", "source", info.ID, "active", e.active.Load())
	return nil
}

// MustRegister panics on registration errors; for use during process startup
func (r *Registry) MustRegister(providers ...Provider) {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// List returns every registered source ordered by case-insensitive name
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.ordered))
	for _, e := range r.ordered {
		out = append(out, e.provider)
	}
	return out
}

// Get looks a source up by ID
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// SetActive flips a source's availability
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}

	if e.active.Swap(active) != active {
		slog.Info("Source availability changed", "source", id, "active", active)
	}
	return nil
}

// Active reports whether a registered source is currently available.
// Unknown IDs are never active.
func (r *Registry) Active(id string) bool {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return ok && e.active.Load()
}

// Status lists every source with its current active flag, in List order
func (r *Registry) Status() []SourceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SourceStatus, 0, len(r.ordered))
	for _, e := range r.ordered {
		out = append(out, SourceStatus{Info: e.provider.Info(), Active: e.active.Load()})
	}
	return out
}
