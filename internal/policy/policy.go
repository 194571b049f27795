// Package policy decides which sources a request may query and in what order.
package policy

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/providers"
)

// Mode selects between querying everything and stopping at the first hit
type Mode string

const (
	// ModeExplore queries every eligible source in parallel
	ModeExplore Mode = "explore"
	// ModeAuto tries eligible sources one at a time in hierarchy order
	ModeAuto Mode = "auto"
)

// ParseMode accepts "explore" or "auto", case-insensitively
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExplore:
		return ModeExplore, nil
	case ModeAuto:
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected explore or auto)", s)
	}
}

// Plan is the resolved, ordered source set for one request
type Plan struct {
	Mode      Mode
	Providers []providers.Provider
}

// Empty reports whether no source is eligible
func (p Plan) Empty() bool {
	return len(p.Providers) == 0
}

// IDs lists the planned source IDs in order
func (p Plan) IDs() []string {
	ids := make([]string, 0, len(p.Providers))
	for _, prov := range p.Providers {
		ids = append(ids, prov.Info().ID)
	}
	return ids
}

// Resolve builds the plan for a request. A source is eligible when it is active in
// the registry, globally enabled, and not switched off by pref (nil pref allows all).
// Auto mode with auto-fetch disabled resolves to an empty plan without looking at
// the registry.
func Resolve(reg *providers.Registry, settings models.SourceSettings, pref models.UserPreference, mode Mode) Plan {
	plan := Plan{Mode: mode}
	if mode == ModeAuto && !settings.AutoFetch {
		return plan
	}

	for _, p := range Ordered(reg, settings.Hierarchy) {
		id := p.Info().ID
		if !reg.Active(id) || !settings.GloballyEnabled(id) || !pref.Allows(id) {
			continue
		}
		plan.Providers = append(plan.Providers, p)
	}
	return plan
}

// Ordered returns every registered source ordered by hierarchy. IDs the registry does
// not know are skipped; registered sources missing from hierarchy follow in registry
// List order.
func Ordered(reg *providers.Registry, hierarchy []string) []providers.Provider {
	all := reg.List()
	seen := make(map[string]bool, len(all))
	out := make([]providers.Provider, 0, len(all))

	for _, id := range hierarchy {
		p, ok := reg.Get(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	for _, p := range all {
		if id := p.Info().ID; !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out
}

// Hierarchy returns the normalized hierarchy as IDs
func Hierarchy(reg *providers.Registry, hierarchy []string) []string {
	ordered := Ordered(reg, hierarchy)
	ids := make([]string, 0, len(ordered))
	for _, p := range ordered {
		ids = append(ids, p.Info().ID)
	}
	return ids
}
