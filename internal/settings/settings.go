// Package settings parses SourceSettings at the process boundary and serves
// immutable snapshots of them to concurrent callers.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

// Document is the on-disk shape of the settings file
type Document struct {
	models.SourceSettings `yaml:",inline"`
	Users                 map[string]models.UserPreference `json:"users,omitempty" yaml:"users,omitempty"`
}

// Defaults applies when the file is missing or a key is absent: registry order,
// every source enabled, auto fetch on, smart merge on
func Defaults() Document {
	return Document{
		SourceSettings: models.SourceSettings{
			Enabled:    map[string]bool{},
			AutoFetch:  true,
			SmartMerge: true,
		},
	}
}

// Parse decodes a YAML settings document on top of the defaults and validates it
func Parse(data []byte) (Document, error) {
	doc := Defaults()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if doc.Enabled == nil {
		doc.Enabled = map[string]bool{}
	}
	for i, id := range doc.Hierarchy {
		doc.Hierarchy[i] = strings.TrimSpace(id)
	}
	if err := validator.New().Struct(doc); err != nil {
		return Document{}, fmt.Errorf("invalid settings: %w", err)
	}
	return doc, nil
}

func (d Document) clone() Document {
	out := Document{SourceSettings: d.SourceSettings.Clone()}
	if d.Users != nil {
		out.Users = make(map[string]models.UserPreference, len(d.Users))
		for user, pref := range d.Users {
			out.Users[user] = maps.Clone(pref)
		}
	}
	return out
}

// Store serves the current settings snapshot and swaps it atomically on Reload
type Store struct {
	path    string
	current atomic.Pointer[Document]
}

// Load reads path; a missing file yields the defaults
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStatic serves doc without a backing file; Reload is a no-op
func NewStatic(doc Document) *Store {
	s := &Store{}
	d := doc.clone()
	s.current.Store(&d)
	return s
}

// Reload re-reads the settings file. On error the previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Settings file not found, using defaults", "path", s.path)
		d := Defaults()
		s.current.Store(&d)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file %s: %w", s.path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	s.current.Store(&doc)
	slog.Info("Loaded source settings", "path", s.path, "hierarchy", doc.Hierarchy, "users", len(doc.Users))
	return nil
}

// Current returns a deep copy of the source settings
func (s *Store) Current() models.SourceSettings {
	return s.current.Load().SourceSettings.Clone()
}

// Preference returns a copy of user's per-source overrides, or nil when the user has none
func (s *Store) Preference(user string) models.UserPreference {
	if user == "" {
		return nil
	}
	pref, ok := s.current.Load().Users[user]
	if !ok {
		return nil
	}
	return maps.Clone(pref)
}

// Snapshot returns a deep copy of the whole document
func (s *Store) Snapshot() Document {
	return s.current.Load().clone()
}

// RawSettings is the loosely typed form some callers still hold: the hierarchy
// and enabled map arrive as JSON strings
type RawSettings struct {
	Hierarchy  string
	Enabled    string
	AutoFetch  bool
	SmartMerge bool
}

// FromRaw parses raw once into typed settings. A hierarchy that fails to parse
// becomes empty (registry order); an enabled map that fails to parse becomes
// empty (everything enabled).
func FromRaw(raw RawSettings) models.SourceSettings {
	out := models.SourceSettings{
		Enabled:    map[string]bool{},
		AutoFetch:  raw.AutoFetch,
		SmartMerge: raw.SmartMerge,
	}

	if strings.TrimSpace(raw.Hierarchy) != "" {
		var hierarchy []string
		if err := json.Unmarshal([]byte(raw.Hierarchy), &hierarchy); err != nil {
			slog.Warn("Ignoring unparseable source hierarchy", "value", raw.Hierarchy, "err", err)
		} else {
			for _, id := range hierarchy {
				if id = strings.TrimSpace(id); id != "" {
					out.Hierarchy = append(out.Hierarchy, id)
				}
			}
		}
	}

	if strings.TrimSpace(raw.Enabled) != "" {
		var enabled map[string]bool
		if err := json.Unmarshal([]byte(raw.Enabled), &enabled); err != nil {
			slog.Warn("Ignoring unparseable source enablement map", "value", raw.Enabled, "err", err)
		} else if enabled != nil {
			out.Enabled = enabled
		}
	}

	return out
}
