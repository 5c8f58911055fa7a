// Package catalog lists the systems and versions an operator can choose from.
//
// The lists are served through Source so the static placeholders can later be
// replaced by an inventory API without touching callers.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// System represents a named deployable unit
type System struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName" yaml:"displayName"`
}

// Version represents a release artifact identifier
type Version struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
}

// Source provides the selectable systems and versions.
type Source interface {
	Systems(ctx context.Context) ([]System, error)
	Versions(ctx context.Context) ([]Version, error)
}

// Static is an in-memory Source.
type Static struct {
	systems  []System
	versions []Version
}

// NewStatic returns a Source over fixed lists. The lists are copied.
func NewStatic(systems []System, versions []Version) *Static {
	return &Static{
		systems:  append([]System(nil), systems...),
		versions: append([]Version(nil), versions...),
	}
}

// Default returns the placeholder catalog used when no catalog file is configured.
func Default() *Static {
	return NewStatic(
		[]System{
			{Name: "system1", DisplayName: "System One"},
			{Name: "system2", DisplayName: "System Two"},
			{Name: "system3", DisplayName: "System Three"},
		},
		[]Version{
			{ID: "1", Version: "1.0.0"},
			{ID: "2", Version: "1.1.0"},
			{ID: "3", Version: "2.0.0"},
		},
	)
}

func (s *Static) Systems(context.Context) ([]System, error) {
	return append([]System(nil), s.systems...), nil
}

func (s *Static) Versions(context.Context) ([]Version, error) {
	return append([]Version(nil), s.versions...), nil
}

// HasSystem reports whether name is a known system.
func HasSystem(ctx context.Context, src Source, name string) (bool, error) {
	systems, err := src.Systems(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range systems {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// HasVersion reports whether id is a known version.
func HasVersion(ctx context.Context, src Source, id string) (bool, error) {
	versions, err := src.Versions(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range versions {
		if v.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Validate checks identifiers are present, unique and free of surrounding
// whitespace, and that every version string is a semantic version.
func Validate(systems []System, versions []Version) error {
	seen := make(map[string]struct{}, len(systems))
	for i, s := range systems {
		name := s.Name
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("system %d has empty name", i)
		}
		if strings.TrimSpace(name) != name {
			return fmt.Errorf("system name %q has surrounding whitespace", name)
		}
		if strings.Contains(name, ",") {
			return fmt.Errorf("system name %q must not contain a comma", name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate system name %q", name)
		}
		seen[name] = struct{}{}
	}

	seen = make(map[string]struct{}, len(versions))
	for i, v := range versions {
		id := v.ID
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("version %d has empty id", i)
		}
		if strings.TrimSpace(id) != id {
			return fmt.Errorf("version id %q has surrounding whitespace", id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate version id %q", id)
		}
		seen[id] = struct{}{}
		if _, err := semver.ParseTolerant(v.Version); err != nil {
			return fmt.Errorf("version %q: %w", id, err)
		}
	}
	return nil
}
