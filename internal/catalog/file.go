package catalog

import (
	"fmt"
	"os"
	"sort"

	"github.com/blang/semver/v4"
	"gopkg.in/yaml.v2"
)

// fileDocument represents the catalog file structure
type fileDocument struct {
	Systems  []System  `yaml:"systems"`
	Versions []Version `yaml:"versions"`
}

// LoadFile reads a YAML catalog from path. Versions are ordered newest first.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return src, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Static, error) {
	var doc fileDocument
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := Validate(doc.Systems, doc.Versions); err != nil {
		return nil, err
	}

	sortNewestFirst(doc.Versions)
	return NewStatic(doc.Systems, doc.Versions), nil
}

// Marshal encodes a catalog in the file format read by Parse.
func Marshal(systems []System, versions []Version) ([]byte, error) {
	out, err := yaml.Marshal(fileDocument{Systems: systems, Versions: versions})
	if err != nil {
		return nil, fmt.Errorf("error marshaling catalog: %w", err)
	}
	return out, nil
}

// sortNewestFirst orders versions by descending semantic version. Callers
// must have validated the version strings.
func sortNewestFirst(versions []Version) {
	parsed := make(map[string]semver.Version, len(versions))
	for _, v := range versions {
		parsed[v.ID], _ = semver.ParseTolerant(v.Version)
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return parsed[versions[i].ID].GT(parsed[versions[j].ID])
	})
}
