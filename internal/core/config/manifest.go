package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// Source points a parameter family at its par file.
type Source struct {
	Format  transformer.Format `yaml:"format"`
	Path    string             `yaml:"path"`
	Preload bool               `yaml:"preload"`
}

// Manifest lists the par files the service may serve, one per format.
type Manifest struct {
	Sources []Source `yaml:"sources"`

	byFormat map[transformer.Format]Source
}

var ErrNoSource = errors.New("no source configured for format")

// LoadManifest reads a YAML manifest. Relative paths resolve against the
// manifest's own directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, s := range m.Sources {
		if !filepath.IsAbs(s.Path) {
			m.Sources[i].Path = filepath.Join(dir, s.Path)
			m.byFormat[s.Format] = m.Sources[i]
		}
	}
	return m, nil
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m.byFormat = make(map[transformer.Format]Source, len(m.Sources))
	for i, s := range m.Sources {
		if s.Format == transformer.FormatUnknown {
			return nil, fmt.Errorf("sources[%d]: format is required", i)
		}
		if s.Path == "" {
			return nil, fmt.Errorf("sources[%d]: path is required", i)
		}
		if _, dup := m.byFormat[s.Format]; dup {
			return nil, fmt.Errorf("sources[%d]: duplicate format %v", i, s.Format)
		}
		m.byFormat[s.Format] = s
	}
	return &m, nil
}

func (m *Manifest) Source(f transformer.Format) (Source, error) {
	if m != nil {
		if s, ok := m.byFormat[f]; ok {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%v: %w", f, ErrNoSource)
}

// Preload returns the formats to load at startup, in manifest order.
func (m *Manifest) Preload() []transformer.Format {
	if m == nil {
		return nil
	}
	var out []transformer.Format
	for _, s := range m.Sources {
		if s.Preload {
			out = append(out, s.Format)
		}
	}
	return out
}
