package storage

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atinyakov/go-unveil/internal/content"
)

//go:embed demo.yaml
var demoFixtures []byte

// Fixtures is the YAML document used to seed a MemoryStorage.
type Fixtures struct {
	Models    []content.Model    `yaml:"models"`
	Instances []content.Instance `yaml:"instances"`
}

// ParseFixtures decodes a fixtures document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	for i, in := range f.Instances {
		if in.Model == "" {
			return nil, fmt.Errorf("fixture instance %d has no model", i)
		}
	}
	return &f, nil
}

// ReadFixtures reads the fixtures file at path, or the bundled demo site
// when path is empty.
func ReadFixtures(path string) (*Fixtures, error) {
	if path == "" {
		return ParseFixtures(demoFixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixtures(data)
}

// NewFromFixtures creates a MemoryStorage seeded from the fixtures file at path.
func NewFromFixtures(path string) (*MemoryStorage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newFromBytes(data)
}

// NewDemo creates a MemoryStorage holding the bundled demo site.
func NewDemo() (*MemoryStorage, error) {
	return newFromBytes(demoFixtures)
}

func newFromBytes(data []byte) (*MemoryStorage, error) {
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, err
	}

	m, err := CreateMemoryStorage()
	if err != nil {
		return nil, err
	}

	m.AddModels(f.Models...)
	if err := m.WriteAll(context.Background(), f.Instances); err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	return m, nil
}
