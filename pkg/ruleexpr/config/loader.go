package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyDocument indicates a rule file with no content.
	ErrEmptyDocument = errors.New("rule file is empty")

	// ErrNotMapping indicates a rule file whose top level is not a mapping
	// of settings and rules.
	ErrNotMapping = errors.New("rule file is not a mapping")

	// ErrUnsupportedFormat indicates a rule file extension other than
	// .yaml, .yml or .json.
	ErrUnsupportedFormat = errors.New("unsupported rule file format")
)

// FromFile reads a rule file. .yaml and .yml files are YAML, .json files
// are JSON. Errors name the path.
func FromFile(path string) (Config, error) {
	decode, err := decoderFor(path)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rule file: %w", err)
	}

	c, err := decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func decoderFor(path string) (func([]byte) (Config, error), error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML, nil
	case ".json":
		return FromJSON, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromYAML decodes a YAML rule document.
func FromYAML(data []byte) (Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fromDocument(doc)
}

// FromJSON decodes a JSON rule document.
func FromJSON(data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, ErrEmptyDocument
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return fromDocument(doc)
}

// fromDocument accepts only a top-level mapping with string keys.
func fromDocument(doc any) (Config, error) {
	switch m := doc.(type) {
	case nil:
		return Config{}, ErrEmptyDocument
	case map[string]any:
		return New(m), nil
	default:
		return Config{}, fmt.Errorf("%w: got %T", ErrNotMapping, doc)
	}
}
