package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

//go:embed puzzle.schema.json
var puzzleSchemaSource string

const puzzleSchemaURL = "puzzle.schema.json"

// Extensions lists the puzzle file formats in lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".txt"}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func puzzleSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(puzzleSchemaURL, puzzleSchemaSource)
	})
	return schema, schemaErr
}

// validateDocument checks a decoded JSON document against the puzzle schema.
func validateDocument(doc any) error {
	s, err := puzzleSchema()
	if err != nil {
		return fmt.Errorf("compile puzzle schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// FormatOf returns the format name for a puzzle file, or "" if unsupported.
func FormatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".txt":
		return "txt"
	}
	return ""
}

// Decode parses puzzle file contents according to the file extension. The
// file stem names the puzzle when the file itself does not.
func Decode(filename string, data []byte) (*engine.PuzzleConfig, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	var config *engine.PuzzleConfig
	var err error
	switch FormatOf(filename) {
	case "json":
		config, err = decodeJSON(data)
	case "yaml":
		config, err = decodeYAML(data, stem)
	case "txt":
		config, err = decodeText(data, stem)
	default:
		return nil, fmt.Errorf("%w: unsupported puzzle format %q", ErrInvalidConfig, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// LoadFile reads and decodes a single puzzle file outside any library.
func LoadFile(path string) (*engine.PuzzleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle file: %w", err)
	}
	return Decode(path, data)
}

func decodeJSON(data []byte) (*engine.PuzzleConfig, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var config engine.PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

func decodeYAML(data []byte, stem string) (*engine.PuzzleConfig, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
	}
	if _, ok := doc["name"]; !ok {
		doc["name"] = stem
	}

	// re-encode so the schema sees plain JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validateDocument(normalized); err != nil {
		return nil, err
	}

	var config engine.PuzzleConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// decodeText reads a raw puzzle input: map rows, a blank line, instructions.
func decodeText(data []byte, stem string) (*engine.PuzzleConfig, error) {
	layout, moves, err := engine.SplitInput(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &engine.PuzzleConfig{
		Name:        stem,
		Description: "Raw puzzle input",
		Layout:      layout,
		Moves:       moves,
	}, nil
}

// EncodeYAML renders a puzzle config as YAML.
func EncodeYAML(config *engine.PuzzleConfig) ([]byte, error) {
	return yaml.Marshal(config)
}
