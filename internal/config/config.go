// Package config loads the busdecoder project configuration. Unknown keys
// are rejected so a typo in a config file fails loudly instead of silently
// falling back to a default.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rdlgen/busdecoder/internal/design"
)

// Config is the top-level configuration for busdecoder
type Config struct {
	// Cpuif selects the bus protocol: "apb3", "apb3-flat", "apb4",
	// "apb4-flat", "axi4-lite-flat", "taxi-apb"
	Cpuif string `json:"cpuif,omitempty"`

	// Output is the directory receiving the generated files
	Output string `json:"output,omitempty"`

	// ModuleName overrides the generated module name (default: top instance)
	ModuleName string `json:"moduleName,omitempty"`

	// PackageName overrides the generated package name (default: module + "_pkg")
	PackageName string `json:"packageName,omitempty"`

	// AddressWidth overrides the slave address width. Must be at least the
	// computed minimum; 0 uses the minimum.
	AddressWidth uint `json:"addressWidth,omitempty"`

	// DecodeDepth is the hierarchy depth where decoding stops (0 = decode
	// down to leaf registers). Defaults to 1.
	DecodeDepth *int `json:"decodeDepth,omitempty"`

	// Unroll expands arrayed children into individually named instances
	Unroll bool `json:"unroll,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Cpuif:       "apb4-flat",
		Output:      ".",
		DecodeDepth: intPtr(1),
	}
}

func intPtr(v int) *int {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./busdecoder.json (current working directory)
//  2. ./.busdecoder.json (current working directory)
//  3. <rootPath>/busdecoder.json (if different from cwd)
//  4. ~/.config/busdecoder/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "busdecoder.json"),
		filepath.Join(cwd, ".busdecoder.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "busdecoder.json"),
				filepath.Join(rootPath, ".busdecoder.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "busdecoder", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Cpuif == "" {
		c.Cpuif = "apb4-flat"
	}
	if c.Output == "" {
		c.Output = "."
	}
	if c.DecodeDepth == nil {
		c.DecodeDepth = intPtr(1)
	}
}

// DesignConfig maps the file settings onto the design-state overrides
func (c *Config) DesignConfig() design.Config {
	depth := 1
	if c.DecodeDepth != nil {
		depth = *c.DecodeDepth
	}
	return design.Config{
		ModuleName:   c.ModuleName,
		PackageName:  c.PackageName,
		AddressWidth: c.AddressWidth,
		DecodeDepth:  depth,
		Unroll:       c.Unroll,
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
