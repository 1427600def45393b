// Package config loads codemap's YAML configuration. The CLI uses its
// framework section (which receivers/methods the resolver tags as
// framework calls); the store and ignore sections are decoded but no
// command reads them.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"codemap/internal/resolve"
)

// StoreBackend names a store back-end.
type StoreBackend string

const (
	BackendNative StoreBackend = "native"
	BackendMemory StoreBackend = "memory"
)

// Config is codemap's top-level configuration file shape.
type Config struct {
	// Framework lists the receiver/method names the resolver tags
	// framework calls with (spec §4.3's isFramework flag).
	Framework FrameworkSection `yaml:"framework"`

	// Store describes a persistence back-end. It is decoded but not
	// read: the CLI picks the back-end from its --mem flag.
	Store StoreSection `yaml:"store"`

	// Ignore holds glob patterns. They are decoded but not applied: the
	// file walk skips only .gitignore matches and the built-in default
	// ignore set.
	Ignore []string `yaml:"ignore"`
}

// FrameworkSection mirrors resolve.FrameworkConfig for YAML decoding.
type FrameworkSection struct {
	Receivers       []string `yaml:"receivers"`
	Methods         []string `yaml:"methods"`
	MethodReceivers []string `yaml:"methodReceivers"`
}

// StoreSection configures the graph store.
type StoreSection struct {
	Backend StoreBackend `yaml:"backend"`
	Path    string       `yaml:"path"`
}

// Default returns the built-in configuration: the resolver's default
// framework sets (each sorted by name) and a native store with no path
// set.
func Default() Config {
	fw := resolve.DefaultFrameworkConfig()
	return Config{
		Framework: FrameworkSection{
			Receivers:       keys(fw.Receivers),
			Methods:         keys(fw.Methods),
			MethodReceivers: keys(fw.MethodReceivers),
		},
		Store: StoreSection{Backend: BackendNative},
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Load reads a YAML config file at path, falling back to Default()
// values for any field the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FrameworkConfig converts the YAML section back into the set-based
// shape the resolver consumes.
func (c Config) FrameworkConfig() resolve.FrameworkConfig {
	if len(c.Framework.Receivers) == 0 && len(c.Framework.Methods) == 0 && len(c.Framework.MethodReceivers) == 0 {
		return resolve.DefaultFrameworkConfig()
	}
	return resolve.FrameworkConfig{
		Receivers:       toSet(c.Framework.Receivers),
		Methods:         toSet(c.Framework.Methods),
		MethodReceivers: toSet(c.Framework.MethodReceivers),
	}
}
