package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverflowPolicy controls what happens when unsigned arithmetic leaves its range.
type OverflowPolicy string

const (
	OverflowError  OverflowPolicy = "error"
	OverflowWarn   OverflowPolicy = "warn"
	OverflowIgnore OverflowPolicy = "ignore"
)

// ParseOverflowPolicy accepts the canonical names and their long spellings.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return OverflowError, nil
	case "warn", "warn-and-wrap":
		return OverflowWarn, nil
	case "ignore", "silently-wrap":
		return OverflowIgnore, nil
	}
	return "", fmt.Errorf("unknown overflow policy %q (want error, warn or ignore)", s)
}

// Config is the engine configuration, usually read from cppi.yaml.
type Config struct {
	// UnsignedOverflow selects the unsigned-integer overflow policy.
	UnsignedOverflow OverflowPolicy `yaml:"unsigned_overflow"`

	// StrictWildcards requires wildcards to be first referenced in ascending id order.
	StrictWildcards bool `yaml:"strict_wildcards"`

	// CastOrder lists the cast strategies in the order they are attempted.
	// Every strategy must appear exactly once.
	CastOrder []string `yaml:"cast_order,omitempty"`

	// MaxYields bounds consecutive deferred steps in a resumable computation.
	MaxYields int `yaml:"max_yields,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		UnsignedOverflow: OverflowError,
		StrictWildcards:  true,
		CastOrder:        append([]string(nil), DefaultCastOrder...),
		MaxYields:        DefaultMaxYields,
	}
}

// LoadConfig reads and parses a cppi.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses configuration content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var raw struct {
		UnsignedOverflow string   `yaml:"unsigned_overflow"`
		StrictWildcards  *bool    `yaml:"strict_wildcards"`
		CastOrder        []string `yaml:"cast_order"`
		MaxYields        int      `yaml:"max_yields"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg := Default()
	policy, err := ParseOverflowPolicy(raw.UnsignedOverflow)
	if err != nil {
		return nil, fmt.Errorf("%s: unsigned_overflow: %w", path, err)
	}
	cfg.UnsignedOverflow = policy
	if raw.StrictWildcards != nil {
		cfg.StrictWildcards = *raw.StrictWildcards
	}
	if len(raw.CastOrder) > 0 {
		cfg.CastOrder = raw.CastOrder
	}
	if raw.MaxYields != 0 {
		cfg.MaxYields = raw.MaxYields
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := ParseOverflowPolicy(string(c.UnsignedOverflow)); err != nil {
		return err
	}
	if c.MaxYields < 0 {
		return fmt.Errorf("max_yields must not be negative, got %d", c.MaxYields)
	}
	if len(c.CastOrder) != len(DefaultCastOrder) {
		return fmt.Errorf("cast_order must list all %d strategies, got %d", len(DefaultCastOrder), len(c.CastOrder))
	}
	seen := make(map[string]bool, len(c.CastOrder))
	for _, name := range c.CastOrder {
		known := false
		for _, k := range DefaultCastOrder {
			if k == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("cast_order: unknown strategy %q", name)
		}
		if seen[name] {
			return fmt.Errorf("cast_order: strategy %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}
