package config

import (
	"fmt"
	"time"
)

// Config represents a pagesmith.yaml configuration file.
// All values are optional and act as defaults for pagesmith convert flags.
// CLI flags always override config values.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Convert ConvertConfig `yaml:"convert"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// ServerConfig holds conversion service defaults from the config file.
type ServerConfig struct {
	// URL is the service root, e.g. "http://localhost:8000".
	URL string `yaml:"url"`
	// Timeout bounds non-streaming requests.
	Timeout Duration `yaml:"timeout,omitempty"`
}

// ConvertConfig holds conversion defaults from the config file.
type ConvertConfig struct {
	// Stream selects the streaming endpoint by default.
	Stream *bool `yaml:"stream,omitempty"`
	// Heuristic enables the service's heuristic mode by default.
	Heuristic *bool `yaml:"heuristic,omitempty"`
	// Pace is the minimum interval between emission batches, e.g. "30ms".
	Pace Duration `yaml:"pace,omitempty"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Root        string `yaml:"root"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds completion adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Validate rejects values no command could act on. Zero values pass; all
// fields are optional defaults.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q (want fs or s3)", c.Storage.Backend)
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown adapter type %q (want webhook or redis)", c.Adapter.Type)
	}
	if c.Adapter.Type != "" && c.Adapter.URL == "" {
		return fmt.Errorf("adapter type %q requires a URL", c.Adapter.Type)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter retries must be >= 0, got %d", *c.Adapter.Retries)
	}
	return nil
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
