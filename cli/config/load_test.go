package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagesmith.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  url: http://localhost:8000
  timeout: 90s
convert:
  stream: true
  heuristic: false
  pace: 30ms
storage:
  backend: s3
  bucket: conversions
  prefix: pagesmith
  region: us-east-1
  endpoint: http://localhost:9000
  s3_path_style: true
adapter:
  type: webhook
  url: https://hooks.example.com/conversions
  headers:
    Authorization: Bearer token
  timeout: 5s
  retries: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.URL != "http://localhost:8000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout.Duration != 90*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout.Duration)
	}
	if cfg.Convert.Stream == nil || !*cfg.Convert.Stream {
		t.Error("Convert.Stream not parsed as true")
	}
	if cfg.Convert.Heuristic == nil || *cfg.Convert.Heuristic {
		t.Error("Convert.Heuristic not parsed as false")
	}
	if cfg.Convert.Pace.Duration != 30*time.Millisecond {
		t.Errorf("Convert.Pace = %v", cfg.Convert.Pace.Duration)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "conversions" || !cfg.Storage.S3PathStyle {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Adapter.Type != "webhook" || cfg.Adapter.Headers["Authorization"] != "Bearer token" {
		t.Errorf("Adapter = %+v", cfg.Adapter)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 2 {
		t.Error("Adapter.Retries not parsed")
	}
}

func TestLoad_UnsetOptionalsStayNil(t *testing.T) {
	path := writeConfig(t, `
server:
  url: http://localhost:8000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Convert.Stream != nil || cfg.Convert.Heuristic != nil {
		t.Error("unset convert booleans should stay nil so flags can distinguish unset from false")
	}
	if cfg.Adapter.Retries != nil {
		t.Error("unset retries should stay nil")
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("PAGESMITH_TEST_BUCKET", "conversions-prod")
	path := writeConfig(t, `
storage:
  backend: s3
  bucket: ${PAGESMITH_TEST_BUCKET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Bucket != "conversions-prod" {
		t.Errorf("Storage.Bucket = %q, want expanded env value", cfg.Storage.Bucket)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() accepted a missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted invalid YAML")
	}
}

func TestLoad_RejectsUnknownBackendsAndAdapters(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownStorageBackend", "storage:\n  backend: gopher\n"},
		{"UnknownAdapterType", "adapter:\n  type: kafka\n  url: kafka://broker\n"},
		{"AdapterWithoutURL", "adapter:\n  type: webhook\n"},
		{"NegativeRetries", "adapter:\n  type: webhook\n  url: https://hooks.example.com\n  retries: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() accepted an invalid config")
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  timeout: ninety seconds
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted an unparseable duration")
	}
}
