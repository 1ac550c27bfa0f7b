// Package manifest handles reed.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a reed.toml configuration file.
type Manifest struct {
	Runtime   Runtime   `toml:"runtime"`
	Telemetry Telemetry `toml:"telemetry"`

	// Dir is the directory containing the reed.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime configures machine geometry.
type Runtime struct {
	StackSize     int `toml:"stack-size"`     // value slots per machine
	HeapSize      int `toml:"heap-size"`      // bytes per machine heap
	MaxPeers      int `toml:"max-peers"`      // peer machines per machine
	InboxCapacity int `toml:"inbox-capacity"` // message slots per inbox
}

// Telemetry configures run-statistics persistence.
type Telemetry struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the built-in configuration used when no reed.toml exists.
func Default() *Manifest {
	return &Manifest{
		Runtime: Runtime{
			StackSize:     4096000,
			HeapSize:      4096000,
			MaxPeers:      1,
			InboxCapacity: 1024,
		},
		Telemetry: Telemetry{
			Enabled: false,
			Path:    "reed-stats.db",
		},
	}
}

// Load parses a reed.toml file from the given directory, filling unset
// fields from the defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "reed.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest for nonsensical geometry.
func (m *Manifest) Validate() error {
	if m.Runtime.StackSize <= 0 {
		return fmt.Errorf("runtime.stack-size must be positive, got %d", m.Runtime.StackSize)
	}
	if m.Runtime.HeapSize <= 0 {
		return fmt.Errorf("runtime.heap-size must be positive, got %d", m.Runtime.HeapSize)
	}
	if m.Runtime.MaxPeers < 0 {
		return fmt.Errorf("runtime.max-peers must not be negative, got %d", m.Runtime.MaxPeers)
	}
	if m.Runtime.InboxCapacity <= 0 {
		return fmt.Errorf("runtime.inbox-capacity must be positive, got %d", m.Runtime.InboxCapacity)
	}
	if m.Telemetry.Enabled && m.Telemetry.Path == "" {
		return fmt.Errorf("telemetry.path must be set when telemetry is enabled")
	}
	return nil
}

// TelemetryPath resolves the telemetry database path against the manifest
// directory.
func (m *Manifest) TelemetryPath() string {
	if filepath.IsAbs(m.Telemetry.Path) || m.Dir == "" {
		return m.Telemetry.Path
	}
	return filepath.Join(m.Dir, m.Telemetry.Path)
}
