package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "reed.toml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeManifest(t, `
[runtime]
stack-size = 1000
heap-size = 65536
max-peers = 4
inbox-capacity = 256

[telemetry]
enabled = true
path = "stats.db"
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Runtime.StackSize != 1000 || m.Runtime.HeapSize != 65536 {
		t.Errorf("geometry = %+v", m.Runtime)
	}
	if m.Runtime.MaxPeers != 4 || m.Runtime.InboxCapacity != 256 {
		t.Errorf("limits = %+v", m.Runtime)
	}
	if !m.Telemetry.Enabled {
		t.Error("telemetry must be enabled")
	}
	if got := m.TelemetryPath(); got != filepath.Join(dir, "stats.db") {
		t.Errorf("TelemetryPath = %q", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := writeManifest(t, `
[runtime]
heap-size = 8192
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if m.Runtime.HeapSize != 8192 {
		t.Errorf("heap-size = %d", m.Runtime.HeapSize)
	}
	if m.Runtime.StackSize != def.Runtime.StackSize {
		t.Errorf("stack-size = %d, want default %d", m.Runtime.StackSize, def.Runtime.StackSize)
	}
	if m.Runtime.InboxCapacity != def.Runtime.InboxCapacity {
		t.Errorf("inbox-capacity = %d, want default", m.Runtime.InboxCapacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("missing reed.toml must be an error")
	}
}

func TestLoadRejectsBadGeometry(t *testing.T) {
	cases := []string{
		"[runtime]\nstack-size = -1\n",
		"[runtime]\nheap-size = 0\n",
		"[runtime]\ninbox-capacity = -5\n",
		"[telemetry]\nenabled = true\npath = \"\"\n",
	}
	for _, c := range cases {
		dir := writeManifest(t, c)
		if _, err := Load(dir); err == nil {
			t.Errorf("manifest %q must be rejected", c)
		}
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}
