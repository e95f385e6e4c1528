package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UI.Animate {
		t.Error("expected default Animate=true")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := DefaultConfig()
	in.DataPath = "/tmp/graph.jsonl"
	in.Layout.LinkDistance = 180
	in.Layout.MaxIterations = 500
	in.Canvas.CenterY = 300

	if err := SaveTo(in, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	out, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if out.DataPath != in.DataPath {
		t.Errorf("DataPath = %q, want %q", out.DataPath, in.DataPath)
	}
	if out.Layout.LinkDistance != 180 || out.Layout.MaxIterations != 500 {
		t.Errorf("layout config not preserved: %+v", out.Layout)
	}
	if out.Canvas.CenterY != 300 {
		t.Errorf("canvas config not preserved: %+v", out.Canvas)
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("layout: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	if got := ConfigDir(); got != "/tmp/xdg-test/canopy" {
		t.Errorf("ConfigDir = %q", got)
	}
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	if got := StateDir(); got != "/tmp/xdg-state/canopy" {
		t.Errorf("StateDir = %q", got)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_path: /data/vault.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DataPath != "/data/vault.db" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.Layout.MaxIterations != 0 {
		t.Errorf("expected zero MaxIterations (engine default applies), got %d", cfg.Layout.MaxIterations)
	}
}
