package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig tests that the defaults validate on their own
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.Loop.TickHz != defaultTickHz {
		t.Errorf("expected tick_hz %d, got %d", defaultTickHz, cfg.Loop.TickHz)
	}
	if len(cfg.Devices) == 0 {
		t.Error("expected at least one default device")
	}
}

// TestLoadConfigFile tests YAML loading on top of defaults
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `devices:
  - path: /dev/input/event5
    kind: gamepad
    joystick_id: 0
input:
  profile: kiosk
loop:
  tick_hz: 60
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if len(cfg.Devices) != 1 || cfg.Devices[0].Path != "/dev/input/event5" {
		t.Errorf("unexpected devices %v", cfg.Devices)
	}
	if cfg.Devices[0].Kind != string(DeviceGamepad) {
		t.Errorf("unexpected device kind %q", cfg.Devices[0].Kind)
	}
	if cfg.Input.Profile != "kiosk" {
		t.Errorf("unexpected profile %q", cfg.Input.Profile)
	}
	if cfg.Loop.TickHz != 60 {
		t.Errorf("unexpected tick_hz %d", cfg.Loop.TickHz)
	}
	// Untouched sections keep their defaults.
	if cfg.Input.ProfileDir != "configs/keymappings" {
		t.Errorf("expected default profile dir, got %q", cfg.Input.ProfileDir)
	}
	if cfg.Web.Port != defaultWebPort {
		t.Errorf("expected default web port, got %d", cfg.Web.Port)
	}
}

// TestLoadConfigFile_UnknownField tests that typos are rejected
func TestLoadConfigFile_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("looop:\n  tick_hz: 60\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

// TestLoadConfigFile_TrailingDocument tests rejection of extra YAML
// documents after the config
func TestLoadConfigFile_TrailingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "loop:\n  tick_hz: 60\n---\nloop:\n  tick_hz: 10\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for trailing document")
	}
}

// TestFlagOverrides tests the flag merge on top of a loaded config
func TestFlagOverrides(t *testing.T) {
	cfg := DefaultConfig()

	device := "/dev/input/event9"
	profile := "party"
	tickHz := 15
	webPort := 0

	FlagOverrides{
		Device:  &device,
		Profile: &profile,
		TickHz:  &tickHz,
		WebPort: &webPort,
	}.Apply(&cfg)

	if len(cfg.Devices) != 1 || cfg.Devices[0].Path != device {
		t.Errorf("unexpected devices after override %v", cfg.Devices)
	}
	if cfg.Input.Profile != "party" {
		t.Errorf("unexpected profile %q", cfg.Input.Profile)
	}
	if cfg.Loop.TickHz != 15 {
		t.Errorf("unexpected tick_hz %d", cfg.Loop.TickHz)
	}
	if cfg.Web.Port != 0 {
		t.Errorf("unexpected web port %d", cfg.Web.Port)
	}
	// Unset overrides leave values alone.
	if cfg.IPC.SocketPath != defaultSocketPath {
		t.Errorf("unexpected socket path %q", cfg.IPC.SocketPath)
	}
}

// TestValidate tests the invariants enforced after merge
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no devices", func(c *Config) { c.Devices = nil }},
		{"empty device path", func(c *Config) { c.Devices[0].Path = "" }},
		{"bad device kind", func(c *Config) { c.Devices[0].Kind = "trackball" }},
		{"negative joystick id", func(c *Config) { c.Devices[0].Joy = -1 }},
		{"empty profile dir", func(c *Config) { c.Input.ProfileDir = "" }},
		{"empty profile", func(c *Config) { c.Input.Profile = "" }},
		{"zero tick hz", func(c *Config) { c.Loop.TickHz = 0 }},
		{"excessive tick hz", func(c *Config) { c.Loop.TickHz = 5000 }},
		{"bad web port", func(c *Config) { c.Web.Port = 70000 }},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error, got none", tt.name)
		}
	}

	// Port 0 is valid (admin surface disabled).
	cfg := DefaultConfig()
	cfg.Web.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("web port 0 should validate: %v", err)
	}
}
