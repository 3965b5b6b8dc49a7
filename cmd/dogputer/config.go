package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the dogputer daemon.
//
// The config file is the primary configuration surface; flags exist for
// small overrides and for environments where a file is awkward. Keep
// defaults and validation centralized so the rest of the code can assume
// a well-formed config.
type Config struct {
	// Input devices to poll
	Devices []DeviceConfig `yaml:"devices"`

	// Input mapping profiles
	Input InputConfig `yaml:"input"`

	// Media directories and channel list
	Media MediaConfig `yaml:"media"`

	// Main loop cadence
	Loop LoopConfig `yaml:"loop"`

	// Admin HTTP/WS surface
	Web WebConfig `yaml:"web"`

	// IPC socket for the ctl tool
	IPC IPCConfig `yaml:"ipc"`

	// Playback helper commands
	Player PlayerConfig `yaml:"player"`

	// Text-to-speech helper command
	Speaker SpeakerConfig `yaml:"speaker"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type DeviceConfig struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"`                  // "keyboard" or "gamepad"
	Joy  int    `yaml:"joystick_id,omitempty"` // logical id used in mapping keys
}

type InputConfig struct {
	ProfileDir string `yaml:"profile_dir"`
	Profile    string `yaml:"profile"`
}

type MediaConfig struct {
	SoundsDir    string `yaml:"sounds_dir"`
	ImagesDir    string `yaml:"images_dir"`
	VideosDir    string `yaml:"videos_dir"`
	ChannelsFile string `yaml:"channels_file"`
}

type LoopConfig struct {
	TickHz int `yaml:"tick_hz"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type SpeakerConfig struct {
	Cmd []string `yaml:"cmd"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Devices: []DeviceConfig{
			{Path: "/dev/input/event3", Kind: string(DeviceKeyboard)},
		},
		Input: InputConfig{
			ProfileDir: "configs/keymappings",
			Profile:    "development",
		},
		Media: MediaConfig{
			SoundsDir:    "media/sounds",
			ImagesDir:    "media/images",
			VideosDir:    "media/videos",
			ChannelsFile: "configs/channels.yaml",
		},
		Loop: LoopConfig{
			TickHz: defaultTickHz,
		},
		Web: WebConfig{
			Port: defaultWebPort,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		Player: PlayerConfig{
			SoundCmd: []string{"aplay", "-q"},
			ImageCmd: []string{"feh", "--fullscreen"},
			VideoCmd: []string{"mpv", "--fullscreen", "--loop"},
		},
		Speaker: SpeakerConfig{
			Cmd: []string{"espeak"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true),
// and trailing garbage after the document is an error.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies ad-hoc flag values on top of a loaded config.
// Each override is only applied when its pointer is non-nil.
type FlagOverrides struct {
	Device     *string
	Profile    *string
	TickHz     *int
	WebPort    *int
	SocketPath *string
	LogLevel   *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Device != nil {
		cfg.Devices = []DeviceConfig{{Path: *o.Device, Kind: string(DeviceKeyboard)}}
	}
	if o.Profile != nil {
		cfg.Input.Profile = *o.Profile
	}
	if o.TickHz != nil {
		cfg.Loop.TickHz = *o.TickHz
	}
	if o.WebPort != nil {
		cfg.Web.Port = *o.WebPort
	}
	if o.SocketPath != nil {
		cfg.IPC.SocketPath = *o.SocketPath
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return errors.New("devices must not be empty")
	}
	for i, dev := range c.Devices {
		if dev.Path == "" {
			return fmt.Errorf("devices[%d].path is empty", i)
		}
		switch DeviceKind(dev.Kind) {
		case DeviceKeyboard, DeviceGamepad:
		default:
			return fmt.Errorf("devices[%d].kind must be %q or %q", i, DeviceKeyboard, DeviceGamepad)
		}
		if dev.Joy < 0 {
			return fmt.Errorf("devices[%d].joystick_id must be >= 0", i)
		}
	}

	if c.Input.ProfileDir == "" {
		return errors.New("input.profile_dir must not be empty")
	}
	if c.Input.Profile == "" {
		return errors.New("input.profile must not be empty")
	}

	if c.Loop.TickHz <= 0 || c.Loop.TickHz > 1000 {
		return errors.New("loop.tick_hz must be between 1 and 1000")
	}

	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return errors.New("web.port must be a valid port (0 disables the admin surface)")
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// MediaRoots converts the media section into the registry's input.
func (c *Config) MediaRoots() MediaRoots {
	return MediaRoots{
		Sounds: c.Media.SoundsDir,
		Images: c.Media.ImagesDir,
		Videos: c.Media.VideosDir,
	}
}
