package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// Action Registry
// ============================================================================
// An Action is one nameable behavior: a bundle of media assets the system
// can present. The registry is built by convention from the media
// directories (action X exists if any of X.wav / X.jpg / X.mp4 exists)
// plus the ordered video channel list. It is rebuilt wholesale on reload.
// ============================================================================

// VideoChannel is one continuously looping video selectable by relative
// navigation.
type VideoChannel struct {
	Name  string `yaml:"name"`
	Video string `yaml:"video"`
}

// Action is a named bundle of media assets.
type Action struct {
	Name      string
	SoundPath string
	ImagePath string
	VideoPath string

	// IsVideoChannel marks channel actions; ChannelIndex points into the
	// ordered channel list and is only meaningful when IsVideoChannel is set.
	IsVideoChannel bool
	ChannelIndex   int
}

// ActionRegistry maps command names to actions.
type ActionRegistry map[string]Action

// MediaRoots holds the directories the registry is built from.
type MediaRoots struct {
	Sounds string
	Images string
	Videos string
}

// LoadVideoChannels reads the ordered channel list from a YAML file.
// A missing file is not an error (no channels configured); a malformed
// file rejects the load in full.
func LoadVideoChannels(path string) ([]VideoChannel, error) {
	if path == "" {
		return nil, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var channels []VideoChannel
	if err := dec.Decode(&channels); err != nil {
		return nil, fmt.Errorf("decode channels yaml: %w", err)
	}

	for i, ch := range channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("channels[%d]: name is empty", i)
		}
		if ch.Video == "" {
			return nil, fmt.Errorf("channels[%d] (%s): video is empty", i, ch.Name)
		}
	}

	return channels, nil
}

// BuildActionRegistry scans the media roots and registers every action
// found by the file convention, then layers the channel actions on top.
// Missing media directories are tolerated (they just contribute nothing).
func BuildActionRegistry(roots MediaRoots, channels []VideoChannel) ActionRegistry {
	registry := make(ActionRegistry)

	collect := func(dir, ext string, assign func(a *Action, path string)) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name, ok := strings.CutSuffix(entry.Name(), ext)
			if !ok || name == "" {
				continue
			}
			a := registry[name]
			a.Name = name
			assign(&a, filepath.Join(dir, entry.Name()))
			registry[name] = a
		}
	}

	collect(roots.Sounds, ".wav", func(a *Action, path string) { a.SoundPath = path })
	collect(roots.Images, ".jpg", func(a *Action, path string) { a.ImagePath = path })
	collect(roots.Videos, ".mp4", func(a *Action, path string) { a.VideoPath = path })

	// Channel actions are declared under video_<lowercased name> and win
	// over any same-named directory entry.
	for i, ch := range channels {
		name := "video_" + strings.ToLower(ch.Name)
		registry[name] = Action{
			Name:           name,
			VideoPath:      filepath.Join(roots.Videos, ch.Video),
			IsVideoChannel: true,
			ChannelIndex:   i,
		}
	}

	return registry
}

// Names returns the registered action names in sorted order, for the
// web mapping editor.
func (r ActionRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// humanName converts an action name into the form handed to the speech
// engine ("squirrel_treat" -> "squirrel treat").
func humanName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// lowerName normalizes a channel name to its registry key suffix.
func lowerName(name string) string {
	return strings.ToLower(name)
}
