package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Command Types
// ============================================================================
// Commands represent intent decoupled from the input that triggered them.
// They are immutable value objects produced by the InputMapper (or by IPC /
// web clients) and consumed by AppState.Execute. A command never carries a
// reference to the state it will run against.
// ============================================================================

// Command is the closed set of executable intents.
type Command interface {
	commandMarker()
	String() string
}

// ContentCommand selects a named action (sound/image/video bundle).
type ContentCommand struct {
	Name string `json:"name"`
}

func (ContentCommand) commandMarker() {}
func (c ContentCommand) String() string {
	return fmt.Sprintf("ContentCommand(%s)", c.Name)
}

// VideoChannelCommand navigates the looping video channels.
//
// Target >= 0 jumps to that channel index directly (produced by
// "video_<channel>" mapping names). Target < 0 moves relative to the
// current channel by Direction (+1 next, -1 previous), wrapping at both
// ends.
type VideoChannelCommand struct {
	Direction int `json:"direction"`
	Target    int `json:"target"`
}

func (VideoChannelCommand) commandMarker() {}
func (c VideoChannelCommand) String() string {
	if c.Target >= 0 {
		return fmt.Sprintf("VideoChannelCommand(target=%d)", c.Target)
	}
	return fmt.Sprintf("VideoChannelCommand(direction=%+d)", c.Direction)
}

// TogglePauseCommand flips the pause flag of the current content.
type TogglePauseCommand struct{}

func (TogglePauseCommand) commandMarker() {}
func (TogglePauseCommand) String() string { return "TogglePauseCommand()" }

// ExitCommand raises the shutdown intent. The main loop owns the actual
// termination sequence; executing this command never terminates the
// process directly.
type ExitCommand struct{}

func (ExitCommand) commandMarker() {}
func (ExitCommand) String() string { return "ExitCommand()" }

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// CommandEnvelope wraps commands for transport over IPC and the admin web
// surface. Since Go doesn't have union types, we use a type discriminator.
// ============================================================================

// CommandEnvelope wraps a command with a type discriminator for JSON marshaling
type CommandEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalCommand deserializes a JSON command envelope into a concrete Command
func UnmarshalCommand(data []byte) (Command, error) {
	var env CommandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "show_content":
		var c ContentCommand
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("unmarshal ContentCommand: %w", err)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("show_content: empty name")
		}
		return c, nil

	case "video_channel":
		c := VideoChannelCommand{Target: -1}
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("unmarshal VideoChannelCommand: %w", err)
		}
		if c.Target < 0 && c.Direction != 1 && c.Direction != -1 {
			return nil, fmt.Errorf("video_channel: direction must be 1 or -1")
		}
		return c, nil

	case "toggle_pause":
		return TogglePauseCommand{}, nil

	case "exit":
		return ExitCommand{}, nil

	default:
		return nil, fmt.Errorf("unknown command type: %s", env.Type)
	}
}

// MarshalCommand serializes a Command into a JSON command envelope
func MarshalCommand(cmd Command) ([]byte, error) {
	var env CommandEnvelope

	switch c := cmd.(type) {
	case ContentCommand:
		env.Type = "show_content"
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal ContentCommand: %w", err)
		}
		env.Data = data

	case VideoChannelCommand:
		env.Type = "video_channel"
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal VideoChannelCommand: %w", err)
		}
		env.Data = data

	case TogglePauseCommand:
		env.Type = "toggle_pause"

	case ExitCommand:
		env.Type = "exit"

	default:
		return nil, fmt.Errorf("unknown command type: %T", cmd)
	}

	return json.Marshal(env)
}
