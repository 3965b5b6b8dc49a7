package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
)

// ============================================================================
// Input Mapper
// ============================================================================
// The mapper owns the active mapping table: raw input identity -> command
// name. Translation is a single lookup plus one centralized name-to-command
// factory, so the web editor and the daemon always agree on the naming
// convention. Table swaps are atomic pointer publishes; a Translate in
// flight sees the old or the new table in full, never a mixture.
// ============================================================================

// KeyKind tags the three raw input identities.
type KeyKind uint8

const (
	KindKey KeyKind = iota
	KindButton
	KindHat
)

// MappingKey is the lookup identity derived from a RawEvent. It is a plain
// comparable value: two keys built from the same physical input are equal
// regardless of how they were produced.
type MappingKey struct {
	Kind      KeyKind
	Device    int    // joystick id; zero for keyboard keys
	Code      uint16 // key code or button index
	Direction string // hat direction; empty otherwise
}

// ParseMappingKey parses the textual identifier used in mapping profiles:
//
//	"K_0"          keyboard key
//	"button:0:2"   joystick 0, button 2
//	"hat:0:up"     joystick 0, hat direction up
func ParseMappingKey(ident string) (MappingKey, error) {
	if code, ok := keyCodes[ident]; ok {
		return MappingKey{Kind: KindKey, Code: code}, nil
	}

	parts := strings.Split(ident, ":")
	if len(parts) != 3 {
		return MappingKey{}, fmt.Errorf("unknown input identifier %q", ident)
	}

	device, err := strconv.Atoi(parts[1])
	if err != nil || device < 0 {
		return MappingKey{}, fmt.Errorf("invalid device id in %q", ident)
	}

	switch parts[0] {
	case "button":
		button, err := strconv.Atoi(parts[2])
		if err != nil || button < 0 {
			return MappingKey{}, fmt.Errorf("invalid button index in %q", ident)
		}
		return MappingKey{Kind: KindButton, Device: device, Code: uint16(button)}, nil

	case "hat":
		switch parts[2] {
		case "up", "down", "left", "right":
			return MappingKey{Kind: KindHat, Device: device, Direction: parts[2]}, nil
		}
		return MappingKey{}, fmt.Errorf("invalid hat direction in %q", ident)
	}

	return MappingKey{}, fmt.Errorf("unknown input identifier %q", ident)
}

// String renders the key back into its profile-file form.
func (k MappingKey) String() string {
	switch k.Kind {
	case KindButton:
		return fmt.Sprintf("button:%d:%d", k.Device, k.Code)
	case KindHat:
		return fmt.Sprintf("hat:%d:%s", k.Device, k.Direction)
	default:
		if name, ok := keyNames[k.Code]; ok {
			return name
		}
		return fmt.Sprintf("key:%d", k.Code)
	}
}

// keyForRawEvent derives the lookup identity for a raw event.
func keyForRawEvent(ev RawEvent) (MappingKey, bool) {
	switch e := ev.(type) {
	case KeyPress:
		return MappingKey{Kind: KindKey, Code: e.Code}, true
	case ButtonPress:
		if !e.Pressed {
			return MappingKey{}, false
		}
		return MappingKey{Kind: KindButton, Device: e.Device, Code: uint16(e.Button)}, true
	case HatMove:
		return MappingKey{Kind: KindHat, Device: e.Device, Direction: e.Direction}, true
	}
	return MappingKey{}, false
}

// ============================================================================
// Mapping Table
// ============================================================================

// MappingTable is one immutable mapping profile: raw input identity ->
// command name. Replaced wholesale on reload, never edited in place.
type MappingTable struct {
	Profile string
	Entries map[MappingKey]string
}

// ParseMappingTable builds a table from the JSON object form used by the
// profile files and the web editor. Any unparseable identifier rejects the
// whole table; command names are NOT validated here (unresolved names are
// tolerated until dispatch).
func ParseMappingTable(profile string, raw map[string]string) (*MappingTable, error) {
	entries := make(map[MappingKey]string, len(raw))
	for ident, name := range raw {
		key, err := ParseMappingKey(ident)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", profile, err)
		}
		if name == "" {
			return nil, fmt.Errorf("profile %s: empty command name for %q", profile, ident)
		}
		entries[key] = name
	}
	return &MappingTable{Profile: profile, Entries: entries}, nil
}

// LoadMappingTable reads a profile file (a flat JSON object, keys unique,
// order irrelevant). A parse failure rejects the load in full.
func LoadMappingTable(path, profile string) (*MappingTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping profile: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode mapping profile %s: %w", profile, err)
	}

	return ParseMappingTable(profile, raw)
}

// TextForm renders the table back into the JSON object form, sorted for
// stable output.
func (t *MappingTable) TextForm() map[string]string {
	out := make(map[string]string, len(t.Entries))
	for key, name := range t.Entries {
		out[key.String()] = name
	}
	return out
}

// SortedIdentifiers returns the textual identifiers in deterministic order.
func (t *MappingTable) SortedIdentifiers() []string {
	idents := make([]string, 0, len(t.Entries))
	for key := range t.Entries {
		idents = append(idents, key.String())
	}
	sort.Strings(idents)
	return idents
}

// ============================================================================
// Input Mapper
// ============================================================================

// InputMapper translates raw events into commands using the active table.
// The table and the channel list are atomic snapshots so the reload
// gateway can swap them from another goroutine while the main loop keeps
// translating.
type InputMapper struct {
	table    atomic.Pointer[MappingTable]
	channels atomic.Pointer[[]VideoChannel]
}

// NewInputMapper starts with an empty table and no channels.
func NewInputMapper() *InputMapper {
	m := &InputMapper{}
	m.table.Store(&MappingTable{Entries: map[MappingKey]string{}})
	empty := []VideoChannel{}
	m.channels.Store(&empty)
	return m
}

// SetTable publishes a replacement mapping table.
func (m *InputMapper) SetTable(t *MappingTable) {
	m.table.Store(t)
}

// Table returns the active table snapshot.
func (m *InputMapper) Table() *MappingTable {
	return m.table.Load()
}

// SetChannels publishes the channel list used to resolve video_* names.
func (m *InputMapper) SetChannels(channels []VideoChannel) {
	snapshot := append([]VideoChannel(nil), channels...)
	m.channels.Store(&snapshot)
}

// Translate maps one raw event to a command. An unbound input returns
// (nil, false); that is the expected case, not an error.
func (m *InputMapper) Translate(ev RawEvent) (Command, bool) {
	key, ok := keyForRawEvent(ev)
	if !ok {
		return nil, false
	}

	table := m.table.Load()
	name, ok := table.Entries[key]
	if !ok {
		return nil, false
	}

	return CommandFromName(name, *m.channels.Load()), true
}

// CommandFromName is the single place where command names become Command
// values. The web administration layer relies on exactly this convention:
//
//	exit                    -> ExitCommand
//	pause, toggle_pause     -> TogglePauseCommand
//	channel_next            -> VideoChannelCommand next
//	channel_prev            -> VideoChannelCommand previous
//	video_<channel name>    -> VideoChannelCommand jumping to that channel
//	anything else           -> ContentCommand
//
// A video_* name whose suffix matches no configured channel falls through
// to ContentCommand, so stale mappings degrade to the usual
// unresolved-action no-op instead of breaking translation.
func CommandFromName(name string, channels []VideoChannel) Command {
	switch name {
	case "exit":
		return ExitCommand{}
	case "pause", "toggle_pause":
		return TogglePauseCommand{}
	case "channel_next":
		return VideoChannelCommand{Direction: 1, Target: -1}
	case "channel_prev":
		return VideoChannelCommand{Direction: -1, Target: -1}
	}

	if suffix, ok := strings.CutPrefix(name, "video_"); ok {
		for i, ch := range channels {
			if strings.EqualFold(ch.Name, suffix) {
				return VideoChannelCommand{Direction: 1, Target: i}
			}
		}
	}

	return ContentCommand{Name: name}
}
