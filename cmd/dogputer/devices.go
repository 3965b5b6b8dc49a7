package main

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ============================================================================
// Device Event Sources
// ============================================================================
// A DeviceSource wraps one physical input device and yields the raw input
// transitions that occurred since the last poll. Poll never blocks: the
// underlying evdev fd is opened non-blocking and drained to EAGAIN each
// cycle. A device that disappears mid-session polls as empty and is
// re-opened on a best-effort basis on later cycles.
// ============================================================================

// RawEvent is one physical input transition (press edge, not hold).
type RawEvent interface {
	rawEventMarker()
}

// KeyPress is a keyboard key going down. Arcade controllers in keyboard
// emulation mode produce these too; at this layer they are
// indistinguishable from a real keyboard.
type KeyPress struct {
	Code uint16
}

func (KeyPress) rawEventMarker() {}

// ButtonPress is a joystick/gamepad button transition.
type ButtonPress struct {
	Device  int
	Button  int
	Pressed bool
}

func (ButtonPress) rawEventMarker() {}

// HatMove is a joystick hat (d-pad) moving into a direction.
type HatMove struct {
	Device    int
	Hat       int
	Direction string // "up", "down", "left", "right"
}

func (HatMove) rawEventMarker() {}

// EventSource yields raw input events once per poll cycle.
type EventSource interface {
	Poll() []RawEvent
	Close()
}

// DeviceKind selects how a DeviceSource interprets evdev events.
type DeviceKind string

const (
	// DeviceKeyboard covers real keyboards and arcade controllers in
	// keyboard-emulation mode.
	DeviceKeyboard DeviceKind = "keyboard"
	// DeviceGamepad covers joysticks and arcade controllers in native
	// gamepad mode.
	DeviceGamepad DeviceKind = "gamepad"
)

// DeviceSource owns one evdev handle. Not safe for concurrent use; the
// main loop is the only caller.
type DeviceSource struct {
	path   string
	kind   DeviceKind
	joyID  int
	logger *slog.Logger

	fd  int
	buf []byte

	// hat edge detection: last seen axis values, so only transitions
	// into a direction produce events
	lastHatX int32
	lastHatY int32

	lastReopen time.Time
}

// NewDeviceSource opens path. An open failure is not fatal: the source
// starts disconnected and retries on later polls, so a device that is
// plugged in after startup still comes alive.
func NewDeviceSource(path string, kind DeviceKind, joyID int, logger *slog.Logger) *DeviceSource {
	s := &DeviceSource{
		path:   path,
		kind:   kind,
		joyID:  joyID,
		logger: logger,
		fd:     -1,
		buf:    make([]byte, inputEventSize*32),
	}

	fd, err := openInputDevice(path)
	if err != nil {
		logger.Warn("input device not available, will retry", "path", path, "error", err)
		s.lastReopen = time.Now()
		return s
	}
	s.fd = fd
	logger.Info("input device opened", "path", path, "kind", kind)
	return s
}

// Poll drains all pending transitions. Disconnection is transient: the
// source reports empty and attempts a rate-limited reopen next cycle.
func (s *DeviceSource) Poll() []RawEvent {
	if s.fd < 0 {
		s.tryReopen()
		if s.fd < 0 {
			return nil
		}
	}

	events, err := drainInputEvents(s.fd, s.buf)
	raw := s.translate(events)

	if err != nil {
		s.logger.Warn("input device lost", "path", s.path, "error", err)
		unix.Close(s.fd)
		s.fd = -1
		s.lastHatX, s.lastHatY = 0, 0
		s.lastReopen = time.Now()
	}

	return raw
}

func (s *DeviceSource) tryReopen() {
	if time.Since(s.lastReopen) < deviceReopenMinGap*time.Millisecond {
		return
	}
	s.lastReopen = time.Now()

	fd, err := openInputDevice(s.path)
	if err != nil {
		return
	}
	s.fd = fd
	s.logger.Info("input device reopened", "path", s.path)
}

// translate converts evdev events into RawEvents, keeping press edges only.
func (s *DeviceSource) translate(events []inputEvent) []RawEvent {
	var raw []RawEvent

	for _, ev := range events {
		switch ev.Type {
		case evKey:
			if ev.Value != evValuePress {
				continue
			}
			if s.kind == DeviceGamepad {
				if idx, ok := joyButtonIndex(ev.Code); ok {
					raw = append(raw, ButtonPress{Device: s.joyID, Button: idx, Pressed: true})
					continue
				}
			}
			raw = append(raw, KeyPress{Code: ev.Code})

		case evAbs:
			if s.kind != DeviceGamepad {
				continue
			}
			switch ev.Code {
			case absHat0X:
				if dir, ok := hatDirectionX(s.lastHatX, ev.Value); ok {
					raw = append(raw, HatMove{Device: s.joyID, Hat: 0, Direction: dir})
				}
				s.lastHatX = ev.Value
			case absHat0Y:
				if dir, ok := hatDirectionY(s.lastHatY, ev.Value); ok {
					raw = append(raw, HatMove{Device: s.joyID, Hat: 0, Direction: dir})
				}
				s.lastHatY = ev.Value
			}
		}
	}

	return raw
}

// Close releases the evdev handle.
func (s *DeviceSource) Close() {
	if s.fd >= 0 {
		unix.Close(s.fd)
		s.fd = -1
	}
}

// joyButtonIndex folds an evdev button code into a zero-based index.
func joyButtonIndex(code uint16) (int, bool) {
	if code >= btnJoystick && code < btnMax {
		return int(code - btnJoystick), true
	}
	return 0, false
}

// hatDirectionX reports the direction entered on the horizontal hat axis,
// if the transition is an edge into a non-center position.
func hatDirectionX(prev, cur int32) (string, bool) {
	if cur == prev || cur == 0 {
		return "", false
	}
	if cur > 0 {
		return "right", true
	}
	return "left", true
}

// hatDirectionY reports the direction entered on the vertical hat axis.
// Negative values are up in evdev coordinates.
func hatDirectionY(prev, cur int32) (string, bool) {
	if cur == prev || cur == 0 {
		return "", false
	}
	if cur > 0 {
		return "down", true
	}
	return "up", true
}

// ============================================================================
// Composite Event Source
// ============================================================================

// CompositeSource aggregates several sources into one ordered stream.
// Poll concatenates each child's events in registration order; within a
// child, arrival order is preserved. No deduplication: two devices
// producing the same transition each yield their own event.
type CompositeSource struct {
	mu      sync.Mutex
	sources []EventSource
}

// NewCompositeSource builds a composite over the given children. An empty
// list is valid; it polls as empty.
func NewCompositeSource(sources ...EventSource) *CompositeSource {
	return &CompositeSource{sources: append([]EventSource(nil), sources...)}
}

// Add registers a child source (device hot-plug). Safe between poll cycles.
func (c *CompositeSource) Add(s EventSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, s)
}

// Remove unregisters a child source and closes it. Events already drained
// from it in prior cycles are unaffected.
func (c *CompositeSource) Remove(s EventSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, child := range c.sources {
		if child == s {
			c.sources = append(c.sources[:i], c.sources[i+1:]...)
			child.Close()
			return
		}
	}
}

// Poll drains every child in order.
func (c *CompositeSource) Poll() []RawEvent {
	c.mu.Lock()
	children := append([]EventSource(nil), c.sources...)
	c.mu.Unlock()

	var all []RawEvent
	for _, s := range children {
		all = append(all, s.Poll()...)
	}
	return all
}

// Close closes every child.
func (c *CompositeSource) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sources {
		s.Close()
	}
	c.sources = nil
}
