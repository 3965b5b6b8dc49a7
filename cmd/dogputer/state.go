package main

import (
	"log/slog"
	"sync/atomic"
)

// ============================================================================
// Application State + Command Execution
// ============================================================================
// AppState is the single mutable store: current channel, current content,
// pause flag, and the resolved action registry. It is owned by the main
// loop; Execute is the only entry point that mutates it. The reload
// gateway may replace the registry snapshot atomically but never touches
// the loop-owned fields.
// ============================================================================

// registrySnapshot bundles the action registry with the ordered channel
// list so both are always replaced together.
type registrySnapshot struct {
	registry ActionRegistry
	channels []VideoChannel
}

// StateChange is pushed to the optional notify hook after Execute mutates
// state, so the web state feed can mirror what the pet is seeing.
type StateChange struct {
	Kind    string `json:"kind"` // "content", "channel", "pause"
	Content string `json:"content,omitempty"`
	Channel int    `json:"channel"`
	Paused  bool   `json:"paused"`
}

// AppState is created once at startup and lives for the process lifetime.
//
// Concurrency: CurrentChannel, CurrentContent and Paused are main-loop
// private. The registry snapshot and the shutdown flag are the only
// cross-thread surfaces, both atomic.
type AppState struct {
	CurrentChannel int
	CurrentContent string
	Paused         bool

	snap     atomic.Pointer[registrySnapshot]
	shutdown atomic.Bool

	player  Player
	speaker Speaker
	logger  *slog.Logger
	notify  func(StateChange) // may be nil
}

// NewAppState wires the state to its collaborators. notify may be nil.
func NewAppState(player Player, speaker Speaker, logger *slog.Logger, notify func(StateChange)) *AppState {
	s := &AppState{
		player:  player,
		speaker: speaker,
		logger:  logger,
		notify:  notify,
	}
	s.snap.Store(&registrySnapshot{registry: ActionRegistry{}})
	return s
}

// SwapRegistry atomically publishes a replacement registry + channel list.
// Called by the reload gateway; safe against a concurrent Execute.
func (s *AppState) SwapRegistry(registry ActionRegistry, channels []VideoChannel) {
	s.snap.Store(&registrySnapshot{
		registry: registry,
		channels: append([]VideoChannel(nil), channels...),
	})
}

// Registry returns the current snapshot.
func (s *AppState) Registry() (ActionRegistry, []VideoChannel) {
	snap := s.snap.Load()
	return snap.registry, snap.channels
}

// RequestShutdown raises the cooperative shutdown intent. Idempotent.
func (s *AppState) RequestShutdown() {
	s.shutdown.Store(true)
}

// ShutdownRequested is checked once per tick by the main loop; that check
// is the single point where the loop may terminate.
func (s *AppState) ShutdownRequested() bool {
	return s.shutdown.Load()
}

// Execute applies one command. Side effects only; every failure mode is
// recovered locally (logged no-op), never propagated.
func (s *AppState) Execute(cmd Command) {
	switch c := cmd.(type) {
	case ContentCommand:
		s.executeContent(c)
	case VideoChannelCommand:
		s.executeChannel(c)
	case TogglePauseCommand:
		s.Paused = !s.Paused
		s.player.SetPaused(s.Paused)
		s.logger.Debug("pause toggled", "paused", s.Paused)
		s.emit(StateChange{Kind: "pause"})
	case ExitCommand:
		s.logger.Info("exit requested")
		s.RequestShutdown()
	default:
		s.logger.Warn("unknown command", "command", cmd.String())
	}
}

// executeContent shows a named action. Re-triggering the same action
// restarts it from the beginning; repeated presses are the expected
// interaction pattern for a physical button.
func (s *AppState) executeContent(c ContentCommand) {
	registry, _ := s.Registry()

	action, ok := registry[c.Name]
	if !ok {
		s.logger.Warn("command target not in action registry", "name", c.Name)
		return
	}

	s.CurrentContent = c.Name
	s.Paused = false

	if action.SoundPath != "" {
		s.player.PlaySound(action.SoundPath)
	}
	// Video preferred over image when both exist.
	if action.VideoPath != "" {
		s.player.PlayVideo(action.VideoPath)
	} else if action.ImagePath != "" {
		s.player.ShowImage(action.ImagePath)
	}
	s.speaker.Say(humanName(c.Name))

	s.logger.Info("content selected", "name", c.Name)
	s.emit(StateChange{Kind: "content"})
}

// executeChannel jumps to a target channel or steps relative to the
// current one, wrapping at both ends (index -1 wraps to last).
func (s *AppState) executeChannel(c VideoChannelCommand) {
	registry, channels := s.Registry()
	n := len(channels)
	if n == 0 {
		s.logger.Debug("channel change ignored, no channels configured")
		return
	}

	idx := c.Target
	if idx < 0 || idx >= n {
		idx = ((s.CurrentChannel+c.Direction)%n + n) % n
	}

	channel := channels[idx]
	s.CurrentChannel = idx
	s.CurrentContent = channel.Video
	s.Paused = false

	// The channel action carries the resolved path under the videos root.
	videoPath := channel.Video
	if action, ok := registry["video_"+lowerName(channel.Name)]; ok && action.VideoPath != "" {
		videoPath = action.VideoPath
	}

	s.player.PlayVideo(videoPath)
	s.speaker.Say(channel.Name)

	s.logger.Info("channel changed", "index", idx, "name", channel.Name, "video", channel.Video)
	s.emit(StateChange{Kind: "channel"})
}

func (s *AppState) emit(change StateChange) {
	if s.notify == nil {
		return
	}
	change.Content = s.CurrentContent
	change.Channel = s.CurrentChannel
	change.Paused = s.Paused
	s.notify(change)
}
