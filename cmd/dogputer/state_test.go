package main

import (
	"log/slog"
	"os"
	"testing"
)

// mockPlayer is a test double for Player
type mockPlayer struct {
	sounds []string
	images []string
	videos []string
	paused []bool
	stops  int
}

func (m *mockPlayer) PlaySound(path string) { m.sounds = append(m.sounds, path) }
func (m *mockPlayer) ShowImage(path string) { m.images = append(m.images, path) }
func (m *mockPlayer) PlayVideo(path string) { m.videos = append(m.videos, path) }
func (m *mockPlayer) SetPaused(paused bool) { m.paused = append(m.paused, paused) }
func (m *mockPlayer) Stop() { m.stops++ }

// mockSpeaker is a test double for Speaker
type mockSpeaker struct {
	said []string
}

func (m *mockSpeaker) Say(text string) { m.said = append(m.said, text) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestState(player *mockPlayer, speaker *mockSpeaker) *AppState {
	return NewAppState(player, speaker, testLogger(), nil)
}

// testChannels returns a four-channel lineup for wrap tests
func testChannels() []VideoChannel {
	return []VideoChannel{
		{Name: "Squirrels", Video: "squirrels.mp4"},
		{Name: "Birds", Video: "birds.mp4"},
		{Name: "Fish", Video: "fish.mp4"},
		{Name: "Park", Video: "park.mp4"},
	}
}

// TestExecute_ContentCommand tests that a known action plays its media,
// updates the current content and speaks feedback
func TestExecute_ContentCommand(t *testing.T) {
	player := &mockPlayer{}
	speaker := &mockSpeaker{}
	state := newTestState(player, speaker)

	state.SwapRegistry(ActionRegistry{
		"ball": {Name: "ball", SoundPath: "/m/sounds/ball.wav", ImagePath: "/m/images/ball.jpg"},
	}, nil)

	state.Execute(ContentCommand{Name: "ball"})

	if state.CurrentContent != "ball" {
		t.Errorf("expected current content ball, got %q", state.CurrentContent)
	}
	if len(player.sounds) != 1 || player.sounds[0] != "/m/sounds/ball.wav" {
		t.Errorf("expected ball sound played, got %v", player.sounds)
	}
	if len(player.images) != 1 || player.images[0] != "/m/images/ball.jpg" {
		t.Errorf("expected ball image shown, got %v", player.images)
	}
	if len(speaker.said) != 1 || speaker.said[0] != "ball" {
		t.Errorf("expected spoken feedback, got %v", speaker.said)
	}
}

// TestExecute_ContentVideoPreferred tests that video wins over image when
// an action has both
func TestExecute_ContentVideoPreferred(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})

	state.SwapRegistry(ActionRegistry{
		"rope": {Name: "rope", ImagePath: "/m/images/rope.jpg", VideoPath: "/m/videos/rope.mp4"},
	}, nil)

	state.Execute(ContentCommand{Name: "rope"})

	if len(player.videos) != 1 {
		t.Fatalf("expected video played, got %v", player.videos)
	}
	if len(player.images) != 0 {
		t.Errorf("expected no image when video exists, got %v", player.images)
	}
}

// TestExecute_ContentSpeaksHumanName tests underscore-to-space conversion
// for the speech feedback
func TestExecute_ContentSpeaksHumanName(t *testing.T) {
	speaker := &mockSpeaker{}
	state := newTestState(&mockPlayer{}, speaker)

	state.SwapRegistry(ActionRegistry{
		"squirrel_treat": {Name: "squirrel_treat", SoundPath: "/m/sounds/squirrel_treat.wav"},
	}, nil)

	state.Execute(ContentCommand{Name: "squirrel_treat"})

	if len(speaker.said) != 1 || speaker.said[0] != "squirrel treat" {
		t.Errorf("expected spoken 'squirrel treat', got %v", speaker.said)
	}
}

// TestExecute_UnknownActionIsNoOp tests that an unresolved action name
// leaves state and collaborators untouched
func TestExecute_UnknownActionIsNoOp(t *testing.T) {
	player := &mockPlayer{}
	speaker := &mockSpeaker{}
	state := newTestState(player, speaker)

	state.Execute(ContentCommand{Name: "ghost"})

	if state.CurrentContent != "" {
		t.Errorf("expected no content change, got %q", state.CurrentContent)
	}
	if len(player.sounds)+len(player.images)+len(player.videos) != 0 {
		t.Error("expected no media played for unknown action")
	}
	if len(speaker.said) != 0 {
		t.Error("expected no speech for unknown action")
	}
}

// TestExecute_RepeatedContentRestarts tests that re-triggering the active
// action plays its media again from the start
func TestExecute_RepeatedContentRestarts(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})

	state.SwapRegistry(ActionRegistry{
		"ball": {Name: "ball", SoundPath: "/m/sounds/ball.wav"},
	}, nil)

	state.Execute(ContentCommand{Name: "ball"})
	state.Execute(ContentCommand{Name: "ball"})

	if len(player.sounds) != 2 {
		t.Errorf("expected sound replayed on repeat press, got %d plays", len(player.sounds))
	}
}

// TestExecute_ChannelWrapForward tests next from the last channel wrapping
// to index 0
func TestExecute_ChannelWrapForward(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})
	state.SwapRegistry(ActionRegistry{}, testChannels())
	state.CurrentChannel = 3

	state.Execute(VideoChannelCommand{Direction: 1, Target: -1})

	if state.CurrentChannel != 0 {
		t.Errorf("expected wrap to channel 0, got %d", state.CurrentChannel)
	}
	if len(player.videos) != 1 || player.videos[0] != "squirrels.mp4" {
		t.Errorf("expected squirrels.mp4 played, got %v", player.videos)
	}
}

// TestExecute_ChannelWrapBackward tests previous from channel 0 wrapping
// to the last index
func TestExecute_ChannelWrapBackward(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})
	state.SwapRegistry(ActionRegistry{}, testChannels())
	state.CurrentChannel = 0

	state.Execute(VideoChannelCommand{Direction: -1, Target: -1})

	if state.CurrentChannel != 3 {
		t.Errorf("expected wrap to channel 3, got %d", state.CurrentChannel)
	}
	if len(player.videos) != 1 || player.videos[0] != "park.mp4" {
		t.Errorf("expected park.mp4 played, got %v", player.videos)
	}
}

// TestExecute_ChannelSteps tests ordinary relative navigation
func TestExecute_ChannelSteps(t *testing.T) {
	player := &mockPlayer{}
	speaker := &mockSpeaker{}
	state := newTestState(player, speaker)
	state.SwapRegistry(ActionRegistry{}, testChannels())

	state.Execute(VideoChannelCommand{Direction: 1, Target: -1})
	if state.CurrentChannel != 1 {
		t.Errorf("expected channel 1, got %d", state.CurrentChannel)
	}
	state.Execute(VideoChannelCommand{Direction: 1, Target: -1})
	if state.CurrentChannel != 2 {
		t.Errorf("expected channel 2, got %d", state.CurrentChannel)
	}
	state.Execute(VideoChannelCommand{Direction: -1, Target: -1})
	if state.CurrentChannel != 1 {
		t.Errorf("expected channel 1, got %d", state.CurrentChannel)
	}
	if len(speaker.said) != 3 || speaker.said[2] != "Birds" {
		t.Errorf("expected channel names spoken, got %v", speaker.said)
	}
}

// TestExecute_ChannelTargetJump tests the direct jump produced by
// video_<channel> mapping names
func TestExecute_ChannelTargetJump(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})
	state.SwapRegistry(ActionRegistry{}, testChannels())
	state.CurrentChannel = 2

	state.Execute(VideoChannelCommand{Direction: 1, Target: 0})

	if state.CurrentChannel != 0 {
		t.Errorf("expected jump to channel 0, got %d", state.CurrentChannel)
	}
	if len(player.videos) != 1 || player.videos[0] != "squirrels.mp4" {
		t.Errorf("expected squirrels.mp4 played, got %v", player.videos)
	}
}

// TestExecute_ChannelUsesRegistryPath tests that the resolved path from
// the registry's channel action wins over the bare config value
func TestExecute_ChannelUsesRegistryPath(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})
	channels := []VideoChannel{{Name: "Squirrels", Video: "squirrels.mp4"}}
	state.SwapRegistry(ActionRegistry{
		"video_squirrels": {
			Name:           "video_squirrels",
			VideoPath:      "media/videos/squirrels.mp4",
			IsVideoChannel: true,
		},
	}, channels)

	state.Execute(VideoChannelCommand{Direction: 1, Target: 0})

	if len(player.videos) != 1 || player.videos[0] != "media/videos/squirrels.mp4" {
		t.Errorf("expected resolved registry path, got %v", player.videos)
	}
}

// TestExecute_ChannelNoChannels tests that navigation without configured
// channels is a quiet no-op
func TestExecute_ChannelNoChannels(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})

	state.Execute(VideoChannelCommand{Direction: 1, Target: -1})

	if state.CurrentChannel != 0 || len(player.videos) != 0 {
		t.Error("expected no-op with empty channel list")
	}
}

// TestExecute_TogglePause tests the pause flag flip and its delivery to
// the player
func TestExecute_TogglePause(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})

	state.Execute(TogglePauseCommand{})
	if !state.Paused {
		t.Error("expected paused after first toggle")
	}
	state.Execute(TogglePauseCommand{})
	if state.Paused {
		t.Error("expected unpaused after second toggle")
	}
	if len(player.paused) != 2 || player.paused[0] != true || player.paused[1] != false {
		t.Errorf("expected SetPaused(true) then SetPaused(false), got %v", player.paused)
	}
}

// TestExecute_ContentClearsPause tests that selecting content resets the
// pause flag
func TestExecute_ContentClearsPause(t *testing.T) {
	state := newTestState(&mockPlayer{}, &mockSpeaker{})
	state.SwapRegistry(ActionRegistry{
		"ball": {Name: "ball", SoundPath: "/m/sounds/ball.wav"},
	}, nil)

	state.Execute(TogglePauseCommand{})
	state.Execute(ContentCommand{Name: "ball"})

	if state.Paused {
		t.Error("expected pause cleared on new content")
	}
}

// TestExecute_ExitRaisesIntentOnly tests that ExitCommand raises the
// shutdown flag without touching playback or content state
func TestExecute_ExitRaisesIntentOnly(t *testing.T) {
	player := &mockPlayer{}
	state := newTestState(player, &mockSpeaker{})

	if state.ShutdownRequested() {
		t.Fatal("shutdown flag set before any command")
	}

	state.Execute(ExitCommand{})

	if !state.ShutdownRequested() {
		t.Error("expected shutdown intent after ExitCommand")
	}
	if player.stops != 0 {
		t.Error("expected no player teardown from ExitCommand itself")
	}

	// Idempotent.
	state.Execute(ExitCommand{})
	if !state.ShutdownRequested() {
		t.Error("expected shutdown intent to stay raised")
	}
}

// TestExecute_NotifyEmitsStateChanges tests the state feed hook
func TestExecute_NotifyEmitsStateChanges(t *testing.T) {
	var changes []StateChange
	state := NewAppState(&mockPlayer{}, &mockSpeaker{}, testLogger(), func(c StateChange) {
		changes = append(changes, c)
	})
	state.SwapRegistry(ActionRegistry{
		"ball": {Name: "ball", SoundPath: "/m/sounds/ball.wav"},
	}, testChannels())

	state.Execute(ContentCommand{Name: "ball"})
	state.Execute(VideoChannelCommand{Direction: 1, Target: -1})
	state.Execute(TogglePauseCommand{})

	if len(changes) != 3 {
		t.Fatalf("expected 3 state changes, got %d", len(changes))
	}
	if changes[0].Kind != "content" || changes[0].Content != "ball" {
		t.Errorf("unexpected first change %+v", changes[0])
	}
	if changes[1].Kind != "channel" || changes[1].Channel != 1 {
		t.Errorf("unexpected second change %+v", changes[1])
	}
	if changes[2].Kind != "pause" || !changes[2].Paused {
		t.Errorf("unexpected third change %+v", changes[2])
	}
}

// TestScenario_ButtonBoxSession walks the end-to-end translate/execute
// path for a small profile: a content button and a channel jump button
func TestScenario_ButtonBoxSession(t *testing.T) {
	player := &mockPlayer{}
	speaker := &mockSpeaker{}
	state := newTestState(player, speaker)
	mapper := NewInputMapper()

	channels := []VideoChannel{{Name: "Squirrels", Video: "squirrels.mp4"}}
	mapper.SetChannels(channels)
	state.SwapRegistry(ActionRegistry{
		"ball": {Name: "ball", SoundPath: "/m/sounds/ball.wav", ImagePath: "/m/images/ball.jpg"},
		"video_squirrels": {
			Name:           "video_squirrels",
			VideoPath:      "media/videos/squirrels.mp4",
			IsVideoChannel: true,
		},
	}, channels)

	table, err := ParseMappingTable("development", map[string]string{
		"K_0":  "ball",
		"K_UP": "video_squirrels",
	})
	if err != nil {
		t.Fatalf("ParseMappingTable failed: %v", err)
	}
	mapper.SetTable(table)

	// Press 0: the ball action.
	cmd, ok := mapper.Translate(KeyPress{Code: keyCodes["K_0"]})
	if !ok {
		t.Fatal("K_0 did not translate")
	}
	state.Execute(cmd)
	if state.CurrentContent != "ball" {
		t.Errorf("expected current content ball, got %q", state.CurrentContent)
	}

	// Press up: jump to the squirrels channel.
	cmd, ok = mapper.Translate(KeyPress{Code: keyCodes["K_UP"]})
	if !ok {
		t.Fatal("K_UP did not translate")
	}
	state.Execute(cmd)
	if state.CurrentChannel != 0 {
		t.Errorf("expected channel 0, got %d", state.CurrentChannel)
	}
	if state.CurrentContent != "squirrels.mp4" {
		t.Errorf("expected current content squirrels.mp4, got %q", state.CurrentContent)
	}
	if len(player.videos) != 1 || player.videos[0] != "media/videos/squirrels.mp4" {
		t.Errorf("expected channel video played, got %v", player.videos)
	}
}
