package main

import (
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// ============================================================================
// Media and Speech Collaborators
// ============================================================================
// Playback and text-to-speech are external collaborators as far as the
// core is concerned: the command execution layer talks to these two
// interfaces and nothing else. Both must fail gracefully (log + no-op)
// rather than take the poll loop down.
// ============================================================================

// Player renders media assets. All calls are fire-and-forget.
type Player interface {
	PlaySound(path string)
	ShowImage(path string)
	PlayVideo(path string)
	SetPaused(paused bool)
	Stop()
}

// Speaker speaks feedback text asynchronously.
type Speaker interface {
	Say(text string)
}

// PlayerConfig holds the helper command lines the exec-backed player
// launches for each asset kind. The asset path is appended as the final
// argument.
type PlayerConfig struct {
	SoundCmd []string `yaml:"sound_cmd"`
	ImageCmd []string `yaml:"image_cmd"`
	VideoCmd []string `yaml:"video_cmd"`
}

// ExecPlayer drives playback through helper processes (aplay, mpv, ...).
// Sounds are one-shot; image/video display replaces whatever visual
// process is currently running. Pause is delivered as SIGSTOP/SIGCONT to
// the visual process, which suits looping video players.
//
// Single-owner: only the main loop calls into it.
type ExecPlayer struct {
	cfg    PlayerConfig
	logger *slog.Logger

	visual *exec.Cmd // current image/video process, if any
}

// NewExecPlayer builds the exec-backed player.
func NewExecPlayer(cfg PlayerConfig, logger *slog.Logger) *ExecPlayer {
	return &ExecPlayer{cfg: cfg, logger: logger}
}

func (p *ExecPlayer) PlaySound(path string) {
	if !p.assetOK(path, "sound") {
		return
	}
	p.spawn(p.cfg.SoundCmd, path)
}

func (p *ExecPlayer) ShowImage(path string) {
	if !p.assetOK(path, "image") {
		return
	}
	p.stopVisual()
	p.visual = p.spawn(p.cfg.ImageCmd, path)
}

func (p *ExecPlayer) PlayVideo(path string) {
	if !p.assetOK(path, "video") {
		return
	}
	p.stopVisual()
	p.visual = p.spawn(p.cfg.VideoCmd, path)
}

func (p *ExecPlayer) SetPaused(paused bool) {
	if p.visual == nil || p.visual.Process == nil {
		return
	}
	sig := unix.SIGCONT
	if paused {
		sig = unix.SIGSTOP
	}
	if err := unix.Kill(p.visual.Process.Pid, sig); err != nil {
		p.logger.Warn("pause signal failed", "pid", p.visual.Process.Pid, "error", err)
	}
}

func (p *ExecPlayer) Stop() {
	p.stopVisual()
}

// assetOK checks the asset exists; a missing file is logged and skipped,
// never fatal.
func (p *ExecPlayer) assetOK(path, kind string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		p.logger.Warn("media asset missing", "kind", kind, "path", path)
		return false
	}
	return true
}

func (p *ExecPlayer) spawn(argv []string, path string) *exec.Cmd {
	if len(argv) == 0 {
		return nil
	}
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	if err := cmd.Start(); err != nil {
		p.logger.Warn("media helper failed to start", "cmd", argv[0], "error", err)
		return nil
	}
	// Reap the helper so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return cmd
}

func (p *ExecPlayer) stopVisual() {
	if p.visual == nil || p.visual.Process == nil {
		p.visual = nil
		return
	}
	// SIGCONT first in case the process is stopped; a stopped process
	// does not act on SIGTERM until resumed.
	_ = unix.Kill(p.visual.Process.Pid, unix.SIGCONT)
	_ = p.visual.Process.Signal(unix.SIGTERM)
	p.visual = nil
}

// ExecSpeaker shells out to a TTS helper (espeak by default).
type ExecSpeaker struct {
	Cmd    []string `yaml:"cmd"`
	logger *slog.Logger
}

// NewExecSpeaker builds the exec-backed speaker.
func NewExecSpeaker(argv []string, logger *slog.Logger) *ExecSpeaker {
	return &ExecSpeaker{Cmd: argv, logger: logger}
}

func (s *ExecSpeaker) Say(text string) {
	if len(s.Cmd) == 0 || text == "" {
		return
	}
	cmd := exec.Command(s.Cmd[0], append(s.Cmd[1:], text)...)
	if err := cmd.Start(); err != nil {
		s.logger.Warn("tts helper failed to start", "cmd", s.Cmd[0], "error", err)
		return
	}
	go func() { _ = cmd.Wait() }()
}
