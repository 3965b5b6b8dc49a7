package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Main Loop
// ============================================================================
// Single-threaded cooperative tick loop: poll devices, translate raw
// events, execute commands. Nothing in here blocks or suspends; poll,
// translate and execute are all synchronous and bounded. The shutdown
// check at the end of the tick is the only point where the loop may
// terminate.
// ============================================================================

// runLoop drives the appliance until shutdown is requested or ctx is
// canceled. External commands (IPC) are drained at the top of each tick
// and dispatched through the same Execute path as device input.
func runLoop(ctx context.Context, state *AppState, source EventSource, mapper *InputMapper, external <-chan Command, tickHz int, logger *slog.Logger) {
	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()

	logger.Info("main loop running", "tick_hz", tickHz)

	for {
		select {
		case <-ctx.Done():
			logger.Info("main loop stopping (context canceled)")
			return

		case <-ticker.C:
		drain:
			for {
				select {
				case cmd := <-external:
					logger.Debug("executing external command", "command", cmd.String())
					state.Execute(cmd)
				default:
					break drain
				}
			}

			for _, ev := range source.Poll() {
				cmd, ok := mapper.Translate(ev)
				if !ok {
					// Unbound input: the expected case, not an error.
					continue
				}
				logger.Debug("executing command", "command", cmd.String())
				state.Execute(cmd)
			}

			if state.ShutdownRequested() {
				logger.Info("main loop stopping (shutdown requested)")
				return
			}
		}
	}
}
