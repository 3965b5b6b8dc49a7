package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// ============================================================================
// Configuration Reload Gateway
// ============================================================================
// The gateway is the only cross-thread boundary into the core: the web
// administration service and the ctl tool hand replacement configuration
// to the main loop exclusively through these atomic-swap operations.
//
// Both reloads are all-or-nothing: a parse failure leaves the previously
// active table/registry untouched and is returned to the caller. Nothing
// is re-executed retroactively; a swap only changes behavior for events
// arriving after it completes.
// ============================================================================

// ReloadGateway swaps mapping tables and action registries into the
// running daemon.
type ReloadGateway struct {
	mapper *InputMapper
	state  *AppState

	profileDir   string
	channelsFile string
	roots        MediaRoots

	logger *slog.Logger
}

// NewReloadGateway wires the gateway to the mapper and state it publishes
// into.
func NewReloadGateway(mapper *InputMapper, state *AppState, profileDir, channelsFile string, roots MediaRoots, logger *slog.Logger) *ReloadGateway {
	return &ReloadGateway{
		mapper:       mapper,
		state:        state,
		profileDir:   profileDir,
		channelsFile: channelsFile,
		roots:        roots,
		logger:       logger,
	}
}

// ProfilePath resolves a profile name to its backing file.
func (g *ReloadGateway) ProfilePath(profile string) string {
	return filepath.Join(g.profileDir, profile+".json")
}

// ReloadMappingProfile loads a named profile file and, if it parses in
// full, publishes it as the active mapping table.
func (g *ReloadGateway) ReloadMappingProfile(profile string) error {
	table, err := LoadMappingTable(g.ProfilePath(profile), profile)
	if err != nil {
		g.logger.Warn("mapping reload rejected", "profile", profile, "error", err)
		return fmt.Errorf("reload mapping profile: %w", err)
	}

	g.mapper.SetTable(table)
	g.logger.Info("mapping table reloaded", "profile", profile, "entries", len(table.Entries))
	return nil
}

// ApplyMappingTable publishes an already-parsed replacement table (the
// web editor path, where the table arrives as JSON over HTTP).
func (g *ReloadGateway) ApplyMappingTable(table *MappingTable) {
	g.mapper.SetTable(table)
	g.logger.Info("mapping table applied", "profile", table.Profile, "entries", len(table.Entries))
}

// ReloadActionRegistry rescans the media roots and channel list and
// publishes the result into AppState and the mapper. Called after media
// uploads or channel edits.
func (g *ReloadGateway) ReloadActionRegistry() error {
	channels, err := LoadVideoChannels(g.channelsFile)
	if err != nil {
		g.logger.Warn("registry reload rejected", "error", err)
		return fmt.Errorf("reload action registry: %w", err)
	}

	registry := BuildActionRegistry(g.roots, channels)

	g.state.SwapRegistry(registry, channels)
	g.mapper.SetChannels(channels)

	g.logger.Info("action registry reloaded", "actions", len(registry), "channels", len(channels))
	return nil
}
