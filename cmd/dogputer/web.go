package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// ============================================================================
// Admin HTTP Surface
// ============================================================================
// The web administration UI (mapping editor, media uploads) lives outside
// this daemon; this server is the contract it talks to. Everything it can
// change flows through the reload gateway, so the main loop only ever
// observes complete tables and registries.
// ============================================================================

// AdminServer exposes the mapping/registry management API and the state
// websocket feed.
type AdminServer struct {
	gateway *ReloadGateway
	mapper  *InputMapper
	state   *AppState
	feed    *StateFeed
	logger  *slog.Logger
}

// NewAdminServer wires the handlers.
func NewAdminServer(gateway *ReloadGateway, mapper *InputMapper, state *AppState, feed *StateFeed, logger *slog.Logger) *AdminServer {
	return &AdminServer{
		gateway: gateway,
		mapper:  mapper,
		state:   state,
		feed:    feed,
		logger:  logger,
	}
}

// Routes registers the admin endpoints on a fresh mux.
func (s *AdminServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/mappings", s.handleGetMappings)
	mux.HandleFunc("POST /api/mappings", s.handlePostMappings)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/actions", s.handleActions)
	mux.Handle("GET /ws/state", s.feed)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleGetMappings returns the named profile (default: the active one)
// in its textual JSON form.
func (s *AdminServer) handleGetMappings(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("config")
	if profile == "" {
		profile = s.mapper.Table().Profile
	}

	table, err := LoadMappingTable(s.gateway.ProfilePath(profile), profile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, fmt.Errorf("profile %q not found", profile))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"config":   profile,
		"mappings": table.TextForm(),
	})
}

type mappingsRequest struct {
	Config   string            `json:"config"`
	Mappings map[string]string `json:"mappings"`
}

// handlePostMappings accepts a replacement mapping table for a named
// profile. The table must parse in full; otherwise the request is
// rejected and the active table stays as it was.
func (s *AdminServer) handlePostMappings(w http.ResponseWriter, r *http.Request) {
	var req mappingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Mappings == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing mappings"))
		return
	}
	profile := req.Config
	if profile == "" {
		profile = s.mapper.Table().Profile
	}

	table, err := ParseMappingTable(profile, req.Mappings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.saveProfile(profile, req.Mappings); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Only the active profile is hot-swapped; editing another profile
	// just updates its file.
	applied := false
	if profile == s.mapper.Table().Profile {
		s.gateway.ApplyMappingTable(table)
		applied = true
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"config":  profile,
		"applied": applied,
	})
}

func (s *AdminServer) saveProfile(profile string, mappings map[string]string) error {
	b, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(s.gateway.ProfilePath(profile), append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// handleReload rebuilds the action registry after new media was uploaded
// or the channel list changed.
func (s *AdminServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.ReloadActionRegistry(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	registry, channels := s.state.Registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":  len(registry),
		"channels": len(channels),
	})
}

// handleActions lists the resolved action names for the mapping editor.
func (s *AdminServer) handleActions(w http.ResponseWriter, r *http.Request) {
	registry, channels := s.state.Registry()
	channelNames := make([]string, 0, len(channels))
	for _, ch := range channels {
		channelNames = append(channelNames, ch.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":  registry.Names(),
		"channels": channelNames,
	})
}

// runAdminServer serves the admin surface on the given port and shuts it
// down gracefully when ctx is canceled.
func runAdminServer(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	logger.Info("admin server listening", "port", port)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
