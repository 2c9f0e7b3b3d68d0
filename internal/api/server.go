// Package api exposes the engine over HTTP: session state, action
// dispatch, the live event stream and operator controls.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/events"
	"github.com/diagramquest/engine/internal/game"
	"github.com/diagramquest/engine/internal/version"
)

// Server serializes access to one game session. The session itself is
// single-threaded; every handler takes the server mutex around it.
type Server struct {
	mu         sync.Mutex
	bp         *blueprint.Blueprint
	sess       *game.Session
	gameName   string
	sceneStart time.Time
}

// NewServer wraps a started session.
func NewServer(bp *blueprint.Blueprint, sess *game.Session, gameName string) *Server {
	return &Server{
		bp:         bp,
		sess:       sess,
		gameName:   gameName,
		sceneStart: time.Now(),
	}
}

// Router builds the chi router with all engine routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.healthHandler)
	r.Get("/state", s.stateHandler)
	r.Get("/events", eventsHandler)
	r.Get("/ws", wsEventsHandler)
	r.Get("/metrics", s.metricsHandler)

	r.Post("/actions", s.actionHandler)
	r.Post("/advance", s.advanceHandler)
	r.Post("/undo", s.undoHandler)
	r.Post("/redo", s.redoHandler)
	r.Post("/scenes/jump", s.jumpHandler)

	r.Post("/session/reset", RequireAnyRole(s.resetHandler))
	r.Post("/session/snapshot", RequireAdmin(s.snapshotHandler))
	r.Post("/operator/override", RequireAnyRole(s.overrideHandler))
	r.Post("/operator/reset", RequireAnyRole(s.zoneResetHandler))
	r.Post("/operator/jump", RequireAnyRole(s.operatorJumpHandler))

	return r
}

// ListenAndServe blocks serving the API on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streams stay open
		IdleTimeout:  120 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("api listening")
	return srv.ListenAndServe()
}

// Start serves in a goroutine; errors are logged, not fatal.
func (s *Server) Start(port int) {
	go func() {
		if err := s.ListenAndServe(port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api server error")
		}
	}()
}

// Tick feeds wall-clock time into the scene timer. Call it from a
// ticker; it is a no-op for untimed scenes.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess.GameComplete() {
		return
	}
	before := s.sess.SceneID()
	d := s.sess.TimeElapsed(time.Since(s.sceneStart))
	if d.Type == game.FlowAdvanceScene || d.Type == game.FlowAdvanceTask || s.sess.SceneID() != before {
		s.sceneStart = time.Now()
	}
}

// OverrideZone, ResetZone and JumpToScene let the MQTT telemetry
// bridge drive the session through the same lock as the HTTP handlers.

func (s *Server) OverrideZone(zoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.OverrideZone(zoneID)
}

func (s *Server) ResetZone(zoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.ResetZone(zoneID)
}

func (s *Server) JumpToScene(sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.sess.JumpToScene(sceneID)
	if err == nil {
		s.sceneStart = time.Now()
	}
	return err
}

// SaveSnapshot journals the current session state. Called periodically
// so restore-after-restart loses at most one interval.
func (s *Server) SaveSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.sess.Snapshot()
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Game      string `json:"game"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   "engine",
		Game:      s.gameName,
		Version:   version.Version,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// visibilityView flattens the resolver output into declaration-order
// lists for the rendering client.
type visibilityView struct {
	Visible []string          `json:"visible"`
	Blocked []string          `json:"blocked"`
	Pending []string          `json:"pending"`
	Reasons map[string]string `json:"reasons,omitempty"`
}

type stateResponse struct {
	SessionID        string            `json:"sessionId"`
	GameID           string            `json:"gameId"`
	SceneID          string            `json:"sceneId,omitempty"`
	TaskIndex        int               `json:"taskIndex"`
	Mechanic         game.MechanicType `json:"mechanic,omitempty"`
	MechanicComplete bool              `json:"mechanicComplete"`
	GameComplete     bool              `json:"gameComplete"`
	Score            int               `json:"score"`
	Visibility       visibilityView    `json:"visibility"`
	CompletedZones   []string          `json:"completedZones"`
	CompletedScenes  []string          `json:"completedScenes,omitempty"`
	UnlockedScenes   []string          `json:"unlockedScenes,omitempty"`
	Progress         game.Progress     `json:"progress,omitempty"`
	CanUndo          bool              `json:"canUndo"`
	CanRedo          bool              `json:"canRedo"`
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vis := s.sess.Visibility()
	view := visibilityView{Reasons: vis.Reasons}
	for _, z := range s.bp.Zones {
		switch {
		case vis.Visible[z.ID]:
			view.Visible = append(view.Visible, z.ID)
		case vis.Blocked[z.ID]:
			view.Blocked = append(view.Blocked, z.ID)
		case vis.Pending[z.ID]:
			view.Pending = append(view.Pending, z.ID)
		}
	}

	writeJSON(w, http.StatusOK, stateResponse{
		SessionID:        s.sess.ID,
		GameID:           s.bp.GameID,
		SceneID:          s.sess.SceneID(),
		TaskIndex:        s.sess.TaskIndex(),
		Mechanic:         s.sess.Mechanic(),
		MechanicComplete: s.sess.MechanicComplete(),
		GameComplete:     s.sess.GameComplete(),
		Score:            s.sess.Score(),
		Visibility:       view,
		CompletedZones:   s.sess.CompletedZones(),
		CompletedScenes:  s.sess.CompletedScenes(),
		UnlockedScenes:   s.sess.UnlockedSceneIDs(),
		Progress:         s.sess.Progress(),
		CanUndo:          s.sess.CanUndo(),
		CanRedo:          s.sess.CanRedo(),
	})
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request) {
	var a game.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	s.mu.Lock()
	res := s.sess.Dispatch(a)
	s.mu.Unlock()

	// A rejected action is a well-formed 200 response: rejection is
	// game feedback, not a transport failure.
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) advanceHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	before := s.sess.SceneID()
	d := s.sess.Advance()
	if s.sess.SceneID() != before {
		s.sceneStart = time.Now()
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) undoHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.sess.Undo()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, errorResponse{OK: ok})
}

func (s *Server) redoHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.sess.Redo()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, errorResponse{OK: ok})
}

type sceneRequest struct {
	SceneID string `json:"scene_id"`
}

func (s *Server) jumpHandler(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SceneID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "scene_id required"})
		return
	}

	s.mu.Lock()
	err := s.sess.JumpToScene(req.SceneID)
	if err == nil {
		s.sceneStart = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{OK: true})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.sess.Reset()
	s.sceneStart = time.Now()
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{OK: true})
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap, err := s.sess.Snapshot()
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type zoneRequest struct {
	ZoneID string `json:"zone_id"`
}

func (s *Server) overrideHandler(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ZoneID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "zone_id required"})
		return
	}

	s.mu.Lock()
	err := s.sess.OverrideZone(req.ZoneID)
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{OK: true})
}

func (s *Server) zoneResetHandler(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ZoneID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "zone_id required"})
		return
	}

	s.mu.Lock()
	err := s.sess.ResetZone(req.ZoneID)
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{OK: true})
}

func (s *Server) operatorJumpHandler(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SceneID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "scene_id required"})
		return
	}

	s.mu.Lock()
	err := s.sess.JumpToScene(req.SceneID)
	if err == nil {
		s.sceneStart = time.Now()
		events.Emit("info", "operator.jump", "", map[string]interface{}{
			"scene_id": req.SceneID,
		})
	}
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{OK: true})
}
