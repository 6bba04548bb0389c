package main

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
)

const (
	uriWS     = "/ws"
	uriHealth = "/healthz"
	uriState  = "/api/state"
)

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", uriWS, s.hub.Endpoint(s.dispatcher))
	s.router.HandleFunc("GET", uriHealth, s.handleHealth)
	s.router.HandleFunc("GET", uriState, s.handleState)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "clients": s.hub.Len()})
}

// handleState serves a read-only view of the board for spectators and tooling.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.session.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("write response")
	}
}
