package gateway

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RegisterRoutes mounts the websocket endpoint and the stats endpoint.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleConnection)
	mux.HandleFunc("/ws/stats", s.handleStats)
}

func (s *Service) handleConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	connections, rooms := s.manager.Stats()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"total_connections":%d,"active_rooms":%d,"live_rooms":%d}`,
		connections, rooms, s.registry.Count())
}
