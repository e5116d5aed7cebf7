package api

import (
	"net/http"
)

// handleGetConfig returns the running configuration. ?format=yaml renders it
// the way the config subcommand prints it.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "yaml" {
		out, err := s.cfg.YAML()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.cfg})
}
