package httpapi

import (
	"net/http"
	"strconv"
)

// handleLegacy serves the single-endpoint dispatcher the bridge and web UI
// were built against: /api.php?action=... for POST and GET, and
// DELETE /api.php?id=N.
func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch r.Method {
	case http.MethodPost:
		switch action {
		case "register":
			s.handleEnroll(w, r)
		case "log_access":
			s.handleRecordAccess(w, r)
		default:
			writeError(w, http.StatusNotFound, "invalid POST action")
		}

	case http.MethodGet:
		switch action {
		case "users":
			s.handleListEnrollments(w, r)
		case "logs":
			s.handleListAccessLogs(w, r)
		case "get_verification_data":
			s.bridgeOnly(http.HandlerFunc(s.handleExport)).ServeHTTP(w, r)
		default:
			writeError(w, http.StatusNotFound, "invalid GET action")
		}

	case http.MethodDelete:
		id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		s.deleteFingerprint(w, r, id)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
