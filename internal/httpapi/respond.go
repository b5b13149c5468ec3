package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

// maxRequestBody caps request bodies. A template is at most 10000 base64
// characters; the rest of an enrollment is small.
const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.Envelope{Success: false, Message: message})
}

// decodeJSON reads one JSON value from the body. Versioned routes reject
// unknown fields; the legacy dispatcher accepts whatever old clients send.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if strings.HasPrefix(r.URL.Path, "/v1/") {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}

// statusFor maps a service error to its HTTP status and caller-facing message.
func statusFor(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Reason
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflicting concurrent update, retry"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request timed out"
	default:
		return http.StatusInternalServerError, "storage error"
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Errorw(op+" failed",
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, msg)
}
