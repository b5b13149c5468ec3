package httpapi

import (
	"net/http"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	if isProtobuf(r) {
		s.handleEnrollProto(w, r)
		return
	}

	var req types.EnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.enrollmentService.Enroll(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "enroll", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrollProto(w http.ResponseWriter, r *http.Request) {
	var msg structpb.Struct
	if err := readProto(r, &msg); err != nil {
		writeProto(w, http.StatusBadRequest, errorStruct("invalid protobuf body"))
		return
	}

	resp, err := s.enrollmentService.Enroll(r.Context(), enrollRequestFromStruct(&msg))
	if err != nil {
		status, message := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Errorw("enroll failed", "request_id", requestIDFrom(r.Context()), "error", err)
		}
		writeProto(w, status, errorStruct(message))
		return
	}

	out, err := enrollResponseToStruct(resp)
	if err != nil {
		writeProto(w, http.StatusInternalServerError, errorStruct("encode error"))
		return
	}
	writeProto(w, http.StatusOK, out)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	rows, err := s.enrollmentService.ListEnrollments(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list enrollments", err)
		return
	}
	writeJSON(w, http.StatusOK, types.EnrollmentsResponse{Success: true, Users: rows})
}

func (s *Server) handleDeleteFingerprint(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.deleteFingerprint(w, r, id)
}

func (s *Server) deleteFingerprint(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.enrollmentService.DeleteFingerprint(r.Context(), id); err != nil {
		s.writeServiceError(w, r, "delete fingerprint", err)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: "fingerprint deleted"})
}

func (s *Server) handleRecordAccess(w http.ResponseWriter, r *http.Request) {
	var req types.AccessLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	recorded := s.accessService.Record(r.Context(), req)
	writeJSON(w, http.StatusOK, types.AccessLogResponse{Success: true, Recorded: recorded})
}

func (s *Server) handleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	// Unparseable limits fall back to the default, like an absent one.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := s.accessService.List(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, "list access logs", err)
		return
	}
	writeJSON(w, http.StatusOK, types.AccessLogsResponse{Success: true, Logs: rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warnw("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: "ok"})
}
