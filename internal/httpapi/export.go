package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const cborContentType = "application/cbor"

// Deterministic CBOR (RFC 8949 core encoding) so identical snapshots encode
// to identical bytes.
var cborExportMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("httpapi: cbor encoder: " + err.Error())
	}
	return em
}()

type bridgeSubjectKey struct{}

// bridgeOnly restricts next to the matching bridge: a valid bearer token when
// token auth is configured, otherwise a loopback peer that was not relayed by
// a proxy.
func (s *Server) bridgeOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.bridgeAuth == nil {
			if !isLoopback(r.RemoteAddr) || forwarded(r) {
				s.logger.Warnw("export refused for non-local peer",
					"remote", r.RemoteAddr,
					"request_id", requestIDFrom(r.Context()),
				)
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="huella-export"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.bridgeAuth.Verify(token, s.clock.Now())
		if err != nil {
			s.logger.Warnw("export token rejected",
				"remote", r.RemoteAddr,
				"request_id", requestIDFrom(r.Context()),
				"error", err,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="huella-export", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), bridgeSubjectKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.exportService.ExportAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "verification export", err)
		return
	}

	subject, _ := r.Context().Value(bridgeSubjectKey{}).(string)
	s.logger.Infow("verification export served",
		"rows", len(resp.Data),
		"bridge", subject,
		"request_id", requestIDFrom(r.Context()),
	)

	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, cborContentType):
		data, err := cborExportMode.Marshal(resp)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode error")
			return
		}
		w.Header().Set("Content-Type", cborContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case acceptsProtobuf(r):
		st, err := exportResponseToStruct(resp)
		if err != nil {
			writeProto(w, http.StatusInternalServerError, errorStruct("encode error"))
			return
		}
		writeProto(w, http.StatusOK, st)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// forwarded reports whether a proxy relayed the request, in which case the
// loopback peer says nothing about the real client.
func forwarded(r *http.Request) bool {
	for _, h := range []string{"Forwarded", "X-Forwarded-For", "X-Real-IP"} {
		if r.Header.Get(h) != "" {
			return true
		}
	}
	return false
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
