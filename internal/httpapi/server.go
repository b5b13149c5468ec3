package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/bridgeauth"
	"github.com/BrandonDHaskell/huella/internal/logger"
)

type Dependencies struct {
	Logger *zap.SugaredLogger
	Addr   string

	EnrollmentService *service.EnrollmentService
	AccessService     *service.AccessService
	ExportService     *service.ExportService

	// BridgeAuth guards the verification export. When nil the export is
	// served to loopback clients only.
	BridgeAuth *bridgeauth.Authority

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string

	// Ready backs GET /healthz. Nil means always ready.
	Ready func(ctx context.Context) error

	Clock clockwork.Clock
}

type Server struct {
	httpServer        *http.Server
	logger            *zap.SugaredLogger
	mux               *http.ServeMux
	enrollmentService *service.EnrollmentService
	accessService     *service.AccessService
	exportService     *service.ExportService
	bridgeAuth        *bridgeauth.Authority
	ready             func(ctx context.Context) error
	clock             clockwork.Clock
}

func NewServer(d Dependencies) *Server {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}

	mux := http.NewServeMux()

	s := &Server{
		logger:            d.Logger,
		mux:               mux,
		enrollmentService: d.EnrollmentService,
		accessService:     d.AccessService,
		exportService:     d.ExportService,
		bridgeAuth:        d.BridgeAuth,
		ready:             d.Ready,
		clock:             d.Clock,
	}

	mux.HandleFunc("POST /v1/enrollments", s.handleEnroll)
	mux.HandleFunc("GET /v1/enrollments", s.handleListEnrollments)
	mux.HandleFunc("DELETE /v1/fingerprints/{id}", s.handleDeleteFingerprint)
	mux.HandleFunc("POST /v1/access_logs", s.handleRecordAccess)
	mux.HandleFunc("GET /v1/access_logs", s.handleListAccessLogs)
	mux.Handle("GET /v1/verification_data", s.bridgeOnly(http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Dispatcher kept for the existing bridge and web UI.
	mux.HandleFunc("/api.php", s.handleLegacy)

	handler := requestIDMiddleware(
		loggingMiddleware(d.Logger,
			securityHeadersMiddleware(
				corsMiddleware(d.AllowedOrigins, mux))))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
