package service

import (
	"context"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	"github.com/BrandonDHaskell/huella/internal/logger"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500

	// Status and method columns are VARCHAR(20) on server engines.
	maxTagLen = 20
)

type AccessDeps struct {
	Directory *IdentityDirectory
	Logs      store.AccessLogStore
	Reader    store.Reader

	Clock  clockwork.Clock
	Logger *zap.SugaredLogger
}

type AccessService struct {
	directory *IdentityDirectory
	logs      store.AccessLogStore
	reader    store.Reader
	clock     clockwork.Clock
	log       *zap.SugaredLogger
}

func NewAccessService(d AccessDeps) *AccessService {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &AccessService{
		directory: d.Directory,
		logs:      d.Logs,
		reader:    d.Reader,
		clock:     d.Clock,
		log:       d.Logger,
	}
}

// Record appends one access attempt and reports whether it was stored.
// Failures are logged, never returned: a lost log entry must not turn the
// caller's primary operation into a failure.
func (s *AccessService) Record(ctx context.Context, req types.AccessLogRequest) bool {
	status := tag(req.Status, types.DefaultAccessStatus)
	method := tag(req.Method, types.DefaultAccessMethod)

	identityID, err := s.directory.Resolve(ctx, req.UserID)
	if err != nil {
		// Keep the attempt, just without an identity.
		s.log.Warnw("access log identity lookup failed", "user_id", req.UserID.String(), "error", err)
		identityID = nil
	}

	rec := store.AccessLogRecord{
		IdentityID: identityID,
		At:         s.clock.Now().UTC(),
		Status:     status,
		Method:     method,
	}
	if err := s.logs.Append(ctx, rec); err != nil {
		s.log.Warnw("access log write failed",
			"user_id", req.UserID.String(),
			"status", status,
			"method", method,
			"error", err,
		)
		return false
	}
	return true
}

// List returns the newest access log entries. limit <= 0 means
// DefaultLogLimit; larger values are capped at MaxLogLimit.
func (s *AccessService) List(ctx context.Context, limit int) ([]types.AccessLogRow, error) {
	return s.reader.ListAccessLogs(ctx, ClampLimit(limit))
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLogLimit
	case limit > MaxLogLimit:
		return MaxLogLimit
	default:
		return limit
	}
}

func tag(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if r := []rune(v); len(r) > maxTagLen {
		v = string(r[:maxTagLen])
	}
	return v
}
