package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	"github.com/BrandonDHaskell/huella/internal/db"
	"github.com/BrandonDHaskell/huella/internal/logger"
	"github.com/BrandonDHaskell/huella/internal/telemetry"
)

const maxEnrollAttempts = 3

// TxRunner runs fn in one transaction; *db.Worker satisfies it.
type TxRunner interface {
	Do(ctx context.Context, fn db.TxFn) error
}

type EnrollmentDeps struct {
	Runner       TxRunner
	Identities   store.IdentityStore
	Fingerprints store.FingerprintStore
	Reader       store.Reader

	Clock  clockwork.Clock
	Logger *zap.SugaredLogger
}

// EnrollmentService owns the enrollment upsert protocol and the
// enrollment listing/deletion used by the admin UI.
type EnrollmentService struct {
	runner       TxRunner
	identities   store.IdentityStore
	fingerprints store.FingerprintStore
	reader       store.Reader
	clock        clockwork.Clock
	log          *zap.SugaredLogger
	tracer       trace.Tracer
}

func NewEnrollmentService(d EnrollmentDeps) *EnrollmentService {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &EnrollmentService{
		runner:       d.Runner,
		identities:   d.Identities,
		fingerprints: d.Fingerprints,
		reader:       d.Reader,
		clock:        d.Clock,
		log:          d.Logger,
		tracer:       telemetry.Tracer(),
	}
}

// Enroll validates req and then, in one transaction, resolves the identity
// and upserts the template into its slot. Nothing is written when validation
// fails, and a failed transaction leaves no trace (including a newly created
// identity). Storage races are retried in a fresh transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, req types.EnrollRequest) (types.EnrollResponse, error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentService.Enroll")
	defer span.End()

	e, err := Validate(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return types.EnrollResponse{}, err
	}
	span.SetAttributes(attribute.Int("finger_index", e.Slot))

	at := s.clock.Now().UTC()
	attempt := 0
	for {
		attempt++
		err = s.runner.Do(ctx, func(ctx context.Context, tx bun.Tx) error {
			identity, err := s.identities.Resolve(ctx, tx, e.ExternalID, e.DisplayName, at)
			if err != nil {
				return err
			}
			return s.fingerprints.Upsert(ctx, tx, identity.ID, e.Slot, e.Template, at)
		})
		if err == nil || attempt >= maxEnrollAttempts || ctx.Err() != nil || !db.IsRetryable(err) {
			break
		}
		s.log.Debugw("enroll retry", "user_id", e.ExternalID, "attempt", attempt, "error", err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enroll failed")
		if db.IsRetryable(err) && !errors.Is(err, ErrConflict) {
			err = fmt.Errorf("%w: %v", ErrConflict, err)
		}
		s.log.Warnw("enroll failed",
			"user_id", e.ExternalID,
			"finger_index", e.Slot,
			"attempts", attempt,
			"error", err,
		)
		return types.EnrollResponse{}, fmt.Errorf("enroll %s: %w", e.ExternalID, err)
	}

	s.log.Infow("fingerprint enrolled",
		"user_id", e.ExternalID,
		"finger_index", e.Slot,
		"template_b3", templateDigest(e.Template),
		"attempts", attempt,
	)

	return types.EnrollResponse{
		Success: true,
		Message: "fingerprint enrolled",
		UserID:  e.ExternalID,
		Name:    e.DisplayName,
	}, nil
}

// ListEnrollments returns every stored fingerprint with its owner, newest first.
func (s *EnrollmentService) ListEnrollments(ctx context.Context) ([]types.EnrollmentRow, error) {
	return s.reader.ListEnrollments(ctx)
}

// DeleteFingerprint removes one fingerprint row by id. The owning identity
// and its other slots are untouched.
func (s *EnrollmentService) DeleteFingerprint(ctx context.Context, id int64) error {
	if id <= 0 {
		return reject("fingerprint id not provided")
	}
	err := s.runner.Do(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.fingerprints.Delete(ctx, tx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete fingerprint %d: %w", id, err)
	}
	s.log.Infow("fingerprint deleted", "fingerprint_id", id)
	return nil
}
