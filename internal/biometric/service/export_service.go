package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
	"github.com/BrandonDHaskell/huella/internal/logger"
	"github.com/BrandonDHaskell/huella/internal/telemetry"
)

// ExportService serves the verification snapshot to the matching bridge.
// Restricting who may call it is the transport's job.
type ExportService struct {
	reader store.Reader
	log    *zap.SugaredLogger
	tracer trace.Tracer
}

func NewExportService(reader store.Reader, log *zap.SugaredLogger) *ExportService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExportService{reader: reader, log: log, tracer: telemetry.Tracer()}
}

// ExportAll returns every (identity, slot, template) of active identities in
// one read. Inactive identities are never included.
func (s *ExportService) ExportAll(ctx context.Context) (types.ExportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ExportService.ExportAll")
	defer span.End()

	rows, err := s.reader.ExportActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		s.log.Errorw("verification export failed", "error", err)
		return types.ExportResponse{}, fmt.Errorf("export verification data: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	s.log.Debugw("verification export", "rows", len(rows))

	return types.ExportResponse{
		Success: true,
		Version: types.ExportVersion,
		Data:    rows,
	}, nil
}
