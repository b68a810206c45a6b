// Package audit records fee corrections and serves the audit history.
package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Actor is the authenticated staff member performing an operation
type Actor struct {
	UserID       *uuid.UUID
	OrgID        uuid.UUID
	Role         string
	SourceScreen string
}

// AuditActor projects the actor onto the audit row fields
func (a Actor) AuditActor() audit.Actor {
	return audit.Actor{ID: a.UserID, Role: a.Role, SourceScreen: a.SourceScreen}
}

// Writer validates and appends correction audit rows
type Writer struct {
	metrics *telemetry.FeeMetrics
	logger  *zap.Logger
}

// NewWriter creates a Writer. metrics may be nil.
func NewWriter(metrics *telemetry.FeeMetrics, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{metrics: metrics, logger: logger}
}

// Write appends one audit row through repo. Input problems are returned as
// validation errors before repo is touched; any storage failure comes back
// as an audit-write error carrying the cause.
func (w *Writer) Write(ctx context.Context, repo audit.Repository, in audit.Input) error {
	entry, err := audit.NewCorrectionAudit(in)
	if err != nil {
		return err
	}
	if err := repo.Append(ctx, entry); err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) && de.Kind == shared.KindAuditWrite {
			return err
		}
		return shared.NewAuditWriteError(err)
	}
	return nil
}

// Failed logs and counts an audit row that could not be written
func (w *Writer) Failed(ctx context.Context, in audit.Input, err error, blocking bool) {
	w.metrics.RecordAuditFailure(ctx, string(in.Action), blocking)
	w.logger.Error("correction audit write failed",
		zap.String("action", string(in.Action)),
		zap.String("org_id", in.OrgID.String()),
		zap.String("student_id", in.StudentID.String()),
		zap.Bool("blocking", blocking),
		zap.Error(err),
	)
}
