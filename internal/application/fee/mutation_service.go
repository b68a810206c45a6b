package fee

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Warning codes reported alongside a committed mutation
const (
	WarningAuditLogFailed     = shared.CodeAuditLogFailed
	WarningLedgerReloadFailed = "LEDGER_RELOAD_FAILED"
	WarningTuitionSyncFailed  = "TUITION_SYNC_FAILED"
)

// Warning is a non-fatal problem the operator should be told about
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MutationResult is returned by every fee correction
type MutationResult struct {
	Fee      *fee.StudentFee
	Warnings []Warning
	// Ledger is the student's fee list reloaded after the commit
	Ledger []fee.StudentFee
}

// HasWarnings reports whether the mutation committed with warnings
func (r *MutationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *MutationResult) warn(code, message string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: message})
}

// MutationService runs every ledger-changing operation on student fees.
// Each operation validates, snapshots, audits and writes in one transaction,
// then reloads the student's ledger.
type MutationService struct {
	scope      TransactionScope
	fees       fee.StudentFeeRepository
	resolver   *StructureResolver
	procedures fee.LedgerProcedures
	writer     *appaudit.Writer
	publisher  shared.EventPublisher
	metrics    *telemetry.FeeMetrics
	logger     *zap.Logger
	now        Clock
	dueDay     int
}

// MutationOption configures a MutationService
type MutationOption func(*MutationService)

// WithClock overrides the clock used to derive "today"
func WithClock(now Clock) MutationOption {
	return func(s *MutationService) {
		s.now = now
	}
}

// WithDueDay sets the day of month bootstrapped tuition falls due
func WithDueDay(day int) MutationOption {
	return func(s *MutationService) {
		if day >= 1 && day <= 28 {
			s.dueDay = day
		}
	}
}

// WithMetrics records correction counters
func WithMetrics(m *telemetry.FeeMetrics) MutationOption {
	return func(s *MutationService) {
		s.metrics = m
	}
}

// NewMutationService creates a MutationService. publisher may be nil.
func NewMutationService(
	scope TransactionScope,
	fees fee.StudentFeeRepository,
	resolver *StructureResolver,
	procedures fee.LedgerProcedures,
	writer *appaudit.Writer,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...MutationOption,
) *MutationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MutationService{
		scope:      scope,
		fees:       fees,
		resolver:   resolver,
		procedures: procedures,
		writer:     writer,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
		dueDay:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MutationService) today() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// feeMutation describes one audited change to a single fee row
type feeMutation struct {
	action          audit.Action
	reason          string
	studentID       *uuid.UUID
	expectedVersion *int
	// apply changes the fee in memory
	apply func(f *fee.StudentFee, today time.Time) error
	// linked runs after the fee row is saved, inside the same transaction
	linked func(ctx context.Context, repos TransactionalRepositories, f *fee.StudentFee, today time.Time) error
}

// mutateFee loads the fee, applies m, appends the audit row and saves the
// fee with a version check, all in one transaction. An audit failure is
// downgraded to a warning; the ledger write still commits.
func (s *MutationService) mutateFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, m feeMutation) (*MutationResult, error) {
	if strings.TrimSpace(m.reason) == "" {
		return nil, fee.ErrMissingReason
	}
	today := s.today()
	result := &MutationResult{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		f, err := s.loadFee(ctx, repos, actor.OrgID, feeID, m.studentID, m.expectedVersion)
		if err != nil {
			return err
		}
		before := f.Snapshot()
		if err := m.apply(f, today); err != nil {
			return err
		}

		in := audit.Input{
			OrgID:     actor.OrgID,
			StudentID: f.StudentID,
			FeeID:     &f.ID,
			Action:    m.action,
			Reason:    m.reason,
			Before:    before,
			After:     f.Snapshot(),
			Actor:     actor.AuditActor(),
		}
		if err := s.appendAudit(ctx, repos, in, result); err != nil {
			return err
		}

		if err := repos.FeeRepo().SaveWithLock(ctx, f); err != nil {
			return err
		}
		if m.linked != nil {
			if err := m.linked(ctx, repos, f, today); err != nil {
				return err
			}
		}
		result.Fee = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCorrection(ctx, string(m.action))
	s.publish(ctx, result.Fee.GetDomainEvents()...)
	result.Fee.ClearDomainEvents()
	s.reloadLedger(ctx, actor.OrgID, result.Fee.StudentID, result)
	return result, nil
}

func (s *MutationService) loadFee(
	ctx context.Context,
	repos TransactionalRepositories,
	orgID, feeID uuid.UUID,
	studentID *uuid.UUID,
	expectedVersion *int,
) (*fee.StudentFee, error) {
	f, err := repos.FeeRepo().FindByIDForOrg(ctx, orgID, feeID)
	if err != nil {
		return nil, err
	}
	if f == nil || (studentID != nil && f.StudentID != *studentID) {
		return nil, fee.ErrFeeNotFound
	}
	if expectedVersion != nil && *expectedVersion != f.Version {
		return nil, fee.ErrVersionMismatch
	}
	f.Normalize(s.today())
	return f, nil
}

// appendAudit writes the audit row. Input errors abort the operation; a
// storage failure is recorded on result as a warning.
func (s *MutationService) appendAudit(ctx context.Context, repos TransactionalRepositories, in audit.Input, result *MutationResult) error {
	err := s.writer.Write(ctx, repos.AuditRepo(), in)
	if err == nil {
		return nil
	}
	if !shared.IsKind(err, shared.KindAuditWrite) {
		return err
	}
	s.writer.Failed(ctx, in, err, false)
	result.warn(WarningAuditLogFailed, "The change was saved but the correction audit log could not be written. Retry logging.")
	return nil
}

func (s *MutationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.metrics.RecordSideEffectFailure(ctx, "event_publish")
		s.logger.Warn("failed to publish fee events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *MutationService) reloadLedger(ctx context.Context, orgID, studentID uuid.UUID, result *MutationResult) {
	fees, err := s.fees.FindByStudent(ctx, orgID, studentID)
	if err != nil {
		s.logger.Warn("failed to reload student ledger",
			zap.String("student_id", studentID.String()),
			zap.Error(err),
		)
		result.warn(WarningLedgerReloadFailed, "The change was saved but the fee list could not be refreshed.")
		return
	}
	today := s.today()
	for i := range fees {
		fees[i].Normalize(today)
	}
	result.Ledger = fees
}
