package admission

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentResult reports a registration payment change
type PaymentResult struct {
	Request *admission.Request
	// Student is nil when no enrolled student matches the request yet
	Student *student.Student
	// Linked counts the other admission rows that received the same flags
	Linked   int
	Warnings []appfee.Warning
}

func (r *PaymentResult) warn(code, message string) {
	r.Warnings = append(r.Warnings, appfee.Warning{Code: code, Message: message})
}

// BridgeService keeps admission requests and the student's registration
// payment flags in step, decides requests and removes approved students.
type BridgeService struct {
	scope      TransactionScope
	students   student.Repository
	admissions admission.Repository
	trials     admission.TrialUsageRepository
	dispatcher notification.Dispatcher
	writer     *appaudit.Writer
	publisher  shared.EventPublisher
	metrics    *telemetry.FeeMetrics
	logger     *zap.Logger
	now        appfee.Clock
}

// BridgeOption configures a BridgeService
type BridgeOption func(*BridgeService)

// WithBridgeClock overrides the service clock
func WithBridgeClock(now appfee.Clock) BridgeOption {
	return func(s *BridgeService) { s.now = now }
}

// WithBridgeMetrics records corrections and saga failures
func WithBridgeMetrics(m *telemetry.FeeMetrics) BridgeOption {
	return func(s *BridgeService) { s.metrics = m }
}

// NewBridgeService creates a BridgeService
func NewBridgeService(
	scope TransactionScope,
	students student.Repository,
	admissions admission.Repository,
	trials admission.TrialUsageRepository,
	dispatcher notification.Dispatcher,
	writer *appaudit.Writer,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...BridgeOption,
) *BridgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BridgeService{
		scope:      scope,
		students:   students,
		admissions: admissions,
		trials:     trials,
		dispatcher: dispatcher,
		writer:     writer,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type paymentFlags struct {
	paid     bool
	verified bool
	date     *time.Time
	action   audit.Action
}

// VerifyRegistrationPayment marks the request's registration fee paid and
// verified, and copies the flags to the matching student and to the
// matching rows of both admission tables in one transaction.
func (s *BridgeService) VerifyRegistrationPayment(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, paymentDate time.Time, reason string) (*PaymentResult, error) {
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	return s.setPayment(ctx, actor, requestID, paymentFlags{
		paid:     true,
		verified: true,
		date:     &paymentDate,
		action:   audit.ActionRegistrationPaid,
	}, reason)
}

// MarkRegistrationUnpaid reverts the registration payment everywhere
// VerifyRegistrationPayment set it.
func (s *BridgeService) MarkRegistrationUnpaid(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*PaymentResult, error) {
	return s.setPayment(ctx, actor, requestID, paymentFlags{action: audit.ActionRegistrationUnpaid}, reason)
}

func (s *BridgeService) setPayment(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, flags paymentFlags, reason string) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission_bridge", string(flags.action))
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRequestID, requestID.String())

	if strings.TrimSpace(reason) == "" {
		return nil, audit.ErrMissingReason
	}

	result := &PaymentResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		req, err := repos.AdmissionRepo().FindByIDForOrg(ctx, actor.OrgID, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return admission.ErrRequestNotFound
		}
		before := paymentSnapshot(req.RegistrationFeePaid, req.PaymentVerified, req.PaymentDate)

		st, err := matchStudent(ctx, repos.StudentRepo(), actor.OrgID, req)
		if err != nil {
			return err
		}
		linked, err := matchRequests(ctx, repos.AdmissionRepo(), actor.OrgID, req, st)
		if err != nil {
			return err
		}

		req.ApplyPaymentFlags(flags.paid, flags.verified, flags.date)
		if err := repos.AdmissionRepo().SaveWithLock(ctx, req); err != nil {
			return err
		}
		result.Request = req

		for i := range linked {
			linked[i].ApplyPaymentFlags(flags.paid, flags.verified, flags.date)
			if err := repos.AdmissionRepo().SaveWithLock(ctx, &linked[i]); err != nil {
				return err
			}
			result.Linked++
		}

		if st == nil {
			s.logger.Info("no enrolled student matches admission request",
				zap.String("request_id", requestID.String()))
			return nil
		}
		st.SetRegistrationPayment(flags.paid, flags.verified, flags.date)
		if err := repos.StudentRepo().SaveWithLock(ctx, st); err != nil {
			return err
		}
		result.Student = st

		return s.appendAudit(ctx, repos, audit.Input{
			OrgID:     actor.OrgID,
			StudentID: st.ID,
			Action:    flags.action,
			Reason:    reason,
			Before:    before,
			After:     paymentSnapshot(flags.paid, flags.verified, flags.date),
			Actor:     actor.AuditActor(),
		}, result)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "linked_requests", result.Linked)
	s.metrics.RecordCorrection(ctx, string(flags.action))
	return result, nil
}

// Approve accepts a pending request whose registration payment is verified
func (s *BridgeService) Approve(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID) (*admission.Request, error) {
	return s.decide(ctx, actor, requestID, "approve", func(r *admission.Request) error {
		return r.Approve(actor.UserID)
	})
}

// Reject declines a pending request and clears its paid flag
func (s *BridgeService) Reject(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*admission.Request, error) {
	return s.decide(ctx, actor, requestID, "reject", func(r *admission.Request) error {
		return r.Reject(actor.UserID, reason)
	})
}

func (s *BridgeService) decide(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, method string, apply func(*admission.Request) error) (*admission.Request, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission_bridge", method)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRequestID, requestID.String())

	var decided *admission.Request
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		req, err := repos.AdmissionRepo().FindByIDForOrg(ctx, actor.OrgID, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return admission.ErrRequestNotFound
		}
		if err := apply(req); err != nil {
			return err
		}
		if err := repos.AdmissionRepo().SaveWithLock(ctx, req); err != nil {
			return err
		}
		decided = req
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := decided.GetDomainEvents()
	decided.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.metrics.RecordSideEffectFailure(ctx, "event_publish")
			s.logger.Warn("failed to publish admission decision",
				zap.String("request_id", requestID.String()),
				zap.Error(err),
			)
		}
	}
	return decided, nil
}

func (s *BridgeService) appendAudit(ctx context.Context, repos TransactionalRepositories, in audit.Input, result *PaymentResult) error {
	err := s.writer.Write(ctx, repos.AuditRepo(), in)
	if err == nil {
		return nil
	}
	if !shared.IsKind(err, shared.KindAuditWrite) {
		return err
	}
	s.writer.Failed(ctx, in, err, false)
	result.warn(appfee.WarningAuditLogFailed, "The payment was saved but the correction audit log could not be written. Retry logging.")
	return nil
}

// matchStudent finds the enrolled student for req: the linked student id
// first, then an exact name and date-of-birth match. More than one name
// match is refused.
func matchStudent(ctx context.Context, repo student.Repository, orgID uuid.UUID, req *admission.Request) (*student.Student, error) {
	if req.StudentID != nil {
		st, err := repo.FindByIDForOrg(ctx, orgID, *req.StudentID)
		if err != nil {
			return nil, err
		}
		if st != nil {
			return st, nil
		}
	}
	if req.DateOfBirth == nil {
		return nil, nil
	}
	matches, err := repo.FindByName(ctx, orgID, student.NameQuery{
		FirstName:   req.ChildFirstName,
		LastName:    req.ChildLastName,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	}
	return nil, student.ErrAmbiguousStudent
}

// matchRequests returns the other admission rows for the same child. Rows
// linked by student id are taken as-is; the name and date-of-birth fallback
// allows at most one row per table.
func matchRequests(ctx context.Context, repo admission.Repository, orgID uuid.UUID, req *admission.Request, st *student.Student) ([]admission.Request, error) {
	var candidates []admission.Request
	if st != nil {
		linked, err := repo.FindByStudentID(ctx, orgID, st.ID)
		if err != nil {
			return nil, err
		}
		candidates = linked
	}
	if len(candidates) == 0 && req.DateOfBirth != nil {
		byChild, err := repo.FindByChild(ctx, orgID, req.ChildFirstName, req.ChildLastName, req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		if candidates, err = admission.PickPerSource(byChild); err != nil {
			return nil, err
		}
	}

	out := make([]admission.Request, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == req.ID && c.Source == req.Source {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func paymentSnapshot(paid, verified bool, date *time.Time) map[string]any {
	snap := map[string]any{
		"registration_fee_paid": paid,
		"payment_verified":      verified,
	}
	if date != nil {
		snap["payment_date"] = date.Format("2006-01-02")
	}
	return snap
}
