package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	appadmission "github.com/schoolfees/backend/internal/application/admission"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
)

// FeeMutator is satisfied by *appfee.MutationService
type FeeMutator interface {
	WaiveFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in appfee.WaiveInput) (*appfee.MutationResult, error)
	AdjustFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in appfee.AdjustInput) (*appfee.MutationResult, error)
	UpdateDueDate(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, newDueDate time.Time, reason string) (*appfee.MutationResult, error)
	MarkPaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*appfee.MutationResult, error)
	MarkUnpaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*appfee.MutationResult, error)
	DeleteFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, reason string) (*appfee.MutationResult, error)
	ApplyFamilyCredit(ctx context.Context, actor appaudit.Actor, creditID, feeID uuid.UUID, amount decimal.Decimal, notes string) (*fee.ApplyCreditResult, error)
	BootstrapFeesIfMissing(ctx context.Context, actor appaudit.Actor, sc student.Context) (*appfee.BootstrapResult, error)
	RecomputeLearnerBalances(ctx context.Context, actor appaudit.Actor, sc student.Context, reason string) (*appfee.RecomputeResult, error)
	ChangeStudentClass(ctx context.Context, actor appaudit.Actor, sc student.Context, in appfee.ChangeClassInput) (*appfee.ClassChangeResult, error)
	SyncPendingTuitionFees(ctx context.Context, actor appaudit.Actor, sc student.Context, classNameOverride string) (*appfee.SyncResult, error)
}

// LedgerReader is satisfied by *appfee.LedgerService
type LedgerReader interface {
	StudentLedger(ctx context.Context, sc student.Context) (*appfee.StudentLedger, error)
	OrganizationReceivables(ctx context.Context, orgID uuid.UUID, month time.Time) (*appfee.Receivables, error)
}

// HistoryReader is satisfied by *appaudit.HistoryService
type HistoryReader interface {
	StudentHistory(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) (shared.Paginated[*audit.CorrectionAudit], error)
	FeeHistory(ctx context.Context, orgID, feeID uuid.UUID) ([]*audit.CorrectionAudit, error)
}

// StudentFinder loads the student a request acts on
type StudentFinder interface {
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*student.Student, error)
}

// AdmissionBridge is satisfied by *appadmission.BridgeService
type AdmissionBridge interface {
	VerifyRegistrationPayment(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, paymentDate time.Time, reason string) (*appadmission.PaymentResult, error)
	MarkRegistrationUnpaid(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*appadmission.PaymentResult, error)
	Approve(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID) (*admission.Request, error)
	Reject(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*admission.Request, error)
	DeleteApprovedStudent(ctx context.Context, actor appaudit.Actor, studentName, guardianEmail string) (*appadmission.SagaReport, error)
}

// NotificationLister reads a user's in-app notifications
type NotificationLister interface {
	ListForUser(ctx context.Context, orgID, userID uuid.UUID, opts shared.ListOptions) ([]*notification.InApp, error)
}
