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
	"github.com/stretchr/testify/mock"
)

type MockFeeMutator struct {
	mock.Mock
}

func (m *MockFeeMutator) WaiveFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in appfee.WaiveInput) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, feeID, in)
	return mutationResult(args)
}

func (m *MockFeeMutator) AdjustFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in appfee.AdjustInput) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, feeID, in)
	return mutationResult(args)
}

func (m *MockFeeMutator) UpdateDueDate(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, newDueDate time.Time, reason string) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, feeID, newDueDate, reason)
	return mutationResult(args)
}

func (m *MockFeeMutator) MarkPaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, sc, feeID, reason)
	return mutationResult(args)
}

func (m *MockFeeMutator) MarkUnpaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, sc, feeID, reason)
	return mutationResult(args)
}

func (m *MockFeeMutator) DeleteFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, reason string) (*appfee.MutationResult, error) {
	args := m.Called(ctx, actor, feeID, reason)
	return mutationResult(args)
}

func (m *MockFeeMutator) ApplyFamilyCredit(ctx context.Context, actor appaudit.Actor, creditID, feeID uuid.UUID, amount decimal.Decimal, notes string) (*fee.ApplyCreditResult, error) {
	args := m.Called(ctx, actor, creditID, feeID, amount, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.ApplyCreditResult), args.Error(1)
}

func (m *MockFeeMutator) BootstrapFeesIfMissing(ctx context.Context, actor appaudit.Actor, sc student.Context) (*appfee.BootstrapResult, error) {
	args := m.Called(ctx, actor, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.BootstrapResult), args.Error(1)
}

func (m *MockFeeMutator) RecomputeLearnerBalances(ctx context.Context, actor appaudit.Actor, sc student.Context, reason string) (*appfee.RecomputeResult, error) {
	args := m.Called(ctx, actor, sc, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.RecomputeResult), args.Error(1)
}

func (m *MockFeeMutator) ChangeStudentClass(ctx context.Context, actor appaudit.Actor, sc student.Context, in appfee.ChangeClassInput) (*appfee.ClassChangeResult, error) {
	args := m.Called(ctx, actor, sc, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.ClassChangeResult), args.Error(1)
}

func (m *MockFeeMutator) SyncPendingTuitionFees(ctx context.Context, actor appaudit.Actor, sc student.Context, classNameOverride string) (*appfee.SyncResult, error) {
	args := m.Called(ctx, actor, sc, classNameOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.SyncResult), args.Error(1)
}

func mutationResult(args mock.Arguments) (*appfee.MutationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.MutationResult), args.Error(1)
}

type MockLedgerReader struct {
	mock.Mock
}

func (m *MockLedgerReader) StudentLedger(ctx context.Context, sc student.Context) (*appfee.StudentLedger, error) {
	args := m.Called(ctx, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.StudentLedger), args.Error(1)
}

func (m *MockLedgerReader) OrganizationReceivables(ctx context.Context, orgID uuid.UUID, month time.Time) (*appfee.Receivables, error) {
	args := m.Called(ctx, orgID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfee.Receivables), args.Error(1)
}

type MockHistoryReader struct {
	mock.Mock
}

func (m *MockHistoryReader) StudentHistory(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) (shared.Paginated[*audit.CorrectionAudit], error) {
	args := m.Called(ctx, orgID, studentID, opts)
	return args.Get(0).(shared.Paginated[*audit.CorrectionAudit]), args.Error(1)
}

func (m *MockHistoryReader) FeeHistory(ctx context.Context, orgID, feeID uuid.UUID) ([]*audit.CorrectionAudit, error) {
	args := m.Called(ctx, orgID, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.CorrectionAudit), args.Error(1)
}

type MockStudentFinder struct {
	mock.Mock
}

func (m *MockStudentFinder) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*student.Student, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*student.Student), args.Error(1)
}

type MockAdmissionBridge struct {
	mock.Mock
}

func (m *MockAdmissionBridge) VerifyRegistrationPayment(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, paymentDate time.Time, reason string) (*appadmission.PaymentResult, error) {
	args := m.Called(ctx, actor, requestID, paymentDate, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appadmission.PaymentResult), args.Error(1)
}

func (m *MockAdmissionBridge) MarkRegistrationUnpaid(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*appadmission.PaymentResult, error) {
	args := m.Called(ctx, actor, requestID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appadmission.PaymentResult), args.Error(1)
}

func (m *MockAdmissionBridge) Approve(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID) (*admission.Request, error) {
	args := m.Called(ctx, actor, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Request), args.Error(1)
}

func (m *MockAdmissionBridge) Reject(ctx context.Context, actor appaudit.Actor, requestID uuid.UUID, reason string) (*admission.Request, error) {
	args := m.Called(ctx, actor, requestID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Request), args.Error(1)
}

func (m *MockAdmissionBridge) DeleteApprovedStudent(ctx context.Context, actor appaudit.Actor, studentName, guardianEmail string) (*appadmission.SagaReport, error) {
	args := m.Called(ctx, actor, studentName, guardianEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appadmission.SagaReport), args.Error(1)
}

type MockNotificationLister struct {
	mock.Mock
}

func (m *MockNotificationLister) ListForUser(ctx context.Context, orgID, userID uuid.UUID, opts shared.ListOptions) ([]*notification.InApp, error) {
	args := m.Called(ctx, orgID, userID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.InApp), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping() error { return p.err }

var (
	_ FeeMutator         = (*appfee.MutationService)(nil)
	_ LedgerReader       = (*appfee.LedgerService)(nil)
	_ HistoryReader      = (*appaudit.HistoryService)(nil)
	_ AdmissionBridge    = (*appadmission.BridgeService)(nil)
	_ StudentFinder      = (*MockStudentFinder)(nil)
	_ NotificationLister = (*MockNotificationLister)(nil)
)
