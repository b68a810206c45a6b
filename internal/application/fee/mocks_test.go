package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockStudentFeeRepository struct {
	mock.Mock
}

func (m *MockStudentFeeRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*fee.StudentFee, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) FindByStudent(ctx context.Context, orgID, studentID uuid.UUID) ([]fee.StudentFee, error) {
	args := m.Called(ctx, orgID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fee.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) FindUnpaidForMonth(ctx context.Context, orgID uuid.UUID, month time.Time) ([]fee.StudentFee, error) {
	args := m.Called(ctx, orgID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fee.StudentFee), args.Error(1)
}

func (m *MockStudentFeeRepository) CountByStudent(ctx context.Context, orgID, studentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentFeeRepository) Create(ctx context.Context, f *fee.StudentFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStudentFeeRepository) SaveWithLock(ctx context.Context, f *fee.StudentFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStudentFeeRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *audit.CorrectionAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByStudent(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) ([]*audit.CorrectionAudit, int64, error) {
	args := m.Called(ctx, orgID, studentID, opts)
	return args.Get(0).([]*audit.CorrectionAudit), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditRepository) ListByFee(ctx context.Context, orgID, feeID uuid.UUID) ([]*audit.CorrectionAudit, error) {
	args := m.Called(ctx, orgID, feeID)
	return args.Get(0).([]*audit.CorrectionAudit), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) UpsertByReference(ctx context.Context, p *fee.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error) {
	args := m.Called(ctx, orgID, reference, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) FindByReference(ctx context.Context, orgID uuid.UUID, reference string) (*fee.Payment, error) {
	args := m.Called(ctx, orgID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.Payment), args.Error(1)
}

func (m *MockPaymentRepository) AttachReceipt(ctx context.Context, orgID uuid.UUID, reference, receiptURL, storagePath string) error {
	args := m.Called(ctx, orgID, reference, receiptURL, storagePath)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) UpsertByReference(ctx context.Context, t *fee.FinancialTransaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error) {
	args := m.Called(ctx, orgID, reference, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CountByReference(ctx context.Context, orgID uuid.UUID, reference string) (int64, error) {
	args := m.Called(ctx, orgID, reference)
	return args.Get(0).(int64), args.Error(1)
}

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*student.Student, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*student.Student), args.Error(1)
}

func (m *MockStudentRepository) FindByName(ctx context.Context, orgID uuid.UUID, q student.NameQuery) ([]student.Student, error) {
	args := m.Called(ctx, orgID, q)
	return args.Get(0).([]student.Student), args.Error(1)
}

func (m *MockStudentRepository) SearchByName(ctx context.Context, orgID uuid.UUID, term string) ([]student.Student, error) {
	args := m.Called(ctx, orgID, term)
	return args.Get(0).([]student.Student), args.Error(1)
}

func (m *MockStudentRepository) SaveWithLock(ctx context.Context, s *student.Student) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStudentRepository) UpdateRegistrationFeeAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, orgID, id, amount)
	return args.Error(0)
}

func (m *MockStudentRepository) HardDelete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type MockStructureRepository struct {
	mock.Mock
}

func (m *MockStructureRepository) FindActive(ctx context.Context, orgID uuid.UUID, category fee.Category, asOf time.Time) ([]fee.FeeStructure, error) {
	args := m.Called(ctx, orgID, category, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fee.FeeStructure), args.Error(1)
}

func (m *MockStructureRepository) EnsureLegacyBridge(ctx context.Context, s fee.FeeStructure, actorID uuid.UUID) (fee.FeeStructure, error) {
	args := m.Called(ctx, s, actorID)
	return args.Get(0).(fee.FeeStructure), args.Error(1)
}

type MockLedgerProcedures struct {
	mock.Mock
}

func (m *MockLedgerProcedures) ApplyFamilyCredit(ctx context.Context, req fee.ApplyCreditRequest) (*fee.ApplyCreditResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.ApplyCreditResult), args.Error(1)
}

func (m *MockLedgerProcedures) AssignCorrectFeeForStudent(ctx context.Context, orgID, studentID uuid.UUID, billingMonth time.Time) (*fee.AssignFeeResult, error) {
	args := m.Called(ctx, orgID, studentID, billingMonth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.AssignFeeResult), args.Error(1)
}

func (m *MockLedgerProcedures) RecalculateStudentFeeBalances(ctx context.Context, orgID, studentID uuid.UUID, actorID *uuid.UUID, reason string) (int, error) {
	args := m.Called(ctx, orgID, studentID, actorID, reason)
	return args.Int(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockReceiptGenerator struct {
	mock.Mock
}

func (m *MockReceiptGenerator) Generate(ctx context.Context, req ReceiptRequest) (*ReceiptArtifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReceiptArtifact), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, p notification.Payload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
