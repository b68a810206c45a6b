package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAdmissionRepository struct {
	mock.Mock
}

func (m *MockAdmissionRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*admission.Request, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Request), args.Error(1)
}

func (m *MockAdmissionRepository) FindByStudentID(ctx context.Context, orgID, studentID uuid.UUID) ([]admission.Request, error) {
	args := m.Called(ctx, orgID, studentID)
	return args.Get(0).([]admission.Request), args.Error(1)
}

func (m *MockAdmissionRepository) FindByChild(ctx context.Context, orgID uuid.UUID, firstName, lastName string, dob *time.Time) ([]admission.Request, error) {
	args := m.Called(ctx, orgID, firstName, lastName, dob)
	return args.Get(0).([]admission.Request), args.Error(1)
}

func (m *MockAdmissionRepository) SaveWithLock(ctx context.Context, r *admission.Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockAdmissionRepository) DeleteByGuardianEmail(ctx context.Context, orgID uuid.UUID, email string) (int64, error) {
	args := m.Called(ctx, orgID, email)
	return args.Get(0).(int64), args.Error(1)
}

type MockTrialUsageRepository struct {
	mock.Mock
}

func (m *MockTrialUsageRepository) RecordUsage(ctx context.Context, orgID uuid.UUID, email string) error {
	args := m.Called(ctx, orgID, email)
	return args.Error(0)
}

func (m *MockTrialUsageRepository) HasUsed(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, orgID, email)
	return args.Bool(0), args.Error(1)
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

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, p notification.Payload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
