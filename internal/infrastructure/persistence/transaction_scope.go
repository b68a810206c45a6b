package persistence

import (
	"context"

	appadmission "github.com/schoolfees/backend/internal/application/admission"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"gorm.io/gorm"
)

// GormFeeTransactionScope implements the fee TransactionScope using GORM transactions.
type GormFeeTransactionScope struct {
	db *gorm.DB
}

// NewGormFeeTransactionScope creates a new GormFeeTransactionScope
func NewGormFeeTransactionScope(db *gorm.DB) *GormFeeTransactionScope {
	return &GormFeeTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it commits.
func (s *GormFeeTransactionScope) Execute(ctx context.Context, fn func(repos appfee.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormAdmissionTransactionScope implements the admission TransactionScope using GORM transactions.
type GormAdmissionTransactionScope struct {
	db *gorm.DB
}

// NewGormAdmissionTransactionScope creates a new GormAdmissionTransactionScope
func NewGormAdmissionTransactionScope(db *gorm.DB) *GormAdmissionTransactionScope {
	return &GormAdmissionTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormAdmissionTransactionScope) Execute(ctx context.Context, fn func(repos appadmission.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) FeeRepo() fee.StudentFeeRepository {
	return NewGormStudentFeeRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditRepo() audit.Repository {
	return NewGormCorrectionAuditRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentRepo() fee.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransactionRepo() fee.FinancialTransactionRepository {
	return NewGormFinancialTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) StudentRepo() student.Repository {
	return NewGormStudentRepository(r.tx)
}

func (r *gormTransactionalRepositories) StructureRepo() fee.StructureRepository {
	return NewDualTableStructureRepository(r.tx)
}

func (r *gormTransactionalRepositories) AdmissionRepo() admission.Repository {
	return NewGormAdmissionRepository(r.tx)
}

var (
	_ appfee.TransactionScope                = (*GormFeeTransactionScope)(nil)
	_ appfee.TransactionalRepositories       = (*gormTransactionalRepositories)(nil)
	_ appadmission.TransactionScope          = (*GormAdmissionTransactionScope)(nil)
	_ appadmission.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
