// Package fee orchestrates fee corrections, tuition sync and ledger reads.
package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
)

// TransactionScope provides transactional access to the fee repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction. A returned error rolls
	// the transaction back; otherwise it commits.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction.
//
// AuditRepo appends each row inside a nested transaction (a savepoint when
// already in one), so a failed audit insert can be rolled back without
// losing the ledger write that shares the outer transaction.
type TransactionalRepositories interface {
	FeeRepo() fee.StudentFeeRepository
	AuditRepo() audit.Repository
	PaymentRepo() fee.PaymentRepository
	TransactionRepo() fee.FinancialTransactionRepository
	StudentRepo() student.Repository
	StructureRepo() fee.StructureRepository
}

// Clock returns the current time
type Clock func() time.Time

// ReceiptRequest is the data printed on a fee receipt
type ReceiptRequest struct {
	OrgID       uuid.UUID
	StudentID   uuid.UUID
	StudentName string
	FeeID       uuid.UUID
	Reference   string
	Description string
	Amount      decimal.Decimal
	DueDate     *time.Time
	PaidDate    time.Time
}

// ReceiptArtifact points at a stored receipt document
type ReceiptArtifact struct {
	URL         string
	StoragePath string
}

// ReceiptGenerator produces and stores a receipt document
type ReceiptGenerator interface {
	Generate(ctx context.Context, req ReceiptRequest) (*ReceiptArtifact, error)
}

// NoOpTransactionScope runs fn against fixed repositories without a real
// transaction. Used by tests and by read-mostly tooling.
type NoOpTransactionScope struct {
	Fees         fee.StudentFeeRepository
	Audits       audit.Repository
	Payments     fee.PaymentRepository
	Transactions fee.FinancialTransactionRepository
	Students     student.Repository
	Structures   fee.StructureRepository
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) FeeRepo() fee.StudentFeeRepository  { return s.Fees }
func (s *NoOpTransactionScope) AuditRepo() audit.Repository        { return s.Audits }
func (s *NoOpTransactionScope) PaymentRepo() fee.PaymentRepository { return s.Payments }
func (s *NoOpTransactionScope) TransactionRepo() fee.FinancialTransactionRepository {
	return s.Transactions
}
func (s *NoOpTransactionScope) StudentRepo() student.Repository        { return s.Students }
func (s *NoOpTransactionScope) StructureRepo() fee.StructureRepository { return s.Structures }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
