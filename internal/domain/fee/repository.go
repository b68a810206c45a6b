package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StudentFeeRepository persists StudentFee aggregates
type StudentFeeRepository interface {
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*StudentFee, error)

	// FindByStudent returns a student's fees ordered by due date
	FindByStudent(ctx context.Context, orgID, studentID uuid.UUID) ([]StudentFee, error)

	// FindUnpaidForMonth returns unpaid fees billed in month across the organization
	FindUnpaidForMonth(ctx context.Context, orgID uuid.UUID, month time.Time) ([]StudentFee, error)

	CountByStudent(ctx context.Context, orgID, studentID uuid.UUID) (int64, error)

	Create(ctx context.Context, fee *StudentFee) error

	// SaveWithLock writes the fee only if the stored version is fee.Version-1
	SaveWithLock(ctx context.Context, fee *StudentFee) error

	// Delete hard-deletes the fee row
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// StructureRepository reads fee structures. Implementations hide whether the
// rows come from the canonical or the legacy table.
type StructureRepository interface {
	// FindActive returns the active structures of a category in effect on asOf
	FindActive(ctx context.Context, orgID uuid.UUID, category Category, asOf time.Time) ([]FeeStructure, error)

	// EnsureLegacyBridge returns s with LegacyID set, creating the legacy twin
	// of a canonical structure on first use.
	EnsureLegacyBridge(ctx context.Context, s FeeStructure, actorID uuid.UUID) (FeeStructure, error)
}

// PaymentRepository persists Payment records keyed by reference
type PaymentRepository interface {
	// UpsertByReference inserts the payment or reactivates the existing row
	// with the same (org, reference).
	UpsertByReference(ctx context.Context, p *Payment) error

	// VoidByReference voids completed payments with the reference and returns
	// how many rows changed.
	VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error)

	FindByReference(ctx context.Context, orgID uuid.UUID, reference string) (*Payment, error)

	// AttachReceipt records the stored receipt pointer on the payment
	AttachReceipt(ctx context.Context, orgID uuid.UUID, reference, receiptURL, storagePath string) error
}

// FinancialTransactionRepository persists ledger transactions keyed by reference
type FinancialTransactionRepository interface {
	UpsertByReference(ctx context.Context, t *FinancialTransaction) error
	VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error)
	CountByReference(ctx context.Context, orgID uuid.UUID, reference string) (int64, error)
}

// FamilyCreditRepository persists FamilyCredit aggregates
type FamilyCreditRepository interface {
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*FamilyCredit, error)
	FindAvailableByParent(ctx context.Context, orgID, parentID uuid.UUID) ([]FamilyCredit, error)
	Create(ctx context.Context, credit *FamilyCredit) error
	SaveWithLock(ctx context.Context, credit *FamilyCredit) error
}

// ApplyCreditRequest is the input of LedgerProcedures.ApplyFamilyCredit
type ApplyCreditRequest struct {
	OrgID        uuid.UUID
	CreditID     uuid.UUID
	StudentFeeID uuid.UUID
	Amount       decimal.Decimal
	Notes        string
	ActorID      *uuid.UUID
}

// ApplyCreditResult reports both sides of a credit application
type ApplyCreditResult struct {
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	CreditRemaining decimal.Decimal `json:"credit_remaining"`
	CreditStatus    CreditStatus    `json:"credit_status"`
	FeePaid         decimal.Decimal `json:"fee_paid"`
	FeeOutstanding  decimal.Decimal `json:"fee_outstanding"`
	FeeStatus       Status          `json:"fee_status"`
}

// AssignAction is what the age-based assignment did to the month's fee row
type AssignAction string

const (
	AssignCreated AssignAction = "created"
	AssignUpdated AssignAction = "updated"
	AssignNone    AssignAction = "none"
	// AssignNoBand means no linkable structure covers the student's age that month
	AssignNoBand AssignAction = "no_band"
)

// AssignFeeResult is the outcome of LedgerProcedures.AssignCorrectFeeForStudent
type AssignFeeResult struct {
	Action AssignAction    `json:"action"`
	Amount decimal.Decimal `json:"amount"`
}

// LedgerProcedures are the authoritative server-side operations. Each one
// runs as a single transaction.
type LedgerProcedures interface {
	// ApplyFamilyCredit moves credit onto a fee atomically
	ApplyFamilyCredit(ctx context.Context, req ApplyCreditRequest) (*ApplyCreditResult, error)

	// AssignCorrectFeeForStudent prices the student's tuition row for
	// billingMonth by exact age-in-months band.
	AssignCorrectFeeForStudent(ctx context.Context, orgID, studentID uuid.UUID, billingMonth time.Time) (*AssignFeeResult, error)

	// RecalculateStudentFeeBalances repairs outstanding amounts and statuses
	// and returns how many rows changed. A consistent ledger changes none.
	RecalculateStudentFeeBalances(ctx context.Context, orgID, studentID uuid.UUID, actorID *uuid.UUID, reason string) (int, error)
}
