package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks whether a recorded payment still stands
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusVoided    PaymentStatus = "voided"
)

// TransactionStatus tracks a financial transaction's posting state
type TransactionStatus string

const (
	TransactionStatusPosted TransactionStatus = "posted"
	TransactionStatusVoided TransactionStatus = "voided"
)

// TransactionTypeFeePayment is the transaction type written by markPaid
const TransactionTypeFeePayment = "fee_payment"

// PaymentMethodManual marks payments recorded by staff rather than a gateway
const PaymentMethodManual = "manual"

// PaymentReference derives the idempotency key shared by the Payment and
// FinancialTransaction rows of a fee. Re-marking a fee reuses the same key.
func PaymentReference(feeID uuid.UUID) string {
	return "FEE-" + feeID.String()
}

// Payment is the external payment record for a settled fee
type Payment struct {
	ID                 uuid.UUID
	OrgID              uuid.UUID
	StudentID          uuid.UUID
	StudentFeeID       uuid.UUID
	Reference          string
	Amount             decimal.Decimal
	Method             string
	Status             PaymentStatus
	PaidAt             time.Time
	VoidedAt           *time.Time
	ReceiptURL         string
	ReceiptStoragePath string
	RecordedBy         *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewFeePayment builds the completed payment for a fee that was just marked paid
func NewFeePayment(f *StudentFee, recordedBy *uuid.UUID, paidAt time.Time) *Payment {
	now := time.Now()
	return &Payment{
		ID:           uuid.New(),
		OrgID:        f.OrgID,
		StudentID:    f.StudentID,
		StudentFeeID: f.ID,
		Reference:    PaymentReference(f.ID),
		Amount:       f.AmountPaid,
		Method:       PaymentMethodManual,
		Status:       PaymentStatusCompleted,
		PaidAt:       paidAt,
		RecordedBy:   recordedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FinancialTransaction is the general-ledger entry mirroring a Payment
type FinancialTransaction struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	StudentID    uuid.UUID
	StudentFeeID uuid.UUID
	Reference    string
	Type         string
	Amount       decimal.Decimal
	Status       TransactionStatus
	Description  string
	OccurredAt   time.Time
	VoidedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewFeeTransaction builds the posted transaction for a fee that was just marked paid
func NewFeeTransaction(f *StudentFee, occurredAt time.Time) *FinancialTransaction {
	now := time.Now()
	return &FinancialTransaction{
		ID:           uuid.New(),
		OrgID:        f.OrgID,
		StudentID:    f.StudentID,
		StudentFeeID: f.ID,
		Reference:    PaymentReference(f.ID),
		Type:         TransactionTypeFeePayment,
		Amount:       f.AmountPaid,
		Status:       TransactionStatusPosted,
		Description:  f.Name,
		OccurredAt:   occurredAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
