package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeFeeCorrected    = "FeeCorrected"
	EventTypeFeeMarkedPaid   = "FeeMarkedPaid"
	EventTypeFeeMarkedUnpaid = "FeeMarkedUnpaid"
	EventTypeCreditApplied   = "FamilyCreditApplied"

	aggregateTypeStudentFee = "StudentFee"
)

// FeeCorrectedEvent is raised by every balance-changing correction
type FeeCorrectedEvent struct {
	shared.BaseDomainEvent
	FeeID       uuid.UUID       `json:"fee_id"`
	StudentID   uuid.UUID       `json:"student_id"`
	Correction  string          `json:"correction"`
	Status      Status          `json:"status"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// NewFeeCorrectedEvent creates a FeeCorrectedEvent for the given correction kind
func NewFeeCorrectedEvent(f *StudentFee, correction string) *FeeCorrectedEvent {
	return &FeeCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFeeCorrected, aggregateTypeStudentFee, f.ID, f.OrgID),
		FeeID:           f.ID,
		StudentID:       f.StudentID,
		Correction:      correction,
		Status:          f.Status,
		Outstanding:     f.Outstanding(),
	}
}

// FeeMarkedPaidEvent triggers receipt generation and the guardian notification
type FeeMarkedPaidEvent struct {
	shared.BaseDomainEvent
	FeeID            uuid.UUID       `json:"fee_id"`
	StudentID        uuid.UUID       `json:"student_id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	PaidDate         time.Time       `json:"paid_date"`
	PaymentReference string          `json:"payment_reference"`
}

// NewFeeMarkedPaidEvent creates a FeeMarkedPaidEvent
func NewFeeMarkedPaidEvent(f *StudentFee) *FeeMarkedPaidEvent {
	paid := time.Now()
	if f.PaidDate != nil {
		paid = *f.PaidDate
	}
	return &FeeMarkedPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeFeeMarkedPaid, aggregateTypeStudentFee, f.ID, f.OrgID),
		FeeID:            f.ID,
		StudentID:        f.StudentID,
		Description:      f.Name,
		Amount:           f.AmountPaid,
		DueDate:          copyTime(f.DueDate),
		PaidDate:         paid,
		PaymentReference: PaymentReference(f.ID),
	}
}

// FeeMarkedUnpaidEvent is raised when a payment is reversed
type FeeMarkedUnpaidEvent struct {
	shared.BaseDomainEvent
	FeeID            uuid.UUID `json:"fee_id"`
	StudentID        uuid.UUID `json:"student_id"`
	Status           Status    `json:"status"`
	PaymentReference string    `json:"payment_reference"`
}

// NewFeeMarkedUnpaidEvent creates a FeeMarkedUnpaidEvent
func NewFeeMarkedUnpaidEvent(f *StudentFee) *FeeMarkedUnpaidEvent {
	return &FeeMarkedUnpaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeFeeMarkedUnpaid, aggregateTypeStudentFee, f.ID, f.OrgID),
		FeeID:            f.ID,
		StudentID:        f.StudentID,
		Status:           f.Status,
		PaymentReference: PaymentReference(f.ID),
	}
}

// FamilyCreditAppliedEvent is raised after credit reduces a fee balance
type FamilyCreditAppliedEvent struct {
	shared.BaseDomainEvent
	CreditID      uuid.UUID       `json:"credit_id"`
	FeeID         uuid.UUID       `json:"fee_id"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// NewFamilyCreditAppliedEvent creates a FamilyCreditAppliedEvent
func NewFamilyCreditAppliedEvent(c *FamilyCredit, feeID uuid.UUID, applied decimal.Decimal) *FamilyCreditAppliedEvent {
	return &FamilyCreditAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditApplied, "FamilyCredit", c.ID, c.OrgID),
		CreditID:        c.ID,
		FeeID:           feeID,
		AppliedAmount:   applied,
		Remaining:       c.RemainingAmount,
	}
}
