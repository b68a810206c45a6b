package fee

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CreditStatus is the state of a family credit balance
type CreditStatus string

const (
	CreditStatusAvailable CreditStatus = "available"
	CreditStatusExhausted CreditStatus = "exhausted"
	CreditStatusExpired   CreditStatus = "expired"
)

var (
	ErrCreditNotFound     = shared.NewNotFoundError("CREDIT_NOT_FOUND", "Family credit not found")
	ErrCreditNotAvailable = shared.NewPreconditionError("CREDIT_NOT_AVAILABLE", "Family credit is not available")
	ErrFeeNotOutstanding  = shared.NewPreconditionError("FEE_NOT_OUTSTANDING", "Fee has no outstanding balance")
)

// CreditApplication records one use of a credit against a fee
type CreditApplication struct {
	ID           uuid.UUID       `json:"id"`
	StudentFeeID uuid.UUID       `json:"student_fee_id"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes,omitempty"`
	AppliedBy    *uuid.UUID      `json:"applied_by,omitempty"`
	AppliedAt    time.Time       `json:"applied_at"`
}

// CreditApplications is stored as a JSONB column on the credit row
type CreditApplications []CreditApplication

// Value implements driver.Valuer
func (a CreditApplications) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *CreditApplications) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = CreditApplications{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan CreditApplications: unsupported type")
	}
	if len(raw) == 0 {
		*a = CreditApplications{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// FamilyCredit is a parent-level prepaid balance
type FamilyCredit struct {
	shared.OrgAggregateRoot
	ParentID        uuid.UUID
	Amount          decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          CreditStatus
	Applications    CreditApplications
	ExpiresAt       *time.Time
}

// NewFamilyCredit creates an available credit for the full amount
func NewFamilyCredit(orgID, parentID uuid.UUID, amount decimal.Decimal) (*FamilyCredit, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &FamilyCredit{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		ParentID:         parentID,
		Amount:           amount,
		RemainingAmount:  amount,
		Status:           CreditStatusAvailable,
		Applications:     CreditApplications{},
	}, nil
}

// Apply moves up to requested from the credit onto fee. The applied amount is
// capped by both the remaining credit and the fee's outstanding balance.
// Callers must persist the credit and the fee in one transaction.
func (c *FamilyCredit) Apply(f *StudentFee, requested decimal.Decimal, notes string, appliedBy *uuid.UUID, today time.Time) (decimal.Decimal, error) {
	if !requested.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if c.Status != CreditStatusAvailable || !c.RemainingAmount.IsPositive() {
		return decimal.Zero, ErrCreditNotAvailable
	}
	if c.ExpiresAt != nil && civilDay(*c.ExpiresAt) < civilDay(today) {
		c.Status = CreditStatusExpired
		return decimal.Zero, ErrCreditNotAvailable
	}
	if f.OrgID != c.OrgID {
		return decimal.Zero, shared.ErrRelatedMissing
	}
	outstanding := f.Outstanding()
	if !outstanding.IsPositive() {
		return decimal.Zero, ErrFeeNotOutstanding
	}

	applied := valueobject.MinDecimal(requested, c.RemainingAmount, outstanding)
	if err := f.ApplyPayment(applied, today); err != nil {
		return decimal.Zero, err
	}

	c.RemainingAmount = c.RemainingAmount.Sub(applied)
	if !c.RemainingAmount.IsPositive() {
		c.RemainingAmount = decimal.Zero
		c.Status = CreditStatusExhausted
	}
	c.Applications = append(c.Applications, CreditApplication{
		ID:           uuid.New(),
		StudentFeeID: f.ID,
		Amount:       applied,
		Notes:        notes,
		AppliedBy:    appliedBy,
		AppliedAt:    time.Now(),
	})
	c.IncrementVersion()
	c.Touch()
	c.AddDomainEvent(NewFamilyCreditAppliedEvent(c, f.ID, applied))
	return applied, nil
}
