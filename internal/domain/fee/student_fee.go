package fee

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Category groups fees for pricing and reporting
type Category string

const (
	CategoryTuition      Category = "tuition"
	CategoryRegistration Category = "registration"
)

// WaiveMode selects between waiving the whole balance or part of it
type WaiveMode string

const (
	WaiveFull    WaiveMode = "full"
	WaivePartial WaiveMode = "partial"
)

// Validation and state errors raised by StudentFee
var (
	ErrMissingReason   = shared.NewValidationError("MISSING_REASON", "A reason is required for fee corrections")
	ErrInvalidAmount   = shared.NewValidationError("INVALID_AMOUNT", "Amount must be greater than zero and not exceed the outstanding balance")
	ErrInvalidDueDate  = shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	ErrNothingToWaive  = shared.NewPreconditionError("NOTHING_TO_WAIVE", "Fee has no outstanding balance to waive")
	ErrNothingToPay    = shared.NewPreconditionError("NOTHING_TO_PAY", "Fee has no billable amount")
	ErrFeeAlreadyPaid  = shared.NewConflictError("FEE_ALREADY_PAID", "Fee is already marked as paid")
	ErrFeeNotPaid      = shared.NewPreconditionError("FEE_NOT_PAID", "Fee has no recorded payment to reverse")
	ErrFeeNotSyncable  = shared.NewPreconditionError("FEE_NOT_SYNCABLE", "Fee has payments or discounts and cannot be re-priced")
	ErrFeeNotFound     = shared.NewNotFoundError("FEE_NOT_FOUND", "Student fee not found")
	ErrVersionMismatch = shared.NewConflictError("OPTIMISTIC_LOCK_ERROR", "Fee was modified by another user. Refresh and retry.")
)

var registrationPattern = regexp.MustCompile(`(?i)registration|admission|enrol`)

// StudentFee is one billing obligation for one student for one period
type StudentFee struct {
	shared.OrgAggregateRoot
	StudentID      uuid.UUID
	FeeStructureID *uuid.UUID
	Name           string
	Description    string
	FeeType        string
	CategoryCode   Category
	Amount         decimal.Decimal
	FinalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	// WaivedAmount is the pre-discount column some legacy rows still carry
	WaivedAmount      decimal.Decimal
	AmountPaid        decimal.Decimal
	AmountOutstanding *decimal.Decimal
	Status            Status
	DueDate           *time.Time
	BillingMonth      *time.Time
	PaidDate          *time.Time
}

// NewStudentFee creates a pending fee for the full amount
func NewStudentFee(orgID, studentID uuid.UUID, category Category, name string, amount decimal.Decimal, dueDate time.Time) (*StudentFee, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Fee name cannot be empty")
	}
	billingMonth := MonthStart(dueDate)
	outstanding := amount
	f := &StudentFee{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(orgID),
		StudentID:         studentID,
		Name:              name,
		CategoryCode:      category,
		Amount:            amount,
		FinalAmount:       amount,
		DiscountAmount:    decimal.Zero,
		WaivedAmount:      decimal.Zero,
		AmountPaid:        decimal.Zero,
		AmountOutstanding: &outstanding,
		Status:            StatusPending,
		DueDate:           &dueDate,
		BillingMonth:      &billingMonth,
	}
	return f, nil
}

// Outstanding returns the stored outstanding amount, or max(0, final - paid)
// when the row never had one written.
func (f *StudentFee) Outstanding() decimal.Decimal {
	if f.AmountOutstanding != nil {
		return *f.AmountOutstanding
	}
	return valueobject.Outstanding(f.FinalAmount, f.AmountPaid)
}

// Discount returns discount_amount, falling back to the legacy waived_amount
func (f *StudentFee) Discount() decimal.Decimal {
	if f.DiscountAmount.IsPositive() {
		return f.DiscountAmount
	}
	if f.WaivedAmount.IsPositive() {
		return f.WaivedAmount
	}
	return decimal.Zero
}

// IsRegistrationFee matches the fee's name, type or description against
// registration/admission/enrolment wording.
func (f *StudentFee) IsRegistrationFee() bool {
	if f.CategoryCode == CategoryRegistration {
		return true
	}
	return registrationPattern.MatchString(f.Name) ||
		registrationPattern.MatchString(f.FeeType) ||
		registrationPattern.MatchString(f.Description)
}

// IsTuitionSyncEligible reports whether a tuition re-price may touch this row.
// Rows with any payment or discount are never re-priced.
func (f *StudentFee) IsTuitionSyncEligible() bool {
	return f.CategoryCode == CategoryTuition &&
		f.Status.IsUnpaid() &&
		f.AmountPaid.IsZero() &&
		f.Discount().IsZero()
}

// DerivedBillingMonth returns billing_month, or the first of the due date's month
func (f *StudentFee) DerivedBillingMonth() *time.Time {
	if f.BillingMonth != nil {
		m := MonthStart(*f.BillingMonth)
		return &m
	}
	if f.DueDate != nil {
		m := MonthStart(*f.DueDate)
		return &m
	}
	return nil
}

// Normalize repairs a row read from storage. Unpaid and unknown statuses are
// re-derived from the balances and due date, so a pending fee past its due
// date reads as overdue. Paid and waived rows keep their stored status.
func (f *StudentFee) Normalize(today time.Time) {
	if f.Status.IsValid() && !f.Status.IsUnpaid() {
		return
	}
	f.Status = ClassifyStatus(f.DueDate, f.Outstanding(), f.AmountPaid, today)
}

// Waive reduces the billable amount by the full outstanding balance or by a
// partial amount, recording the reduction as a discount. It returns the
// amount actually waived.
func (f *StudentFee) Waive(mode WaiveMode, amount decimal.Decimal, reason string, today time.Time) (decimal.Decimal, error) {
	if strings.TrimSpace(reason) == "" {
		return decimal.Zero, ErrMissingReason
	}
	outstanding := f.Outstanding()
	if !outstanding.IsPositive() {
		return decimal.Zero, ErrNothingToWaive
	}

	applied := outstanding
	if mode == WaivePartial {
		if !amount.IsPositive() || amount.GreaterThan(outstanding) {
			return decimal.Zero, ErrInvalidAmount
		}
		applied = amount
	} else if mode != WaiveFull {
		return decimal.Zero, shared.NewValidationError("INVALID_WAIVE_MODE", "Waive mode must be full or partial")
	}

	f.DiscountAmount = f.DiscountAmount.Add(applied)
	f.FinalAmount = valueobject.NonNegative(f.FinalAmount.Sub(applied))
	f.rebalance(today)
	f.AddDomainEvent(NewFeeCorrectedEvent(f, "waive"))
	return applied, nil
}

// Adjust replaces the billed amount and clears any prior discount
func (f *StudentFee) Adjust(newAmount decimal.Decimal, reason string, today time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	if !newAmount.IsPositive() {
		return ErrInvalidAmount
	}
	f.Amount = newAmount
	f.FinalAmount = newAmount
	f.DiscountAmount = decimal.Zero
	f.WaivedAmount = decimal.Zero
	f.rebalance(today)
	f.AddDomainEvent(NewFeeCorrectedEvent(f, "adjust"))
	return nil
}

// MarkPaid settles the fee in full as of today
func (f *StudentFee) MarkPaid(today time.Time) error {
	if f.Status == StatusPaid {
		return ErrFeeAlreadyPaid
	}
	if !f.FinalAmount.IsPositive() {
		return ErrNothingToPay
	}
	paidOn := today
	zero := decimal.Zero
	f.AmountPaid = f.FinalAmount
	f.AmountOutstanding = &zero
	f.PaidDate = &paidOn
	f.Status = StatusPaid
	f.IncrementVersion()
	f.Touch()
	f.AddDomainEvent(NewFeeMarkedPaidEvent(f))
	return nil
}

// MarkUnpaid reverses a recorded payment and re-derives status
func (f *StudentFee) MarkUnpaid(today time.Time) error {
	if f.Status != StatusPaid && f.AmountPaid.IsZero() {
		return ErrFeeNotPaid
	}
	f.AmountPaid = decimal.Zero
	f.PaidDate = nil
	f.rebalance(today)
	f.AddDomainEvent(NewFeeMarkedUnpaidEvent(f))
	return nil
}

// ChangeDueDate moves the due date and billing month. Paid and waived fees
// keep their status.
func (f *StudentFee) ChangeDueDate(newDueDate time.Time, today time.Time) error {
	if newDueDate.IsZero() {
		return ErrInvalidDueDate
	}
	month := MonthStart(newDueDate)
	f.DueDate = &newDueDate
	f.BillingMonth = &month
	if !f.Status.IsSettled() {
		f.Status = ClassifyStatus(f.DueDate, f.Outstanding(), f.AmountPaid, today)
	}
	f.IncrementVersion()
	f.Touch()
	f.AddDomainEvent(NewFeeCorrectedEvent(f, "due_date"))
	return nil
}

// Reprice points an untouched tuition row at a new structure and amount
func (f *StudentFee) Reprice(structureID uuid.UUID, amount decimal.Decimal, today time.Time) error {
	if !f.IsTuitionSyncEligible() {
		return ErrFeeNotSyncable
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	f.FeeStructureID = &structureID
	f.Amount = amount
	f.FinalAmount = amount
	f.rebalance(today)
	return nil
}

// ApplyPayment records money received against the fee without settling it
// outright. Used when family credit is applied.
func (f *StudentFee) ApplyPayment(amount decimal.Decimal, today time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	f.AmountPaid = f.AmountPaid.Add(amount)
	f.rebalance(today)
	if f.Status == StatusPaid && f.PaidDate == nil {
		paidOn := today
		f.PaidDate = &paidOn
	}
	return nil
}

// Recompute brings the stored outstanding amount and status back in line
// with the balances. It returns false when the row was already consistent.
//
// Legacy rows marked paid before amount_paid existed get amount_paid
// backfilled from final_amount rather than being reopened.
func (f *StudentFee) Recompute(today time.Time) bool {
	paid := f.AmountPaid
	if f.Status == StatusPaid && paid.IsZero() && f.FinalAmount.IsPositive() {
		paid = f.FinalAmount
	}
	outstanding := valueobject.Outstanding(f.FinalAmount, paid)
	status := ClassifyStatus(f.DueDate, outstanding, paid, today)

	changed := !paid.Equal(f.AmountPaid) ||
		f.AmountOutstanding == nil ||
		!outstanding.Equal(*f.AmountOutstanding) ||
		status != f.Status
	if !changed {
		return false
	}
	f.AmountPaid = paid
	f.AmountOutstanding = &outstanding
	f.Status = status
	f.IncrementVersion()
	f.Touch()
	return true
}

func (f *StudentFee) rebalance(today time.Time) {
	outstanding := valueobject.Outstanding(f.FinalAmount, f.AmountPaid)
	f.AmountOutstanding = &outstanding
	f.Status = ClassifyStatus(f.DueDate, outstanding, f.AmountPaid, today)
	f.IncrementVersion()
	f.Touch()
}

// Snapshot captures the ledger-relevant fields for the correction audit
func (f *StudentFee) Snapshot() map[string]any {
	snap := map[string]any{
		"id":                 f.ID.String(),
		"student_id":         f.StudentID.String(),
		"name":               f.Name,
		"category_code":      string(f.CategoryCode),
		"amount":             f.Amount.StringFixed(2),
		"final_amount":       f.FinalAmount.StringFixed(2),
		"discount_amount":    f.DiscountAmount.StringFixed(2),
		"amount_paid":        f.AmountPaid.StringFixed(2),
		"amount_outstanding": f.Outstanding().StringFixed(2),
		"status":             string(f.Status),
		"version":            f.Version,
	}
	if f.FeeStructureID != nil {
		snap["fee_structure_id"] = f.FeeStructureID.String()
	}
	if f.DueDate != nil {
		snap["due_date"] = f.DueDate.Format(time.DateOnly)
	}
	if f.BillingMonth != nil {
		snap["billing_month"] = f.BillingMonth.Format(time.DateOnly)
	}
	if f.PaidDate != nil {
		snap["paid_date"] = f.PaidDate.Format(time.DateOnly)
	}
	return snap
}

// Clone returns a copy that does not share pointer fields with f
func (f *StudentFee) Clone() *StudentFee {
	c := *f
	c.ClearDomainEvents()
	if f.AmountOutstanding != nil {
		v := *f.AmountOutstanding
		c.AmountOutstanding = &v
	}
	if f.FeeStructureID != nil {
		v := *f.FeeStructureID
		c.FeeStructureID = &v
	}
	c.DueDate = copyTime(f.DueDate)
	c.BillingMonth = copyTime(f.BillingMonth)
	c.PaidDate = copyTime(f.PaidDate)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
