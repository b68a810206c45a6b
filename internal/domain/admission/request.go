package admission

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Source names the table an admission request lives in
type Source string

const (
	SourceGuardian Source = "registration_requests"
	SourceChild    Source = "child_registration_requests"
)

// Status is the admission decision state
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PaymentState is the registration-payment sub-state, independent of Status
type PaymentState string

const (
	PaymentUnpaid   PaymentState = "unpaid"
	PaymentPaid     PaymentState = "paid"
	PaymentVerified PaymentState = "verified"
)

var (
	ErrRequestNotFound    = shared.NewNotFoundError("ADMISSION_REQUEST_NOT_FOUND", "Admission request not found")
	ErrPaymentNotVerified = shared.NewPreconditionError("PAYMENT_NOT_VERIFIED", "Registration payment must be verified before approval")
	ErrNotPending         = shared.NewPreconditionError("REQUEST_NOT_PENDING", "Only pending requests can be decided")
	ErrAmbiguousMatch     = shared.NewConflictError("AMBIGUOUS_MATCH", "More than one admission request matches the student; link them explicitly")
)

// Request is a registration or child registration awaiting a decision
type Request struct {
	shared.OrgAggregateRoot
	Source                Source
	StudentID             *uuid.UUID
	ChildFirstName        string
	ChildLastName         string
	DateOfBirth           *time.Time
	GuardianName          string
	GuardianEmail         string
	Status                Status
	RegistrationFeeAmount decimal.Decimal
	RegistrationFeePaid   bool
	PaymentVerified       bool
	PaymentDate           *time.Time
	DecidedAt             *time.Time
	DecidedBy             *uuid.UUID
	RejectionReason       string
}

// ChildName joins the child's first and last name
func (r *Request) ChildName() string {
	return strings.TrimSpace(r.ChildFirstName + " " + r.ChildLastName)
}

// PaymentState derives the payment sub-state from the two flags
func (r *Request) PaymentState() PaymentState {
	switch {
	case r.PaymentVerified:
		return PaymentVerified
	case r.RegistrationFeePaid:
		return PaymentPaid
	}
	return PaymentUnpaid
}

// VerifyPayment marks the registration fee paid and verified
func (r *Request) VerifyPayment(paidOn time.Time) {
	r.ApplyPaymentFlags(true, true, &paidOn)
}

// ClearPayment reverts the request to unpaid
func (r *Request) ClearPayment() {
	r.ApplyPaymentFlags(false, false, nil)
}

// ApplyPaymentFlags copies payment state from the request being verified
func (r *Request) ApplyPaymentFlags(paid, verified bool, paidOn *time.Time) {
	r.RegistrationFeePaid = paid
	r.PaymentVerified = verified
	r.PaymentDate = paidOn
	r.IncrementVersion()
	r.Touch()
}

// Approve accepts a pending request. Payment must already be verified.
func (r *Request) Approve(actorID *uuid.UUID) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	if !r.PaymentVerified {
		return ErrPaymentNotVerified
	}
	now := time.Now()
	r.Status = StatusApproved
	r.DecidedAt = &now
	r.DecidedBy = actorID
	r.IncrementVersion()
	r.Touch()
	r.AddDomainEvent(NewAdmissionDecidedEvent(r))
	return nil
}

// Reject declines a pending request and clears the paid flag
func (r *Request) Reject(actorID *uuid.UUID, reason string) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	now := time.Now()
	r.Status = StatusRejected
	r.RegistrationFeePaid = false
	r.RejectionReason = strings.TrimSpace(reason)
	r.DecidedAt = &now
	r.DecidedBy = actorID
	r.IncrementVersion()
	r.Touch()
	r.AddDomainEvent(NewAdmissionDecidedEvent(r))
	return nil
}

// PickPerSource keeps at most one request per source table. Two rows from the
// same table matching one child means the fallback join is ambiguous, and the
// caller must not guess.
func PickPerSource(candidates []Request) ([]Request, error) {
	seen := make(map[Source]bool, 2)
	out := make([]Request, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Source] {
			return nil, ErrAmbiguousMatch
		}
		seen[c.Source] = true
		out = append(out, c)
	}
	return out, nil
}
