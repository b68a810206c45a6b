package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StatusActive is the only enrollment status that is billed
const StatusActive = "active"

var (
	ErrStudentNotFound  = shared.NewNotFoundError("STUDENT_NOT_FOUND", "Student not found")
	ErrAmbiguousStudent = shared.NewConflictError("AMBIGUOUS_MATCH", "More than one student matches; refine the search")
)

// Student is the enrolled learner. This core reads it and updates only the
// class and registration-fee fields.
type Student struct {
	shared.OrgAggregateRoot
	FirstName      string
	LastName       string
	ClassID        *uuid.UUID
	ClassName      string
	EnrollmentDate *time.Time
	DateOfBirth    *time.Time
	Status         string
	IsActive       bool
	ParentID       *uuid.UUID
	GuardianName   string
	GuardianEmail  string

	RegistrationFeeAmount   decimal.Decimal
	RegistrationFeePaid     bool
	RegistrationFeeVerified bool
	RegistrationPaymentDate *time.Time

	DeletedAt  *time.Time
	PurgeAfter *time.Time
}

// FullName joins first and last name
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// IsBillable reports whether fees may be generated for the student
func (s *Student) IsBillable() bool {
	return s.IsActive && s.DeletedAt == nil && strings.EqualFold(strings.TrimSpace(s.Status), StatusActive)
}

// ChangeClass moves the student to a new class and registration fee. It
// reports which of the two actually changed; fee changes below one cent are
// ignored.
func (s *Student) ChangeClass(classID *uuid.UUID, className string, registrationFee decimal.Decimal) (classChanged, feeChanged bool) {
	classChanged = !sameClass(s.ClassID, classID)
	feeChanged = valueobject.DiffersBy(s.RegistrationFeeAmount, registrationFee)
	if classChanged {
		s.ClassID = classID
		if className != "" {
			s.ClassName = className
		}
	}
	if feeChanged {
		s.RegistrationFeeAmount = registrationFee
	}
	if classChanged || feeChanged {
		s.IncrementVersion()
		s.Touch()
	}
	return classChanged, feeChanged
}

// SetRegistrationPayment records the registration payment flags
func (s *Student) SetRegistrationPayment(paid, verified bool, paidOn *time.Time) {
	s.RegistrationFeePaid = paid
	s.RegistrationFeeVerified = verified
	s.RegistrationPaymentDate = paidOn
	s.IncrementVersion()
	s.Touch()
}

// Context returns the value object passed into fee operations
func (s *Student) Context() Context {
	return Context{
		StudentID:             s.ID,
		OrgID:                 s.OrgID,
		FirstName:             s.FirstName,
		LastName:              s.LastName,
		ClassID:               s.ClassID,
		ClassName:             s.ClassName,
		EnrollmentDate:        s.EnrollmentDate,
		DateOfBirth:           s.DateOfBirth,
		Status:                s.Status,
		IsActive:              s.IsActive && s.DeletedAt == nil,
		ParentID:              s.ParentID,
		GuardianName:          s.GuardianName,
		GuardianEmail:         s.GuardianEmail,
		RegistrationFeeAmount: s.RegistrationFeeAmount,
		Version:               s.Version,
	}
}

func sameClass(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
