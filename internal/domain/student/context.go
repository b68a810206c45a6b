package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Context is an immutable view of the student a fee operation acts on. It is
// passed by value so no handler shares a mutable "current student".
type Context struct {
	StudentID             uuid.UUID
	OrgID                 uuid.UUID
	FirstName             string
	LastName              string
	ClassID               *uuid.UUID
	ClassName             string
	EnrollmentDate        *time.Time
	DateOfBirth           *time.Time
	Status                string
	IsActive              bool
	ParentID              *uuid.UUID
	GuardianName          string
	GuardianEmail         string
	RegistrationFeeAmount decimal.Decimal
	Version               int
}

// IsBillable reports whether fees may be generated for the student
func (c Context) IsBillable() bool {
	return c.IsActive && strings.EqualFold(strings.TrimSpace(c.Status), StatusActive)
}

// FullName joins first and last name
func (c Context) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// WithClassName returns a copy with the class name replaced
func (c Context) WithClassName(name string) Context {
	c.ClassName = name
	return c
}
