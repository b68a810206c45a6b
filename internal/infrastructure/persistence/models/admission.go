package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/shopspring/decimal"
)

// AdmissionRequestColumns are shared by both admission request tables
type AdmissionRequestColumns struct {
	OrgAggregateModel
	StudentID             *uuid.UUID       `gorm:"type:uuid;index"`
	ChildFirstName        string           `gorm:"type:varchar(100);not null"`
	ChildLastName         string           `gorm:"type:varchar(100);not null"`
	DateOfBirth           *time.Time       `gorm:"type:date"`
	GuardianName          string           `gorm:"type:varchar(200)"`
	GuardianEmail         string           `gorm:"type:varchar(200);not null;index"`
	Status                admission.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	RegistrationFeeAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	RegistrationFeePaid   bool             `gorm:"not null;default:false"`
	PaymentVerified       bool             `gorm:"not null;default:false"`
	PaymentDate           *time.Time
	DecidedAt             *time.Time
	DecidedBy             *uuid.UUID `gorm:"type:uuid"`
	RejectionReason       string     `gorm:"type:text"`
}

func (c *AdmissionRequestColumns) toDomain(source admission.Source) *admission.Request {
	return &admission.Request{
		OrgAggregateRoot:      c.ToDomainOrgAggregateRoot(),
		Source:                source,
		StudentID:             c.StudentID,
		ChildFirstName:        c.ChildFirstName,
		ChildLastName:         c.ChildLastName,
		DateOfBirth:           c.DateOfBirth,
		GuardianName:          c.GuardianName,
		GuardianEmail:         c.GuardianEmail,
		Status:                c.Status,
		RegistrationFeeAmount: c.RegistrationFeeAmount,
		RegistrationFeePaid:   c.RegistrationFeePaid,
		PaymentVerified:       c.PaymentVerified,
		PaymentDate:           c.PaymentDate,
		DecidedAt:             c.DecidedAt,
		DecidedBy:             c.DecidedBy,
		RejectionReason:       c.RejectionReason,
	}
}

// FromDomain populates the shared columns from a domain Request
func (c *AdmissionRequestColumns) FromDomain(r *admission.Request) {
	c.FromDomainOrgAggregateRoot(r.OrgAggregateRoot)
	c.StudentID = r.StudentID
	c.ChildFirstName = r.ChildFirstName
	c.ChildLastName = r.ChildLastName
	c.DateOfBirth = r.DateOfBirth
	c.GuardianName = r.GuardianName
	c.GuardianEmail = r.GuardianEmail
	c.Status = r.Status
	c.RegistrationFeeAmount = r.RegistrationFeeAmount
	c.RegistrationFeePaid = r.RegistrationFeePaid
	c.PaymentVerified = r.PaymentVerified
	c.PaymentDate = r.PaymentDate
	c.DecidedAt = r.DecidedAt
	c.DecidedBy = r.DecidedBy
	c.RejectionReason = r.RejectionReason
}

// RegistrationRequestModel is a guardian-level admission request
type RegistrationRequestModel struct {
	AdmissionRequestColumns
}

// TableName returns the table name for GORM
func (RegistrationRequestModel) TableName() string {
	return "registration_requests"
}

// ToDomain converts the persistence model to a domain Request
func (m *RegistrationRequestModel) ToDomain() *admission.Request {
	return m.toDomain(admission.SourceGuardian)
}

// ChildRegistrationRequestModel is a per-child admission request
type ChildRegistrationRequestModel struct {
	AdmissionRequestColumns
}

// TableName returns the table name for GORM
func (ChildRegistrationRequestModel) TableName() string {
	return "child_registration_requests"
}

// ToDomain converts the persistence model to a domain Request
func (m *ChildRegistrationRequestModel) ToDomain() *admission.Request {
	return m.toDomain(admission.SourceChild)
}

// TrialUsageModel marks a guardian email that already consumed a trial.
// Rows outlive the requests that created them.
type TrialUsageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_trial_usages_tenant_email,priority:1"`
	Email     string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_trial_usages_tenant_email,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TrialUsageModel) TableName() string {
	return "trial_usages"
}
