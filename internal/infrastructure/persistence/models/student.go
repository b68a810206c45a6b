package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
)

// StudentModel maps the students table. Only the columns the fee ledger reads
// or writes are mapped.
type StudentModel struct {
	OrgAggregateModel
	FirstName      string     `gorm:"type:varchar(100);not null"`
	LastName       string     `gorm:"type:varchar(100);not null"`
	ClassID        *uuid.UUID `gorm:"type:uuid;index"`
	ClassName      string     `gorm:"type:varchar(100)"`
	EnrollmentDate *time.Time `gorm:"type:date"`
	DateOfBirth    *time.Time `gorm:"type:date"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'"`
	IsActive       bool       `gorm:"not null;default:true"`
	ParentID       *uuid.UUID `gorm:"type:uuid;index"`
	GuardianName   string     `gorm:"type:varchar(200)"`
	GuardianEmail  string     `gorm:"type:varchar(200);index"`

	RegistrationFeeAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RegistrationFeePaid     bool            `gorm:"not null;default:false"`
	RegistrationFeeVerified bool            `gorm:"not null;default:false"`
	RegistrationPaymentDate *time.Time

	DeletedAt  *time.Time `gorm:"index"`
	PurgeAfter *time.Time
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student
func (m *StudentModel) ToDomain() *student.Student {
	return &student.Student{
		OrgAggregateRoot:        m.ToDomainOrgAggregateRoot(),
		FirstName:               m.FirstName,
		LastName:                m.LastName,
		ClassID:                 m.ClassID,
		ClassName:               m.ClassName,
		EnrollmentDate:          m.EnrollmentDate,
		DateOfBirth:             m.DateOfBirth,
		Status:                  m.Status,
		IsActive:                m.IsActive,
		ParentID:                m.ParentID,
		GuardianName:            m.GuardianName,
		GuardianEmail:           m.GuardianEmail,
		RegistrationFeeAmount:   m.RegistrationFeeAmount,
		RegistrationFeePaid:     m.RegistrationFeePaid,
		RegistrationFeeVerified: m.RegistrationFeeVerified,
		RegistrationPaymentDate: m.RegistrationPaymentDate,
		DeletedAt:               m.DeletedAt,
		PurgeAfter:              m.PurgeAfter,
	}
}

// FromDomain populates the persistence model from a domain Student
func (m *StudentModel) FromDomain(s *student.Student) {
	m.FromDomainOrgAggregateRoot(s.OrgAggregateRoot)
	m.FirstName = s.FirstName
	m.LastName = s.LastName
	m.ClassID = s.ClassID
	m.ClassName = s.ClassName
	m.EnrollmentDate = s.EnrollmentDate
	m.DateOfBirth = s.DateOfBirth
	m.Status = s.Status
	m.IsActive = s.IsActive
	m.ParentID = s.ParentID
	m.GuardianName = s.GuardianName
	m.GuardianEmail = s.GuardianEmail
	m.RegistrationFeeAmount = s.RegistrationFeeAmount
	m.RegistrationFeePaid = s.RegistrationFeePaid
	m.RegistrationFeeVerified = s.RegistrationFeeVerified
	m.RegistrationPaymentDate = s.RegistrationPaymentDate
	m.DeletedAt = s.DeletedAt
	m.PurgeAfter = s.PurgeAfter
}

// StudentModelFromDomain creates a new persistence model from a domain Student
func StudentModelFromDomain(s *student.Student) *StudentModel {
	m := &StudentModel{}
	m.FromDomain(s)
	return m
}
