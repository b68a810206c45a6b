package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"gorm.io/datatypes"
)

// CorrectionAuditModel is an append-only row of fee_corrections_audit. It
// has no UpdatedAt; the table rejects UPDATE and DELETE at the database level.
type CorrectionAuditModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_fee_audit_student,priority:1"`
	StudentID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_fee_audit_student,priority:2"`
	StudentFeeID *uuid.UUID     `gorm:"type:uuid;index"`
	Action       audit.Action   `gorm:"type:varchar(40);not null"`
	Reason       string         `gorm:"type:text;not null"`
	BeforeData   datatypes.JSON `gorm:"type:jsonb;not null"`
	AfterData    datatypes.JSON `gorm:"type:jsonb;not null"`
	ActorID      *uuid.UUID     `gorm:"type:uuid"`
	ActorRole    string         `gorm:"type:varchar(50)"`
	SourceScreen string         `gorm:"type:varchar(100)"`
	CreatedAt    time.Time      `gorm:"not null;index:idx_fee_audit_student,priority:3,sort:desc"`
}

// TableName returns the table name for GORM
func (CorrectionAuditModel) TableName() string {
	return "fee_corrections_audit"
}

// ToDomain converts the persistence model to a domain CorrectionAudit
func (m *CorrectionAuditModel) ToDomain() *audit.CorrectionAudit {
	return audit.Restore(m.ID, m.TenantID, m.StudentID, m.StudentFeeID, m.Action, m.Reason,
		json.RawMessage(m.BeforeData), json.RawMessage(m.AfterData),
		audit.Actor{ID: m.ActorID, Role: m.ActorRole, SourceScreen: m.SourceScreen},
		m.CreatedAt)
}

// CorrectionAuditModelFromDomain creates a new persistence model from a domain CorrectionAudit
func CorrectionAuditModelFromDomain(a *audit.CorrectionAudit) *CorrectionAuditModel {
	return &CorrectionAuditModel{
		ID:           a.ID(),
		TenantID:     a.OrgID(),
		StudentID:    a.StudentID(),
		StudentFeeID: a.FeeID(),
		Action:       a.Action(),
		Reason:       a.Reason(),
		BeforeData:   datatypes.JSON(a.Before()),
		AfterData:    datatypes.JSON(a.After()),
		ActorID:      a.ActorID(),
		ActorRole:    a.ActorRole(),
		SourceScreen: a.SourceScreen(),
		CreatedAt:    a.CreatedAt(),
	}
}
