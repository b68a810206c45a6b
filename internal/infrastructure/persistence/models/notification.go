package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/notification"
	"gorm.io/datatypes"
)

// InAppNotificationModel is one in-app notification for one user
type InAppNotificationModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_in_app_user,priority:1"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_in_app_user,priority:2"`
	EventType string            `gorm:"type:varchar(50);not null"`
	Title     string            `gorm:"type:varchar(200);not null"`
	Body      string            `gorm:"type:text"`
	Data      datatypes.JSONMap `gorm:"type:jsonb"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"not null;index:idx_in_app_user,priority:3,sort:desc"`
}

// TableName returns the table name for GORM
func (InAppNotificationModel) TableName() string {
	return "in_app_notifications"
}

// ToDomain converts the persistence model to a domain InApp notification
func (m *InAppNotificationModel) ToDomain() *notification.InApp {
	return &notification.InApp{
		ID:        m.ID,
		OrgID:     m.TenantID,
		UserID:    m.UserID,
		EventType: m.EventType,
		Title:     m.Title,
		Body:      m.Body,
		Data:      map[string]any(m.Data),
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

// InAppNotificationModelFromDomain creates a new persistence model from a domain InApp notification
func InAppNotificationModelFromDomain(n *notification.InApp) *InAppNotificationModel {
	return &InAppNotificationModel{
		ID:        n.ID,
		TenantID:  n.OrgID,
		UserID:    n.UserID,
		EventType: n.EventType,
		Title:     n.Title,
		Body:      n.Body,
		Data:      datatypes.JSONMap(n.Data),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// AllModels lists every model in migration order. Used by tests that
// AutoMigrate an in-memory database.
func AllModels() []any {
	return []any{
		&StudentModel{},
		&FeeStructureModel{},
		&SchoolFeeStructureModel{},
		&StudentFeeModel{},
		&PaymentModel{},
		&FinancialTransactionModel{},
		&FamilyCreditModel{},
		&CorrectionAuditModel{},
		&RegistrationRequestModel{},
		&ChildRegistrationRequestModel{},
		&TrialUsageModel{},
		&InAppNotificationModel{},
	}
}
