// Package notification defines the outbound notification contract. Delivery
// mechanics live in infrastructure.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
)

// Event types carried in Payload.EventType
const (
	EventFeePaid         = "fee_paid"
	EventStudentRemoved  = "student_removed"
	EventAdmissionResult = "admission_decided"
)

var ErrNoRecipient = shared.NewValidationError("NO_RECIPIENT", "Notification needs a recipient email or user ids")

// Template overrides the default message for an event type
type Template struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Payload is one notification request. Exactly one of RecipientEmail or
// UserIDs is normally set; both may be set to reach both channels.
type Payload struct {
	EventType      string      `json:"eventType"`
	OrgID          uuid.UUID   `json:"orgId"`
	RecipientEmail string      `json:"recipientEmail,omitempty"`
	UserIDs        []uuid.UUID `json:"userIds,omitempty"`
	Template       Template    `json:"templateOverride"`
}

// Validate checks that the payload can be delivered somewhere
func (p Payload) Validate() error {
	if strings.TrimSpace(p.RecipientEmail) == "" && len(p.UserIDs) == 0 {
		return ErrNoRecipient
	}
	return nil
}

// Dispatcher delivers a payload. Callers treat failures as best-effort.
type Dispatcher interface {
	Dispatch(ctx context.Context, p Payload) error
}

// InApp is a notification shown inside the school app
type InApp struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	UserID    uuid.UUID
	EventType string
	Title     string
	Body      string
	Data      map[string]any
	ReadAt    *time.Time
	CreatedAt time.Time
}

// NewInApp builds one in-app notification per user
func NewInApp(p Payload, userID uuid.UUID) *InApp {
	return &InApp{
		ID:        uuid.New(),
		OrgID:     p.OrgID,
		UserID:    userID,
		EventType: p.EventType,
		Title:     p.Template.Title,
		Body:      p.Template.Body,
		Data:      p.Template.Data,
		CreatedAt: time.Now(),
	}
}

// InAppRepository stores in-app notifications
type InAppRepository interface {
	CreateBatch(ctx context.Context, items []*InApp) error
	ListForUser(ctx context.Context, orgID, userID uuid.UUID, opts shared.ListOptions) ([]*InApp, error)
}
