package admission

import (
	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
)

// EventTypeAdmissionDecided is published on approval and rejection
const EventTypeAdmissionDecided = "AdmissionDecided"

// AdmissionDecidedEvent carries what the guardian notification needs
type AdmissionDecidedEvent struct {
	shared.BaseDomainEvent
	RequestID     uuid.UUID `json:"request_id"`
	Decision      Status    `json:"decision"`
	ChildName     string    `json:"child_name"`
	GuardianName  string    `json:"guardian_name"`
	GuardianEmail string    `json:"guardian_email"`
	Reason        string    `json:"reason,omitempty"`
}

// NewAdmissionDecidedEvent creates an AdmissionDecidedEvent
func NewAdmissionDecidedEvent(r *Request) *AdmissionDecidedEvent {
	return &AdmissionDecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdmissionDecided, "AdmissionRequest", r.ID, r.OrgID),
		RequestID:       r.ID,
		Decision:        r.Status,
		ChildName:       r.ChildName(),
		GuardianName:    r.GuardianName,
		GuardianEmail:   r.GuardianEmail,
		Reason:          r.RejectionReason,
	}
}
