// Package audit holds the append-only correction audit trail.
package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
)

// Action names the ledger-affecting operation being recorded
type Action string

const (
	ActionWaive              Action = "waive"
	ActionAdjust             Action = "adjust"
	ActionDelete             Action = "delete"
	ActionMarkPaid           Action = "mark_paid"
	ActionMarkUnpaid         Action = "mark_unpaid"
	ActionChangeClass        Action = "change_class"
	ActionTuitionSync        Action = "tuition_sync"
	ActionRegistrationPaid   Action = "registration_paid"
	ActionRegistrationUnpaid Action = "registration_unpaid"
	ActionRecomputeBalances  Action = "recompute_balances"
	// ActionDueDate is recorded for due-date edits
	ActionDueDate Action = "adjust_due_date"
)

// IsValid checks if the action is a known Action
func (a Action) IsValid() bool {
	switch a {
	case ActionWaive, ActionAdjust, ActionDelete, ActionMarkPaid, ActionMarkUnpaid,
		ActionChangeClass, ActionTuitionSync, ActionRegistrationPaid,
		ActionRegistrationUnpaid, ActionRecomputeBalances, ActionDueDate:
		return true
	}
	return false
}

var (
	ErrMissingOrganization = shared.NewValidationError("MISSING_ORGANIZATION", "Organization is required for audit entries")
	ErrMissingReason       = shared.NewValidationError("MISSING_REASON", "A reason is required for fee corrections")
	ErrInvalidAction       = shared.NewValidationError("INVALID_AUDIT_ACTION", "Unknown audit action")
)

// Actor identifies who performed a correction and from where
type Actor struct {
	ID           *uuid.UUID
	Role         string
	SourceScreen string
}

// Input is everything needed to record one correction
type Input struct {
	OrgID     uuid.UUID
	StudentID uuid.UUID
	FeeID     *uuid.UUID
	Action    Action
	Reason    string
	Before    map[string]any
	After     map[string]any
	Actor     Actor
}

// Validate checks the preconditions that must hold before any write
func (in Input) Validate() error {
	if in.OrgID == uuid.Nil {
		return ErrMissingOrganization
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrMissingReason
	}
	if !in.Action.IsValid() {
		return ErrInvalidAction
	}
	return nil
}

// CorrectionAudit is one immutable audit row. Fields are unexported and the
// type has no mutators; rows are only ever created and read.
type CorrectionAudit struct {
	id           uuid.UUID
	orgID        uuid.UUID
	studentID    uuid.UUID
	feeID        *uuid.UUID
	action       Action
	reason       string
	before       json.RawMessage
	after        json.RawMessage
	actorID      *uuid.UUID
	actorRole    string
	sourceScreen string
	createdAt    time.Time
}

// NewCorrectionAudit validates in and builds the audit row
func NewCorrectionAudit(in Input) (*CorrectionAudit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	before, err := marshalSnapshot(in.Before)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_SNAPSHOT", "Audit snapshot is not serializable")
	}
	after, err := marshalSnapshot(in.After)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_SNAPSHOT", "Audit snapshot is not serializable")
	}
	return &CorrectionAudit{
		id:           uuid.New(),
		orgID:        in.OrgID,
		studentID:    in.StudentID,
		feeID:        in.FeeID,
		action:       in.Action,
		reason:       strings.TrimSpace(in.Reason),
		before:       before,
		after:        after,
		actorID:      in.Actor.ID,
		actorRole:    in.Actor.Role,
		sourceScreen: in.Actor.SourceScreen,
		createdAt:    time.Now(),
	}, nil
}

// Restore rebuilds an audit row read from storage
func Restore(id, orgID, studentID uuid.UUID, feeID *uuid.UUID, action Action, reason string,
	before, after json.RawMessage, actor Actor, createdAt time.Time) *CorrectionAudit {
	return &CorrectionAudit{
		id:           id,
		orgID:        orgID,
		studentID:    studentID,
		feeID:        feeID,
		action:       action,
		reason:       reason,
		before:       before,
		after:        after,
		actorID:      actor.ID,
		actorRole:    actor.Role,
		sourceScreen: actor.SourceScreen,
		createdAt:    createdAt,
	}
}

func marshalSnapshot(snap map[string]any) (json.RawMessage, error) {
	if snap == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(snap)
}

func (a *CorrectionAudit) ID() uuid.UUID           { return a.id }
func (a *CorrectionAudit) OrgID() uuid.UUID        { return a.orgID }
func (a *CorrectionAudit) StudentID() uuid.UUID    { return a.studentID }
func (a *CorrectionAudit) FeeID() *uuid.UUID       { return a.feeID }
func (a *CorrectionAudit) Action() Action          { return a.action }
func (a *CorrectionAudit) Reason() string          { return a.reason }
func (a *CorrectionAudit) CreatedAt() time.Time    { return a.createdAt }
func (a *CorrectionAudit) ActorID() *uuid.UUID     { return a.actorID }
func (a *CorrectionAudit) ActorRole() string       { return a.actorRole }
func (a *CorrectionAudit) SourceScreen() string    { return a.sourceScreen }
func (a *CorrectionAudit) Before() json.RawMessage { return append(json.RawMessage(nil), a.before...) }
func (a *CorrectionAudit) After() json.RawMessage  { return append(json.RawMessage(nil), a.after...) }
