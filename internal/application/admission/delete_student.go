package admission

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Saga step names, in execution order
const (
	StepRecordTrialUsage  = "record_trial_usage"
	StepDeleteRequests    = "delete_admission_requests"
	StepDeleteStudent     = "delete_student"
	StepInAppNotification = "in_app_notification"
	StepGuardianEmail     = "guardian_email"
)

var (
	ErrMissingStudentName = shared.NewValidationError("MISSING_STUDENT_NAME", "Student name is required")
	ErrMissingEmail       = shared.NewValidationError("MISSING_GUARDIAN_EMAIL", "Guardian email is required")
)

// SagaStep is the outcome of one removal step
type SagaStep struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SagaReport collects every step of a student removal. Steps do not roll
// each other back.
type SagaReport struct {
	StudentID   uuid.UUID  `json:"student_id"`
	StudentName string     `json:"student_name"`
	Steps       []SagaStep `json:"steps"`
}

// Failed returns the steps that did not complete
func (r *SagaReport) Failed() []SagaStep {
	var failed []SagaStep
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped {
			failed = append(failed, s)
		}
	}
	return failed
}

// Succeeded reports whether every step completed or was skipped
func (r *SagaReport) Succeeded() bool {
	return len(r.Failed()) == 0
}

func (r *SagaReport) record(name string, detail string, err error) {
	step := SagaStep{Name: name, OK: err == nil, Detail: detail}
	if err != nil {
		step.Error = err.Error()
	}
	r.Steps = append(r.Steps, step)
}

func (r *SagaReport) skip(name, detail string) {
	r.Steps = append(r.Steps, SagaStep{Name: name, Skipped: true, Detail: detail})
}

// DeleteApprovedStudent removes an approved student located by name.
//
// The lookup must resolve to exactly one student; anything else fails
// before a single step runs. The steps then run one after another and each
// failure is recorded without stopping the rest.
func (s *BridgeService) DeleteApprovedStudent(ctx context.Context, actor appaudit.Actor, studentName, guardianEmail string) (*SagaReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admission_bridge", "delete_approved_student")
	defer span.End()

	name := strings.TrimSpace(studentName)
	email := strings.ToLower(strings.TrimSpace(guardianEmail))
	if name == "" {
		return nil, ErrMissingStudentName
	}
	if email == "" {
		return nil, ErrMissingEmail
	}

	st, err := s.locateStudent(ctx, actor.OrgID, name, email)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, st.ID.String())

	report := &SagaReport{StudentID: st.ID, StudentName: st.FullName()}

	report.record(StepRecordTrialUsage, "", s.trials.RecordUsage(ctx, actor.OrgID, email))

	deleted, err := s.admissions.DeleteByGuardianEmail(ctx, actor.OrgID, email)
	report.record(StepDeleteRequests, fmt.Sprintf("%d removed", deleted), err)

	report.record(StepDeleteStudent, "", s.students.HardDelete(ctx, actor.OrgID, st.ID))

	template := notification.Template{
		Title: "Enrollment ended",
		Body:  fmt.Sprintf("%s has been removed from the school register.", st.FullName()),
		Data:  map[string]any{"student_id": st.ID.String()},
	}
	if st.ParentID != nil {
		report.record(StepInAppNotification, "", s.dispatcher.Dispatch(ctx, notification.Payload{
			EventType: notification.EventStudentRemoved,
			OrgID:     actor.OrgID,
			UserIDs:   []uuid.UUID{*st.ParentID},
			Template:  template,
		}))
	} else {
		report.skip(StepInAppNotification, "no parent account")
	}

	report.record(StepGuardianEmail, "", s.dispatcher.Dispatch(ctx, notification.Payload{
		EventType:      notification.EventStudentRemoved,
		OrgID:          actor.OrgID,
		RecipientEmail: email,
		Template:       template,
	}))

	for _, step := range report.Failed() {
		s.metrics.RecordSideEffectFailure(ctx, step.Name)
		s.logger.Warn("student removal step failed",
			zap.String("student_id", st.ID.String()),
			zap.String("step", step.Name),
			zap.String("error", step.Error),
		)
	}
	telemetry.SetAttributes(span, "failed_steps", len(report.Failed()))
	return report, nil
}

// locateStudent resolves name to one student. An exact full-name match is
// preferred over partial matches, and a student whose guardian email is on
// file must match email.
func (s *BridgeService) locateStudent(ctx context.Context, orgID uuid.UUID, name, email string) (*student.Student, error) {
	found, err := s.students.SearchByName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}

	candidates := make([]student.Student, 0, len(found))
	for _, c := range found {
		if c.GuardianEmail != "" && !strings.EqualFold(strings.TrimSpace(c.GuardianEmail), email) {
			continue
		}
		candidates = append(candidates, c)
	}

	var exact []student.Student
	for _, c := range candidates {
		if strings.EqualFold(c.FullName(), name) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		candidates = exact
	}

	switch len(candidates) {
	case 0:
		return nil, student.ErrStudentNotFound
	case 1:
		return &candidates[0], nil
	}
	return nil, student.ErrAmbiguousStudent
}
