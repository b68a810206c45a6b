package admission

import (
	"context"
	"fmt"

	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DecisionNotificationHandler emails the guardian when a request is decided
type DecisionNotificationHandler struct {
	dispatcher notification.Dispatcher
	logger     *zap.Logger
}

// NewDecisionNotificationHandler creates a DecisionNotificationHandler
func NewDecisionNotificationHandler(dispatcher notification.Dispatcher, logger *zap.Logger) *DecisionNotificationHandler {
	return &DecisionNotificationHandler{dispatcher: dispatcher, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DecisionNotificationHandler) EventTypes() []string {
	return []string{admission.EventTypeAdmissionDecided}
}

// Handle processes an AdmissionDecidedEvent
func (h *DecisionNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	decided, ok := event.(*admission.AdmissionDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", admission.EventTypeAdmissionDecided, event.EventType())
	}
	if decided.GuardianEmail == "" {
		h.logger.Debug("admission decision without guardian email",
			zap.String("request_id", decided.RequestID.String()))
		return nil
	}

	tpl := notification.Template{
		Title: "Admission approved",
		Body:  fmt.Sprintf("Dear %s, the application for %s has been approved.", decided.GuardianName, decided.ChildName),
		Data: map[string]any{
			"request_id": decided.RequestID.String(),
			"decision":   string(decided.Decision),
		},
	}
	if decided.Decision == admission.StatusRejected {
		tpl.Title = "Admission update"
		tpl.Body = fmt.Sprintf("Dear %s, the application for %s was not accepted.", decided.GuardianName, decided.ChildName)
		if decided.Reason != "" {
			tpl.Body += " Reason: " + decided.Reason
		}
	}

	return h.dispatcher.Dispatch(ctx, notification.Payload{
		EventType:      notification.EventAdmissionResult,
		OrgID:          decided.OrgID(),
		RecipientEmail: decided.GuardianEmail,
		Template:       tpl,
	})
}
