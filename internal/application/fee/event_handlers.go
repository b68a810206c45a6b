package fee

import (
	"context"
	"fmt"

	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"go.uber.org/zap"
)

// ReceiptHandler generates a receipt for a paid fee and stores its pointer
// on the payment row.
type ReceiptHandler struct {
	students  student.Repository
	payments  fee.PaymentRepository
	generator ReceiptGenerator
	logger    *zap.Logger
}

// NewReceiptHandler creates a ReceiptHandler
func NewReceiptHandler(
	students student.Repository,
	payments fee.PaymentRepository,
	generator ReceiptGenerator,
	logger *zap.Logger,
) *ReceiptHandler {
	return &ReceiptHandler{students: students, payments: payments, generator: generator, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptHandler) EventTypes() []string {
	return []string{fee.EventTypeFeeMarkedPaid}
}

// Handle processes a FeeMarkedPaidEvent
func (h *ReceiptHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*fee.FeeMarkedPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", fee.EventTypeFeeMarkedPaid, event.EventType())
	}

	name := ""
	if st, err := h.students.FindByIDForOrg(ctx, paid.OrgID(), paid.StudentID); err == nil && st != nil {
		name = st.FullName()
	}

	artifact, err := h.generator.Generate(ctx, ReceiptRequest{
		OrgID:       paid.OrgID(),
		StudentID:   paid.StudentID,
		StudentName: name,
		FeeID:       paid.FeeID,
		Reference:   paid.PaymentReference,
		Description: paid.Description,
		Amount:      paid.Amount,
		DueDate:     paid.DueDate,
		PaidDate:    paid.PaidDate,
	})
	if err != nil {
		h.logger.Warn("receipt generation failed",
			zap.String("fee_id", paid.FeeID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := h.payments.AttachReceipt(ctx, paid.OrgID(), paid.PaymentReference, artifact.URL, artifact.StoragePath); err != nil {
		h.logger.Warn("failed to attach receipt to payment",
			zap.String("reference", paid.PaymentReference),
			zap.Error(err),
		)
		return err
	}
	h.logger.Info("receipt stored",
		zap.String("reference", paid.PaymentReference),
		zap.String("storage_path", artifact.StoragePath),
	)
	return nil
}

// PaymentNotificationHandler tells the guardian a fee was marked paid
type PaymentNotificationHandler struct {
	students   student.Repository
	dispatcher notification.Dispatcher
	logger     *zap.Logger
}

// NewPaymentNotificationHandler creates a PaymentNotificationHandler
func NewPaymentNotificationHandler(students student.Repository, dispatcher notification.Dispatcher, logger *zap.Logger) *PaymentNotificationHandler {
	return &PaymentNotificationHandler{students: students, dispatcher: dispatcher, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentNotificationHandler) EventTypes() []string {
	return []string{fee.EventTypeFeeMarkedPaid}
}

// Handle processes a FeeMarkedPaidEvent. Students without a guardian email
// are skipped.
func (h *PaymentNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*fee.FeeMarkedPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", fee.EventTypeFeeMarkedPaid, event.EventType())
	}

	st, err := h.students.FindByIDForOrg(ctx, paid.OrgID(), paid.StudentID)
	if err != nil {
		return err
	}
	if st == nil || st.GuardianEmail == "" {
		h.logger.Debug("no guardian email, skipping payment notification",
			zap.String("student_id", paid.StudentID.String()))
		return nil
	}

	return h.dispatcher.Dispatch(ctx, notification.Payload{
		EventType:      notification.EventFeePaid,
		OrgID:          paid.OrgID(),
		RecipientEmail: st.GuardianEmail,
		Template: notification.Template{
			Title: "Payment received",
			Body: fmt.Sprintf("We received %s for %s (%s).",
				paid.Amount.StringFixed(2), st.FullName(), paid.Description),
			Data: map[string]any{
				"fee_id":    paid.FeeID.String(),
				"reference": paid.PaymentReference,
				"paid_date": paid.PaidDate.Format("2006-01-02"),
			},
		},
	})
}
