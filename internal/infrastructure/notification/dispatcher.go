package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var defaultSubjects = map[string]string{
	notification.EventFeePaid:         "Payment received",
	notification.EventStudentRemoved:  "Student record removed",
	notification.EventAdmissionResult: "Admission update",
}

var htmlBody = template.Must(template.New("email").Parse(
	`<!DOCTYPE html><html><body style="font-family:Helvetica,Arial,sans-serif">` +
		`<h2>{{.Title}}</h2><p>{{.Body}}</p></body></html>`))

// Dispatcher implements notification.Dispatcher. A payload with a recipient
// email goes to the mailer; one with user ids is stored as in-app
// notifications. Both channels are attempted and their errors joined.
type Dispatcher struct {
	mailer  Mailer
	inApp   notification.InAppRepository
	metrics *telemetry.FeeMetrics
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(mailer Mailer, inApp notification.InAppRepository, metrics *telemetry.FeeMetrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{mailer: mailer, inApp: inApp, metrics: metrics, logger: logger}
}

// Dispatch delivers p
func (d *Dispatcher) Dispatch(ctx context.Context, p notification.Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var errs []error
	if p.RecipientEmail != "" {
		if err := d.sendEmail(ctx, p); err != nil {
			d.failed(ctx, "email", p, err)
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	if len(p.UserIDs) > 0 {
		if err := d.storeInApp(ctx, p); err != nil {
			d.failed(ctx, "in_app", p, err)
			errs = append(errs, fmt.Errorf("in-app: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) sendEmail(ctx context.Context, p notification.Payload) error {
	if d.mailer == nil {
		return errors.New("no mailer configured")
	}
	subject := p.Template.Title
	if subject == "" {
		subject = defaultSubjects[p.EventType]
	}
	if subject == "" {
		subject = "Notification"
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, struct{ Title, Body string }{subject, p.Template.Body}); err != nil {
		return err
	}
	return d.mailer.Send(ctx, Email{
		To:      p.RecipientEmail,
		Subject: subject,
		Text:    p.Template.Body,
		HTML:    html.String(),
	})
}

func (d *Dispatcher) storeInApp(ctx context.Context, p notification.Payload) error {
	if d.inApp == nil {
		return errors.New("no in-app store configured")
	}
	items := make([]*notification.InApp, 0, len(p.UserIDs))
	for _, id := range p.UserIDs {
		items = append(items, notification.NewInApp(p, id))
	}
	return d.inApp.CreateBatch(ctx, items)
}

func (d *Dispatcher) failed(ctx context.Context, channel string, p notification.Payload, err error) {
	d.logger.Warn("notification delivery failed",
		zap.String("channel", channel),
		zap.String("event_type", p.EventType),
		zap.Error(err),
	)
	d.metrics.RecordSideEffectFailure(ctx, "notification_"+channel)
}

var _ notification.Dispatcher = (*Dispatcher)(nil)
