package notification

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridMailer sends email through the SendGrid v3 API
type SendGridMailer struct {
	key    string
	host   string
	from   *sgmail.Email
	logger *zap.Logger
}

// SendGridOption configures a SendGridMailer
type SendGridOption func(*SendGridMailer)

// WithSendGridHost points the mailer at another API host
func WithSendGridHost(host string) SendGridOption {
	return func(m *SendGridMailer) {
		m.host = strings.TrimRight(host, "/")
	}
}

// NewSendGridMailer creates a mailer sending as fromName <fromAddress>
func NewSendGridMailer(apiKey, fromName, fromAddress string, logger *zap.Logger, opts ...SendGridOption) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SendGridMailer{
		key:    apiKey,
		host:   sendGridHost,
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SendGridMailer) prepare(e Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = e.Subject
	p.AddTos(sgmail.NewEmail("", e.To))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", e.Text))
	if e.HTML != "" {
		msg.AddContent(sgmail.NewContent("text/html", e.HTML))
	}
	return msg
}

// Send posts the email. A 4xx or 5xx response is an error.
func (m *SendGridMailer) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(m.key, sendGridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(e))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", res.StatusCode, res.Body)
	}
	m.logger.Debug("email sent", zap.String("to", e.To), zap.Int("status", res.StatusCode))
	return nil
}
