// Package notification delivers guardian emails and in-app notifications.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/schoolfees/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned for an email without a To address
var ErrNoRecipient = errors.New("email needs a recipient")

// Email is one outbound message
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a single email
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes emails to the log instead of sending them. It is the
// development default.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses the context logger.
func NewLogMailer(l *zap.Logger) *LogMailer {
	return &LogMailer{logger: l}
}

// Send logs the email
func (m *LogMailer) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return ErrNoRecipient
	}
	l := m.logger
	if l == nil {
		l = logger.L(ctx)
	}
	l.Info("email (log provider)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("text_len", len(e.Text)),
	)
	return nil
}
