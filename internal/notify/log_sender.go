package notify

import (
	"context"

	"github.com/dtroode/auth-server/internal/logger"
)

// LogSender writes messages to the application log instead of sending mail.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "Notifier: email",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
		"link", msg.Link)
	return nil
}
