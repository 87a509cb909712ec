package notification

import (
	"context"

	"go.uber.org/zap"
)

// Mailer is the delivery boundary the consumer hands events to. The real
// SMTP integration lives outside this service; LogMailer stands in for it.
type Mailer interface {
	Send(ctx context.Context, recipientID, subject, body string) error
}

type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger ...*zap.Logger) *LogMailer {
	l := zap.L().Named("notification.mailer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.mailer")
	}
	return &LogMailer{logger: l}
}

func (m *LogMailer) Send(_ context.Context, recipientID, subject, body string) error {
	m.logger.Info("mail sent",
		zap.String("recipient_id", recipientID),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
