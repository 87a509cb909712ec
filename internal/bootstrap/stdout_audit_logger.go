package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes audit entries through the process logger. Good
// enough for log-shipping setups; a database sink can replace it behind the
// same interface.
type StdoutAuditLogger struct {
	logger *zap.Logger
}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{logger: zap.L().Named("audit")}
}

func (l *StdoutAuditLogger) Log(_ context.Context, entry AuditLog) {
	l.logger.Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("actor", entry.Actor),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}
