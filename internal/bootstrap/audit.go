package bootstrap

import "context"

// AuditLog is one trail entry. Authorization decisions and server lifecycle
// events both flow through it.
type AuditLog struct {
	Action  string
	Actor   string
	Message string
	Meta    map[string]any
}

// AuditLogger is a best-effort sink: implementations must not return errors
// and must never block the caller's decision path.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
