package shared

import (
	"context"
	"log/slog"
)

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, detail string) error
}

// RecordAudit writes an audit entry after a successful mutation. A failed
// write is logged and never reaches the client.
func RecordAudit(ctx context.Context, recorder AuditRecorder, actorID, action, detail string) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, actorID, action, detail); err != nil {
		slog.Warn("audit record failed", "action", action, "actorId", actorID, "err", err)
	}
}
