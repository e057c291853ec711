// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// GlobalLogger receives entity and audit records. It writes JSON so audit
// lines can be shipped separately from request logs.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetGlobalLogger replaces GlobalLogger. A nil logger is ignored.
func SetGlobalLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// LoggingConfig toggles the automated log streams.
type LoggingConfig struct {
	EnableEntityLogging bool
	EnableAuditLogging  bool
}

// Config holds the current logging configuration.
var Config = LoggingConfig{
	EnableEntityLogging: true,
	EnableAuditLogging:  true,
}

type correlationKey struct{}

// WithCorrelationID returns a context carrying a request or job correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// EntityLogger records lifecycle changes to rows of one table.
type EntityLogger struct {
	table string
}

// ForTable returns an EntityLogger for table.
func ForTable(table string) EntityLogger {
	return EntityLogger{table: table}
}

func (l EntityLogger) emit(ctx context.Context, level slog.Level, event string, id uint, attrs []slog.Attr) {
	if !Config.EnableEntityLogging {
		return
	}
	base := []slog.Attr{
		slog.String("table", l.table),
		slog.String("event", event),
		slog.Uint64("id", uint64(id)),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	GlobalLogger.LogAttrs(ctx, level, "entity "+event, append(base, attrs...)...)
}

// Deleted records a hard delete of row id, including anything it cascaded to.
func (l EntityLogger) Deleted(ctx context.Context, id uint, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelInfo, "deleted", id, attrs)
}

// Restored records that row id was un-deleted.
func (l EntityLogger) Restored(ctx context.Context, id uint, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelInfo, "restored", id, attrs)
}

// LogAdminAction records an administrative action taken by actorID.
func LogAdminAction(ctx context.Context, action string, actorID uint, attrs ...slog.Attr) {
	if !Config.EnableAuditLogging {
		return
	}
	base := []slog.Attr{
		slog.String("action", action),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	GlobalLogger.LogAttrs(ctx, slog.LevelInfo, "admin action", append(base, attrs...)...)
}
