// Package orphan reports responses the dispatcher could not correlate to a
// pending operation: ones that arrived after their deadline was reaped, or
// whose opaque was never issued by this process. Every Reporter is a thin
// sink over memdx.OrphanContext; the default sink is the structured logger,
// matching the log-first, store-optional posture of the control plane's own
// event reporting.
package orphan

import (
	"log/slog"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

// Reporter receives orphaned responses. Implementations must not block the
// dispatcher's read loop; slow sinks should buffer internally.
type Reporter interface {
	Report(ctx memdx.OrphanContext)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(ctx memdx.OrphanContext)

func (f ReporterFunc) Report(ctx memdx.OrphanContext) { f(ctx) }

// LogSink reports orphans as structured log records. It is the default
// Reporter; nothing else needs to be configured for orphan visibility.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a LogSink. A nil logger falls back to slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(ctx memdx.OrphanContext) {
	s.logger.Warn("orphaned response",
		slog.String("conn_id", ctx.ConnID),
		slog.String("op_code", ctx.OpCode.String()),
		slog.Uint64("opaque", uint64(ctx.Opaque)),
		slog.String("local_addr", ctx.LocalAddr),
		slog.String("peer_addr", ctx.PeerAddr),
		slog.Duration("server_duration", ctx.ServerDuration),
	)
}

// MultiSink fans one orphan out to every configured Reporter. Handy for
// running the log sink and a durable sink side by side.
type MultiSink []Reporter

func (m MultiSink) Report(ctx memdx.OrphanContext) {
	for _, s := range m {
		s.Report(ctx)
	}
}

// Handler adapts a Reporter into the memdx.OrphanHandler callback shape a
// Dispatcher expects.
func Handler(r Reporter) memdx.OrphanHandler {
	if r == nil {
		return nil
	}
	return func(oc memdx.OrphanContext) {
		r.Report(oc)
	}
}
