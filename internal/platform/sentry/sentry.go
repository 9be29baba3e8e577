package sentry

import (
	"fmt"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/getsentry/sentry-go"
)

// Init wires the process-wide Sentry client. A blank DSN disables
// reporting without the caller having to branch on it (Capture and
// Flush become no-ops through the sentry-go SDK itself).
func Init(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	})
}

// CaptureFatal reports a batch-aborting error — configuration, missing
// master row, or hard-deadline exceedance (§7) — tagged with the stage
// it aborted in.
func CaptureFatal(batchID, stage string, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("batch_id", batchID)
		scope.SetTag("stage", stage)
		sentry.CaptureException(err)
	})
}

// Flush blocks until pending events are sent or the timeout elapses,
// called once before process exit so a crash's report isn't dropped.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// WrapStage returns err decorated with the failing stage, for callers
// that want a single formatted error without reaching for CaptureFatal
// directly (e.g. a stage invoked outside the main batch, like a manual
// re-run of just the Scorer).
func WrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", stage, err)
}
