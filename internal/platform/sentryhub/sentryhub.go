package sentryhub

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/getsentry/sentry-go"
)

// Init configures the process-wide Sentry client. With an empty DSN,
// sentry-go runs as a no-op and every Capture call below is a cheap
// dead end, so callers never need to branch on whether Sentry is
// configured.
func Init(cfg config.SentryConfig) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	})
}

// Flush blocks until queued events are sent or the timeout elapses.
// Call on process shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Guard wraps one scheduler job tick with a panic/error boundary: a
// panic is recovered, reported, and returned as an error instead of
// crashing the worker process, and a returned error is reported before
// being handed back to the caller to log and convert into a
// notification row.
func Guard(ctx context.Context, jobName string, log *logger.Logger, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("job", jobName)
				sentry.CurrentHub().Recover(r)
			})
			if log != nil {
				log.WithAction(jobName).Error("job panicked")
			}
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	err = fn(ctx)
	if err != nil {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("job", jobName)
			sentry.CaptureException(err)
		})
	}
	return err
}
