package submit

import (
	"context"
	"log/slog"
	"time"

	"quizflow-backend/services/quiz/browser"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// newBackoff produces the 2^attempt-second schedule: 2s, 4s, 8s, ...
func newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 5 * time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// for tests
var backoffFactory = newBackoff

// SubmitWithRetry repeats Submit until a recognized success signal
// appears, up to maxAttempts. Any error or missing signal triggers
// another attempt after an exponential delay. Exhaustion yields a
// terminal failure result, never an error.
func (a *Adapter) SubmitWithRetry(ctx context.Context, session *browser.Session, url string, answers map[string]any, maxAttempts int) Result {
	ctx, span := tracer.Start(ctx, "SubmitWithRetry")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", url),
		attribute.Int("max_attempts", maxAttempts),
	)

	if maxAttempts < 1 {
		maxAttempts = 1
	}
	schedule := backoffFactory()

	var last Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = a.Submit(ctx, session, url, answers)
		last.Attempts = attempt
		if last.Err == nil && last.Success {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return last
		}

		slog.WarnContext(ctx, "submission attempt failed",
			"attempt", attempt, "max_attempts", maxAttempts, "err", last.Err)
		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(schedule.NextBackOff()):
		case <-ctx.Done():
			last.Err = ctx.Err()
			span.SetStatus(codes.Error, last.Err.Error())
			return last
		}
	}

	last.Success = false
	if last.Err == nil {
		last.Err = SubmissionFailed
	}
	span.SetStatus(codes.Error, last.Err.Error())
	return last
}
