package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quizflow-backend/services/quiz/browser"
	"quizflow-backend/services/quiz/extract"
	"quizflow-backend/services/quiz/submit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("quizflow.services.quiz")

var TimeoutBeforeSubmission = fmt.Errorf("timed out before submission could start")

// submission is never attempted with less than this much budget left
const submissionReserve = 10 * time.Second

type Phase string

const (
	PhaseFetching   Phase = "fetching"
	PhaseSolving    Phase = "solving"
	PhaseSubmitting Phase = "submitting"
	PhaseDone       Phase = "done"
	PhaseTimedOut   Phase = "timed_out"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

type Credentials struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type Options struct {
	URL          string
	Credentials  Credentials
	Deadline     time.Duration
	Headless     bool
	MaxRetries   int
	WaitSelector string
}

// Outcome is the value reported at the orchestrator boundary. Total
// failure is still an Outcome, never a raw error.
type Outcome struct {
	Status        Status
	Phase         Phase
	Questions     []extract.Question
	Instructions  []extract.Instruction
	Submission    *submit.Result
	TimeRemaining time.Duration
	Err           error
}

// Submitter is the slice of the submission adapter the orchestrator
// depends on.
type Submitter interface {
	SubmitWithRetry(ctx context.Context, session *browser.Session, url string, answers map[string]any, maxAttempts int) submit.Result
}

// Orchestrator sequences fetch, solve and submit within one
// wall-clock budget, degrading gracefully when time runs out.
type Orchestrator struct {
	browserConfig browser.Config
	strategy      AnswerStrategy
	submitter     Submitter

	// fetch is replaceable in tests so the state machine can run
	// without a real browser
	fetch func(ctx context.Context, opts Options) (*browser.Session, browser.RawPage, error)
}

func NewOrchestrator(config browser.Config, strategy AnswerStrategy, submitter Submitter) *Orchestrator {
	o := &Orchestrator{
		browserConfig: config,
		strategy:      strategy,
		submitter:     submitter,
	}
	o.fetch = o.fetchPage
	return o
}

func (o *Orchestrator) fetchPage(ctx context.Context, opts Options) (*browser.Session, browser.RawPage, error) {
	config := o.browserConfig
	config.Headless = opts.Headless

	session, err := browser.Acquire(ctx, config)
	if err != nil {
		return nil, browser.RawPage{}, err
	}
	page, err := session.Navigate(ctx, opts.URL, opts.WaitSelector, 0)
	if err != nil {
		session.Release()
		return nil, browser.RawPage{}, err
	}
	return session, page, nil
}

// SolveAndSubmit runs the full pipeline for one quiz url. The session
// is released on every exit path.
func (o *Orchestrator) SolveAndSubmit(ctx context.Context, opts Options) Outcome {
	ctx, span := tracer.Start(ctx, "SolveAndSubmit")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", opts.URL),
		attribute.Float64("deadline_seconds", opts.Deadline.Seconds()),
	)

	deadline := time.Now().Add(opts.Deadline)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	remaining := func() time.Duration {
		r := time.Until(deadline)
		if r < 0 {
			return 0
		}
		return r
	}

	slog.InfoContext(ctx, "quiz run starting", "url", opts.URL, "phase", PhaseFetching)
	session, page, err := o.fetch(ctx, opts)
	if session != nil {
		defer session.Release()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{
			Status:        statusForError(err),
			Phase:         phaseForError(err),
			TimeRemaining: remaining(),
			Err:           err,
		}
	}

	slog.InfoContext(ctx, "quiz page fetched", "phase", PhaseSolving, "remaining", remaining())
	instructions := extract.Classify(ctx, page.VisibleText)
	questions := extract.DetectQuestions(ctx, page)
	span.SetAttributes(
		attribute.Int("questions", len(questions)),
		attribute.Int("instructions", len(instructions)),
	)

	answered := o.solve(ctx, questions)
	if ctx.Err() != nil {
		err := ctx.Err()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{
			Status:        StatusTimeout,
			Phase:         PhaseTimedOut,
			Questions:     answered,
			Instructions:  instructions,
			TimeRemaining: remaining(),
			Err:           err,
		}
	}

	if remaining() < submissionReserve {
		slog.WarnContext(ctx, "insufficient budget for submission",
			"remaining", remaining(), "reserve", submissionReserve)
		span.AddEvent("timeout before submission")
		return Outcome{
			Status:        StatusTimeout,
			Phase:         PhaseDone,
			Questions:     answered,
			Instructions:  instructions,
			TimeRemaining: remaining(),
			Err:           TimeoutBeforeSubmission,
		}
	}

	slog.InfoContext(ctx, "submitting answers", "phase", PhaseSubmitting, "remaining", remaining())
	payload := buildAnswerSet(opts.Credentials, answered)
	result := o.submitter.SubmitWithRetry(ctx, session, opts.URL, payload, opts.MaxRetries)

	outcome := Outcome{
		Phase:         PhaseDone,
		Questions:     answered,
		Instructions:  instructions,
		Submission:    &result,
		TimeRemaining: remaining(),
	}
	if result.Success {
		outcome.Status = StatusSuccess
	} else {
		outcome.Status = StatusError
		outcome.Err = result.Err
	}
	return outcome
}

// solve answers questions one by one; a failure on a single question
// skips it and keeps going.
func (o *Orchestrator) solve(ctx context.Context, questions []extract.Question) []extract.Question {
	ctx, span := tracer.Start(ctx, "solve")
	defer span.End()

	answered := make([]extract.Question, len(questions))
	copy(answered, questions)

	for i := range answered {
		if ctx.Err() != nil {
			break
		}
		if o.strategy == nil {
			slog.WarnContext(ctx, "no answer strategy configured, skipping question",
				"id", answered[i].ID)
			continue
		}
		answer, err := o.strategy.Answer(ctx, answered[i])
		if err != nil {
			slog.WarnContext(ctx, "failed to answer question",
				"id", answered[i].ID, "err", err)
			span.AddEvent("question skipped")
			continue
		}
		answered[i].Answer = answer
	}
	return answered
}

func buildAnswerSet(creds Credentials, questions []extract.Question) map[string]any {
	payload := map[string]any{
		"email":        creds.Email,
		"secret":       creds.Secret,
		"submitted_at": time.Now().UTC().Format(time.RFC3339),
	}
	for _, q := range questions {
		if q.Answer == nil {
			continue
		}
		payload[q.ID] = q.Answer
	}
	return payload
}

func statusForError(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, browser.NavigationTimedOut) {
		return StatusTimeout
	}
	return StatusError
}

func phaseForError(err error) Phase {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, browser.NavigationTimedOut) {
		return PhaseTimedOut
	}
	return PhaseDone
}
