package quiz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quizflow-backend/lib/testutil"
	"quizflow-backend/services/quiz/browser"
	"quizflow-backend/services/quiz/extract"
	"quizflow-backend/services/quiz/submit"

	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	calls   int
	payload map[string]any
	result  submit.Result
}

func (r *recordingSubmitter) SubmitWithRetry(ctx context.Context, session *browser.Session, url string, answers map[string]any, maxAttempts int) submit.Result {
	r.calls++
	r.payload = answers
	return r.result
}

type errStrategy struct {
	failIDs map[string]bool
}

func (s errStrategy) Answer(ctx context.Context, q extract.Question) (any, error) {
	if s.failIDs[q.ID] {
		return nil, fmt.Errorf("no answer for %s", q.ID)
	}
	return "answered " + q.ID, nil
}

func testOrchestrator(strategy AnswerStrategy, submitter Submitter, visibleText string) *Orchestrator {
	o := NewOrchestrator(browser.Config{}, strategy, submitter)
	o.fetch = func(ctx context.Context, opts Options) (*browser.Session, browser.RawPage, error) {
		return nil, browser.RawPage{
			URL:         opts.URL,
			VisibleText: visibleText,
			ExtractedAt: time.Now(),
		}, nil
	}
	return o
}

func TestSolveAndSubmitSuccess(t *testing.T) {
	defer testutil.SetupService(t, testutil.ServiceParams{Name: "quiz"})()

	submitter := &recordingSubmitter{result: submit.Result{Success: true, Attempts: 1}}
	o := testOrchestrator(errStrategy{}, submitter, "Q1. What is 2+2?\nQ2. What is the capital of France?")

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:         "http://quiz.test",
		Credentials: Credentials{Email: "a@b.c", Secret: "s3cret"},
		Deadline:    time.Minute,
		MaxRetries:  3,
	})

	require.Equal(t, StatusSuccess, outcome.Status)
	require.Equal(t, PhaseDone, outcome.Phase)
	require.NoError(t, outcome.Err)
	require.Len(t, outcome.Questions, 2)
	require.Equal(t, 1, submitter.calls)

	require.Equal(t, "a@b.c", submitter.payload["email"])
	require.Equal(t, "s3cret", submitter.payload["secret"])
	require.NotEmpty(t, submitter.payload["submitted_at"])
	require.Equal(t, "answered q1", submitter.payload["q1"])
	require.Equal(t, "answered q2", submitter.payload["q2"])
}

func TestSolveAndSubmitSkipsFailedQuestions(t *testing.T) {
	submitter := &recordingSubmitter{result: submit.Result{Success: true}}
	o := testOrchestrator(
		errStrategy{failIDs: map[string]bool{"q1": true}},
		submitter,
		"Q1. What is 2+2?\nQ2. What is the capital of France?",
	)

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:      "http://quiz.test",
		Deadline: time.Minute,
	})

	require.Equal(t, StatusSuccess, outcome.Status)
	// the failed question is skipped, not fatal; submission still runs
	// and the payload simply omits it
	require.Equal(t, 1, submitter.calls)
	_, hasQ1 := submitter.payload["q1"]
	require.False(t, hasQ1)
	require.Equal(t, "answered q2", submitter.payload["q2"])
}

func TestSolveAndSubmitReservesSubmissionBudget(t *testing.T) {
	testCases := []struct {
		deadline       time.Duration
		expectedStatus Status
		expectedCalls  int
	}{
		// under the 10s reserve: submission must never start
		{deadline: 9900 * time.Millisecond, expectedStatus: StatusTimeout, expectedCalls: 0},
		// just over the reserve: submission proceeds
		{deadline: 10100 * time.Millisecond, expectedStatus: StatusSuccess, expectedCalls: 1},
	}

	for _, test := range testCases {
		submitter := &recordingSubmitter{result: submit.Result{Success: true}}
		o := testOrchestrator(errStrategy{}, submitter, "Q1. What is 2+2?")

		outcome := o.SolveAndSubmit(context.Background(), Options{
			URL:      "http://quiz.test",
			Deadline: test.deadline,
		})

		require.Equal(t, test.expectedStatus, outcome.Status, "deadline: %s", test.deadline)
		require.Equal(t, test.expectedCalls, submitter.calls, "deadline: %s", test.deadline)
		if test.expectedCalls == 0 {
			require.ErrorIs(t, outcome.Err, TimeoutBeforeSubmission)
			require.Nil(t, outcome.Submission)
			// the solved questions still come back with the outcome
			require.Len(t, outcome.Questions, 1)
		}
	}
}

func TestSolveAndSubmitFetchTimeout(t *testing.T) {
	submitter := &recordingSubmitter{}
	o := NewOrchestrator(browser.Config{}, errStrategy{}, submitter)
	o.fetch = func(ctx context.Context, opts Options) (*browser.Session, browser.RawPage, error) {
		return nil, browser.RawPage{}, fmt.Errorf("%w: net::ERR_TIMED_OUT", browser.NavigationTimedOut)
	}

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:      "http://quiz.test",
		Deadline: time.Minute,
	})

	require.Equal(t, StatusTimeout, outcome.Status)
	require.Equal(t, PhaseTimedOut, outcome.Phase)
	require.ErrorIs(t, outcome.Err, browser.NavigationTimedOut)
	require.Equal(t, 0, submitter.calls)
}

func TestSolveAndSubmitFetchFailure(t *testing.T) {
	submitter := &recordingSubmitter{}
	o := NewOrchestrator(browser.Config{}, errStrategy{}, submitter)
	fetchErr := fmt.Errorf("%w: dns lookup failed", browser.NavigationFailed)
	o.fetch = func(ctx context.Context, opts Options) (*browser.Session, browser.RawPage, error) {
		return nil, browser.RawPage{}, fetchErr
	}

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:      "http://quiz.test",
		Deadline: time.Minute,
	})

	require.Equal(t, StatusError, outcome.Status)
	require.ErrorIs(t, outcome.Err, browser.NavigationFailed)
	require.Equal(t, 0, submitter.calls)
}

func TestSolveAndSubmitFailedSubmission(t *testing.T) {
	submitter := &recordingSubmitter{result: submit.Result{
		Success:  false,
		Attempts: 3,
		Err:      submit.SubmissionFailed,
	}}
	o := testOrchestrator(errStrategy{}, submitter, "Q1. What is 2+2?")

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:      "http://quiz.test",
		Deadline: time.Minute,
	})

	require.Equal(t, StatusError, outcome.Status)
	require.Equal(t, PhaseDone, outcome.Phase)
	require.ErrorIs(t, outcome.Err, submit.SubmissionFailed)
	require.NotNil(t, outcome.Submission)
	require.Equal(t, 3, outcome.Submission.Attempts)
}

func TestSolveAndSubmitNilStrategy(t *testing.T) {
	submitter := &recordingSubmitter{result: submit.Result{Success: true}}
	o := testOrchestrator(nil, submitter, "Q1. What is 2+2?")

	outcome := o.SolveAndSubmit(context.Background(), Options{
		URL:      "http://quiz.test",
		Deadline: time.Minute,
	})

	require.Equal(t, StatusSuccess, outcome.Status)
	_, hasQ1 := submitter.payload["q1"]
	require.False(t, hasQ1)
}

func TestRandomGuessStrategy(t *testing.T) {
	strategy := RandomGuessStrategy{}
	ctx := context.Background()

	answer, err := strategy.Answer(ctx, extract.Question{ID: "q1", Type: extract.QuestionBoolean})
	require.NoError(t, err)
	require.IsType(t, false, answer)

	answer, err = strategy.Answer(ctx, extract.Question{ID: "q2", Type: extract.QuestionNumber})
	require.NoError(t, err)
	n, ok := answer.(int)
	require.True(t, ok)
	require.GreaterOrEqual(t, n, 1)
	require.LessOrEqual(t, n, 100)

	answer, err = strategy.Answer(ctx, extract.Question{
		ID:      "q3",
		Type:    extract.QuestionMultipleChoice,
		Options: []string{"red", "green"},
	})
	require.NoError(t, err)
	require.Contains(t, []any{"red", "green"}, answer)

	answer, err = strategy.Answer(ctx, extract.Question{ID: "q4", Type: extract.QuestionMultipleChoice})
	require.NoError(t, err)
	require.Equal(t, "A", answer)

	answer, err = strategy.Answer(ctx, extract.Question{ID: "q5", Type: extract.QuestionText})
	require.NoError(t, err)
	require.Equal(t, "Sample answer for q5", answer)
}

func TestVerifySecret(t *testing.T) {
	require.True(t, VerifySecret("s3cret", "s3cret"))
	require.False(t, VerifySecret("wrong", "s3cret"))
	require.False(t, VerifySecret("", "s3cret"))
	// an unset expected secret rejects everything
	require.False(t, VerifySecret("anything", ""))
	require.False(t, VerifySecret("", ""))
}
