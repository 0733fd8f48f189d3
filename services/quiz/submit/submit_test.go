package submit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizflow-backend/lib/htmlutil"
	"quizflow-backend/services/quiz/browser"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func fastBackoff() func() {
	original := backoffFactory
	backoffFactory = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
	return func() {
		backoffFactory = original
	}
}

func stubAdapter() *Adapter {
	a := &Adapter{}
	a.navigate = func(ctx context.Context, s *browser.Session, url string) (browser.RawPage, error) {
		return browser.RawPage{URL: url}, nil
	}
	a.submitForm = func(ctx context.Context, s *browser.Session, page browser.RawPage, answers map[string]any) Result {
		return Result{Success: true, RespondedAt: time.Now()}
	}
	a.submitAPI = func(ctx context.Context, url string, answers map[string]any) Result {
		return Result{Success: true, RespondedAt: time.Now()}
	}
	return a
}

func TestSubmitPathSelection(t *testing.T) {
	testCases := []struct {
		hasForm      bool
		expectedPath string
	}{
		{hasForm: true, expectedPath: "form"},
		{hasForm: false, expectedPath: "api"},
	}

	for _, test := range testCases {
		a := stubAdapter()
		var taken string
		a.navigate = func(ctx context.Context, s *browser.Session, url string) (browser.RawPage, error) {
			page := browser.RawPage{URL: url}
			if test.hasForm {
				page.Forms = append(page.Forms, htmlutil.Form{
					Action: "/submit",
					Method: "post",
				})
			}
			return page, nil
		}
		a.submitForm = func(ctx context.Context, s *browser.Session, page browser.RawPage, answers map[string]any) Result {
			taken = "form"
			return Result{Success: true}
		}
		a.submitAPI = func(ctx context.Context, url string, answers map[string]any) Result {
			taken = "api"
			return Result{Success: true}
		}

		result := a.Submit(context.Background(), nil, "http://quiz.test", map[string]any{"q1": "4"})
		require.True(t, result.Success)
		require.Equal(t, test.expectedPath, taken)
	}
}

func TestSubmitNavigateError(t *testing.T) {
	a := stubAdapter()
	navErr := fmt.Errorf("connection refused")
	a.navigate = func(ctx context.Context, s *browser.Session, url string) (browser.RawPage, error) {
		return browser.RawPage{}, navErr
	}
	result := a.Submit(context.Background(), nil, "http://quiz.test", nil)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, navErr)
	require.False(t, result.RespondedAt.IsZero())
}

func TestSubmitWithRetryEventualSuccess(t *testing.T) {
	defer fastBackoff()()

	a := stubAdapter()
	calls := 0
	a.submitAPI = func(ctx context.Context, url string, answers map[string]any) Result {
		calls++
		if calls < 3 {
			return Result{Err: fmt.Errorf("transient failure %d", calls)}
		}
		return Result{Success: true}
	}

	result := a.SubmitWithRetry(context.Background(), nil, "http://quiz.test", nil, 5)
	require.True(t, result.Success)
	require.NoError(t, result.Err)
	require.Equal(t, 3, result.Attempts)
	require.Equal(t, 3, calls)
}

func TestSubmitWithRetryExhaustion(t *testing.T) {
	defer fastBackoff()()

	a := stubAdapter()
	calls := 0
	a.submitAPI = func(ctx context.Context, url string, answers map[string]any) Result {
		calls++
		// no error, but also no success signal
		return Result{Success: false, RawResponse: "try again later"}
	}

	result := a.SubmitWithRetry(context.Background(), nil, "http://quiz.test", nil, 3)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, SubmissionFailed)
	require.Equal(t, 3, result.Attempts)
	require.Equal(t, 3, calls)
}

func TestSubmitWithRetryContextCancelled(t *testing.T) {
	a := stubAdapter()
	a.submitAPI = func(ctx context.Context, url string, answers map[string]any) Result {
		return Result{Err: fmt.Errorf("down")}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := a.SubmitWithRetry(ctx, nil, "http://quiz.test", nil, 5)
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, context.Canceled)
	require.Equal(t, 1, result.Attempts)
}

func TestBackoffSchedule(t *testing.T) {
	b := newBackoff()
	require.Equal(t, 2*time.Second, b.NextBackOff())
	require.Equal(t, 4*time.Second, b.NextBackOff())
	require.Equal(t, 8*time.Second, b.NextBackOff())
}

func TestMatchField(t *testing.T) {
	answers := map[string]any{
		"email":    "a@b.c",
		"question": "4",
	}

	key, ok := matchField("Email", answers)
	require.True(t, ok)
	require.Equal(t, "email", key)

	// close but not exact
	key, ok = matchField("questions", answers)
	require.True(t, ok)
	require.Equal(t, "question", key)

	_, ok = matchField("completely unrelated", answers)
	require.False(t, ok)

	_, ok = matchField("", answers)
	require.False(t, ok)
}

func TestAnswerString(t *testing.T) {
	require.Equal(t, "plain", answerString("plain"))
	require.Equal(t, "", answerString(nil))
	require.Equal(t, "42", answerString(42))
	require.Equal(t, "true", answerString(true))
	require.Equal(t, `["a","b"]`, answerString([]string{"a", "b"}))
}

func TestHasSuccessSignal(t *testing.T) {
	require.True(t, hasSuccessSignal("Thank You for participating"))
	require.True(t, hasSuccessSignal("your quiz was SUBMITTED"))
	require.True(t, hasSuccessSignal(`{"status": "success"}`))
	require.False(t, hasSuccessSignal("an error occurred"))
}

func TestNextURLFromBody(t *testing.T) {
	require.Equal(t, "http://quiz.test/2", nextURLFromBody(`{"next_url": "http://quiz.test/2"}`))
	require.Equal(t, "", nextURLFromBody("thanks, all done"))
	require.Equal(t, "", nextURLFromBody(`{"next_url": 5`))
}

func TestAPIPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok", "next_url": "/round2"}`)
	}))
	defer server.Close()

	a := NewAdapter()
	result := a.apiPath(context.Background(), server.URL, map[string]any{"q1": "4"})
	require.True(t, result.Success)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, "/round2", result.NextURL)
	require.Contains(t, result.RawResponse, "ok")
}

func TestAPIPathServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewAdapter()
	result := a.apiPath(context.Background(), server.URL, nil)
	require.False(t, result.Success)
	require.Equal(t, http.StatusInternalServerError, result.StatusCode)
}
