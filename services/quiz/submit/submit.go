package submit

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"quizflow-backend/lib/telemetry"
	"quizflow-backend/lib/textutil"
	"quizflow-backend/services/quiz/browser"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("quizflow.services.quiz.submit")

var SubmissionFailed = fmt.Errorf("submission failed after exhausting all attempts")

// responses are kept as a bounded prefix, never the full body
const maxResponseBytes = 2000

// Result normalizes the outcome of a form or api submission.
type Result struct {
	Success     bool
	RespondedAt time.Time
	RawResponse string
	NextURL     string
	StatusCode  int
	Attempts    int
	Err         error
}

var successKeywords = []string{"success", "thank you", "submitted"}

func hasSuccessSignal(body string) bool {
	return textutil.ContainsAny(body, successKeywords)
}

// Adapter delivers an answer set to a target, choosing between the
// form path and the api path based on what the target page contains.
// The sub-routines are injectable for tests.
type Adapter struct {
	client *resty.Client

	navigate   func(ctx context.Context, s *browser.Session, url string) (browser.RawPage, error)
	submitForm func(ctx context.Context, s *browser.Session, page browser.RawPage, answers map[string]any) Result
	submitAPI  func(ctx context.Context, url string, answers map[string]any) Result
}

func NewAdapter() *Adapter {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(time.Second * 30)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	telemetry.InstrumentResty(client, "quizflow.services.quiz.submit.http")

	a := &Adapter{client: client}
	a.navigate = func(ctx context.Context, s *browser.Session, url string) (browser.RawPage, error) {
		return s.Navigate(ctx, url, "", 0)
	}
	a.submitForm = a.formPath
	a.submitAPI = a.apiPath
	return a
}

// Submit navigates to the target and delivers the answer set through
// the form path when the page carries at least one form, otherwise
// through the api path.
func (a *Adapter) Submit(ctx context.Context, session *browser.Session, url string, answers map[string]any) Result {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	page, err := a.navigate(ctx, session, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, RespondedAt: time.Now()}
	}

	if len(page.Forms) > 0 {
		span.SetAttributes(attribute.String("path", "form"))
		return a.submitForm(ctx, session, page, answers)
	}
	span.SetAttributes(attribute.String("path", "api"))
	return a.submitAPI(ctx, url, answers)
}
