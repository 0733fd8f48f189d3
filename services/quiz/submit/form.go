package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"quizflow-backend/lib/textutil"
	"quizflow-backend/services/quiz/browser"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

// fields whose names don't match exactly still count when they are
// close enough, the same way course names are linked elsewhere
const fieldMatchThreshold = 0.9

// matchField finds the answer key belonging to a form control,
// matching by exact normalized name first, then by similarity.
func matchField(fieldName string, answers map[string]any) (string, bool) {
	normalized := textutil.NormalizeName(fieldName)
	if normalized == "" {
		return "", false
	}

	for key := range answers {
		if textutil.NormalizeName(key) == normalized {
			return key, true
		}
	}

	bestKey := ""
	bestScore := 0.0
	for key := range answers {
		score := matchr.JaroWinkler(normalized, textutil.NormalizeName(key), false)
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	if bestScore >= fieldMatchThreshold {
		return bestKey, true
	}
	return "", false
}

func answerString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(encoded)
	}
}

func (a *Adapter) formPath(ctx context.Context, session *browser.Session, page browser.RawPage, answers map[string]any) Result {
	ctx, span := tracer.Start(ctx, "formPath")
	defer span.End()

	form := page.Forms[0]
	for _, input := range form.Inputs {
		key, ok := matchField(input.Name, answers)
		if !ok {
			continue
		}
		value := answers[key]

		var err error
		switch input.Type {
		case "radio", "checkbox":
			err = session.CheckInput(ctx, input.Name)
		case "file":
			path := answerString(value)
			if _, statErr := os.Stat(path); statErr != nil {
				slog.WarnContext(ctx, "skipping file input, path does not exist",
					"field", input.Name, "path", path)
				continue
			}
			err = session.SetFileInput(ctx, input.Name, path)
		case "submit", "button", "reset":
			continue
		default:
			err = session.FillInput(ctx, input.Name, answerString(value))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Result{Err: err, RespondedAt: time.Now()}
		}
	}

	if err := session.SubmitFirstForm(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, RespondedAt: time.Now()}
	}
	slog.DebugContext(ctx, "form submitted", "settled_url", session.CurrentURL())

	body, err := session.BodyText(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, RespondedAt: time.Now()}
	}

	result := Result{
		Success:     hasSuccessSignal(body),
		RespondedAt: time.Now(),
		RawResponse: textutil.Truncate(body, maxResponseBytes),
		NextURL:     nextURLFromBody(body),
	}
	return result
}

// nextURLFromBody pulls a next_url out of a json response body, when
// the settled page happens to be one.
func nextURLFromBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}
	var payload struct {
		NextURL string `json:"next_url"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return ""
	}
	return payload.NextURL
}
