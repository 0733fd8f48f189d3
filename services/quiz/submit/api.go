package submit

import (
	"context"
	"encoding/json"
	"time"

	"quizflow-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (a *Adapter) apiPath(ctx context.Context, url string, answers map[string]any) Result {
	ctx, span := tracer.Start(ctx, "apiPath")
	defer span.End()

	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(answers).
		Post(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Err: err, RespondedAt: time.Now()}
	}

	status := res.StatusCode()
	span.SetAttributes(attribute.Int("status", status))

	body := string(res.Body())
	result := Result{
		Success:     status >= 200 && status < 300,
		RespondedAt: time.Now(),
		StatusCode:  status,
		RawResponse: textutil.Truncate(body, maxResponseBytes),
	}

	// prefer structured fields when the endpoint speaks json, fall
	// back to the raw text otherwise
	var payload struct {
		NextURL string `json:"next_url"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err == nil {
		result.NextURL = payload.NextURL
	}
	return result
}
