package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizflow-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RawPage is an immutable snapshot of a fetched page.
type RawPage struct {
	URL         string
	HTML        string
	VisibleText string
	Links       []htmlutil.Anchor
	Forms       []htmlutil.Form
	ExtractedAt time.Time
}

// Navigate loads a url, optionally waits for a selector to appear, and
// snapshots the resulting document.
func (s *Session) Navigate(ctx context.Context, url, waitSelector string, timeout time.Duration) (RawPage, error) {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if timeout == 0 {
		timeout = s.config.NavigationTimeout()
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := s.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return RawPage{}, recordNavError(span, navCtx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return RawPage{}, recordNavError(span, navCtx, err)
	}
	if waitSelector != "" {
		if _, err := page.Element(waitSelector); err != nil {
			return RawPage{}, recordNavError(span, navCtx, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return RawPage{}, recordNavError(span, navCtx, err)
	}

	snapshot, err := Snapshot(ctx, url, html)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RawPage{}, err
	}
	return snapshot, nil
}

func recordNavError(span trace.Span, ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		err = fmt.Errorf("%w: %s", NavigationTimedOut, err)
	} else {
		err = fmt.Errorf("%w: %s", NavigationFailed, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Snapshot parses raw html into a RawPage without touching the browser.
func Snapshot(ctx context.Context, url, html string) (RawPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return RawPage{}, fmt.Errorf("failed to parse page html: %w", err)
	}

	return RawPage{
		URL:         url,
		HTML:        html,
		VisibleText: htmlutil.VisibleText(doc),
		Links:       htmlutil.GetAnchors(ctx, doc.Find("a")),
		Forms:       htmlutil.GetForms(ctx, doc),
		ExtractedAt: time.Now(),
	}, nil
}
