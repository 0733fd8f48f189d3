package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("quizflow.services.quiz.browser")

var (
	LaunchFailed       = fmt.Errorf("failed to launch the browser engine")
	NavigationFailed   = fmt.Errorf("failed to navigate to the requested page")
	NavigationTimedOut = fmt.Errorf("navigation did not complete within the timeout")
	DownloadTimedOut   = fmt.Errorf("no download event materialized within the timeout")
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Config struct {
	Headless            bool   `json:"headless"`
	UserAgent           string `json:"user_agent"`
	ViewportWidth       int    `json:"viewport_width"`
	ViewportHeight      int    `json:"viewport_height"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"`
}

func (c Config) userAgent() string {
	if c.UserAgent == "" {
		return defaultUserAgent
	}
	return c.UserAgent
}

func (c Config) viewport() (int, int) {
	w, h := c.ViewportWidth, c.ViewportHeight
	if w == 0 {
		w = 1920
	}
	if h == 0 {
		h = 1080
	}
	return w, h
}

func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session is one live browser page owned by a single in-flight request.
// It must not be used after Release.
type Session struct {
	ID string

	config   Config
	launch   *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	released atomic.Bool
}

// Acquire launches a browser process and opens a single stealth-configured
// page. The stealth setup is applied once here and never mutated afterwards.
func Acquire(ctx context.Context, config Config) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Acquire")
	defer span.End()
	span.SetAttributes(attribute.Bool("headless", config.Headless))

	launch := launcher.New().
		Headless(config.Headless).
		Set(flags.NoSandbox).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run")

	controlURL, err := launch.Launch()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", LaunchFailed, err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		launch.Cleanup()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", LaunchFailed, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		launch.Cleanup()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", LaunchFailed, err)
	}

	s := &Session{
		ID:      uuid.NewString(),
		config:  config,
		launch:  launch,
		browser: b,
		page:    page,
	}
	if err := s.applyStealth(); err != nil {
		s.Release()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", LaunchFailed, err)
	}

	span.SetAttributes(attribute.String("session_id", s.ID))
	return s, nil
}

// Release tears down the page, browser and its OS process. It is
// idempotent so callers can defer it on every exit path.
func (s *Session) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launch != nil {
		s.launch.Cleanup()
	}
}

// EvaluateScript runs a script in the page and returns its
// JSON-serializable result.
func (s *Session) EvaluateScript(ctx context.Context, script string) (any, error) {
	ctx, span := tracer.Start(ctx, "EvaluateScript")
	defer span.End()

	obj, err := s.page.Context(ctx).Eval(script)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return obj.Value.Val(), nil
}
