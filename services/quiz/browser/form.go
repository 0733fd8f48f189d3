package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func (s *Session) fieldElement(ctx context.Context, name string) (*rod.Element, error) {
	page := s.page.Context(ctx)
	selector := fmt.Sprintf(`[name=%q], #%s`, name, name)
	el, err := page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("form field %q not found: %w", name, err)
	}
	return el, nil
}

// FillInput writes a value into a text-like form control, replacing
// any existing content.
func (s *Session) FillInput(ctx context.Context, name, value string) error {
	el, err := s.fieldElement(ctx, name)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`() => this.value = ""`); err != nil {
		return err
	}
	return el.Input(value)
}

// CheckInput clicks a radio or checkbox control.
func (s *Session) CheckInput(ctx context.Context, name string) error {
	el, err := s.fieldElement(ctx, name)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// SetFileInput attaches a local file to a file control.
func (s *Session) SetFileInput(ctx context.Context, name, path string) error {
	el, err := s.fieldElement(ctx, name)
	if err != nil {
		return err
	}
	return el.SetFiles([]string{path})
}

// SubmitFirstForm invokes the native submit of the first form on the
// page and waits for the resulting navigation to settle.
func (s *Session) SubmitFirstForm(ctx context.Context) error {
	page := s.page.Context(ctx)
	form, err := page.Element("form")
	if err != nil {
		return fmt.Errorf("no form present: %w", err)
	}
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if _, err := form.Eval(`() => this.submit()`); err != nil {
		return err
	}
	wait()
	return nil
}

// BodyText returns the settled page's visible body text.
func (s *Session) BodyText(ctx context.Context) (string, error) {
	page := s.page.Context(ctx)
	body, err := page.Element("body")
	if err != nil {
		return "", err
	}
	return body.Text()
}

// CurrentURL reports the page's current location.
func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}
