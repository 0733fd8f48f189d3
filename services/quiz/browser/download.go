package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"quizflow-backend/services/quiz/fileextract"

	"github.com/go-rod/rod/lib/proto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Download navigates to a url that is expected to trigger a browser
// download event, waits for the file to land in destDir, and extracts
// its text. If no download event materializes before the session
// timeout elapses, DownloadTimedOut is returned.
func (s *Session) Download(ctx context.Context, url, destDir string) (fileextract.ExtractedFile, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	waitCtx, cancel := context.WithTimeout(ctx, s.config.NavigationTimeout())
	defer cancel()

	err := proto.BrowserSetDownloadBehavior{
		Behavior:      proto.BrowserSetDownloadBehaviorBehaviorAllowAndName,
		DownloadPath:  destDir,
		EventsEnabled: true,
	}.Call(s.browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fileextract.ExtractedFile{}, err
	}

	var guid, suggestedName string
	wait := s.browser.Context(waitCtx).EachEvent(
		func(e *proto.BrowserDownloadWillBegin) {
			guid = e.GUID
			suggestedName = e.SuggestedFilename
		},
		func(e *proto.BrowserDownloadProgress) bool {
			if guid == "" || e.GUID != guid {
				return false
			}
			return e.State == proto.BrowserDownloadProgressStateCompleted ||
				e.State == proto.BrowserDownloadProgressStateCanceled
		},
	)

	// a page that turns into a download aborts its own navigation, so
	// the error from Navigate is expected here
	go func() {
		_ = s.page.Context(waitCtx).Navigate(url)
	}()
	wait()

	if guid == "" {
		err := fmt.Errorf("%w: %s", DownloadTimedOut, url)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fileextract.ExtractedFile{}, err
	}

	downloaded := filepath.Join(destDir, guid)
	if suggestedName != "" {
		named := filepath.Join(destDir, filepath.Base(suggestedName))
		if renameErr := os.Rename(downloaded, named); renameErr == nil {
			downloaded = named
		}
	}
	if _, statErr := os.Stat(downloaded); statErr != nil {
		err := fmt.Errorf("%w: %s", DownloadTimedOut, statErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fileextract.ExtractedFile{}, err
	}

	span.SetAttributes(attribute.String("file", downloaded))
	return fileextract.Extract(ctx, downloaded, ""), nil
}
