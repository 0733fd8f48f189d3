package fileextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("quizflow.services.quiz.fileextract")

var UnsupportedMediaType = fmt.Errorf("unsupported media type")

// ExtractedFile is the best-effort result of a text extraction.
// Failures land in Err, they are never propagated as returned errors.
type ExtractedFile struct {
	FileName  string
	SizeBytes int64
	MediaType string
	Text      string
	Metadata  map[string]string
	Err       error
}

type handlerFunc func(ctx context.Context, path string) (string, error)

// Extractor dispatches a file to a format-specific text walk by its
// media type. Handlers are injectable so tests can simulate failures
// without binary fixtures.
type Extractor struct {
	handlers map[string]handlerFunc
	ocr      handlerFunc
}

func New() *Extractor {
	e := &Extractor{ocr: ocrFile}
	e.handlers = map[string]handlerFunc{
		"pdf":   extractPDF,
		"docx":  extractDocx,
		"pptx":  extractPptx,
		"xlsx":  extractXlsx,
		"text":  extractPlainText,
		"image": extractImage,
	}
	return e
}

var defaultExtractor = New()

// Extract resolves the file's media type and produces its text via the
// default extractor.
func Extract(ctx context.Context, path, mediaTypeHint string) ExtractedFile {
	return defaultExtractor.Extract(ctx, path, mediaTypeHint)
}

func (e *Extractor) Extract(ctx context.Context, path, mediaTypeHint string) ExtractedFile {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	out := ExtractedFile{
		FileName:  filepath.Base(path),
		MediaType: "unknown",
		Metadata:  map[string]string{},
	}

	info, err := os.Stat(path)
	if err != nil {
		out.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out
	}
	out.SizeBytes = info.Size()

	mediaType := mediaTypeHint
	if mediaType == "" {
		detected, err := mimetype.DetectFile(path)
		if err == nil {
			mediaType = detected.String()
		}
	}
	if mediaType != "" {
		out.MediaType = normalizeMediaType(mediaType)
	}
	span.SetAttributes(attribute.String("media_type", out.MediaType))

	kind := kindOf(out.MediaType)
	handler, ok := e.handlers[kind]
	if !ok {
		out.Err = fmt.Errorf("%w: %s", UnsupportedMediaType, out.MediaType)
		span.SetStatus(codes.Error, out.Err.Error())
		return out
	}
	if kind == "image" {
		out.Metadata["ocrUsed"] = "true"
	}

	text, err := handler(ctx, path)
	if err == nil {
		out.Text = text
		return out
	}

	// a broken primary path still gets one shot at OCR when the format
	// is something tesseract can read
	if ocrEligible(out.MediaType) {
		span.AddEvent("retrying via ocr", trace.WithAttributes(
			attribute.String("cause", err.Error()),
		))
		text, ocrErr := e.ocr(ctx, path)
		out.Metadata["ocrUsed"] = "true"
		out.Metadata["ocrFallback"] = "true"
		if ocrErr == nil {
			out.Text = text
			return out
		}
		err = fmt.Errorf("primary extraction failed: %w (ocr fallback: %s)", err, ocrErr)
	}

	out.Err = err
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return out
}

func normalizeMediaType(mt string) string {
	base, _, _ := strings.Cut(mt, ";")
	return strings.TrimSpace(strings.ToLower(base))
}

var ocrMediaTypes = []string{"image/png", "image/jpeg", "image/tiff", "image/bmp"}

func ocrEligible(mediaType string) bool {
	for _, mt := range ocrMediaTypes {
		if mediaType == mt {
			return true
		}
	}
	return false
}

func kindOf(mediaType string) string {
	switch {
	case mediaType == "application/pdf":
		return "pdf"
	case mediaType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case mediaType == "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return "pptx"
	case mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case ocrEligible(mediaType):
		return "image"
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "application/csv":
		return "text"
	default:
		return ""
	}
}
