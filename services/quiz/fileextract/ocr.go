package fileextract

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/otiai10/gosseract/v2"
)

// extractImage is the primary path for image media: decode, flatten to
// grayscale, then hand the result to tesseract. tiff/bmp inputs fall
// through to the fallback which feeds the original file to tesseract
// directly.
func extractImage(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)

	tmp, err := os.CreateTemp("", "quizflow-ocr-*.png")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmp, gray); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return ocrFile(ctx, tmpPath)
}

func ocrFile(ctx context.Context, filePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	if err := client.SetImage(abs); err != nil {
		return "", fmt.Errorf("failed to load image for ocr: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}
