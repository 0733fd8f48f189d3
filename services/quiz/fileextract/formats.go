package fileextract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

func extractPDF(ctx context.Context, filePath string) (string, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractXlsx(ctx context.Context, filePath string) (string, error) {
	book, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	var sb strings.Builder
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			empty := true
			for _, cell := range row {
				if cell != "" {
					empty = false
					break
				}
			}
			if empty {
				continue
			}
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractPlainText(ctx context.Context, filePath string) (string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	// invalid bytes are substituted, plain text never fails to decode
	return strings.ToValidUTF8(string(raw), "�"), nil
}

// ooxml text runs: docx uses <w:t>, pptx uses <a:t>. walking for
// character data inside the matching local name is enough for a
// plain-text rendition.
func ooxmlText(r io.Reader, textLocal, breakLocal string) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == textLocal {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textLocal {
				inText = false
			}
			if t.Name.Local == breakLocal {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func zipEntryText(archive *zip.ReadCloser, name, textLocal, breakLocal string) (string, error) {
	for _, entry := range archive.File {
		if entry.Name != name {
			continue
		}
		r, err := entry.Open()
		if err != nil {
			return "", err
		}
		defer r.Close()
		return ooxmlText(r, textLocal, breakLocal)
	}
	return "", fmt.Errorf("missing archive entry %q", name)
}

func extractDocx(ctx context.Context, filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer archive.Close()

	return zipEntryText(archive, "word/document.xml", "t", "p")
}

func extractPptx(ctx context.Context, filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open presentation: %w", err)
	}
	defer archive.Close()

	var sb strings.Builder
	found := false
	for _, entry := range archive.File {
		dir, base := path.Split(entry.Name)
		if dir != "ppt/slides/" || !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
			continue
		}
		r, err := entry.Open()
		if err != nil {
			return "", err
		}
		text, err := ooxmlText(r, "t", "p")
		r.Close()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		found = true
	}
	if !found {
		return "", fmt.Errorf("no slides found in presentation")
	}
	return sb.String(), nil
}
