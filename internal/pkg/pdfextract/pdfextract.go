package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Page is one page of extracted plain text.
type Page struct {
	Number int
	Text   string
}

// ExtractFile extracts per-page plain text from the PDF at path. Pages with
// no extractable text are skipped; an empty slice with nil error means the
// document contains no text.
func ExtractFile(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()
	return extractPages(reader)
}

// Extract reads the entire content of r and extracts per-page plain text.
func Extract(r io.Reader) ([]Page, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("read pdf failed: %w", err)
	}
	return extractPages(reader)
}

func extractPages(reader *pdf.Reader) ([]Page, error) {
	var pages []Page
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the document.
			continue
		}
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
