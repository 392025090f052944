package arxiv

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads the plain text content of a PDF file.
// Extraction quality varies with the PDF's internal structure; the caller
// falls back to the abstract when no text could be recovered.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read text from %s: %w", path, err)
	}
	return buf.String(), nil
}
