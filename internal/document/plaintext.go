package document

import (
	"fmt"
	"io"
)

// PlainTextParser parses .txt files. The content is taken as-is.
type PlainTextParser struct{}

// NewPlainTextParser creates a plain text parser.
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Supports reports whether the MIME type is plain text.
func (p *PlainTextParser) Supports(mimeType string) bool {
	return mimeType == MimeText
}

// Parse reads the full text content from r.
func (p *PlainTextParser) Parse(r io.Reader, filename string) (*Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	return NewDocument(string(content), filename)
}
