package document

import (
	"errors"
	"strings"
)

// ErrInvalidDocument is returned when a document is constructed without
// usable text content.
var ErrInvalidDocument = errors.New("invalid document: content is empty")

// Document is the parsed form of a source file: plain text plus a little
// provenance. It is the unit handed to the splitter.
type Document struct {
	Content   string            // extracted text content
	Title     string            // document title, if the parser found one
	Source    string            // origin of the content (filename or path)
	WordCount int               // number of whitespace-separated words in Content
	Meta      map[string]string // optional parser-specific metadata
}

// NewDocument builds a validated Document from parsed content.
// Construction fails with ErrInvalidDocument when the content is empty or
// contains only whitespace; a parser can therefore never hand an unusable
// document to the chunking pipeline.
func NewDocument(content, source string) (*Document, error) {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil, ErrInvalidDocument
	}

	return &Document{
		Content:   content,
		Source:    source,
		WordCount: len(words),
	}, nil
}
