package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Parser is the capability contract a concrete document parser fulfils.
// Dispatch happens over the capability pair: a caller asks Supports before
// handing the file to Parse. There is no abstract base; a format nobody
// registered a parser for is simply unsupported.
type Parser interface {
	// Supports reports whether this parser can handle the given MIME type.
	Supports(mimeType string) bool

	// Parse reads the raw document from r and returns its extracted text as
	// a validated Document. filename is used for provenance and, where a
	// format needs it, for type-specific handling.
	Parse(r io.Reader, filename string) (*Document, error)
}

// ErrUnsupportedType is returned when no registered parser supports the
// document's MIME type.
var ErrUnsupportedType = errors.New("unsupported document type")

// MIME types of the supported document formats.
const (
	MimePDF      = "application/pdf"
	MimeMarkdown = "text/markdown"
	MimeText     = "text/plain"
)

// parsers holds the registered concrete parsers in registration order.
var parsers = []Parser{
	NewPDFParser(),
	NewMarkdownParser(),
	NewPlainTextParser(),
}

// Register adds a parser to the registry. Parsers registered later are
// consulted after the built-in ones.
func Register(p Parser) {
	parsers = append(parsers, p)
}

// ParserFor returns the first registered parser that supports the MIME type
// derived from the filename's extension.
func ParserFor(filename string) (Parser, error) {
	return ParserForMime(DetectMimeType(filename))
}

// ParserForMime returns the first registered parser that supports mimeType.
func ParserForMime(mimeType string) (Parser, error) {
	for _, p := range parsers {
		if p.Supports(mimeType) {
			return p, nil
		}
	}
	return nil, ErrUnsupportedType
}

// DetectMimeType maps a filename extension to one of the known MIME types.
// Unrecognized extensions map to application/octet-stream, which no parser
// supports.
func DetectMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimePDF
	case ".md", ".markdown":
		return MimeMarkdown
	case ".txt", ".text", ".log":
		return MimeText
	default:
		return "application/octet-stream"
	}
}
