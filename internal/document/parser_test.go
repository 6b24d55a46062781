package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pdfBytes renders text into a minimal single-page PDF for parser tests.
func pdfBytes(t *testing.T, text string) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, text, "", "", false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", MimePDF},
		{"notes.md", MimeMarkdown},
		{"notes.markdown", MimeMarkdown},
		{"readme.txt", MimeText},
		{"server.log", MimeText},
		{"REPORT.PDF", MimePDF},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectMimeType(tt.filename), tt.filename)
	}
}

func TestParserSupports(t *testing.T) {
	assert.True(t, NewPlainTextParser().Supports(MimeText))
	assert.False(t, NewPlainTextParser().Supports(MimePDF))

	assert.True(t, NewMarkdownParser().Supports(MimeMarkdown))
	assert.False(t, NewMarkdownParser().Supports(MimeText))

	assert.True(t, NewPDFParser().Supports(MimePDF))
	assert.False(t, NewPDFParser().Supports(MimeMarkdown))
}

func TestParserFor(t *testing.T) {
	p, err := ParserFor("doc.txt")
	require.NoError(t, err)
	assert.IsType(t, &PlainTextParser{}, p)

	p, err = ParserFor("doc.md")
	require.NoError(t, err)
	assert.IsType(t, &MarkdownParser{}, p)

	p, err = ParserFor("doc.pdf")
	require.NoError(t, err)
	assert.IsType(t, &PDFParser{}, p)

	_, err = ParserFor("doc.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPlainTextParser(t *testing.T) {
	content := "Hello, this is a plain text file.\nSecond line."
	parser := NewPlainTextParser()

	doc, err := parser.Parse(strings.NewReader(content), "test.txt")
	require.NoError(t, err)

	assert.Equal(t, content, doc.Content)
	assert.Equal(t, "test.txt", doc.Source)
	assert.Equal(t, 9, doc.WordCount)
}

func TestPlainTextParserEmptyFile(t *testing.T) {
	parser := NewPlainTextParser()
	_, err := parser.Parse(strings.NewReader(""), "empty.txt")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestMarkdownParser(t *testing.T) {
	content := "# Title\n\nThis is a **markdown** file.\n\n- Item 1\n- Item 2"
	parser := NewMarkdownParser()

	doc, err := parser.Parse(strings.NewReader(content), "test.md")
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "markdown file")
	assert.Contains(t, doc.Content, "Item 1")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "<p>")
	assert.Equal(t, "Title", doc.Title)
	assert.Equal(t, "test.md", doc.Source)
}

func TestPDFParser(t *testing.T) {
	raw := pdfBytes(t, "This is a PDF test.\nSecond line.")
	parser := NewPDFParser()

	doc, err := parser.Parse(bytes.NewReader(raw), "test.pdf")
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "PDF test")
	assert.Equal(t, "test.pdf", doc.Source)
	assert.Greater(t, doc.WordCount, 0)
}

func TestPDFParserGarbageInput(t *testing.T) {
	parser := NewPDFParser()
	_, err := parser.Parse(strings.NewReader("not a pdf"), "broken.pdf")
	assert.Error(t, err)
}
