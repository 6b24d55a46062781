package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser parses Markdown documents into plain text.
type MarkdownParser struct{}

// NewMarkdownParser creates a Markdown parser.
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Supports reports whether the MIME type is Markdown.
func (p *MarkdownParser) Supports(mimeType string) bool {
	return mimeType == MimeMarkdown
}

// Parse renders the Markdown to HTML and strips the markup, so that
// formatting characters never leak into the chunked text.
func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown content: %w", err)
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	node := mdParser.Parse(content)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.Render(node, renderer)

	doc, err := NewDocument(extractTextFromHTML(string(rendered)), filename)
	if err != nil {
		return nil, err
	}
	doc.Title = firstHeading(string(content))
	return doc, nil
}

// firstHeading returns the text of the first ATX heading, if any.
func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// extractTextFromHTML strips HTML markup from rendered Markdown.
// Block-level tags become newlines so paragraph structure survives for the
// paragraph splitter.
func extractTextFromHTML(htmlContent string) string {
	replacements := []struct {
		old string
		new string
	}{
		{"<br>", "\n"},
		{"<br/>", "\n"},
		{"<br />", "\n"},
		{"<p>", ""},
		{"</p>", "\n\n"},
		{"<li>", "- "},
		{"</li>", "\n"},
		{"<ul>", "\n"},
		{"</ul>", "\n"},
		{"<ol>", "\n"},
		{"</ol>", "\n"},
	}
	for i := 1; i <= 6; i++ {
		tag := fmt.Sprintf("h%d", i)
		replacements = append(replacements,
			struct{ old, new string }{"<" + tag + ">", "\n\n"},
			struct{ old, new string }{"</" + tag + ">", "\n\n"},
		)
	}

	result := htmlContent
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.old, r.new)
	}

	// Drop any remaining tags.
	for {
		start := strings.Index(result, "<")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], ">")
		if end == -1 {
			break
		}
		result = result[:start] + " " + result[start+end+1:]
	}

	return normalizeWhitespace(result)
}

// normalizeWhitespace collapses runs of spaces and limits consecutive
// newlines to two.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
