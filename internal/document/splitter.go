package document

import (
	"fmt"
	"strings"
	"unicode"
)

// Content is one chunk of a split document.
type Content struct {
	Text  string // chunk text
	Index int    // position of the chunk within the document
}

// Splitter turns a document's text into ordered chunks sized for downstream
// processing.
type Splitter interface {
	Split(text string) ([]Content, error)
}

// SplitType selects the splitting strategy.
type SplitType string

const (
	// BySentence accumulates sentence units up to the chunk size. This is
	// the default strategy and the one the chunking pipeline uses.
	BySentence SplitType = "sentence"
	// ByParagraph splits on blank lines, re-splitting oversized paragraphs.
	ByParagraph SplitType = "paragraph"
	// ByLength cuts fixed-size windows with optional overlap.
	ByLength SplitType = "length"
)

// SplitterConfig configures a TextSplitter.
type SplitterConfig struct {
	SplitType    SplitType // splitting strategy
	ChunkSize    int       // target chunk size in characters
	ChunkOverlap int       // overlap between chunks (length strategy only)
	MaxChunks    int       // cap on the number of chunks, 0 for unlimited
}

// DefaultSplitterConfig returns the default splitter configuration.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		SplitType:    BySentence,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: 200,
		MaxChunks:    0,
	}
}

// TextSplitter implements Splitter over the configured strategy.
type TextSplitter struct {
	config SplitterConfig
}

// NewTextSplitter creates a text splitter with the given configuration.
func NewTextSplitter(config SplitterConfig) *TextSplitter {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	return &TextSplitter{config: config}
}

// Split divides text into ordered, trimmed, non-empty chunks.
func (s *TextSplitter) Split(text string) ([]Content, error) {
	var chunks []string

	switch s.config.SplitType {
	case BySentence, "":
		chunks = ChunkText(text, s.config.ChunkSize)
	case ByParagraph:
		chunks = s.handleLargeChunks(s.splitByParagraph(s.preprocessText(text)))
	case ByLength:
		chunks = s.splitByLength(s.preprocessText(text))
	default:
		return nil, fmt.Errorf("unknown split type: %s", s.config.SplitType)
	}

	if s.config.MaxChunks > 0 && len(chunks) > s.config.MaxChunks {
		chunks = chunks[:s.config.MaxChunks]
	}

	var contents []Content
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		contents = append(contents, Content{
			Text:  chunk,
			Index: len(contents),
		})
	}

	return contents, nil
}

// preprocessText normalizes line endings, collapses runs of blank lines and
// trims surrounding whitespace.
func (s *TextSplitter) preprocessText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

// splitByParagraph splits text on blank lines.
func (s *TextSplitter) splitByParagraph(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var result []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}

// splitByLength cuts the text into windows of ChunkSize characters with
// ChunkOverlap characters of overlap, backing off to the previous space so
// words are not cut in half.
func (s *TextSplitter) splitByLength(text string) []string {
	if text == "" {
		return nil
	}

	step := s.config.ChunkSize - s.config.ChunkOverlap
	if step <= 0 {
		step = s.config.ChunkSize
	}

	var chunks []string
	for i := 0; i < len(text); i += step {
		end := i + s.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			// Back off to a space; fall back to a hard cut when there is none.
			adjusted := end
			for adjusted > i && !unicode.IsSpace(rune(text[adjusted])) {
				adjusted--
			}
			if adjusted > i {
				end = adjusted
			}
		}

		chunks = append(chunks, strings.TrimSpace(text[i:end]))

		if end == len(text) {
			break
		}
	}

	return chunks
}

// handleLargeChunks re-splits any chunk that exceeds the chunk size using
// the length strategy.
func (s *TextSplitter) handleLargeChunks(chunks []string) []string {
	var result []string

	for _, chunk := range chunks {
		if len(chunk) > s.config.ChunkSize {
			result = append(result, s.splitByLength(chunk)...)
		} else {
			result = append(result, chunk)
		}
	}

	return result
}
