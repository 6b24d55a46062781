package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser extracts text content from PDF documents using pdfcpu.
type PDFParser struct{}

// NewPDFParser creates a PDF parser.
func NewPDFParser() Parser {
	return &PDFParser{}
}

// Supports reports whether the MIME type is PDF.
func (p *PDFParser) Supports(mimeType string) bool {
	return mimeType == MimePDF
}

// Parse extracts the text of every page, concatenated in page order.
// pdfcpu's content extraction works on files, so the reader is spooled to a
// temporary directory first.
func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	tmpDir, err := os.MkdirTemp("", "docchunk_pdf_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	pdfFile, err := os.Create(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(pdfFile, r); err != nil {
		pdfFile.Close()
		return nil, fmt.Errorf("failed to spool pdf content: %w", err)
	}
	pdfFile.Close()

	extractDir := filepath.Join(tmpDir, "out")
	if err := os.Mkdir(extractDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(pdfPath, extractDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract text from pdf: %w", err)
	}

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction dir: %w", err)
	}

	// Page files sort lexically in page order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var allText strings.Builder
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(extractDir, entry.Name()))
		if err != nil {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.Write(data)
	}

	doc, err := NewDocument(strings.TrimSpace(allText.String()), filename)
	if err != nil {
		return nil, fmt.Errorf("no text content found in pdf: %w", err)
	}
	return doc, nil
}
