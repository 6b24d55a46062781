package repository

import "github.com/docpipe/doc-chunk-service/internal/models"

// DocumentRepository stores document metadata and chunk segments.
type DocumentRepository interface {
	// Create inserts a document record.
	Create(doc *models.Document) error

	// Update saves a document record.
	Update(doc *models.Document) error

	// GetByID returns the document with the given id.
	GetByID(id string) (*models.Document, error)

	// List returns a page of documents plus the total count. Supported
	// filters: "status" (models.DocumentStatus or string), "tags" (substring
	// match).
	List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error)

	// Delete removes a document and its segments.
	Delete(id string) error

	// UpdateStatus sets the document status and, for failures, the error
	// message.
	UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error

	// UpdateProgress sets the processing progress (0-100).
	UpdateProgress(id string, progress int) error

	// UpdateStage sets the current pipeline stage.
	UpdateStage(id string, stage models.ProcessStage) error

	// SaveSegments stores chunk segments in batch.
	SaveSegments(segments []*models.DocumentSegment) error

	// GetSegments returns a document's segments ordered by position.
	GetSegments(docID string) ([]*models.DocumentSegment, error)

	// CountSegments returns the number of segments for a document.
	CountSegments(docID string) (int, error)

	// DeleteSegments removes all segments of a document.
	DeleteSegments(docID string) error
}
