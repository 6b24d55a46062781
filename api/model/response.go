package model

import (
	"time"

	"github.com/docpipe/doc-chunk-service/internal/models"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Code    int         `json:"code"`               // 0 on success, HTTP status on error
	Message string      `json:"message"`            // human readable outcome
	Data    interface{} `json:"data,omitempty"`     // endpoint-specific payload
	TraceID string      `json:"trace_id,omitempty"` // request trace id
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse acknowledges an upload.
type DocumentUploadResponse struct {
	FileID   string `json:"file_id"`  // document id
	FileName string `json:"filename"` // original file name
	Status   string `json:"status"`   // processing status at response time
}

// DocumentStatusResponse reports a document's processing state.
type DocumentStatusResponse struct {
	FileID    string `json:"file_id"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Progress  int    `json:"progress"`
	FileName  string `json:"filename"`
	Error     string `json:"error,omitempty"`
	Segments  int    `json:"segments,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// DocumentInfo is one entry of the document listing.
type DocumentInfo struct {
	FileID     string    `json:"file_id"`
	FileName   string    `json:"filename"`
	Status     string    `json:"status"`
	Tags       string    `json:"tags"`
	UploadTime time.Time `json:"upload_time"`
	Segments   int       `json:"segments"`
	WordCount  int       `json:"word_count"`
}

// DocumentListResponse is a page of documents.
type DocumentListResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Documents []DocumentInfo `json:"documents"`
}

// DocumentDeleteResponse acknowledges a deletion.
type DocumentDeleteResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
}

// SegmentInfo is one stored chunk of a document.
type SegmentInfo struct {
	SegmentID string `json:"segment_id"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
}

// DocumentSegmentsResponse lists a document's chunks in order.
type DocumentSegmentsResponse struct {
	FileID   string        `json:"file_id"`
	Count    int           `json:"count"`
	Segments []SegmentInfo `json:"segments"`
}

// ChunkItem is one chunk of an ad-hoc chunking request.
type ChunkItem struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// ChunkResponse is the result of an ad-hoc chunking request.
type ChunkResponse struct {
	Chunks     []ChunkItem `json:"chunks"`
	ChunkCount int         `json:"chunk_count"`
	Cached     bool        `json:"cached"` // served from the memoization cache
}

// ToDocumentInfo converts a stored document record to its listing shape.
func ToDocumentInfo(doc *models.Document) DocumentInfo {
	return DocumentInfo{
		FileID:     doc.ID,
		FileName:   doc.FileName,
		Status:     string(doc.Status),
		Tags:       doc.Tags,
		UploadTime: doc.UploadedAt,
		Segments:   doc.SegmentCount,
		WordCount:  doc.WordCount,
	}
}
