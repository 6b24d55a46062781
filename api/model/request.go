package model

import (
	"mime/multipart"
	"time"
)

// PaginationRequest carries the shared paging parameters.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // page number, starting at 1
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // records per page
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10 and capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// DocumentUploadRequest is the multipart upload form.
type DocumentUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`  // uploaded file
	Tags string                `form:"tags" binding:"omitempty"` // comma separated tags
	Sync bool                  `form:"sync" binding:"omitempty"` // process inline instead of in the background
}

// DocumentIDRequest binds the document id path parameter.
type DocumentIDRequest struct {
	ID string `uri:"id" binding:"required"` // document id
}

// DocumentListRequest filters the document listing.
type DocumentListRequest struct {
	PaginationRequest
	StartTime *time.Time `form:"start_time" json:"start_time" binding:"omitempty"` // uploaded-after filter
	EndTime   *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`     // uploaded-before filter
	Status    string     `form:"status" json:"status" binding:"omitempty"`         // status filter
	Tags      string     `form:"tags" json:"tags" binding:"omitempty"`             // tag substring filter
}

// ChunkRequest asks for raw text to be split into chunks.
type ChunkRequest struct {
	Text         string `json:"text" binding:"required"`                 // text to split
	ChunkSize    int    `json:"chunk_size" binding:"omitempty,min=1"`    // target chunk size in characters
	ChunkOverlap int    `json:"chunk_overlap" binding:"omitempty,min=0"` // overlap for the length strategy
	SplitType    string `json:"split_type" binding:"omitempty,oneof=sentence paragraph length"` // splitting strategy
}

// UpdateTagsRequest replaces a document's tags.
type UpdateTagsRequest struct {
	Tags string `json:"tags" binding:"required"` // comma separated tags
}
