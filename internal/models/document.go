package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	// DocStatusUploaded means the file is stored and waiting for processing.
	DocStatusUploaded DocumentStatus = "uploaded"
	// DocStatusProcessing means parsing or chunking is in progress.
	DocStatusProcessing DocumentStatus = "processing"
	// DocStatusCompleted means the document has been parsed and chunked.
	DocStatusCompleted DocumentStatus = "completed"
	// DocStatusFailed means processing stopped with an error.
	DocStatusFailed DocumentStatus = "failed"
)

// ProcessStage is the pipeline stage a document is currently in.
type ProcessStage string

const (
	// StageParsing covers text extraction from the raw file.
	StageParsing ProcessStage = "parsing"
	// StageChunking covers splitting the extracted text into segments.
	StageChunking ProcessStage = "chunking"
	// StageCompleted marks the end of the pipeline.
	StageCompleted ProcessStage = "completed"
)

// Document stores the metadata of one uploaded document.
type Document struct {
	ID            string         `gorm:"primaryKey"`         // document id, primary key
	FileName      string         `gorm:"not null"`           // original file name
	FileType      string         `gorm:"not null"`           // file extension
	FilePath      string         `gorm:"not null"`           // path within file storage
	FileSize      int64          `gorm:"not null"`           // file size in bytes
	Status        DocumentStatus `gorm:"not null;index"`     // processing status
	UploadedAt    time.Time      `gorm:"not null;index"`     // upload timestamp
	ProcessedAt   *time.Time     `gorm:"index"`              // processing completion timestamp
	UpdatedAt     time.Time      `gorm:"not null;index"`     // last update timestamp
	Progress      int            `gorm:"not null;default:0"` // processing progress (0-100)
	Error         string         `gorm:"type:text"`          // error message when failed
	SegmentCount  int            `gorm:"not null;default:0"` // number of chunks produced
	WordCount     int            `gorm:"not null;default:0"` // word count of the parsed text
	Tags          string         `gorm:"type:varchar(255)"`  // comma separated tags
	Metadata      datatypes.JSON `gorm:"type:json"`          // arbitrary metadata
	CurrentStage  ProcessStage   `gorm:"size:20"`            // current pipeline stage
	CurrentTaskID string         `gorm:"size:50;index"`      // id of the queue task working on it
}

// BeforeCreate sets timestamps before the record is inserted.
func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (d *Document) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName pins the table name.
func (Document) TableName() string {
	return "documents"
}

// DocumentSegment stores one chunk of a document's text.
type DocumentSegment struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"` // surrogate key
	DocumentID string         `gorm:"not null;index"`           // owning document id
	SegmentID  string         `gorm:"not null;uniqueIndex"`     // unique segment id
	Position   int            `gorm:"not null"`                 // chunk order within the document
	Text       string         `gorm:"type:text;not null"`       // chunk text
	CreatedAt  time.Time      `gorm:"not null"`                 // creation timestamp
	UpdatedAt  time.Time      `gorm:"not null"`                 // last update timestamp
	Metadata   datatypes.JSON `gorm:"type:json"`                // chunk metadata
}

// BeforeCreate sets timestamps before the record is inserted.
func (ds *DocumentSegment) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	ds.CreatedAt = now
	ds.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (ds *DocumentSegment) BeforeUpdate(tx *gorm.DB) (err error) {
	ds.UpdatedAt = time.Now()
	return nil
}

// TableName pins the table name.
func (DocumentSegment) TableName() string {
	return "document_segments"
}
