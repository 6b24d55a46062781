package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/docpipe/doc-chunk-service/internal/database"
	"github.com/docpipe/doc-chunk-service/internal/models"
)

// docRepository is the gorm-backed DocumentRepository.
type docRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a repository on the global database handle.
func NewDocumentRepository() DocumentRepository {
	return &docRepository{db: database.MustDB()}
}

// NewDocumentRepositoryWithDB creates a repository on a specific database
// handle. Used by tests and by callers that manage their own connection.
func NewDocumentRepositoryWithDB(db *gorm.DB) DocumentRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &docRepository{db: db}
}

// Create inserts a document record.
func (r *docRepository) Create(doc *models.Document) error {
	if doc.ID == "" {
		return errors.New("document ID cannot be empty")
	}
	return r.db.Create(doc).Error
}

// Update saves a document record.
func (r *docRepository) Update(doc *models.Document) error {
	if doc.ID == "" {
		return errors.New("document ID cannot be empty")
	}
	return r.db.Save(doc).Error
}

// GetByID returns the document with the given id.
func (r *docRepository) GetByID(id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

// List returns a page of documents plus the total count.
func (r *docRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	var docs []*models.Document
	var total int64

	query := r.db.Model(&models.Document{})

	if filters != nil {
		if status, ok := filters["status"]; ok {
			switch s := status.(type) {
			case models.DocumentStatus:
				query = query.Where("status = ?", string(s))
			case string:
				if s != "" {
					query = query.Where("status = ?", s)
				}
			}
		}
		if tags, ok := filters["tags"].(string); ok && tags != "" {
			query = query.Where("tags LIKE ?", "%"+tags+"%")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Order("uploaded_at DESC").Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// Delete removes a document and its segments in one transaction.
func (r *docRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentSegment{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
		}
		return nil
	})
}

// UpdateStatus sets the document status and bookkeeping timestamps.
func (r *docRepository) UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	switch status {
	case models.DocStatusFailed:
		updates["error"] = errorMsg
	case models.DocStatusCompleted:
		now := time.Now()
		updates["processed_at"] = &now
		updates["progress"] = 100
		updates["current_stage"] = models.StageCompleted
	}

	result := r.db.Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}

// UpdateProgress sets the processing progress.
func (r *docRepository) UpdateProgress(id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	result := r.db.Model(&models.Document{}).Where("id = ?", id).
		Updates(map[string]interface{}{"progress": progress, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}

// UpdateStage sets the current pipeline stage.
func (r *docRepository) UpdateStage(id string, stage models.ProcessStage) error {
	result := r.db.Model(&models.Document{}).Where("id = ?", id).
		Updates(map[string]interface{}{"current_stage": stage, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}

// SaveSegments stores chunk segments in batch.
func (r *docRepository) SaveSegments(segments []*models.DocumentSegment) error {
	if len(segments) == 0 {
		return nil
	}
	return r.db.CreateInBatches(segments, 100).Error
}

// GetSegments returns a document's segments ordered by position.
func (r *docRepository) GetSegments(docID string) ([]*models.DocumentSegment, error) {
	var segments []*models.DocumentSegment
	err := r.db.Where("document_id = ?", docID).Order("position ASC").Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// CountSegments returns the number of segments for a document.
func (r *docRepository) CountSegments(docID string) (int, error) {
	var count int64
	err := r.db.Model(&models.DocumentSegment{}).Where("document_id = ?", docID).Count(&count).Error
	return int(count), err
}

// DeleteSegments removes all segments of a document.
func (r *docRepository) DeleteSegments(docID string) error {
	return r.db.Where("document_id = ?", docID).Delete(&models.DocumentSegment{}).Error
}
