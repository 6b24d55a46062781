package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/repository"
)

// DocumentStatusManager owns the lifecycle state of documents. All state
// transitions go through it so the uploaded -> processing -> completed/failed
// ordering is enforced in one place.
type DocumentStatusManager struct {
	repo   repository.DocumentRepository
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewDocumentStatusManager creates a status manager over the repository.
func NewDocumentStatusManager(repo repository.DocumentRepository, logger *logrus.Logger) *DocumentStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &DocumentStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// MarkAsUploaded creates the document record in the uploaded state.
func (m *DocumentStatusManager) MarkAsUploaded(ctx context.Context, docID string, fileName string, filePath string, fileSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"doc_id":   docID,
		"filename": fileName,
	}).Info("Marking document as uploaded")

	doc := &models.Document{
		ID:         docID,
		FileName:   fileName,
		FileType:   fileType(fileName),
		FilePath:   filePath,
		FileSize:   fileSize,
		Status:     models.DocStatusUploaded,
		UploadedAt: time.Now(),
		UpdatedAt:  time.Now(),
		Progress:   0,
	}

	return m.repo.Create(doc)
}

// MarkAsProcessing moves the document into the processing state.
func (m *DocumentStatusManager) MarkAsProcessing(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.repo.GetByID(docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := m.ValidateStateTransition(doc.Status, models.DocStatusProcessing); err != nil {
		return fmt.Errorf("document %s: %s -> %s: %w",
			docID, doc.Status, models.DocStatusProcessing, err)
	}

	m.logger.WithField("doc_id", docID).Info("Marking document as processing")

	return m.repo.UpdateStatus(docID, models.DocStatusProcessing, "")
}

// MarkStage records the pipeline stage the document is currently in.
func (m *DocumentStatusManager) MarkStage(ctx context.Context, docID string, stage models.ProcessStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"doc_id": docID,
		"stage":  stage,
	}).Debug("Updating document stage")

	return m.repo.UpdateStage(docID, stage)
}

// MarkAsCompleted finishes the document with its chunk and word counts.
func (m *DocumentStatusManager) MarkAsCompleted(ctx context.Context, docID string, segmentCount int, wordCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.repo.GetByID(docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := m.ValidateStateTransition(doc.Status, models.DocStatusCompleted); err != nil {
		return fmt.Errorf("document %s: %s -> %s: %w",
			docID, doc.Status, models.DocStatusCompleted, err)
	}

	m.logger.WithFields(logrus.Fields{
		"doc_id":        docID,
		"segment_count": segmentCount,
		"word_count":    wordCount,
	}).Info("Marking document as completed")

	if err := m.repo.UpdateStatus(docID, models.DocStatusCompleted, ""); err != nil {
		return err
	}

	doc, err = m.repo.GetByID(docID)
	if err != nil {
		return err
	}
	doc.SegmentCount = segmentCount
	doc.WordCount = wordCount
	return m.repo.Update(doc)
}

// MarkAsFailed records a processing failure with its error message.
func (m *DocumentStatusManager) MarkAsFailed(ctx context.Context, docID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.repo.GetByID(docID); err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"doc_id": docID,
		"error":  errorMsg,
	}).Error("Marking document as failed")

	return m.repo.UpdateStatus(docID, models.DocStatusFailed, errorMsg)
}

// UpdateProgress updates the processing progress of a document.
func (m *DocumentStatusManager) UpdateProgress(ctx context.Context, docID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.repo.GetByID(docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if doc.Status != models.DocStatusProcessing {
		return fmt.Errorf("cannot update progress: document %s is not in processing state", docID)
	}

	m.logger.WithFields(logrus.Fields{
		"doc_id":   docID,
		"progress": progress,
	}).Debug("Updating document progress")

	return m.repo.UpdateProgress(docID, progress)
}

// GetStatus returns the document's current status.
func (m *DocumentStatusManager) GetStatus(ctx context.Context, docID string) (models.DocumentStatus, error) {
	doc, err := m.repo.GetByID(docID)
	if err != nil {
		return "", fmt.Errorf("failed to get document status: %w", err)
	}
	return doc.Status, nil
}

// GetDocument returns the full document record.
func (m *DocumentStatusManager) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	return m.repo.GetByID(docID)
}

// ListDocuments returns a page of document records plus the total count.
func (m *DocumentStatusManager) ListDocuments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	return m.repo.List(offset, limit, filters)
}

// DeleteDocument removes the document record and its segments.
func (m *DocumentStatusManager) DeleteDocument(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithField("doc_id", docID).Info("Deleting document record")
	return m.repo.Delete(docID)
}

// ValidateStateTransition reports whether moving from one status to another
// is allowed.
func (m *DocumentStatusManager) ValidateStateTransition(from, to models.DocumentStatus) error {
	validTransitions := map[models.DocumentStatus][]models.DocumentStatus{
		models.DocStatusUploaded: {
			models.DocStatusProcessing,
			models.DocStatusCompleted, // tiny files may complete in one step
			models.DocStatusFailed,
		},
		models.DocStatusProcessing: {
			models.DocStatusCompleted,
			models.DocStatusFailed,
		},
		models.DocStatusCompleted: {},
		models.DocStatusFailed:    {models.DocStatusProcessing}, // retry
	}

	for _, validTo := range validTransitions[from] {
		if validTo == to {
			return nil
		}
	}

	return errors.New("invalid state transition")
}

// fileType returns the lowercased file extension without the leading dot.
func fileType(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}
