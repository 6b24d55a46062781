package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/repository"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
	"github.com/docpipe/doc-chunk-service/pkg/taskqueue"
)

// DocumentService drives the document pipeline: fetch the stored file, parse
// it into text, split the text into chunks and persist the chunks. Processing
// runs inline by default; with a task queue attached it is handed to workers
// instead.
type DocumentService struct {
	storage       storage.Storage
	splitterCfg   document.SplitterConfig
	splitter      document.Splitter
	repo          repository.DocumentRepository
	statusManager *DocumentStatusManager
	taskQueue     taskqueue.Queue
	asyncEnabled  bool
	timeout       time.Duration
	logger        *logrus.Logger
}

// DocumentOption configures a DocumentService.
type DocumentOption func(*DocumentService)

// NewDocumentService creates a document service over the given file storage.
func NewDocumentService(store storage.Storage, opts ...DocumentOption) *DocumentService {
	srv := &DocumentService{
		storage:     store,
		splitterCfg: document.DefaultSplitterConfig(),
		timeout:     5 * time.Minute,
		logger:      logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	if srv.splitter == nil {
		srv.splitter = document.NewTextSplitter(srv.splitterCfg)
	}

	return srv
}

// WithSplitterConfig sets the chunking parameters.
func WithSplitterConfig(cfg document.SplitterConfig) DocumentOption {
	return func(s *DocumentService) {
		s.splitterCfg = cfg
		s.splitter = document.NewTextSplitter(cfg)
	}
}

// WithTimeout sets the per-document processing timeout.
func WithTimeout(timeout time.Duration) DocumentOption {
	return func(s *DocumentService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) DocumentOption {
	return func(s *DocumentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDocumentRepository sets the metadata repository.
func WithDocumentRepository(repo repository.DocumentRepository) DocumentOption {
	return func(s *DocumentService) {
		s.repo = repo
	}
}

// WithStatusManager sets the status manager.
func WithStatusManager(manager *DocumentStatusManager) DocumentOption {
	return func(s *DocumentService) {
		s.statusManager = manager
	}
}

// WithTaskQueue attaches a task queue and enables async processing.
func WithTaskQueue(queue taskqueue.Queue) DocumentOption {
	return func(s *DocumentService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing toggles async processing explicitly.
func WithAsyncProcessing(enabled bool) DocumentOption {
	return func(s *DocumentService) {
		s.asyncEnabled = enabled
	}
}

// Init fills in default dependencies that were not configured.
func (s *DocumentService) Init() error {
	if s.repo == nil {
		s.repo = repository.NewDocumentRepository()
	}
	if s.statusManager == nil {
		s.statusManager = NewDocumentStatusManager(s.repo, s.logger)
	}
	return nil
}

// ProcessDocument runs the parse-and-chunk pipeline for an uploaded file.
// fileID is the storage id of the raw file and the document id; fileName is
// the original name, which decides the parser.
func (s *DocumentService) ProcessDocument(ctx context.Context, fileID string, fileName string) error {
	if err := s.Init(); err != nil {
		return err
	}

	if fileID == "" {
		return errors.New("fileID cannot be empty")
	}
	if fileName == "" {
		return errors.New("fileName cannot be empty")
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":   fileID,
		"file_name": fileName,
	}).Info("Starting document processing")

	if s.asyncEnabled && s.taskQueue != nil {
		return s.processDocumentAsync(ctx, fileID, fileName)
	}

	return s.processDocumentSync(ctx, fileID, fileName)
}

// processDocumentAsync enqueues the pipeline and returns immediately.
func (s *DocumentService) processDocumentAsync(ctx context.Context, fileID string, fileName string) error {
	if err := s.statusManager.MarkAsProcessing(ctx, fileID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
	}

	payload := taskqueue.ProcessCompletePayload{
		DocumentID: fileID,
		FileID:     fileID,
		FileName:   fileName,
		ChunkSize:  s.splitterCfg.ChunkSize,
		Overlap:    s.splitterCfg.ChunkOverlap,
		SplitType:  string(s.splitterCfg.SplitType),
	}

	taskID, err := s.taskQueue.Enqueue(ctx, taskqueue.TaskProcessComplete, fileID, payload)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to enqueue processing task: %v", err))
		return fmt.Errorf("failed to enqueue processing task: %w", err)
	}

	if doc, err := s.repo.GetByID(fileID); err == nil {
		doc.CurrentTaskID = taskID
		if err := s.repo.Update(doc); err != nil {
			s.logger.WithError(err).Warn("Failed to record task id on document")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"task_id": taskID,
	}).Info("Document processing task enqueued")

	return nil
}

// processDocumentSync runs the pipeline inline.
func (s *DocumentService) processDocumentSync(ctx context.Context, fileID string, fileName string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.statusManager.MarkAsProcessing(ctx, fileID); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as processing")
	}

	if err := s.statusManager.MarkStage(ctx, fileID, models.StageParsing); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	doc, err := s.parseDocument(fileID, fileName)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to parse document: %v", err))
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if err := s.statusManager.UpdateProgress(ctx, fileID, 40); err != nil {
		s.logger.WithError(err).Warn("Failed to update document progress")
	}
	if err := s.statusManager.MarkStage(ctx, fileID, models.StageChunking); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	chunks, err := s.splitter.Split(doc.Content)
	if err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to split content: %v", err))
		return fmt.Errorf("failed to split content: %w", err)
	}

	if err := s.saveChunks(fileID, chunks); err != nil {
		s.failDocument(ctx, fileID, fmt.Sprintf("failed to save chunks: %v", err))
		return fmt.Errorf("failed to save chunks: %w", err)
	}

	if err := s.statusManager.UpdateProgress(ctx, fileID, 90); err != nil {
		s.logger.WithError(err).Warn("Failed to update document progress")
	}
	if err := s.statusManager.MarkStage(ctx, fileID, models.StageCompleted); err != nil {
		s.logger.WithError(err).Warn("Failed to update document stage")
	}

	if err := s.statusManager.MarkAsCompleted(ctx, fileID, len(chunks), doc.WordCount); err != nil {
		s.logger.WithError(err).Error("Failed to mark document as completed")
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":     fileID,
		"chunk_count": len(chunks),
		"word_count":  doc.WordCount,
	}).Info("Document processing completed")

	return nil
}

// parseDocument fetches the raw file from storage and extracts its text.
func (s *DocumentService) parseDocument(fileID string, fileName string) (*document.Document, error) {
	reader, err := s.storage.Get(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file from storage: %w", err)
	}
	defer reader.Close()

	parser, err := document.ParserFor(fileName)
	if err != nil {
		return nil, err
	}

	return parser.Parse(reader, fileName)
}

// saveChunks persists the chunks as ordered segment records.
func (s *DocumentService) saveChunks(fileID string, chunks []document.Content) error {
	if len(chunks) == 0 {
		return nil
	}

	segments := make([]*models.DocumentSegment, len(chunks))
	for i, chunk := range chunks {
		segments[i] = &models.DocumentSegment{
			DocumentID: fileID,
			SegmentID:  fmt.Sprintf("%s_%d", fileID, chunk.Index),
			Position:   chunk.Index,
			Text:       chunk.Text,
		}
	}

	return s.repo.SaveSegments(segments)
}

// DeleteDocument removes the document's file, segments and metadata.
func (s *DocumentService) DeleteDocument(ctx context.Context, fileID string) error {
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("file_id", fileID).Info("Deleting document")

	if err := s.storage.Delete(fileID); err != nil {
		// The file may already be gone; record and keep going.
		s.logger.WithError(err).Warn("Failed to delete file from storage")
	}

	if err := s.statusManager.DeleteDocument(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	if s.taskQueue != nil {
		tasks, err := s.taskQueue.GetTasksByDocument(ctx, fileID)
		if err == nil {
			for _, task := range tasks {
				if err := s.taskQueue.DeleteTask(ctx, task.ID); err != nil {
					s.logger.WithError(err).WithField("task_id", task.ID).
						Warn("Failed to delete document task")
				}
			}
		}
	}

	s.logger.WithField("file_id", fileID).Info("Document deleted")
	return nil
}

// GetDocument returns the document's metadata record.
func (s *DocumentService) GetDocument(ctx context.Context, fileID string) (*models.Document, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s.statusManager.GetDocument(ctx, fileID)
}

// GetDocumentStatus returns the document's processing status.
func (s *DocumentService) GetDocumentStatus(ctx context.Context, fileID string) (models.DocumentStatus, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	return s.statusManager.GetStatus(ctx, fileID)
}

// GetDocumentSegments returns the document's chunks in order.
func (s *DocumentService) GetDocumentSegments(ctx context.Context, fileID string) ([]*models.DocumentSegment, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s.repo.GetSegments(fileID)
}

// CountDocumentSegments returns the number of chunks stored for a document.
func (s *DocumentService) CountDocumentSegments(ctx context.Context, fileID string) (int, error) {
	if err := s.Init(); err != nil {
		return 0, err
	}
	return s.repo.CountSegments(fileID)
}

// ListDocuments returns a page of documents plus the total count.
func (s *DocumentService) ListDocuments(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error) {
	if err := s.Init(); err != nil {
		return nil, 0, err
	}
	return s.statusManager.ListDocuments(ctx, offset, limit, filters)
}

// UpdateDocumentTags replaces the document's tags.
func (s *DocumentService) UpdateDocumentTags(ctx context.Context, fileID string, tags string) error {
	if err := s.Init(); err != nil {
		return err
	}

	doc, err := s.statusManager.GetDocument(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	doc.Tags = tags
	return s.repo.Update(doc)
}

// GetDocumentTasks returns the queue tasks related to a document.
func (s *DocumentService) GetDocumentTasks(ctx context.Context, fileID string) ([]*taskqueue.Task, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, errors.New("async processing not enabled")
	}

	return s.taskQueue.GetTasksByDocument(ctx, fileID)
}

// WaitForDocumentProcessing blocks until the document's processing finishes
// or the timeout elapses.
func (s *DocumentService) WaitForDocumentProcessing(ctx context.Context, fileID string, timeout time.Duration) error {
	if err := s.Init(); err != nil {
		return err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		status, err := s.statusManager.GetStatus(ctx, fileID)
		if err != nil {
			return err
		}
		switch status {
		case models.DocStatusCompleted:
			return nil
		case models.DocStatusFailed:
			return errors.New("document processing failed")
		default:
			return errors.New("document not processed")
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tasks, err := s.taskQueue.GetTasksByDocument(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get document tasks: %w", err)
	}

	var latest *taskqueue.Task
	for _, task := range tasks {
		if task.Type != taskqueue.TaskProcessComplete {
			continue
		}
		if latest == nil || task.CreatedAt.After(latest.CreatedAt) {
			latest = task
		}
	}
	if latest == nil {
		return fmt.Errorf("no processing task found for document %s", fileID)
	}

	if _, err := s.taskQueue.WaitForTask(ctx, latest.ID, timeout); err != nil {
		return fmt.Errorf("failed to wait for document processing: %w", err)
	}

	status, err := s.statusManager.GetStatus(ctx, fileID)
	if err != nil {
		return err
	}
	if status == models.DocStatusFailed {
		return errors.New("document processing failed")
	}
	if status != models.DocStatusCompleted {
		return errors.New("document processing incomplete")
	}
	return nil
}

// failDocument marks the document failed, logging instead of returning when
// even that cannot be recorded.
func (s *DocumentService) failDocument(ctx context.Context, fileID string, errorMsg string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark document as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, fileID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"file_id": fileID,
			"error":   err,
		}).Error("Failed to mark document as failed")
	}
}

// GetStatusManager returns the status manager.
func (s *DocumentService) GetStatusManager() *DocumentStatusManager {
	return s.statusManager
}

// GetTaskQueue returns the task queue, if one is attached.
func (s *DocumentService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}
