package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/repository"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
	"github.com/docpipe/doc-chunk-service/pkg/taskqueue"
)

// PipelineHandler executes queued document tasks on a worker. It covers the
// three task types: standalone parsing, standalone chunking and the full
// parse-then-chunk pipeline.
type PipelineHandler struct {
	storage       storage.Storage
	repo          repository.DocumentRepository
	statusManager *DocumentStatusManager
	queue         taskqueue.Queue
	logger        *logrus.Logger
}

// NewPipelineHandler creates the worker-side handler for document tasks.
func NewPipelineHandler(
	store storage.Storage,
	repo repository.DocumentRepository,
	statusManager *DocumentStatusManager,
	queue taskqueue.Queue,
	logger *logrus.Logger,
) *PipelineHandler {
	if logger == nil {
		logger = logrus.New()
	}

	return &PipelineHandler{
		storage:       store,
		repo:          repo,
		statusManager: statusManager,
		queue:         queue,
		logger:        logger,
	}
}

// TaskTypes lists the task types this handler accepts.
func (h *PipelineHandler) TaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{
		taskqueue.TaskDocumentParse,
		taskqueue.TaskTextChunk,
		taskqueue.TaskProcessComplete,
	}
}

// ProcessTask dispatches one task to its type-specific handler.
func (h *PipelineHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
	}).Info("Processing task")

	switch task.Type {
	case taskqueue.TaskDocumentParse:
		return h.handleParse(ctx, task)
	case taskqueue.TaskTextChunk:
		return h.handleChunk(ctx, task)
	case taskqueue.TaskProcessComplete:
		return h.handleProcessComplete(ctx, task)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// handleParse extracts text from a stored file.
func (h *PipelineHandler) handleParse(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.DocumentParsePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid parse payload: %w", err)
	}

	doc, err := h.parseFile(payload.FileID, payload.FileName)
	if err != nil {
		return err
	}

	result := taskqueue.DocumentParseResult{
		Content:   doc.Content,
		Title:     doc.Title,
		WordCount: doc.WordCount,
	}

	return h.completeTask(ctx, task.ID, result)
}

// handleChunk splits already-extracted text into chunks and, when the task
// names a document, stores them as its segments.
func (h *PipelineHandler) handleChunk(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.TextChunkPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid chunk payload: %w", err)
	}

	chunks, err := h.splitText(payload.Content, payload.SplitType, payload.ChunkSize, payload.Overlap)
	if err != nil {
		return err
	}

	if payload.DocumentID != "" && h.repo != nil {
		if err := h.saveSegments(payload.DocumentID, chunks); err != nil {
			return err
		}
	}

	result := taskqueue.TextChunkResult{
		DocumentID: payload.DocumentID,
		Chunks:     toChunkInfos(chunks),
		ChunkCount: len(chunks),
	}

	return h.completeTask(ctx, task.ID, result)
}

// handleProcessComplete runs the full pipeline for one document.
func (h *PipelineHandler) handleProcessComplete(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ProcessCompletePayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid process payload: %w", err)
	}

	docID := payload.DocumentID
	if docID == "" {
		docID = payload.FileID
	}

	fail := func(err error) error {
		if h.statusManager != nil {
			if markErr := h.statusManager.MarkAsFailed(ctx, docID, err.Error()); markErr != nil {
				h.logger.WithError(markErr).Error("Failed to mark document as failed")
			}
		}
		return err
	}

	h.markStage(ctx, docID, models.StageParsing)

	doc, err := h.parseFile(payload.FileID, payload.FileName)
	if err != nil {
		return fail(fmt.Errorf("failed to parse document: %w", err))
	}

	h.updateProgress(ctx, docID, 40)
	h.markStage(ctx, docID, models.StageChunking)

	chunks, err := h.splitText(doc.Content, payload.SplitType, payload.ChunkSize, payload.Overlap)
	if err != nil {
		return fail(fmt.Errorf("failed to split content: %w", err))
	}

	if err := h.saveSegments(docID, chunks); err != nil {
		return fail(fmt.Errorf("failed to save chunks: %w", err))
	}

	h.updateProgress(ctx, docID, 90)
	h.markStage(ctx, docID, models.StageCompleted)

	if h.statusManager != nil {
		if err := h.statusManager.MarkAsCompleted(ctx, docID, len(chunks), doc.WordCount); err != nil {
			h.logger.WithError(err).Error("Failed to mark document as completed")
		}
	}

	result := taskqueue.ProcessCompleteResult{
		DocumentID: docID,
		ChunkCount: len(chunks),
		WordCount:  doc.WordCount,
	}

	return h.completeTask(ctx, task.ID, result)
}

// parseFile loads a stored file and extracts its text.
func (h *PipelineHandler) parseFile(fileID string, fileName string) (*document.Document, error) {
	reader, err := h.storage.Get(fileID)
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

// splitText runs the splitter with the task's parameters.
func (h *PipelineHandler) splitText(text string, splitType string, chunkSize, overlap int) ([]document.Content, error) {
	cfg := document.DefaultSplitterConfig()
	if splitType != "" {
		cfg.SplitType = document.SplitType(splitType)
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}
	if overlap > 0 {
		cfg.ChunkOverlap = overlap
	}

	return document.NewTextSplitter(cfg).Split(text)
}

// saveSegments replaces a document's segments with the given chunks.
func (h *PipelineHandler) saveSegments(docID string, chunks []document.Content) error {
	if h.repo == nil || len(chunks) == 0 {
		return nil
	}

	// Reprocessing replaces earlier chunk runs.
	if err := h.repo.DeleteSegments(docID); err != nil {
		h.logger.WithError(err).WithField("doc_id", docID).
			Warn("Failed to clear previous segments")
	}

	segments := make([]*models.DocumentSegment, len(chunks))
	for i, chunk := range chunks {
		segments[i] = &models.DocumentSegment{
			DocumentID: docID,
			SegmentID:  fmt.Sprintf("%s_%d", docID, chunk.Index),
			Position:   chunk.Index,
			Text:       chunk.Text,
		}
	}

	return h.repo.SaveSegments(segments)
}

// completeTask records a successful result on the task record.
func (h *PipelineHandler) completeTask(ctx context.Context, taskID string, result interface{}) error {
	if h.queue == nil {
		return nil
	}
	if err := h.queue.UpdateTaskStatus(ctx, taskID, taskqueue.StatusCompleted, result, ""); err != nil {
		return fmt.Errorf("failed to record task result: %w", err)
	}
	return nil
}

func (h *PipelineHandler) markStage(ctx context.Context, docID string, stage models.ProcessStage) {
	if h.statusManager == nil {
		return
	}
	if err := h.statusManager.MarkStage(ctx, docID, stage); err != nil {
		h.logger.WithError(err).Warn("Failed to update document stage")
	}
}

func (h *PipelineHandler) updateProgress(ctx context.Context, docID string, progress int) {
	if h.statusManager == nil {
		return
	}
	if err := h.statusManager.UpdateProgress(ctx, docID, progress); err != nil {
		h.logger.WithError(err).Warn("Failed to update document progress")
	}
}

// toChunkInfos converts splitter output into the task result shape.
func toChunkInfos(chunks []document.Content) []taskqueue.ChunkInfo {
	infos := make([]taskqueue.ChunkInfo, len(chunks))
	for i, chunk := range chunks {
		infos[i] = taskqueue.ChunkInfo{Text: chunk.Text, Index: chunk.Index}
	}
	return infos
}
