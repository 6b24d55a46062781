package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/repository"
)

func setupTestRepo(t *testing.T) repository.DocumentRepository {
	t.Helper()

	dbName := fmt.Sprintf("file:memdb_services_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory database")

	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.DocumentSegment{}))

	return repository.NewDocumentRepositoryWithDB(db)
}

func TestStatusManagerLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)
	ctx := context.Background()

	require.NoError(t, manager.MarkAsUploaded(ctx, "doc-1", "report.txt", "2025/01/01/doc-1.txt", 512))

	status, err := manager.GetStatus(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusUploaded, status)

	require.NoError(t, manager.MarkAsProcessing(ctx, "doc-1"))
	require.NoError(t, manager.UpdateProgress(ctx, "doc-1", 50))
	require.NoError(t, manager.MarkAsCompleted(ctx, "doc-1", 4, 120))

	doc, err := manager.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, doc.Status)
	assert.Equal(t, 4, doc.SegmentCount)
	assert.Equal(t, 120, doc.WordCount)
	assert.Equal(t, 100, doc.Progress)
	assert.NotNil(t, doc.ProcessedAt)
}

func TestStatusManagerMarkAsFailed(t *testing.T) {
	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)
	ctx := context.Background()

	require.NoError(t, manager.MarkAsUploaded(ctx, "doc-2", "broken.pdf", "p", 10))
	require.NoError(t, manager.MarkAsProcessing(ctx, "doc-2"))
	require.NoError(t, manager.MarkAsFailed(ctx, "doc-2", "parse error"))

	doc, err := manager.GetDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusFailed, doc.Status)
	assert.Equal(t, "parse error", doc.Error)
}

func TestStatusManagerInvalidTransition(t *testing.T) {
	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)
	ctx := context.Background()

	require.NoError(t, manager.MarkAsUploaded(ctx, "doc-3", "a.txt", "p", 1))
	require.NoError(t, manager.MarkAsProcessing(ctx, "doc-3"))
	require.NoError(t, manager.MarkAsCompleted(ctx, "doc-3", 1, 2))

	// Completed is terminal.
	assert.Error(t, manager.MarkAsProcessing(ctx, "doc-3"))
}

func TestStatusManagerRetryAfterFailure(t *testing.T) {
	manager := NewDocumentStatusManager(setupTestRepo(t), nil)

	assert.NoError(t, manager.ValidateStateTransition(models.DocStatusFailed, models.DocStatusProcessing))
	assert.Error(t, manager.ValidateStateTransition(models.DocStatusCompleted, models.DocStatusProcessing))
	assert.NoError(t, manager.ValidateStateTransition(models.DocStatusUploaded, models.DocStatusCompleted))
}

func TestStatusManagerUpdateProgressRequiresProcessing(t *testing.T) {
	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)
	ctx := context.Background()

	require.NoError(t, manager.MarkAsUploaded(ctx, "doc-4", "a.txt", "p", 1))
	assert.Error(t, manager.UpdateProgress(ctx, "doc-4", 10))
}

func TestStatusManagerStage(t *testing.T) {
	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)
	ctx := context.Background()

	require.NoError(t, manager.MarkAsUploaded(ctx, "doc-5", "a.md", "p", 1))
	require.NoError(t, manager.MarkStage(ctx, "doc-5", models.StageChunking))

	doc, err := manager.GetDocument(ctx, "doc-5")
	require.NoError(t, err)
	assert.Equal(t, models.StageChunking, doc.CurrentStage)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "pdf", fileType("Report.PDF"))
	assert.Equal(t, "txt", fileType("notes.txt"))
	assert.Equal(t, "", fileType("README"))
}
