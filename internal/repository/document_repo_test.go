package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docpipe/doc-chunk-service/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Unique name keeps parallel tests from sharing the in-memory database.
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory database")

	err = db.AutoMigrate(&models.Document{}, &models.DocumentSegment{})
	require.NoError(t, err, "failed to run migrations")

	return db
}

func newTestDocument(id string) *models.Document {
	return &models.Document{
		ID:       id,
		FileName: "test.txt",
		FileType: "txt",
		FilePath: "2025/01/01/" + id + ".txt",
		FileSize: 1024,
		Status:   models.DocStatusUploaded,
		Tags:     "test,fixture",
	}
}

func TestDocumentRepositoryCreateAndGet(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	doc := newTestDocument("doc-1")
	require.NoError(t, repo.Create(doc))

	got, err := repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "test.txt", got.FileName)
	assert.Equal(t, models.DocStatusUploaded, got.Status)
	assert.False(t, got.UploadedAt.IsZero(), "BeforeCreate should set UploadedAt")
}

func TestDocumentRepositoryCreateRequiresID(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))
	assert.Error(t, repo.Create(&models.Document{FileName: "x.txt"}))
}

func TestDocumentRepositoryGetMissing(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	_, err := repo.GetByID("nope")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestDocumentRepositoryList(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))

	for i := 0; i < 5; i++ {
		doc := newTestDocument(fmt.Sprintf("doc-%d", i))
		if i%2 == 0 {
			doc.Status = models.DocStatusCompleted
		}
		require.NoError(t, repo.Create(doc))
	}

	docs, total, err := repo.List(0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, docs, 5)

	docs, total, err = repo.List(0, 10, map[string]interface{}{
		"status": models.DocStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, docs, 3)

	docs, _, err = repo.List(0, 2, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentRepositoryUpdateStatus(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))
	require.NoError(t, repo.Create(newTestDocument("doc-1")))

	require.NoError(t, repo.UpdateStatus("doc-1", models.DocStatusProcessing, ""))
	got, err := repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusProcessing, got.Status)

	require.NoError(t, repo.UpdateStatus("doc-1", models.DocStatusCompleted, ""))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.ProcessedAt)

	require.NoError(t, repo.UpdateStatus("doc-1", models.DocStatusFailed, "parse error"))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "parse error", got.Error)

	assert.ErrorIs(t, repo.UpdateStatus("missing", models.DocStatusCompleted, ""),
		models.ErrDocumentNotFound)
}

func TestDocumentRepositoryUpdateProgress(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))
	require.NoError(t, repo.Create(newTestDocument("doc-1")))

	require.NoError(t, repo.UpdateProgress("doc-1", 42))
	got, err := repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.Progress)

	// Progress is clamped to 0-100.
	require.NoError(t, repo.UpdateProgress("doc-1", 150))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
}

func TestDocumentRepositorySegments(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))
	require.NoError(t, repo.Create(newTestDocument("doc-1")))

	segments := []*models.DocumentSegment{
		{DocumentID: "doc-1", SegmentID: "seg-2", Position: 2, Text: "third chunk"},
		{DocumentID: "doc-1", SegmentID: "seg-0", Position: 0, Text: "first chunk"},
		{DocumentID: "doc-1", SegmentID: "seg-1", Position: 1, Text: "second chunk"},
	}
	require.NoError(t, repo.SaveSegments(segments))

	count, err := repo.CountSegments("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := repo.GetSegments("doc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Segments come back ordered by position regardless of insert order.
	assert.Equal(t, "first chunk", got[0].Text)
	assert.Equal(t, "second chunk", got[1].Text)
	assert.Equal(t, "third chunk", got[2].Text)

	require.NoError(t, repo.DeleteSegments("doc-1"))
	count, err = repo.CountSegments("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDocumentRepositoryDelete(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(setupTestDB(t))
	require.NoError(t, repo.Create(newTestDocument("doc-1")))
	require.NoError(t, repo.SaveSegments([]*models.DocumentSegment{
		{DocumentID: "doc-1", SegmentID: "seg-0", Position: 0, Text: "chunk"},
	}))

	require.NoError(t, repo.Delete("doc-1"))

	_, err := repo.GetByID("doc-1")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	count, err := repo.CountSegments("doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, repo.Delete("doc-1"), models.ErrDocumentNotFound)
}
