package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
)

func setupDocumentService(t *testing.T) (*DocumentService, storage.Storage) {
	t.Helper()

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	repo := setupTestRepo(t)
	manager := NewDocumentStatusManager(repo, nil)

	svc := NewDocumentService(store,
		WithDocumentRepository(repo),
		WithStatusManager(manager),
		WithSplitterConfig(document.SplitterConfig{
			SplitType: document.BySentence,
			ChunkSize: 40,
		}),
	)
	require.NoError(t, svc.Init())

	return svc, store
}

func uploadTestFile(t *testing.T, svc *DocumentService, store storage.Storage, name, content string) string {
	t.Helper()

	info, err := store.Save(bytes.NewBufferString(content), name)
	require.NoError(t, err)

	err = svc.GetStatusManager().MarkAsUploaded(context.Background(),
		info.ID, name, info.Path, info.Size)
	require.NoError(t, err)

	return info.ID
}

func TestProcessDocumentSync(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	text := "The pipeline starts here. It keeps going with more words. A third sentence arrives. Then one more for good measure"
	fileID := uploadTestFile(t, svc, store, "pipeline.txt", text)

	require.NoError(t, svc.ProcessDocument(ctx, fileID, "pipeline.txt"))

	doc, err := svc.GetDocument(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, doc.Status)
	assert.Equal(t, 100, doc.Progress)
	assert.Equal(t, models.StageCompleted, doc.CurrentStage)
	assert.Positive(t, doc.SegmentCount)
	assert.Equal(t, len(strings.Fields(text)), doc.WordCount)

	segments, err := svc.GetDocumentSegments(ctx, fileID)
	require.NoError(t, err)
	require.Len(t, segments, doc.SegmentCount)

	for i, seg := range segments {
		assert.Equal(t, i, seg.Position)
		assert.NotEmpty(t, seg.Text)
	}

	// Chunks joined back together reproduce the original text.
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	assert.Equal(t, text, strings.Join(texts, document.SentenceDelimiter))
}

func TestProcessDocumentEmptyFile(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	fileID := uploadTestFile(t, svc, store, "blank.txt", "   \n\t  ")

	err := svc.ProcessDocument(ctx, fileID, "blank.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrInvalidDocument)

	status, err := svc.GetDocumentStatus(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusFailed, status)
}

func TestProcessDocumentUnsupportedType(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	fileID := uploadTestFile(t, svc, store, "image.png", "not really an image")

	err := svc.ProcessDocument(ctx, fileID, "image.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrUnsupportedType)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	svc, _ := setupDocumentService(t)

	err := svc.GetStatusManager().MarkAsUploaded(context.Background(),
		"ghost", "ghost.txt", "nowhere", 0)
	require.NoError(t, err)

	err = svc.ProcessDocument(context.Background(), "ghost", "ghost.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestProcessDocumentValidatesInput(t *testing.T) {
	svc, _ := setupDocumentService(t)

	assert.Error(t, svc.ProcessDocument(context.Background(), "", "a.txt"))
	assert.Error(t, svc.ProcessDocument(context.Background(), "id", ""))
}

func TestDeleteDocument(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	fileID := uploadTestFile(t, svc, store, "temp.txt", "One sentence. Two sentence")
	require.NoError(t, svc.ProcessDocument(ctx, fileID, "temp.txt"))

	require.NoError(t, svc.DeleteDocument(ctx, fileID))

	_, err := svc.GetDocument(ctx, fileID)
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	exists, err := store.Exists(fileID)
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := svc.CountDocumentSegments(ctx, fileID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListDocumentsWithFilters(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	id1 := uploadTestFile(t, svc, store, "one.txt", "First document text")
	uploadTestFile(t, svc, store, "two.txt", "Second document text")

	require.NoError(t, svc.ProcessDocument(ctx, id1, "one.txt"))

	docs, total, err := svc.ListDocuments(ctx, 0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)

	docs, total, err = svc.ListDocuments(ctx, 0, 10, map[string]interface{}{
		"status": models.DocStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, id1, docs[0].ID)
}

func TestUpdateDocumentTags(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	fileID := uploadTestFile(t, svc, store, "tagged.txt", "Some text here")

	require.NoError(t, svc.UpdateDocumentTags(ctx, fileID, "legal,contract"))

	doc, err := svc.GetDocument(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "legal,contract", doc.Tags)
}

func TestWaitForDocumentProcessingSyncMode(t *testing.T) {
	svc, store := setupDocumentService(t)
	ctx := context.Background()

	fileID := uploadTestFile(t, svc, store, "done.txt", "All done here")
	require.NoError(t, svc.ProcessDocument(ctx, fileID, "done.txt"))

	assert.NoError(t, svc.WaitForDocumentProcessing(ctx, fileID, 0))
}
