package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docpipe/doc-chunk-service/api/handler"
	"github.com/docpipe/doc-chunk-service/internal/cache"
	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/repository"
	"github.com/docpipe/doc-chunk-service/internal/services"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	dbName := fmt.Sprintf("file:memdb_api_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Document{}, &models.DocumentSegment{}))

	repo := repository.NewDocumentRepositoryWithDB(db)
	manager := services.NewDocumentStatusManager(repo, nil)

	docService := services.NewDocumentService(store,
		services.WithDocumentRepository(repo),
		services.WithStatusManager(manager),
		services.WithSplitterConfig(document.SplitterConfig{
			SplitType: document.BySentence,
			ChunkSize: 50,
		}),
	)
	require.NoError(t, docService.Init())

	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	chunkService := services.NewChunkService(memCache)

	return SetupRouter(
		handler.NewDocumentHandler(docService, store),
		handler.NewChunkHandler(chunkService),
		nil,
	)
}

func uploadDocument(t *testing.T, router *gin.Engine, filename, content string) string {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("sync", "true"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			FileID string `json:"file_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.FileID)

	return resp.Data.FileID
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestUploadAndStatus(t *testing.T) {
	router := setupTestRouter(t)

	fileID := uploadDocument(t, router, "notes.txt",
		"The first sentence sets the scene. The second one moves things along. A third wraps it up")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/documents/"+fileID+"/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Status   string `json:"status"`
			Segments int    `json:"segments"`
			Progress int    `json:"progress"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Data.Status)
	assert.Positive(t, resp.Data.Segments)
	assert.Equal(t, 100, resp.Data.Progress)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	router := setupTestRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "image.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("binary"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	router := setupTestRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("tags", "orphan"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSegments(t *testing.T) {
	router := setupTestRouter(t)

	text := "Short opener here. A slightly longer follow-up sentence. The closing line of the fixture"
	fileID := uploadDocument(t, router, "segments.txt", text)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/documents/"+fileID+"/segments", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Count    int `json:"count"`
			Segments []struct {
				Position int    `json:"position"`
				Text     string `json:"text"`
			} `json:"segments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Positive(t, resp.Data.Count)
	require.Len(t, resp.Data.Segments, resp.Data.Count)

	for i, seg := range resp.Data.Segments {
		assert.Equal(t, i, seg.Position)
		assert.NotEmpty(t, seg.Text)
	}
}

func TestListDocuments(t *testing.T) {
	router := setupTestRouter(t)

	uploadDocument(t, router, "one.txt", "Document number one")
	uploadDocument(t, router, "two.txt", "Document number two")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total     int64 `json:"total"`
			Documents []struct {
				FileID string `json:"file_id"`
			} `json:"documents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Total)
	assert.Len(t, resp.Data.Documents, 2)
}

func TestListDocumentsStatusFilter(t *testing.T) {
	router := setupTestRouter(t)

	uploadDocument(t, router, "done.txt", "A completed document")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents?status=failed", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Data.Total)
}

func TestDeleteDocument(t *testing.T) {
	router := setupTestRouter(t)

	fileID := uploadDocument(t, router, "gone.txt", "Here today. Gone tomorrow")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/"+fileID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/documents/"+fileID+"/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusNotFound(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/missing/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTags(t *testing.T) {
	router := setupTestRouter(t)

	fileID := uploadDocument(t, router, "tagged.txt", "A document with tags")

	body := bytes.NewBufferString(`{"tags":"legal,contract"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+fileID+"/tags", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents?tags=legal", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
}

func TestChunkEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	body := bytes.NewBufferString(`{
		"text": "First sentence of the request. Second sentence of the request. Third one closes it",
		"chunk_size": 40,
		"split_type": "sentence"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chunks", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ChunkCount int  `json:"chunk_count"`
			Cached     bool `json:"cached"`
			Chunks     []struct {
				Text  string `json:"text"`
				Index int    `json:"index"`
			} `json:"chunks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Cached)
	assert.Positive(t, resp.Data.ChunkCount)
	assert.Len(t, resp.Data.Chunks, resp.Data.ChunkCount)
}

func TestChunkEndpointCacheHit(t *testing.T) {
	router := setupTestRouter(t)

	payload := `{"text": "Cache me once. Serve me twice", "chunk_size": 100}`

	for i, wantCached := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodPost, "/api/chunks",
			bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Cached bool `json:"cached"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, wantCached, resp.Data.Cached, "request %d", i)
	}
}

func TestChunkEndpointRequiresText(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chunks",
		bytes.NewBufferString(`{"chunk_size": 10}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTraceIDPropagation(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Trace-ID", "trace-123")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))
}
