package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/api/middleware"
	"github.com/docpipe/doc-chunk-service/api/model"
	"github.com/docpipe/doc-chunk-service/internal/document"
	"github.com/docpipe/doc-chunk-service/internal/services"
)

// ChunkHandler serves ad-hoc text chunking, without a stored document.
type ChunkHandler struct {
	chunkService *services.ChunkService
	logger       *logrus.Logger
}

// NewChunkHandler creates a chunk handler.
func NewChunkHandler(chunkService *services.ChunkService) *ChunkHandler {
	return &ChunkHandler{
		chunkService: chunkService,
		logger:       middleware.GetLogger(),
	}
}

// ChunkText splits the posted text and returns the chunks in order.
// POST /api/chunks
func (h *ChunkHandler) ChunkText(c *gin.Context) {
	var req model.ChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField(middleware.FieldError, err.Error()).
			Warn("Invalid chunk request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid request parameters"))
		return
	}

	cfg := document.SplitterConfig{
		SplitType:    document.SplitType(req.SplitType),
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	}

	chunks, cached, err := h.chunkService.Chunk(c.Request.Context(), req.Text, cfg)
	if err != nil {
		h.logger.WithField(middleware.FieldError, err.Error()).
			Error("Failed to chunk text")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to chunk text"))
		return
	}

	items := make([]model.ChunkItem, len(chunks))
	for i, chunk := range chunks {
		items[i] = model.ChunkItem{Text: chunk.Text, Index: chunk.Index}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ChunkResponse{
		Chunks:     items,
		ChunkCount: len(items),
		Cached:     cached,
	}))
}
