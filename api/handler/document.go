package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/api/middleware"
	"github.com/docpipe/doc-chunk-service/api/model"
	"github.com/docpipe/doc-chunk-service/internal/models"
	"github.com/docpipe/doc-chunk-service/internal/services"
	"github.com/docpipe/doc-chunk-service/pkg/storage"
)

// DocumentHandler serves the document endpoints.
type DocumentHandler struct {
	documentService *services.DocumentService
	fileStorage     storage.Storage
	logger          *logrus.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(documentService *services.DocumentService, fileStorage storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		fileStorage:     fileStorage,
		logger:          middleware.GetLogger(),
	}
}

// UploadDocument stores the uploaded file and kicks off processing.
// POST /api/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithField(middleware.FieldError, err.Error()).
			Warn("Invalid document upload request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid request parameters"))
		return
	}

	filename := req.File.Filename
	if !isValidFileType(filepath.Ext(filename)) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"unsupported file type, expected .pdf, .md, .markdown or .txt"))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"filename":            filename,
		}).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to read uploaded file"))
		return
	}
	defer file.Close()

	fileInfo, err := h.fileStorage.Save(file, filename)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"filename":            filename,
		}).Error("Failed to save file")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to save file"))
		return
	}

	statusManager := h.documentService.GetStatusManager()
	if err := statusManager.MarkAsUploaded(c.Request.Context(),
		fileInfo.ID, filename, fileInfo.Path, fileInfo.Size); err != nil {
		h.logger.WithField(middleware.FieldError, err.Error()).
			Error("Failed to create document record")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to record document"))
		return
	}

	if req.Tags != "" {
		if err := h.documentService.UpdateDocumentTags(c.Request.Context(), fileInfo.ID, req.Tags); err != nil {
			h.logger.WithField(middleware.FieldError, err.Error()).
				Warn("Failed to set document tags")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"file_id":  fileInfo.ID,
		"filename": fileInfo.Name,
		"size":     fileInfo.Size,
	}).Info("File uploaded")

	status := models.DocStatusProcessing
	if req.Sync {
		if err := h.documentService.ProcessDocument(c.Request.Context(), fileInfo.ID, filename); err != nil {
			h.logger.WithFields(logrus.Fields{
				middleware.FieldError: err.Error(),
				"file_id":             fileInfo.ID,
			}).Error("Failed to process document")
			c.JSON(http.StatusUnprocessableEntity, model.NewErrorResponse(
				http.StatusUnprocessableEntity, "failed to process document"))
			return
		}
		status = models.DocStatusCompleted
	} else {
		go func() {
			ctx := context.Background()
			if err := h.documentService.ProcessDocument(ctx, fileInfo.ID, filename); err != nil {
				h.logger.WithFields(logrus.Fields{
					middleware.FieldError: err.Error(),
					"file_id":             fileInfo.ID,
				}).Error("Failed to process document")
			}
		}()
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentUploadResponse{
		FileID:   fileInfo.ID,
		FileName: filename,
		Status:   string(status),
	}))
}

// GetDocumentStatus reports a document's processing state.
// GET /api/documents/:id/status
func (h *DocumentHandler) GetDocumentStatus(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid document id"))
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound, "document not found"))
			return
		}
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"file_id":             req.ID,
		}).Error("Failed to get document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to get document"))
		return
	}

	resp := model.DocumentStatusResponse{
		FileID:    doc.ID,
		Status:    string(doc.Status),
		Stage:     string(doc.CurrentStage),
		Progress:  doc.Progress,
		FileName:  doc.FileName,
		Error:     doc.Error,
		Segments:  doc.SegmentCount,
		WordCount: doc.WordCount,
		CreatedAt: doc.UploadedAt.Format(time.RFC3339),
		UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListDocuments returns a page of documents.
// GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req model.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid query parameters"))
		return
	}

	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.Tags != "" {
		filters["tags"] = req.Tags
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	docs, total, err := h.documentService.ListDocuments(
		c.Request.Context(), offset, req.GetPageSize(), filters)
	if err != nil {
		h.logger.WithField(middleware.FieldError, err.Error()).
			Error("Failed to list documents")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to list documents"))
		return
	}

	infos := make([]model.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		infos = append(infos, model.ToDocumentInfo(doc))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentListResponse{
		Total:     total,
		Page:      req.GetPage(),
		PageSize:  req.GetPageSize(),
		Documents: infos,
	}))
}

// GetDocumentSegments returns a document's chunks in order.
// GET /api/documents/:id/segments
func (h *DocumentHandler) GetDocumentSegments(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid document id"))
		return
	}

	if _, err := h.documentService.GetDocument(c.Request.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound, "document not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to get document"))
		return
	}

	segments, err := h.documentService.GetDocumentSegments(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"file_id":             req.ID,
		}).Error("Failed to get document segments")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to get document segments"))
		return
	}

	infos := make([]model.SegmentInfo, len(segments))
	for i, seg := range segments {
		infos[i] = model.SegmentInfo{
			SegmentID: seg.SegmentID,
			Position:  seg.Position,
			Text:      seg.Text,
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentSegmentsResponse{
		FileID:   req.ID,
		Count:    len(infos),
		Segments: infos,
	}))
}

// UpdateDocumentTags replaces a document's tags.
// PUT /api/documents/:id/tags
func (h *DocumentHandler) UpdateDocumentTags(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid document id"))
		return
	}

	var req model.UpdateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid request body"))
		return
	}

	if err := h.documentService.UpdateDocumentTags(c.Request.Context(), uri.ID, req.Tags); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound, "document not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to update tags"))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"file_id": uri.ID, "tags": req.Tags}))
}

// DeleteDocument removes a document, its file and its chunks.
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "invalid document id"))
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound, "document not found"))
			return
		}
		h.logger.WithFields(logrus.Fields{
			middleware.FieldError: err.Error(),
			"file_id":             req.ID,
		}).Error("Failed to delete document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to delete document"))
		return
	}

	h.logger.WithField("file_id", req.ID).Info("Document deleted")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentDeleteResponse{
		Success: true,
		FileID:  req.ID,
	}))
}

// isValidFileType reports whether the extension maps to a supported parser.
func isValidFileType(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".md", ".markdown", ".txt":
		return true
	}
	return false
}
