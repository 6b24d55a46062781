package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/api/middleware"
	"github.com/docpipe/doc-chunk-service/api/model"
	"github.com/docpipe/doc-chunk-service/pkg/taskqueue"
)

// TaskHandler serves the task status endpoints.
type TaskHandler struct {
	queue  taskqueue.Queue
	logger *logrus.Logger
}

// NewTaskHandler creates a task handler over the queue.
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		queue:  queue,
		logger: middleware.GetLogger(),
	}
}

// GetTaskStatus returns one task's record.
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "task id is required"))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound, "task not found"))
			return
		}

		h.logger.WithError(err).WithField("task_id", taskID).Error("Failed to get task")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to get task status"))
		return
	}

	taskInfo := map[string]interface{}{
		"id":          task.ID,
		"type":        string(task.Type),
		"document_id": task.DocumentID,
		"status":      string(task.Status),
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	}
	if task.Error != "" {
		taskInfo["error"] = task.Error
	}
	if len(task.Result) > 0 {
		var result map[string]interface{}
		if err := json.Unmarshal(task.Result, &result); err == nil {
			taskInfo["result"] = result
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskInfo))
}

// GetDocumentTasks lists the tasks related to one document.
// GET /api/documents/:id/tasks
func (h *TaskHandler) GetDocumentTasks(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest, "document id is required"))
		return
	}

	tasks, err := h.queue.GetTasksByDocument(c.Request.Context(), documentID)
	if err != nil {
		h.logger.WithError(err).WithField("document_id", documentID).
			Error("Failed to get document tasks")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError, "failed to list document tasks"))
		return
	}

	infos := make([]*taskqueue.TaskInfo, len(tasks))
	for i, task := range tasks {
		infos[i] = taskqueue.NewTaskInfo(task)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"document_id": documentID,
		"tasks":       infos,
	}))
}
