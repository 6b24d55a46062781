package taskqueue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTaskNotFound means no task record exists for the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskTimeout means WaitForTask gave up before the task finished.
	ErrTaskTimeout = errors.New("timed out waiting for task")
)

// Queue enqueues document-processing tasks and tracks their state.
type Queue interface {
	// Enqueue adds a task for immediate processing and returns its id.
	Enqueue(ctx context.Context, taskType TaskType, documentID string, payload interface{}) (string, error)

	// EnqueueIn adds a task to be processed after the given delay.
	EnqueueIn(ctx context.Context, taskType TaskType, documentID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask returns the task record for the given id.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByDocument returns all task records related to a document.
	GetTasksByDocument(ctx context.Context, documentID string) ([]*Task, error)

	// WaitForTask blocks until the task completes or fails, or the timeout
	// elapses. A timeout of 0 waits until ctx is done.
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// UpdateTaskStatus records a task's new status and, optionally, its
	// result or error message.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// DeleteTask removes a task record.
	DeleteTask(ctx context.Context, taskID string) error

	// Close releases the queue's connections.
	Close() error
}

// Handler executes tasks of the types it declares.
type Handler interface {
	// ProcessTask runs one task. A returned error marks the task failed and
	// triggers the queue's retry policy.
	ProcessTask(ctx context.Context, task *Task) error

	// TaskTypes lists the task types this handler accepts.
	TaskTypes() []TaskType
}

// Worker runs handlers against the queue.
type Worker interface {
	// RegisterHandler attaches a handler for its declared task types.
	RegisterHandler(handler Handler)

	// Start begins processing tasks. It does not block.
	Start() error

	// Stop drains in-flight tasks and shuts the worker down.
	Stop()
}

// Config holds queue and worker settings.
type Config struct {
	RedisAddr     string        // redis address
	RedisPassword string        // redis password
	RedisDB       int           // redis database number
	Concurrency   int           // worker concurrency
	RetryLimit    int           // max retries per task
	RetryDelay    time.Duration // delay between retries
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 10,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
	}
}

// TaskInfo is the client-facing view of a task.
type TaskInfo struct {
	ID          string     `json:"id"`
	Type        TaskType   `json:"type"`
	DocumentID  string     `json:"document_id"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTaskInfo builds the client view of a task record.
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		DocumentID:  task.DocumentID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}
