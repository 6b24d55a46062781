package taskqueue

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskType identifies what a queued task does.
type TaskType string

const (
	// TaskDocumentParse extracts text from a stored file.
	TaskDocumentParse TaskType = "document_parse"
	// TaskTextChunk splits extracted text into chunks.
	TaskTextChunk TaskType = "text_chunk"
	// TaskProcessComplete runs the full parse-then-chunk pipeline.
	TaskProcessComplete TaskType = "process_complete"
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	// StatusPending means the task is queued but not picked up yet.
	StatusPending TaskStatus = "pending"
	// StatusProcessing means a worker is running the task.
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted means the task finished successfully.
	StatusCompleted TaskStatus = "completed"
	// StatusFailed means the task finished with an error.
	StatusFailed TaskStatus = "failed"
)

// Task is the queue's record of one unit of work.
type Task struct {
	ID          string          `json:"id"`           // task id
	Type        TaskType        `json:"type"`         // task type
	DocumentID  string          `json:"document_id"`  // related document id
	Status      TaskStatus      `json:"status"`       // lifecycle state
	Payload     json.RawMessage `json:"payload"`      // type-specific input
	Result      json.RawMessage `json:"result"`       // type-specific output
	Error       string          `json:"error"`        // error message when failed
	CreatedAt   time.Time       `json:"created_at"`   // enqueue time
	UpdatedAt   time.Time       `json:"updated_at"`   // last state change
	StartedAt   *time.Time      `json:"started_at"`   // first pickup time
	CompletedAt *time.Time      `json:"completed_at"` // finish time
	MaxRetries  int             `json:"max_retries"`  // retry budget
}

// DocumentParsePayload is the input of a document_parse task.
type DocumentParsePayload struct {
	FileID   string `json:"file_id"`   // storage id of the raw file
	FileName string `json:"file_name"` // original file name
	FilePath string `json:"file_path"` // storage path
}

// DocumentParseResult is the output of a document_parse task.
type DocumentParseResult struct {
	Content   string `json:"content"`    // extracted text
	Title     string `json:"title"`      // document title, if found
	WordCount int    `json:"word_count"` // words in the extracted text
}

// TextChunkPayload is the input of a text_chunk task.
type TextChunkPayload struct {
	DocumentID string `json:"document_id"` // document id
	Content    string `json:"content"`     // text to split
	ChunkSize  int    `json:"chunk_size"`  // target chunk size
	Overlap    int    `json:"overlap"`     // chunk overlap (length strategy)
	SplitType  string `json:"split_type"`  // sentence, paragraph or length
}

// ChunkInfo is one chunk in a task result.
type ChunkInfo struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// TextChunkResult is the output of a text_chunk task.
type TextChunkResult struct {
	DocumentID string      `json:"document_id"`
	Chunks     []ChunkInfo `json:"chunks"`
	ChunkCount int         `json:"chunk_count"`
}

// ProcessCompletePayload is the input of a process_complete task.
type ProcessCompletePayload struct {
	DocumentID string `json:"document_id"` // document id
	FileID     string `json:"file_id"`     // storage id of the raw file
	FileName   string `json:"file_name"`   // original file name
	ChunkSize  int    `json:"chunk_size"`  // target chunk size
	Overlap    int    `json:"overlap"`     // chunk overlap (length strategy)
	SplitType  string `json:"split_type"`  // splitting strategy
}

// ProcessCompleteResult is the output of a process_complete task.
type ProcessCompleteResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	WordCount  int    `json:"word_count"`
}

// MarshalPayload serializes a payload or result value for storage in a Task.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// UnmarshalPayload deserializes a Task payload or result into out.
func UnmarshalPayload(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(raw, out)
}
