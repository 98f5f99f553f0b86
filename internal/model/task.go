package model

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Task represents a compression job. It is sent to the queue and its
// status is tracked in the database.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"file_path"`    // object key of the uploaded original
	ContentType string    `json:"content_type"` // as reported by the client
	Quality     int       `json:"quality"`
	MaxWidth    int       `json:"max_width"`
	Status      string    `json:"status"`                // pending / processed / failed
	ResultPath  string    `json:"result_path,omitempty"` // object key of the compressed image
	Error       string    `json:"error,omitempty"`       // reason of a failed task
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
