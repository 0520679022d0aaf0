package models

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionJob tracks one uploaded document through background text
// extraction. The raw bytes live in the blob store under BlobKey; the row
// carries everything else.
type ExtractionJob struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	DeclaredType string    `json:"declared_type" db:"declared_type"`
	SizeBytes    int64     `json:"size_bytes" db:"size_bytes"`
	BlobKey      string    `json:"-" db:"blob_key"`
	Status       string    `json:"status" db:"status"`
	Method       string    `json:"method,omitempty" db:"method"`
	Text         string    `json:"text,omitempty" db:"extracted_text"`
	Error        string    `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusReady      = "ready"
	JobStatusFailed     = "failed"
)
