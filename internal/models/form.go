package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Form struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description,omitempty" db:"description"`
	CurrentVersion int       `json:"current_version" db:"current_version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type FormVersion struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	FormID            uuid.UUID       `json:"form_id" db:"form_id"`
	Version           int             `json:"version" db:"version"`
	Schema            json.RawMessage `json:"schema" db:"schema"`
	ChangeDescription string          `json:"change_description,omitempty" db:"change_description"`
	DetailedDiff      json.RawMessage `json:"detailed_diff,omitempty" db:"detailed_diff"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

type FormResponse struct {
	ID          uuid.UUID       `json:"responseId" db:"id"`
	FormID      uuid.UUID       `json:"formId" db:"form_id"`
	Answers     json.RawMessage `json:"answers" db:"answers"`
	SubmittedAt time.Time       `json:"submittedAt" db:"submitted_at"`
}
