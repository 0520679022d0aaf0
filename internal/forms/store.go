package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formflowhq/backend/internal/models"
)

// ErrNotFound reports a form id with no row behind it.
var ErrNotFound = errors.New("form not found")

// ErrAtInitialVersion reports an undo on a form with no earlier version.
var ErrAtInitialVersion = errors.New("form is at its initial version")

// Summary is the list-view projection of a form.
type Summary struct {
	ID            uuid.UUID `json:"formId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ResponseCount int       `json:"responseCount"`
}

// Store persists forms, their append-only version history, and responses.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts a form and its version 0 in one transaction.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, d Draft) (*models.Form, error) {
	schemaJSON, err := json.Marshal(d.Schema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var f models.Form
	err = tx.QueryRow(ctx,
		`INSERT INTO forms (user_id, title, description, current_version)
		 VALUES ($1, $2, $3, 0)
		 RETURNING id, user_id, title, description, current_version, created_at, updated_at`,
		userID, d.Title, d.Description,
	).Scan(&f.ID, &f.UserID, &f.Title, &f.Description, &f.CurrentVersion, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert form: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO form_versions (form_id, version, schema, change_description)
		 VALUES ($1, 0, $2, $3)`,
		f.ID, schemaJSON, "Initial form creation",
	)
	if err != nil {
		return nil, fmt.Errorf("insert form version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &f, nil
}

// Get loads a form row and the schema of its current version.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Form, Schema, error) {
	var f models.Form
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, title, description, current_version, created_at, updated_at
		 FROM forms WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.UserID, &f.Title, &f.Description, &f.CurrentVersion, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, Schema{}, ErrNotFound
	}
	if err != nil {
		return nil, Schema{}, fmt.Errorf("get form: %w", err)
	}

	var schemaJSON []byte
	err = s.db.QueryRow(ctx,
		`SELECT schema FROM form_versions WHERE form_id = $1 AND version = $2`,
		id, f.CurrentVersion,
	).Scan(&schemaJSON)
	if err != nil {
		return nil, Schema{}, fmt.Errorf("get form version %d: %w", f.CurrentVersion, err)
	}

	var schema Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	return &f, schema, nil
}

// UpdateRequest describes a new version to append. Title and Description
// update form metadata when non-nil; DetailedDiff is stored alongside the
// version when present.
type UpdateRequest struct {
	Schema            Schema
	ChangeDescription string
	Title             *string
	Description       *string
	DetailedDiff      *Diff
}

// Update appends a version and bumps the form's current version.
func (s *Store) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (int, error) {
	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return 0, fmt.Errorf("marshal schema: %w", err)
	}

	var diffJSON []byte
	if req.DetailedDiff != nil {
		diffJSON, err = json.Marshal(req.DetailedDiff)
		if err != nil {
			return 0, fmt.Errorf("marshal diff: %w", err)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentVersion int
	err = tx.QueryRow(ctx, "SELECT current_version FROM forms WHERE id = $1 FOR UPDATE", id).Scan(&currentVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	newVersion := currentVersion + 1

	_, err = tx.Exec(ctx,
		`INSERT INTO form_versions (form_id, version, schema, change_description, detailed_diff)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, newVersion, schemaJSON, req.ChangeDescription, diffJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert form version: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE forms
		 SET current_version = $2, updated_at = now(),
		     title = COALESCE($3, title), description = COALESCE($4, description)
		 WHERE id = $1`,
		id, newVersion, req.Title, req.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("update form: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newVersion, nil
}

// Undo reverts a form to its previous version, discarding the newest one.
// Returns ErrAtInitialVersion when there is nothing to revert.
func (s *Store) Undo(ctx context.Context, id uuid.UUID) (Schema, int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Schema{}, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentVersion int
	err = tx.QueryRow(ctx, "SELECT current_version FROM forms WHERE id = $1 FOR UPDATE", id).Scan(&currentVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return Schema{}, 0, ErrNotFound
	}
	if err != nil {
		return Schema{}, 0, fmt.Errorf("get current version: %w", err)
	}

	if currentVersion <= 0 {
		return Schema{}, 0, ErrAtInitialVersion
	}
	newVersion := currentVersion - 1

	var schemaJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT schema FROM form_versions WHERE form_id = $1 AND version = $2`,
		id, newVersion,
	).Scan(&schemaJSON)
	if err != nil {
		return Schema{}, 0, fmt.Errorf("get form version %d: %w", newVersion, err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM form_versions WHERE form_id = $1 AND version > $2", id, newVersion)
	if err != nil {
		return Schema{}, 0, fmt.Errorf("drop newer versions: %w", err)
	}

	_, err = tx.Exec(ctx, "UPDATE forms SET current_version = $2, updated_at = now() WHERE id = $1", id, newVersion)
	if err != nil {
		return Schema{}, 0, fmt.Errorf("update form: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Schema{}, 0, fmt.Errorf("commit: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return Schema{}, 0, fmt.Errorf("decode schema: %w", err)
	}
	return schema, newVersion, nil
}

// ListByUser returns summaries of a user's forms, most recently updated
// first.
func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.title, f.description, f.created_at, f.updated_at,
		        (SELECT count(*) FROM form_responses r WHERE r.form_id = f.id)
		 FROM forms f WHERE f.user_id = $1
		 ORDER BY f.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.CreatedAt, &item.UpdatedAt, &item.ResponseCount); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		summaries = append(summaries, item)
	}
	return summaries, nil
}

// IDsByUser returns the ids of a user's forms, most recently updated first.
func (s *Store) IDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id FROM forms WHERE user_id = $1 ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list form ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan form id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AddResponse appends one submission to a form.
func (s *Store) AddResponse(ctx context.Context, formID uuid.UUID, answers map[string]any) (uuid.UUID, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal answers: %w", err)
	}

	responseID := uuid.New()
	_, err = s.db.Exec(ctx,
		`INSERT INTO form_responses (id, form_id, answers) VALUES ($1, $2, $3)`,
		responseID, formID, answersJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert response: %w", err)
	}
	return responseID, nil
}

// Responses returns every submission for a form in arrival order.
func (s *Store) Responses(ctx context.Context, formID uuid.UUID) ([]models.FormResponse, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, form_id, answers, submitted_at
		 FROM form_responses WHERE form_id = $1 ORDER BY submitted_at`,
		formID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []models.FormResponse
	for rows.Next() {
		var r models.FormResponse
		if err := rows.Scan(&r.ID, &r.FormID, &r.Answers, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, nil
}

// Delete removes a form; versions and responses cascade.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := s.db.Exec(ctx, "DELETE FROM forms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
