// Package jobs tracks background document-extraction work: one row per
// uploaded document, advanced through pending, processing, and a terminal
// ready or failed state by the queue worker.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formflowhq/backend/internal/models"
)

var ErrNotFound = errors.New("extraction job not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, declaredType string, sizeBytes int64, blobKey string) (*models.ExtractionJob, error) {
	var j models.ExtractionJob
	err := s.db.QueryRow(ctx,
		`INSERT INTO extraction_jobs (user_id, name, declared_type, size_bytes, blob_key, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, name, declared_type, size_bytes, blob_key, status, method, extracted_text, error, created_at, updated_at`,
		userID, name, declaredType, sizeBytes, blobKey, models.JobStatusPending,
	).Scan(&j.ID, &j.UserID, &j.Name, &j.DeclaredType, &j.SizeBytes, &j.BlobKey,
		&j.Status, &j.Method, &j.Text, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert extraction job: %w", err)
	}
	return &j, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractionJob, error) {
	var j models.ExtractionJob
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, declared_type, size_bytes, blob_key, status, method, extracted_text, error, created_at, updated_at
		 FROM extraction_jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.UserID, &j.Name, &j.DeclaredType, &j.SizeBytes, &j.BlobKey,
		&j.Status, &j.Method, &j.Text, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction job: %w", err)
	}
	return &j, nil
}

// ListByUser returns a user's jobs newest first, omitting the extracted
// text so listings stay small.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ExtractionJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, declared_type, size_bytes, blob_key, status, method, error, created_at, updated_at
		 FROM extraction_jobs WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list extraction jobs: %w", err)
	}
	defer rows.Close()

	var out []models.ExtractionJob
	for rows.Next() {
		var j models.ExtractionJob
		if err := rows.Scan(&j.ID, &j.UserID, &j.Name, &j.DeclaredType, &j.SizeBytes, &j.BlobKey,
			&j.Status, &j.Method, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Service) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE extraction_jobs SET status = $2, updated_at = now() WHERE id = $1`,
		id, models.JobStatusProcessing)
	return err
}

// Complete records the extracted text and which method produced it.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, method, text string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE extraction_jobs
		 SET status = $2, method = $3, extracted_text = $4, error = '', updated_at = now()
		 WHERE id = $1`,
		id, models.JobStatusReady, method, text)
	return err
}

func (s *Service) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE extraction_jobs SET status = $2, error = $3, updated_at = now() WHERE id = $1`,
		id, models.JobStatusFailed, msg)
	return err
}
