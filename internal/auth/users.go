package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formflowhq/backend/internal/models"
)

// UserService persists the user profiles minted from verified tokens.
type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// GetOrCreate returns the stored profile for id, creating it on first sight.
// A missing display name falls back to the local part of the email address.
func (s *UserService) GetOrCreate(ctx context.Context, id uuid.UUID, email, displayName string) (*models.User, error) {
	if displayName == "" {
		displayName = email
		if at := strings.Index(email, "@"); at > 0 {
			displayName = email[:at]
		}
	}

	var u models.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, display_name) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING id, email, display_name, created_at`,
		id, email, displayName,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"SELECT id, email, display_name, created_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
