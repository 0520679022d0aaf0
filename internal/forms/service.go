package forms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/llm"
	"github.com/formflowhq/backend/internal/models"
	"github.com/formflowhq/backend/pkg/tokenizer"
)

// DocumentProcessor turns uploaded documents into combined text.
// *extraction.Service satisfies it.
type DocumentProcessor interface {
	ProcessDocuments(ctx context.Context, docs []extraction.Document) string
}

// SchemaStore is the slice of the store the generator needs.
type SchemaStore interface {
	Create(ctx context.Context, userID uuid.UUID, d Draft) (*models.Form, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (int, error)
}

// Service generates and updates form schemas with an LLM, feeding it the
// text extracted from any uploaded documents.
type Service struct {
	store     SchemaStore
	gateway   llm.Gateway
	extractor DocumentProcessor
	model     string
}

func NewService(store SchemaStore, gateway llm.Gateway, extractor DocumentProcessor, model string) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		extractor: extractor,
		model:     model,
	}
}

// GenerateRequest is the input for both create and edit: a natural-language
// request plus optional supporting documents.
type GenerateRequest struct {
	UserQuery string                `json:"userQuery"`
	Documents []extraction.Document `json:"documents,omitempty"`
}

// Create builds a new form from the request. When generation or parsing
// fails it falls back to a minimal schema rather than failing the call;
// only persistence errors surface.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req GenerateRequest) (*models.Form, error) {
	contextText := s.assembleContext(ctx, req)

	slog.Info("generating form",
		"user_id", userID,
		"context_tokens", tokenizer.CountTokens(contextText),
	)

	draft, err := s.generate(ctx, buildCreatePrompt(contextText))
	if err != nil {
		slog.Error("form generation failed, using fallback schema", "error", err)
		draft = FallbackDraft(contextText)
	}

	return s.store.Create(ctx, userID, draft)
}

// EditResult carries the outcome of an AI-assisted edit.
type EditResult struct {
	Schema      Schema
	Title       string
	Description string
	Version     int
}

// Edit regenerates the form against its current schema. Unlike Create,
// generation failures propagate; the stored form is left untouched.
func (s *Service) Edit(ctx context.Context, form *models.Form, current Schema, req GenerateRequest) (*EditResult, error) {
	contextText := s.assembleContext(ctx, req)

	slog.Info("updating form",
		"form_id", form.ID,
		"context_tokens", tokenizer.CountTokens(contextText),
	)

	draft, err := s.generate(ctx, buildUpdatePrompt(contextText, current))
	if err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}

	before := Draft{Title: form.Title, Description: form.Description, Components: current.Components}
	description := ChangeDescription(before, draft)
	diff := DetailedDiff(before, draft)

	version, err := s.store.Update(ctx, form.ID, UpdateRequest{
		Schema:            draft.Schema(),
		ChangeDescription: description,
		Title:             &draft.Title,
		Description:       &draft.Description,
		DetailedDiff:      &diff,
	})
	if err != nil {
		return nil, err
	}

	return &EditResult{
		Schema:      draft.Schema(),
		Title:       draft.Title,
		Description: draft.Description,
		Version:     version,
	}, nil
}

func (s *Service) assembleContext(ctx context.Context, req GenerateRequest) string {
	query := SanitizeUserInput(req.UserQuery)
	documentText := s.extractor.ProcessDocuments(ctx, req.Documents)
	return BuildContext(query, documentText)
}

func (s *Service) generate(ctx context.Context, prompt string) (Draft, error) {
	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model:     s.model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 4096,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("chat completion: %w", err)
	}

	slog.Debug("model response",
		"provider", resp.Provider,
		"tokens", resp.TotalTokens,
		"cost_usd", resp.CostUSD,
	)

	draft, err := ParseDraft(resp.Content)
	if err != nil {
		return Draft{}, err
	}
	return Normalize(draft), nil
}
