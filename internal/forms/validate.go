package forms

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/formflowhq/backend/internal/extraction"
)

// Input length limits.
const (
	MaxQueryLength       = 5000
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxQuestionLength    = 500
	MaxOptionLength      = 200
	MaxAnswerLength      = 2000

	MinOptions = 2
	MaxOptions = 4

	MaxFilesPerRequest = 5
)

var allowedExtensions = map[string]bool{"pdf": true, "txt": true}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeUserInput strips HTML tags out of free-form user text, collapses
// whitespace runs, and caps the result at MaxQueryLength runes.
func SanitizeUserInput(text string) string {
	if text == "" {
		return ""
	}

	clean := stripTags(text)
	clean = whitespaceRun.ReplaceAllString(clean, " ")

	if r := []rune(clean); len(r) > MaxQueryLength {
		clean = string(r[:MaxQueryLength])
	}
	return strings.TrimSpace(clean)
}

// stripTags keeps only the text content of its input. html.Parse accepts
// arbitrary byte soup, so the fallback is rarely taken.
func stripTags(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// ValidateDraft checks a full form draft: metadata caps plus the schema.
func ValidateDraft(d Draft) error {
	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d", MaxTitleLength)
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d", MaxDescriptionLength)
	}
	return ValidateSchema(d.Schema())
}

// ValidateSchema checks every component and rejects duplicate ids.
func ValidateSchema(s Schema) error {
	seen := make(map[string]bool, len(s.Components))
	for i, c := range s.Components {
		if err := validateComponent(c, i); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate component ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func validateComponent(c Component, index int) error {
	if c.ID == "" {
		return fmt.Errorf("component %d missing valid ID", index)
	}

	switch c.Type {
	case TypeMultipleChoice, TypeShortAnswer:
	default:
		return fmt.Errorf("component %d has invalid type: %q", index, c.Type)
	}

	if c.Data.Question == "" {
		return fmt.Errorf("component %d missing question", index)
	}
	if utf8.RuneCountInString(c.Data.Question) > MaxQuestionLength {
		return fmt.Errorf("component %d question exceeds maximum length", index)
	}

	if c.Type == TypeMultipleChoice {
		if len(c.Data.Options) < MinOptions {
			return fmt.Errorf("component %d must have at least %d options", index, MinOptions)
		}
		if len(c.Data.Options) > MaxOptions {
			return fmt.Errorf("component %d cannot have more than %d options", index, MaxOptions)
		}
		for _, opt := range c.Data.Options {
			if utf8.RuneCountInString(opt) > MaxOptionLength {
				return fmt.Errorf("component %d has invalid option", index)
			}
		}
	}
	return nil
}

// ValidateAnswers checks submitted answers against a schema. Answers for
// component ids the schema no longer has are tolerated; they may come from
// an earlier version of the form.
func ValidateAnswers(answers map[string]any, s Schema) error {
	components := make(map[string]Component, len(s.Components))
	for _, c := range s.Components {
		components[c.ID] = c
	}

	for _, c := range s.Components {
		if c.Data.Required {
			if _, ok := answers[c.ID]; !ok {
				return fmt.Errorf("missing required answer for component %s", c.ID)
			}
		}
	}

	for id, answer := range answers {
		c, ok := components[id]
		if !ok {
			slog.Warn("answer for unknown component", "component_id", id)
			continue
		}
		if err := validateAnswer(answer, c); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(answer any, c Component) error {
	switch c.Type {
	case TypeMultipleChoice:
		switch v := answer.(type) {
		case string:
			if !slices.Contains(c.Data.Options, v) {
				return fmt.Errorf("invalid option for %s: %s", c.ID, v)
			}
		case []any:
			for _, item := range v {
				str, ok := item.(string)
				if !ok || !slices.Contains(c.Data.Options, str) {
					return fmt.Errorf("invalid option for %s: %v", c.ID, item)
				}
			}
		case []string:
			for _, str := range v {
				if !slices.Contains(c.Data.Options, str) {
					return fmt.Errorf("invalid option for %s: %s", c.ID, str)
				}
			}
		default:
			return fmt.Errorf("invalid answer type for %s", c.ID)
		}

	case TypeShortAnswer:
		str, ok := answer.(string)
		if !ok {
			return fmt.Errorf("answer for %s must be a string", c.ID)
		}
		if utf8.RuneCountInString(str) > MaxAnswerLength {
			return fmt.Errorf("answer for %s exceeds maximum length", c.ID)
		}
	}
	return nil
}

// ValidateDocuments pre-validates an upload batch before it reaches the
// extraction pipeline.
func ValidateDocuments(docs []extraction.Document) error {
	if len(docs) > MaxFilesPerRequest {
		return fmt.Errorf("maximum %d files allowed per request", MaxFilesPerRequest)
	}
	for i, doc := range docs {
		if err := validateDocument(doc); err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
	}
	return nil
}

func validateDocument(doc extraction.Document) error {
	if doc.Name == "" {
		return errors.New("file name is required")
	}
	if dot := strings.LastIndex(doc.Name, "."); dot >= 0 {
		ext := strings.ToLower(doc.Name[dot+1:])
		if !allowedExtensions[ext] {
			return fmt.Errorf("file type not allowed: %s", ext)
		}
	}
	if doc.Type != extraction.TypeText && doc.Type != extraction.TypePDF {
		return fmt.Errorf("invalid file type: %s", doc.Type)
	}
	if doc.Content == "" {
		return errors.New("file content is required")
	}
	// Base64 is roughly 4/3 the decoded size; good enough for a pre-check.
	if approx := len(doc.Content) * 3 / 4; approx > extraction.MaxDocumentSize {
		return fmt.Errorf("file too large (max %dMB)", extraction.MaxDocumentSize/1024/1024)
	}
	return nil
}
