package forms

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

const createFormPrompt = `You are a form builder assistant. Based on the following user requirements, create a form schema.

USER REQUIREMENTS:
%s

SCHEMA SPECIFICATION:
- Forms consist of components
- Each component has: id (unique string starting with "comp_"), type (multiple-choice | short-answer), data (object)
- Multiple-choice components have: question (string), options (array of up to 4 strings), required (boolean)
- Short-answer components have: question (string), required (boolean)

Generate a form with an appropriate title and description. Return ONLY valid JSON in this exact format, with no additional text or markdown:
{
  "title": "Form Title",
  "description": "Brief description",
  "components": [
    {
      "id": "comp_1",
      "type": "multiple-choice",
      "data": {
        "question": "Question text",
        "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
        "required": true
      }
    },
    {
      "id": "comp_2",
      "type": "short-answer",
      "data": {
        "question": "Question text",
        "required": false
      }
    }
  ]
}`

const updateFormPrompt = `You are a form builder assistant. Update the existing form schema based on user requirements.

USER UPDATE REQUEST:
%s

CURRENT FORM SCHEMA:
%s

RULES:
- Preserve existing component IDs unless explicitly replacing components
- Generate new unique IDs for new components (format: comp_1, comp_2, etc.)
- Each component has: id (unique string), type (multiple-choice | short-answer), data (object)
- Multiple-choice components have: question (string), options (array of up to 4 strings), required (boolean)
- Short-answer components have: question (string), required (boolean)

Return ONLY the complete updated JSON schema in this exact format, with no additional text or markdown:
{
  "title": "Form Title",
  "description": "Brief description",
  "components": [...]
}`

// BuildContext combines the sanitized user request and the extracted
// document text into the prompt context.
func BuildContext(query, documentText string) string {
	var parts []string
	if query != "" {
		parts = append(parts, "User Request: "+query)
	}
	if documentText != "" {
		parts = append(parts, "Document Content:\n"+documentText)
	}
	return strings.Join(parts, "\n\n")
}

func buildCreatePrompt(contextText string) string {
	return fmt.Sprintf(createFormPrompt, contextText)
}

func buildUpdatePrompt(contextText string, current Schema) string {
	schemaJSON, _ := json.MarshalIndent(current, "", "  ")
	return fmt.Sprintf(updateFormPrompt, contextText, schemaJSON)
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	braceBlock = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseDraft pulls a form draft out of a model response. Models sometimes
// wrap the JSON in Markdown fences or surround it with prose.
func ParseDraft(response string) (Draft, error) {
	raw := strings.TrimSpace(response)
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		raw = strings.TrimSpace(m[1])
	} else if m := braceBlock.FindString(response); m != "" {
		raw = m
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}, fmt.Errorf("parse model response as JSON: %w", err)
	}
	return d, nil
}

// Normalize repairs a model-produced draft instead of rejecting it: fills
// missing metadata, drops components with unknown types, defaults missing
// questions, caps options, and assigns ids where absent.
func Normalize(d Draft) Draft {
	if d.Title == "" {
		d.Title = "Untitled Form"
	}

	components := make([]Component, 0, len(d.Components))
	for i, c := range d.Components {
		if c.ID == "" {
			c.ID = fmt.Sprintf("comp_%d", i+1)
		}

		switch c.Type {
		case TypeMultipleChoice:
			if c.Data.Question == "" {
				c.Data.Question = "Question"
			}
			if len(c.Data.Options) == 0 {
				c.Data.Options = []string{"Option 1", "Option 2"}
			}
			if len(c.Data.Options) > MaxOptions {
				c.Data.Options = c.Data.Options[:MaxOptions]
			}
		case TypeShortAnswer:
			if c.Data.Question == "" {
				c.Data.Question = "Question"
			}
		default:
			slog.Warn("dropping component with invalid type", "type", c.Type)
			continue
		}

		components = append(components, c)
	}
	d.Components = components
	return d
}

// FallbackDraft is used when generation fails outright, so form creation
// still yields something the user can edit.
func FallbackDraft(contextText string) Draft {
	desc := contextText
	if utf8.RuneCountInString(desc) > 100 {
		desc = string([]rune(desc)[:100]) + "..."
	}
	return Draft{
		Title:       "New Form",
		Description: "Form created from: " + desc,
		Components: []Component{{
			ID:   "comp_1",
			Type: TypeShortAnswer,
			Data: ComponentData{Question: "Please describe your request", Required: true},
		}},
	}
}
