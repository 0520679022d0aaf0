// Package forms holds the form domain: schemas and validation, AI-assisted
// generation, structured diffs, and Postgres persistence with versioned undo.
package forms

// Component types.
const (
	TypeMultipleChoice = "multiple-choice"
	TypeShortAnswer    = "short-answer"
)

// ComponentData carries the type-specific fields of a component. Options is
// meaningful only for multiple-choice, MaxLength only for short-answer.
type ComponentData struct {
	Question  string   `json:"question"`
	Options   []string `json:"options,omitempty"`
	Required  bool     `json:"required"`
	MaxLength int      `json:"maxLength,omitempty"`
}

// Component is one question in a form.
type Component struct {
	ID   string        `json:"id"`
	Type string        `json:"type"`
	Data ComponentData `json:"data"`
}

// Schema is the versioned payload of a form: its ordered components.
type Schema struct {
	Components []Component `json:"components"`
}

// Draft is a complete generated form: metadata plus components. It is what
// the model returns and what normalization and diffing operate on.
type Draft struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Components  []Component `json:"components"`
}

// Schema returns the versionable part of the draft.
func (d Draft) Schema() Schema { return Schema{Components: d.Components} }
