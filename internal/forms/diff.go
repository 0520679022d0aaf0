package forms

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Change is one entry in a structured schema diff.
type Change struct {
	Type        string     `json:"type"` // added, removed, modified, metadata
	ComponentID string     `json:"componentId,omitempty"`
	Field       string     `json:"field,omitempty"`
	Component   *Component `json:"component,omitempty"`
	Before      any        `json:"before,omitempty"`
	After       any        `json:"after,omitempty"`
	Details     string     `json:"details"`
}

// Diff describes everything that changed between two drafts.
type Diff struct {
	Summary string   `json:"summary"`
	Changes []Change `json:"changes"`
}

// ChangeDescription summarizes the differences between two drafts in one
// human-readable line, suitable for a version history entry.
func ChangeDescription(before, after Draft) string {
	beforeByID := componentIndex(before.Components)
	afterByID := componentIndex(after.Components)

	var added, removed, modified int
	for id := range afterByID {
		if _, ok := beforeByID[id]; !ok {
			added++
		}
	}
	for id, bc := range beforeByID {
		ac, ok := afterByID[id]
		if !ok {
			removed++
			continue
		}
		if !reflect.DeepEqual(bc, ac) {
			modified++
		}
	}

	var changes []string
	if added > 0 {
		changes = append(changes, fmt.Sprintf("Added %d component(s)", added))
	}
	if removed > 0 {
		changes = append(changes, fmt.Sprintf("Removed %d component(s)", removed))
	}
	if modified > 0 {
		changes = append(changes, fmt.Sprintf("Modified %d component(s)", modified))
	}
	if before.Title != after.Title {
		changes = append(changes, "Updated title")
	}
	if before.Description != after.Description {
		changes = append(changes, "Updated description")
	}

	if len(changes) == 0 {
		return "No changes detected"
	}
	return strings.Join(changes, "; ")
}

// DetailedDiff builds a structured diff: per-component additions, removals,
// and modifications in schema order, then metadata changes.
func DetailedDiff(before, after Draft) Diff {
	beforeByID := componentIndex(before.Components)
	afterByID := componentIndex(after.Components)

	var changes []Change

	for _, c := range after.Components {
		if _, ok := beforeByID[c.ID]; ok {
			continue
		}
		changes = append(changes, Change{
			Type:        "added",
			ComponentID: c.ID,
			Component:   &c,
			Details:     fmt.Sprintf("Added %s question: '%s'", typeName(c.Type), c.Data.Question),
		})
	}

	for _, c := range before.Components {
		if _, ok := afterByID[c.ID]; ok {
			continue
		}
		changes = append(changes, Change{
			Type:        "removed",
			ComponentID: c.ID,
			Component:   &c,
			Details:     fmt.Sprintf("Removed %s question: '%s'", typeName(c.Type), c.Data.Question),
		})
	}

	for _, bc := range before.Components {
		ac, ok := afterByID[bc.ID]
		if !ok || reflect.DeepEqual(bc, ac) {
			continue
		}
		details := compareComponents(bc, ac)
		if len(details) == 0 {
			continue
		}
		changes = append(changes, Change{
			Type:        "modified",
			ComponentID: bc.ID,
			Before:      bc,
			After:       ac,
			Details:     strings.Join(details, "; "),
		})
	}

	if before.Title != after.Title {
		changes = append(changes, Change{
			Type:    "metadata",
			Field:   "title",
			Before:  before.Title,
			After:   after.Title,
			Details: fmt.Sprintf("Changed form title from '%s' to '%s'", before.Title, after.Title),
		})
	}
	if before.Description != after.Description {
		changes = append(changes, Change{
			Type:    "metadata",
			Field:   "description",
			Before:  before.Description,
			After:   after.Description,
			Details: "Changed form description",
		})
	}

	return Diff{
		Summary: ChangeDescription(before, after),
		Changes: changes,
	}
}

func compareComponents(before, after Component) []string {
	var changes []string

	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("Changed type from %s to %s", typeName(before.Type), typeName(after.Type)))
	}
	if before.Data.Question != after.Data.Question {
		changes = append(changes, "Changed question text")
	}
	if before.Data.Required != after.Data.Required {
		if after.Data.Required {
			changes = append(changes, "Made required")
		} else {
			changes = append(changes, "Made optional")
		}
	}

	if after.Type == TypeMultipleChoice {
		if added := optionsNotIn(after.Data.Options, before.Data.Options); len(added) > 0 {
			changes = append(changes, fmt.Sprintf("Added option(s): '%s'", strings.Join(added, "', '")))
		}
		if removed := optionsNotIn(before.Data.Options, after.Data.Options); len(removed) > 0 {
			changes = append(changes, fmt.Sprintf("Removed option(s): '%s'", strings.Join(removed, "', '")))
		}
	}

	if after.Type == TypeShortAnswer && before.Data.MaxLength != after.Data.MaxLength {
		if after.Data.MaxLength > 0 {
			changes = append(changes, fmt.Sprintf("Set maximum length to %d", after.Data.MaxLength))
		} else {
			changes = append(changes, "Removed maximum length limit")
		}
	}

	return changes
}

// optionsNotIn returns the entries of a not present in b, in a's order.
func optionsNotIn(a, b []string) []string {
	var out []string
	for _, opt := range a {
		if !slices.Contains(b, opt) {
			out = append(out, opt)
		}
	}
	return out
}

func typeName(t string) string {
	if t == TypeMultipleChoice {
		return "multiple choice"
	}
	return "short answer"
}

func componentIndex(comps []Component) map[string]Component {
	m := make(map[string]Component, len(comps))
	for _, c := range comps {
		m[c.ID] = c
	}
	return m
}
