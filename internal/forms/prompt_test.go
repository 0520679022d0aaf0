package forms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext(t *testing.T) {
	assert.Equal(t,
		"User Request: make a survey\n\nDocument Content:\nextracted text",
		BuildContext("make a survey", "extracted text"))

	assert.Equal(t, "User Request: make a survey", BuildContext("make a survey", ""))
	assert.Equal(t, "Document Content:\nextracted text", BuildContext("", "extracted text"))
	assert.Equal(t, "", BuildContext("", ""))
}

func TestParseDraftFencedJSON(t *testing.T) {
	response := "Here is your form:\n```json\n{\"title\":\"Survey\",\"description\":\"d\",\"components\":[]}\n```\nLet me know if you need changes."
	d, err := ParseDraft(response)
	require.NoError(t, err)
	assert.Equal(t, "Survey", d.Title)
	assert.Equal(t, "d", d.Description)
}

func TestParseDraftFenceWithoutLanguage(t *testing.T) {
	response := "```\n{\"title\":\"Survey\",\"components\":[]}\n```"
	d, err := ParseDraft(response)
	require.NoError(t, err)
	assert.Equal(t, "Survey", d.Title)
}

func TestParseDraftBareJSON(t *testing.T) {
	d, err := ParseDraft(`{"title":"Survey","components":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "Survey", d.Title)
}

func TestParseDraftBraceBlockInProse(t *testing.T) {
	response := `Sure! {"title":"Survey","components":[]} hope that helps.`
	d, err := ParseDraft(response)
	require.NoError(t, err)
	assert.Equal(t, "Survey", d.Title)
}

func TestParseDraftComponents(t *testing.T) {
	response := `{"title":"T","components":[{"id":"comp_1","type":"multiple-choice","data":{"question":"Pick","options":["A","B"],"required":true}}]}`
	d, err := ParseDraft(response)
	require.NoError(t, err)
	require.Len(t, d.Components, 1)
	c := d.Components[0]
	assert.Equal(t, "comp_1", c.ID)
	assert.Equal(t, TypeMultipleChoice, c.Type)
	assert.Equal(t, "Pick", c.Data.Question)
	assert.Equal(t, []string{"A", "B"}, c.Data.Options)
	assert.True(t, c.Data.Required)
}

func TestParseDraftRejectsNonJSON(t *testing.T) {
	_, err := ParseDraft("I cannot generate that form.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse model response")
}

func TestNormalizeFillsMetadata(t *testing.T) {
	d := Normalize(Draft{})
	assert.Equal(t, "Untitled Form", d.Title)
	assert.Equal(t, "", d.Description)
	assert.Empty(t, d.Components)
}

func TestNormalizeDropsUnknownTypes(t *testing.T) {
	d := Normalize(Draft{Components: []Component{
		{ID: "comp_1", Type: "checkbox", Data: ComponentData{Question: "Q"}},
		shortAnswer("comp_2", "Keep me", false),
	}})
	require.Len(t, d.Components, 1)
	assert.Equal(t, "comp_2", d.Components[0].ID)
}

func TestNormalizeAssignsIDsByPosition(t *testing.T) {
	d := Normalize(Draft{Components: []Component{
		shortAnswer("", "First", false),
		shortAnswer("keep_this", "Second", false),
		shortAnswer("", "Third", false),
	}})
	require.Len(t, d.Components, 3)
	assert.Equal(t, "comp_1", d.Components[0].ID)
	assert.Equal(t, "keep_this", d.Components[1].ID)
	assert.Equal(t, "comp_3", d.Components[2].ID)
}

func TestNormalizeRepairsMultipleChoice(t *testing.T) {
	d := Normalize(Draft{Components: []Component{
		multipleChoice("comp_1", ""),
		multipleChoice("comp_2", "Q", "a", "b", "c", "d", "e", "f"),
	}})
	require.Len(t, d.Components, 2)

	assert.Equal(t, "Question", d.Components[0].Data.Question)
	assert.Equal(t, []string{"Option 1", "Option 2"}, d.Components[0].Data.Options)

	assert.Equal(t, []string{"a", "b", "c", "d"}, d.Components[1].Data.Options)
}

func TestNormalizeDefaultsShortAnswerQuestion(t *testing.T) {
	d := Normalize(Draft{Components: []Component{shortAnswer("comp_1", "", false)}})
	require.Len(t, d.Components, 1)
	assert.Equal(t, "Question", d.Components[0].Data.Question)
}

func TestFallbackDraft(t *testing.T) {
	d := FallbackDraft("short context")
	assert.Equal(t, "New Form", d.Title)
	assert.Equal(t, "Form created from: short context", d.Description)
	require.Len(t, d.Components, 1)
	assert.Equal(t, "comp_1", d.Components[0].ID)
	assert.Equal(t, TypeShortAnswer, d.Components[0].Type)
	assert.True(t, d.Components[0].Data.Required)
}

func TestFallbackDraftTruncatesLongContext(t *testing.T) {
	long := strings.Repeat("x", 150)
	d := FallbackDraft(long)
	assert.Equal(t, "Form created from: "+strings.Repeat("x", 100)+"...", d.Description)
}

func TestBuildCreatePrompt(t *testing.T) {
	p := buildCreatePrompt("User Request: make a quiz")
	assert.Contains(t, p, "USER REQUIREMENTS:\nUser Request: make a quiz")
	assert.Contains(t, p, "Return ONLY valid JSON")
}

func TestBuildUpdatePrompt(t *testing.T) {
	current := Schema{Components: []Component{shortAnswer("comp_1", "Old question", false)}}
	p := buildUpdatePrompt("User Request: add a rating", current)
	assert.Contains(t, p, "USER UPDATE REQUEST:\nUser Request: add a rating")
	assert.Contains(t, p, "CURRENT FORM SCHEMA:")
	assert.Contains(t, p, `"id": "comp_1"`)
	assert.Contains(t, p, `"question": "Old question"`)
}
