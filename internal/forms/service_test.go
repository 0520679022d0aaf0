package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/llm"
	"github.com/formflowhq/backend/internal/models"
)

type fakeGateway struct {
	lastReq llm.ChatRequest
	content string
	err     error
}

func (g *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Provider: "fake", Content: g.content}, nil
}

func (g *fakeGateway) Provider(string) (llm.Provider, error) {
	return nil, errors.New("no providers")
}

type fakeProcessor struct{ text string }

func (p *fakeProcessor) ProcessDocuments(context.Context, []extraction.Document) string {
	return p.text
}

type fakeSchemaStore struct {
	created   *Draft
	updated   *UpdateRequest
	updatedID uuid.UUID
	version   int
	createErr error
	updateErr error
}

func (st *fakeSchemaStore) Create(_ context.Context, userID uuid.UUID, d Draft) (*models.Form, error) {
	if st.createErr != nil {
		return nil, st.createErr
	}
	st.created = &d
	return &models.Form{ID: uuid.New(), UserID: userID, Title: d.Title, Description: d.Description}, nil
}

func (st *fakeSchemaStore) Update(_ context.Context, id uuid.UUID, req UpdateRequest) (int, error) {
	if st.updateErr != nil {
		return 0, st.updateErr
	}
	st.updated = &req
	st.updatedID = id
	return st.version, nil
}

func newTestService(gw *fakeGateway, st *fakeSchemaStore, docText string) *Service {
	return NewService(st, gw, &fakeProcessor{text: docText}, "test-model")
}

func TestCreateGeneratesAndStores(t *testing.T) {
	gw := &fakeGateway{content: "```json\n" +
		`{"title":"Customer Feedback","description":"Tell us","components":[{"id":"comp_1","type":"short-answer","data":{"question":"How was it?","required":true}}]}` +
		"\n```"}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	form, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{UserQuery: "make a feedback form"})
	require.NoError(t, err)
	assert.Equal(t, "Customer Feedback", form.Title)

	require.NotNil(t, st.created)
	require.Len(t, st.created.Components, 1)
	assert.Equal(t, "How was it?", st.created.Components[0].Data.Question)

	assert.Equal(t, "test-model", gw.lastReq.Model)
	require.Len(t, gw.lastReq.Messages, 1)
	assert.Contains(t, gw.lastReq.Messages[0].Content, "User Request: make a feedback form")
}

func TestCreateNormalizesDraft(t *testing.T) {
	gw := &fakeGateway{content: `{"components":[{"type":"short-answer","data":{"question":"Q"}}]}`}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	_, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{UserQuery: "anything"})
	require.NoError(t, err)

	require.NotNil(t, st.created)
	assert.Equal(t, "Untitled Form", st.created.Title)
	require.Len(t, st.created.Components, 1)
	assert.Equal(t, "comp_1", st.created.Components[0].ID)
}

func TestCreateFallsBackOnModelError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("rate limited")}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	form, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{UserQuery: "feedback form"})
	require.NoError(t, err)
	assert.Equal(t, "New Form", form.Title)

	require.NotNil(t, st.created)
	assert.Equal(t, "Form created from: User Request: feedback form", st.created.Description)
	require.Len(t, st.created.Components, 1)
	assert.Equal(t, "Please describe your request", st.created.Components[0].Data.Question)
	assert.True(t, st.created.Components[0].Data.Required)
}

func TestCreateFallsBackOnUnparsableResponse(t *testing.T) {
	gw := &fakeGateway{content: "I cannot generate that form."}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	_, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{UserQuery: "x"})
	require.NoError(t, err)
	require.NotNil(t, st.created)
	assert.Equal(t, "New Form", st.created.Title)
}

func TestCreateContextCarriesDocuments(t *testing.T) {
	gw := &fakeGateway{content: `{"title":"T","components":[]}`}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "extracted body")

	_, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{
		UserQuery: "build from the attached",
		Documents: []extraction.Document{{Name: "a.pdf", Type: "pdf", Content: "Zm9v"}},
	})
	require.NoError(t, err)

	prompt := gw.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "User Request: build from the attached")
	assert.Contains(t, prompt, "Document Content:\nextracted body")
}

func TestCreateSanitizesQuery(t *testing.T) {
	gw := &fakeGateway{content: `{"title":"T","components":[]}`}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	_, err := svc.Create(context.Background(), uuid.New(), GenerateRequest{UserQuery: "<b>hello</b>   world"})
	require.NoError(t, err)
	assert.Contains(t, gw.lastReq.Messages[0].Content, "User Request: hello world")
}

func TestEditAppendsVersionWithDiff(t *testing.T) {
	gw := &fakeGateway{content: `{"title":"Survey","description":"","components":[` +
		`{"id":"comp_1","type":"short-answer","data":{"question":"Q1","required":true}},` +
		`{"id":"comp_2","type":"short-answer","data":{"question":"Q2","required":false}}]}`}
	st := &fakeSchemaStore{version: 3}
	svc := newTestService(gw, st, "")

	form := &models.Form{ID: uuid.New(), Title: "Survey", Description: ""}
	current := Schema{Components: []Component{shortAnswer("comp_1", "Q1", true)}}

	result, err := svc.Edit(context.Background(), form, current, GenerateRequest{UserQuery: "add a question"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Version)
	assert.Equal(t, "Survey", result.Title)
	require.Len(t, result.Schema.Components, 2)

	require.NotNil(t, st.updated)
	assert.Equal(t, form.ID, st.updatedID)
	assert.Equal(t, "Added 1 component(s)", st.updated.ChangeDescription)
	require.NotNil(t, st.updated.DetailedDiff)
	require.Len(t, st.updated.DetailedDiff.Changes, 1)
	assert.Equal(t, "added", st.updated.DetailedDiff.Changes[0].Type)
	require.NotNil(t, st.updated.Title)
	assert.Equal(t, "Survey", *st.updated.Title)
}

func TestEditPromptCarriesCurrentSchema(t *testing.T) {
	gw := &fakeGateway{content: `{"title":"T","components":[]}`}
	st := &fakeSchemaStore{version: 1}
	svc := newTestService(gw, st, "")

	form := &models.Form{ID: uuid.New(), Title: "T"}
	current := Schema{Components: []Component{shortAnswer("comp_1", "Existing question", false)}}

	_, err := svc.Edit(context.Background(), form, current, GenerateRequest{UserQuery: "tweak it"})
	require.NoError(t, err)

	prompt := gw.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "CURRENT FORM SCHEMA:")
	assert.Contains(t, prompt, `"question": "Existing question"`)
}

func TestEditPropagatesModelError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("provider down")}
	st := &fakeSchemaStore{}
	svc := newTestService(gw, st, "")

	form := &models.Form{ID: uuid.New()}
	_, err := svc.Edit(context.Background(), form, Schema{}, GenerateRequest{UserQuery: "x"})
	require.Error(t, err)
	assert.Nil(t, st.updated)
}

func TestEditPropagatesStoreError(t *testing.T) {
	gw := &fakeGateway{content: `{"title":"T","components":[]}`}
	st := &fakeSchemaStore{updateErr: errors.New("db down")}
	svc := newTestService(gw, st, "")

	form := &models.Form{ID: uuid.New(), Title: "T"}
	_, err := svc.Edit(context.Background(), form, Schema{}, GenerateRequest{UserQuery: "x"})
	require.Error(t, err)
}
