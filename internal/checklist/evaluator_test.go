package checklist

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/tender-checklist/internal/filestore"
	"github.com/jonathan/tender-checklist/internal/llm"
)

// mockLLM returns canned responses and counts external calls
type mockLLM struct {
	response string
	err      error
	calls    int
}

func (m *mockLLM) GenerateContent(_ context.Context, _, _ string, _ []filestore.Reference, _ llm.ModelTier) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockLLM) GenerateJSON(_ context.Context, _, _ string, _ []filestore.Reference, _ llm.ModelTier) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockLLM) GetModel(_ llm.ModelTier) string { return "mock-model" }
func (m *mockLLM) Close() error                    { return nil }

// mockStore treats every reference as already active
type mockStore struct {
	ensureErr   error
	ensureCalls int
}

func (m *mockStore) Upload(_ context.Context, displayName string, _ io.Reader, mimeType string) (*filestore.Reference, error) {
	return &filestore.Reference{Handle: "files/mock", DisplayName: displayName, MIMEType: mimeType}, nil
}

func (m *mockStore) Delete(_ context.Context, _ string) error { return nil }

func (m *mockStore) EnsureActive(_ context.Context, _ []filestore.Reference) error {
	m.ensureCalls++
	return m.ensureErr
}

func (m *mockStore) Close() error { return nil }

func testDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{
			ID:          int64(i + 1),
			DisplayName: "tender.pdf",
			Reference:   filestore.Reference{Handle: "files/abc", MIMEType: "application/pdf"},
		}
	}
	return docs
}

func newTestEvaluator(response string) (*Evaluator, *mockLLM, *mockStore) {
	client := &mockLLM{response: response}
	store := &mockStore{}
	return NewEvaluator(client, store, nil), client, store
}

func TestEvaluateNoDocuments(t *testing.T) {
	e, client, _ := newTestEvaluator("{}")

	_, err := e.Evaluate(context.Background(), Request{
		Questions: []string{"What is the deadline?"},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "file_ids", validationErr.Field)
	assert.Zero(t, client.calls, "no external call may happen on validation failure")
}

func TestEvaluateNoItems(t *testing.T) {
	e, client, store := newTestEvaluator("{}")

	_, err := e.Evaluate(context.Background(), Request{Documents: testDocs(1)})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "items", validationErr.Field)
	assert.Zero(t, client.calls)
	assert.Zero(t, store.ensureCalls)
}

func TestEvaluateSingleCallCompleteness(t *testing.T) {
	// Model answers only one of two questions and one of two conditions
	e, client, _ := newTestEvaluator(`{
		"question_answers": {"What is the deadline?": "15 March 2025"},
		"condition_evaluations": {"Electronic submission allowed": true}
	}`)

	result, err := e.Evaluate(context.Background(), Request{
		Documents:  testDocs(2),
		Questions:  []string{"What is the deadline?", "Who is the contracting authority?"},
		Conditions: []string{"Electronic submission allowed", "Bid bond required"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls, "one evaluation run makes exactly one model call")

	require.Len(t, result.QuestionAnswers, 2)
	assert.Equal(t, "15 March 2025", result.QuestionAnswers["What is the deadline?"])
	assert.Equal(t, MissingAnswerFallback, result.QuestionAnswers["Who is the contracting authority?"])

	require.Len(t, result.ConditionEvaluations, 2)
	assert.True(t, result.ConditionEvaluations["Electronic submission allowed"])
	assert.False(t, result.ConditionEvaluations["Bid bond required"], "omitted condition defaults to false")

	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, []string{"tender.pdf", "tender.pdf"}, result.FilesProcessed)
}

func TestEvaluateKeysAreVerbatim(t *testing.T) {
	question := "  Welche Frist gilt für die Angebotsabgabe?  "
	e, _, _ := newTestEvaluator(`{"question_answers": {}, "condition_evaluations": {}}`)

	result, err := e.Evaluate(context.Background(), Request{
		Documents: testDocs(1),
		Questions: []string{question},
	})
	require.NoError(t, err)

	// The exact input text is the key, untrimmed and unmodified
	_, ok := result.QuestionAnswers[question]
	assert.True(t, ok)
}

func TestEvaluateModelFailure(t *testing.T) {
	client := &mockLLM{err: errors.New("upstream 500")}
	e := NewEvaluator(client, &mockStore{}, nil)

	_, err := e.Evaluate(context.Background(), Request{
		Documents: testDocs(1),
		Questions: []string{"What is the deadline?"},
	})

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.ErrorContains(t, err, "external model request failed")
}

func TestEvaluateUnusableResponse(t *testing.T) {
	e, _, _ := newTestEvaluator("I could not find any documents, sorry!")

	_, err := e.Evaluate(context.Background(), Request{
		Documents: testDocs(1),
		Questions: []string{"What is the deadline?"},
	})

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluateDocumentsNotReady(t *testing.T) {
	client := &mockLLM{response: "{}"}
	store := &mockStore{ensureErr: errors.New("file processing failed")}
	e := NewEvaluator(client, store, nil)

	_, err := e.Evaluate(context.Background(), Request{
		Documents:  testDocs(1),
		Conditions: []string{"Bid bond required"},
	})

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Zero(t, client.calls, "model is not called when documents never become ready")
}

func TestEvaluateEndToEndScenario(t *testing.T) {
	e, client, store := newTestEvaluator(`{
		"question_answers": {"What is the submission deadline?": "15 March 2025"},
		"condition_evaluations": {"Is the deadline before 2025-12-31?": true}
	}`)

	result, err := e.Evaluate(context.Background(), Request{
		Documents:  testDocs(1),
		Questions:  []string{"What is the submission deadline?"},
		Conditions: []string{"Is the deadline before 2025-12-31?"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.ensureCalls)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "15 March 2025", result.QuestionAnswers["What is the submission deadline?"])
	assert.True(t, result.ConditionEvaluations["Is the deadline before 2025-12-31?"])
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, int64(0))
}

func TestChatEmptyMessage(t *testing.T) {
	e, client, _ := newTestEvaluator("hello")

	_, _, err := e.Chat(context.Background(), "   ", testDocs(1))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "message", validationErr.Field)
	assert.Zero(t, client.calls)
}

func TestChatNoDocuments(t *testing.T) {
	e, client, _ := newTestEvaluator("hello")

	_, _, err := e.Chat(context.Background(), "Summarize the tender", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, client.calls)
}

func TestChatReturnsReplyAndFiles(t *testing.T) {
	e, _, _ := newTestEvaluator("The tender closes in March.")

	reply, used, err := e.Chat(context.Background(), "When does it close?", testDocs(2))
	require.NoError(t, err)
	assert.Equal(t, "The tender closes in March.", reply)
	assert.Equal(t, []string{"tender.pdf", "tender.pdf"}, used)
}

// mockSessionLog records lifecycle calls
type mockSessionLog struct {
	began     int
	completed int
	failed    int
	fileIDs   []int64
	itemIDs   []int64
	lastError string
}

func (m *mockSessionLog) BeginSession(_ context.Context, _ uuid.UUID, fileIDs, itemIDs []int64) error {
	m.began++
	m.fileIDs = fileIDs
	m.itemIDs = itemIDs
	return nil
}

func (m *mockSessionLog) CompleteSession(_ context.Context, _ uuid.UUID, _ any, _ time.Duration) error {
	m.completed++
	return nil
}

func (m *mockSessionLog) FailSession(_ context.Context, _ uuid.UUID, message string, _ time.Duration) error {
	m.failed++
	m.lastError = message
	return nil
}

func TestEvaluateRecordsSession(t *testing.T) {
	client := &mockLLM{response: `{"question_answers": {}, "condition_evaluations": {}}`}
	sessions := &mockSessionLog{}
	e := NewEvaluator(client, &mockStore{}, sessions)

	_, err := e.Evaluate(context.Background(), Request{
		Documents: testDocs(2),
		Questions: []string{"What is the deadline?"},
		ItemIDs:   []int64{7},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sessions.began)
	assert.Equal(t, 1, sessions.completed)
	assert.Zero(t, sessions.failed)
	assert.Equal(t, []int64{1, 2}, sessions.fileIDs)
	assert.Equal(t, []int64{7}, sessions.itemIDs)
}

func TestEvaluateRecordsFailure(t *testing.T) {
	client := &mockLLM{err: errors.New("upstream 500")}
	sessions := &mockSessionLog{}
	e := NewEvaluator(client, &mockStore{}, sessions)

	_, err := e.Evaluate(context.Background(), Request{
		Documents: testDocs(1),
		Questions: []string{"What is the deadline?"},
	})
	require.Error(t, err)

	assert.Equal(t, 1, sessions.began)
	assert.Zero(t, sessions.completed)
	assert.Equal(t, 1, sessions.failed)
	assert.Contains(t, sessions.lastError, "external model request failed")
}

func TestEvaluateValidationSkipsSessionLog(t *testing.T) {
	sessions := &mockSessionLog{}
	e := NewEvaluator(&mockLLM{}, &mockStore{}, sessions)

	_, err := e.Evaluate(context.Background(), Request{})
	require.Error(t, err)
	assert.Zero(t, sessions.began, "rejected runs are not recorded")
}

func TestFormatChecklist(t *testing.T) {
	got := formatChecklist(
		[]string{"What is the deadline?"},
		[]string{"Bid bond required"},
	)
	assert.Equal(t, "QUESTION: What is the deadline?\nCONDITION: Bid bond required", got)
}
