// Package checklist evaluates user-defined questions and conditions against
// uploaded documents by issuing a single request to the external model.
package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/tender-checklist/internal/filestore"
	"github.com/jonathan/tender-checklist/internal/llm"
	"github.com/jonathan/tender-checklist/internal/prompts"
)

// DefaultTimeout bounds the external model call. Document analysis over
// several PDFs routinely takes tens of seconds.
const DefaultTimeout = 120 * time.Second

// Document pairs a local file record with its provider storage reference.
type Document struct {
	ID          int64
	DisplayName string
	Reference   filestore.Reference
}

// Request is one checklist run: the selected documents plus the question
// and condition texts to evaluate against them.
type Request struct {
	Documents  []Document
	Questions  []string
	Conditions []string
	// ItemIDs are the stored-item ids the texts came from, recorded with
	// the session for traceability. May be empty for ad-hoc runs.
	ItemIDs []int64
}

// Result is the outcome of one checklist run. QuestionAnswers has exactly one
// entry per input question and ConditionEvaluations exactly one entry per
// input condition, keyed by the original text verbatim.
type Result struct {
	SessionID            string            `json:"session_id"`
	QuestionAnswers      map[string]string `json:"question_answers"`
	ConditionEvaluations map[string]bool   `json:"condition_evaluations"`
	ProcessingTimeMS     int64             `json:"processing_time_ms"`
	FilesProcessed       []string          `json:"files_processed"`
}

// SessionLog records evaluation runs. Implemented by the db package; a nil
// log disables recording.
type SessionLog interface {
	BeginSession(ctx context.Context, sessionID uuid.UUID, fileIDs, itemIDs []int64) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID, results any, elapsed time.Duration) error
	FailSession(ctx context.Context, sessionID uuid.UUID, message string, elapsed time.Duration) error
}

// Evaluator turns a checklist request into a Result via one external model call.
type Evaluator struct {
	llm      llm.Client
	store    filestore.Store
	sessions SessionLog

	// Tier selects the model capability level for evaluation calls.
	Tier llm.ModelTier
	// Timeout bounds each external call.
	Timeout time.Duration
}

// NewEvaluator creates an evaluator. sessions may be nil to disable run recording.
func NewEvaluator(client llm.Client, store filestore.Store, sessions SessionLog) *Evaluator {
	return &Evaluator{
		llm:      client,
		store:    store,
		sessions: sessions,
		Tier:     llm.TierStandard,
		Timeout:  DefaultTimeout,
	}
}

// Evaluate runs the checklist against the selected documents. Validation
// failures are reported before any external call is made.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Documents) == 0 {
		return nil, &ValidationError{Field: "file_ids", Message: "at least one file is required"}
	}
	if len(req.Questions)+len(req.Conditions) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one question or condition is required"}
	}

	start := time.Now()
	sessionID := uuid.New()

	if e.sessions != nil {
		if err := e.sessions.BeginSession(ctx, sessionID, documentIDs(req.Documents), req.ItemIDs); err != nil {
			return nil, fmt.Errorf("failed to record session: %w", err)
		}
	}

	answers, verdicts, err := e.callModel(ctx, req)
	if err != nil {
		if e.sessions != nil {
			_ = e.sessions.FailSession(ctx, sessionID, err.Error(), time.Since(start))
		}
		return nil, err
	}

	result := &Result{
		SessionID:            sessionID.String(),
		QuestionAnswers:      answers,
		ConditionEvaluations: verdicts,
		ProcessingTimeMS:     time.Since(start).Milliseconds(),
		FilesProcessed:       documentNames(req.Documents),
	}

	if e.sessions != nil {
		if err := e.sessions.CompleteSession(ctx, sessionID, result, time.Since(start)); err != nil {
			return nil, fmt.Errorf("failed to record session result: %w", err)
		}
	}

	return result, nil
}

// Chat sends a free-form message grounded on the selected documents and
// returns the model reply plus the display names of the files used.
func (e *Evaluator) Chat(ctx context.Context, message string, docs []Document) (string, []string, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, &ValidationError{Field: "message", Message: "message must not be empty"}
	}
	if len(docs) == 0 {
		return "", nil, &ValidationError{Field: "file_ids", Message: "at least one file is required"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	refs := documentRefs(docs)
	if err := e.store.EnsureActive(ctx, refs); err != nil {
		return "", nil, &EvaluationError{Message: "documents are not ready for analysis", Err: err}
	}

	system := prompts.MustGet("chat.json", "system")
	user := prompts.Format(prompts.MustGet("chat.json", "user"), map[string]string{
		"Message": message,
	})

	reply, err := e.llm.GenerateContent(ctx, system, user, refs, llm.TierLite)
	if err != nil {
		return "", nil, &EvaluationError{Message: "external model request failed", Err: err}
	}

	return reply, documentNames(docs), nil
}

// callModel performs the single external call and parses the response.
func (e *Evaluator) callModel(ctx context.Context, req Request) (map[string]string, map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	refs := documentRefs(req.Documents)
	if err := e.store.EnsureActive(ctx, refs); err != nil {
		return nil, nil, &EvaluationError{Message: "documents are not ready for analysis", Err: err}
	}

	system := prompts.MustGet("checklist.json", "system")
	user := prompts.Format(prompts.MustGet("checklist.json", "user"), map[string]string{
		"Checklist": formatChecklist(req.Questions, req.Conditions),
	})

	raw, err := e.llm.GenerateJSON(ctx, system, user, refs, e.Tier)
	if err != nil {
		return nil, nil, &EvaluationError{Message: "external model request failed", Err: err}
	}

	answers, verdicts, err := parseResponse(raw, req.Questions, req.Conditions)
	if err != nil {
		return nil, nil, &EvaluationError{Message: "external model returned an unusable response", Err: err}
	}
	return answers, verdicts, nil
}

// formatChecklist renders the items the way the prompt expects them, one
// prefixed line per item.
func formatChecklist(questions, conditions []string) string {
	lines := make([]string, 0, len(questions)+len(conditions))
	for _, q := range questions {
		lines = append(lines, "QUESTION: "+q)
	}
	for _, c := range conditions {
		lines = append(lines, "CONDITION: "+c)
	}
	return strings.Join(lines, "\n")
}

func documentRefs(docs []Document) []filestore.Reference {
	refs := make([]filestore.Reference, len(docs))
	for i, doc := range docs {
		refs[i] = doc.Reference
	}
	return refs
}

func documentIDs(docs []Document) []int64 {
	ids := make([]int64, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids
}

func documentNames(docs []Document) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.DisplayName
	}
	return names
}
