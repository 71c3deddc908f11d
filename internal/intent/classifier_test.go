package intent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockClient returns a canned response or error.
type mockClient struct {
	response string
	err      error
	model    string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.response, m.err
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return m.response, m.err
}

func (m *mockClient) SetModel(model string) { m.model = model }
func (m *mockClient) GetModel() string      { return m.model }

// mockEngine embeds by keyword lookup so similarity is deterministic.
type mockEngine struct {
	err error
}

func (m *mockEngine) vector(text string) []float32 {
	switch {
	case strings.Contains(text, "literature"), strings.Contains(text, "novel"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "ecosystems"), strings.Contains(text, "photosynthesis"):
		return []float32{0, 1, 0}
	case strings.Contains(text, "calculations"), strings.Contains(text, "quadratic"):
		return []float32{0, 0, 1}
	}
	// Far from every exemplar
	return []float32{-1, -1, -1}
}

func (m *mockEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEngine) Dimensions() int { return 3 }
func (m *mockEngine) Name() string    { return "mock" }

func TestQuickSubject(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Can you help me understand this story about a brave character?", "reading"},
		{"What happens during a chemical reaction between an acid and a base?", "science"},
		{"How do I solve this equation with fractions?", "math"},
		{"What time does school start tomorrow?", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, QuickSubject(tt.query))
		})
	}
}

func TestQuickSubjectPicksHighestScore(t *testing.T) {
	// One reading keyword, two science keywords
	got := QuickSubject("I read that atoms form molecules")
	assert.Equal(t, "science", got)
}

func TestClassifyKeywordOnly(t *testing.T) {
	c := NewClassifier(nil, nil, nil)

	result := c.Classify(context.Background(), "Why does the planet orbit the sun?")
	assert.Equal(t, "science", result.Subject)
	assert.Equal(t, "unknown", result.QueryType)
	assert.False(t, result.NeedsHumanTeacher)
	assert.Contains(t, result.Reason, "keyword")
}

func TestClassifyLLMTier(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"subject": "reading",
		"query_type": "comprehension",
		"grade_level": "middle",
		"complexity": "intermediate",
		"needs_human_teacher": false,
		"reason": "Asks about a passage"
	}` + "\n```"}

	c := NewClassifier(client, nil, nil)
	result := c.Classify(context.Background(), "What is the main idea of this passage?")

	assert.Equal(t, "reading", result.Subject)
	assert.Equal(t, "comprehension", result.QueryType)
	assert.Equal(t, "middle", result.GradeLevel)
	assert.Equal(t, "intermediate", result.Complexity)
}

func TestClassifyLLMMissingFieldsDefaultUnknown(t *testing.T) {
	client := &mockClient{response: `{"subject": "math"}`}

	c := NewClassifier(client, nil, nil)
	result := c.Classify(context.Background(), "2+2?")

	assert.Equal(t, "math", result.Subject)
	assert.Equal(t, "unknown", result.QueryType)
	assert.Equal(t, "unknown", result.Complexity)
	assert.Equal(t, "unknown", result.GradeLevel)
}

func TestClassifyLLMFailureFallsToKeyword(t *testing.T) {
	client := &mockClient{err: fmt.Errorf("connection refused")}

	c := NewClassifier(client, nil, nil)
	result := c.Classify(context.Background(), "Tell me about the plot of this book")

	assert.Equal(t, "reading", result.Subject)
	assert.Contains(t, result.Reason, "keyword")
}

func TestClassifySemanticTier(t *testing.T) {
	// LLM fails, semantic matches the science exemplar
	client := &mockClient{err: fmt.Errorf("rate limited")}
	c := NewClassifier(client, &mockEngine{}, nil)

	result := c.Classify(context.Background(), "how does photosynthesis work")
	assert.Equal(t, "science", result.Subject)
	assert.Contains(t, result.Reason, "Semantic match")
}

func TestClassifySemanticBelowThresholdFallsToKeyword(t *testing.T) {
	c := NewClassifier(nil, &mockEngine{}, nil)

	// Ambiguous vector sits below the threshold against every exemplar,
	// keyword tier decides
	result := c.Classify(context.Background(), "please summary this for me")
	assert.Equal(t, "reading", result.Subject)
	assert.Contains(t, result.Reason, "keyword")
}

func TestClassifySemanticEngineErrorFallsToKeyword(t *testing.T) {
	c := NewClassifier(nil, &mockEngine{err: fmt.Errorf("engine down")}, nil)

	result := c.Classify(context.Background(), "what is a fraction")
	assert.Equal(t, "math", result.Subject)
}

func TestClassifySemanticRecoversAfterEngineError(t *testing.T) {
	engine := &mockEngine{err: fmt.Errorf("engine down")}
	c := NewClassifier(nil, engine, nil)

	result := c.Classify(context.Background(), "how does photosynthesis work")
	assert.Contains(t, result.Reason, "keyword")

	// Engine comes back up; the exemplar corpus is built on the next call
	engine.err = nil
	result = c.Classify(context.Background(), "how does photosynthesis work")
	assert.Equal(t, "science", result.Subject)
	assert.Contains(t, result.Reason, "Semantic match")
}
