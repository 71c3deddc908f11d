package escalation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockClient struct {
	response string
	err      error
	model    string
	calls    int
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	m.calls++
	return m.response, m.err
}

func (m *mockClient) SetModel(model string) { m.model = model }
func (m *mockClient) GetModel() string      { return m.model }

func TestHasEscalationSignalsHumanRequest(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Can I talk to a teacher please?", true},
		{"I want to speak to someone about this", true},
		{"connect me with a teacher", true},
		{"Is there a real person I can ask?", true},
		{"What is photosynthesis?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, HasEscalationSignals(tt.input))
		})
	}
}

func TestHasEscalationSignalsFrustrationThreshold(t *testing.T) {
	// One keyword is not enough
	assert.False(t, HasEscalationSignals("This is difficult"))

	// Two keywords cross the threshold
	assert.True(t, HasEscalationSignals("I'm confused, this is too complicated"))
	assert.True(t, HasEscalationSignals("I don't understand, can you explain again?"))
}

func TestDecideSignalTier(t *testing.T) {
	// LLM must not be consulted when signals fire
	client := &mockClient{response: `{"escalate": false}`}
	e := NewEngine(client, nil, 0)

	d := e.Decide(context.Background(), Request{
		StudentQuestion: "Why do atoms bond?",
		StudentFollowup: "I'm lost, this doesn't make sense",
		ExchangeCount:   1,
	})

	assert.True(t, d.Escalate)
	assert.Equal(t, "connect_to_teacher", d.SuggestedAction)
	assert.Equal(t, "immediate", d.SuggestedTime)
	assert.Equal(t, "high", d.Priority)
	assert.Contains(t, d.TeacherNote, "Why do atoms bond?")
	assert.Zero(t, client.calls)
}

func TestDecideExchangeCap(t *testing.T) {
	client := &mockClient{response: `{"escalate": false}`}
	e := NewEngine(client, nil, 0)

	d := e.Decide(context.Background(), Request{
		StudentQuestion: "What is an ecosystem?",
		StudentFollowup: "And what about food webs?",
		ExchangeCount:   5,
	})

	assert.True(t, d.Escalate)
	assert.Equal(t, "end_of_day", d.SuggestedTime)
	assert.Equal(t, "medium", d.Priority)
	assert.Contains(t, d.Reason, "5 exchanges")
	assert.Zero(t, client.calls)
}

func TestDecideCustomExchangeCap(t *testing.T) {
	e := NewEngine(nil, nil, 3)

	d := e.Decide(context.Background(), Request{ExchangeCount: 3})
	assert.True(t, d.Escalate)

	d = e.Decide(context.Background(), Request{ExchangeCount: 2})
	assert.False(t, d.Escalate)
}

func TestDecideLLMTier(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"escalate": true,
		"reason": "Question requires subjective judgment",
		"suggested_action": "connect_to_teacher",
		"suggested_time": "scheduled",
		"priority": "medium",
		"teacher_note": "Student asking about essay grading"
	}` + "\n```"}
	e := NewEngine(client, nil, 0)

	d := e.Decide(context.Background(), Request{
		StudentQuestion:   "Is my essay thesis good?",
		StudentFollowup:   "Here is my draft",
		Subject:           "reading",
		GradeLevel:        "high",
		QueryType:         "other",
		PreviousResponses: []string{"A thesis should state a claim."},
		ExchangeCount:     2,
	})

	assert.True(t, d.Escalate)
	assert.Equal(t, "scheduled", d.SuggestedTime)
	assert.Equal(t, 1, client.calls)
}

func TestDecideLLMErrorDefaultsToNoEscalation(t *testing.T) {
	client := &mockClient{err: fmt.Errorf("timeout")}
	e := NewEngine(client, nil, 0)

	d := e.Decide(context.Background(), Request{
		StudentQuestion: "What is gravity?",
		StudentFollowup: "Does it work in space?",
		ExchangeCount:   2,
	})

	assert.False(t, d.Escalate)
	assert.Equal(t, "continue_assistance", d.SuggestedAction)
	assert.Equal(t, "low", d.Priority)
}

func TestDecideNoClient(t *testing.T) {
	e := NewEngine(nil, nil, 0)

	d := e.Decide(context.Background(), Request{
		StudentFollowup: "Tell me more about volcanoes",
		ExchangeCount:   1,
	})

	assert.False(t, d.Escalate)
	assert.Equal(t, "not_applicable", d.SuggestedTime)
}

func TestFormatStudentMessage(t *testing.T) {
	assert.Empty(t, FormatStudentMessage(Decision{Escalate: false}))

	msg := FormatStudentMessage(Decision{Escalate: true, SuggestedAction: "connect_to_teacher"})
	assert.Contains(t, msg, "Connect you with a teacher now")

	msg = FormatStudentMessage(Decision{Escalate: true, SuggestedAction: "provide_alternative_resources"})
	assert.Contains(t, msg, "learning resources")

	msg = FormatStudentMessage(Decision{Escalate: true, SuggestedAction: "simplify_explanation"})
	assert.Contains(t, msg, "different approach")
}
