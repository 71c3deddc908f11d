package feedback

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/store"
)

type mockClient struct {
	response   string
	err        error
	model      string
	lastPrompt string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.response, m.err
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	m.lastPrompt = user
	return m.response, m.err
}

func (m *mockClient) SetModel(model string) { m.model = model }
func (m *mockClient) GetModel() string      { return m.model }

func TestIsPositive(t *testing.T) {
	tests := []struct {
		feedback string
		want     bool
	}{
		{"Thanks, that makes sense now!", true},
		{"got it, great explanation", true},
		{"I'm still confused, explain again", false},
		{"that doesn't make sense, I'm lost", false},
		{"ok", false}, // no signals either way
		{"thanks but I still don't get it and I'm not following", false},
	}

	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPositive(tt.feedback))
		})
	}
}

func TestIsFollowup(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Thanks, that makes sense now!", true},
		{"got it!", true},
		{"can you explain again?", true},
		{"I'm still confused", true},
		{"that doesn't make sense", true},
		// Sentiment words inside fresh questions must not count.
		{"Can you help me understand photosynthesis?", false},
		{"Is it true that great white sharks are fish?", false},
		{"Why does cool air sink?", false},
		{"What makes a clear explanation of gravity?", false},
		{"What is the water cycle?", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFollowup(tt.input))
		})
	}
}

func TestGenerateUnderstandingCheck(t *testing.T) {
	client := &mockClient{response: "Does that make sense? What would happen if we doubled the mass?"}
	loop := NewLoop(client, nil, nil)

	got := loop.GenerateUnderstandingCheck(context.Background(), "Gravity depends on mass.", "gravity", "middle")
	assert.Equal(t, "Does that make sense? What would happen if we doubled the mass?", got)
	assert.Contains(t, client.lastPrompt, "gravity")
	assert.Contains(t, client.lastPrompt, "middle")
}

func TestGenerateUnderstandingCheckFallsBack(t *testing.T) {
	loop := NewLoop(&mockClient{err: fmt.Errorf("down")}, nil, nil)
	got := loop.GenerateUnderstandingCheck(context.Background(), "explanation", "topic", "middle")
	assert.Equal(t, defaultUnderstandingCheck, got)

	loop = NewLoop(nil, nil, nil)
	assert.Equal(t, defaultUnderstandingCheck, loop.GenerateUnderstandingCheck(context.Background(), "e", "t", "g"))

	loop = NewLoop(&mockClient{response: "   "}, nil, nil)
	assert.Equal(t, defaultUnderstandingCheck, loop.GenerateUnderstandingCheck(context.Background(), "e", "t", "g"))
}

func TestAnalyze(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"clarity_issues": ["Used the term inertia without defining it"],
		"missing_information": ["Newton's first law"],
		"language_appropriateness": "too_complex",
		"improvement_strategies": ["Define terms before using them"],
		"revised_explanation": "Objects keep moving unless something stops them."
	}` + "\n```"}
	loop := NewLoop(client, nil, nil)

	got := loop.Analyze(context.Background(), "Why does the ball keep rolling?", "Because of inertia.", "what is inertia?", "elementary")
	assert.Equal(t, "too_complex", got.LanguageAppropriateness)
	assert.Equal(t, "Objects keep moving unless something stops them.", got.RevisedExplanation)
}

func TestAnalyzeModelErrorFallback(t *testing.T) {
	loop := NewLoop(&mockClient{err: fmt.Errorf("down")}, nil, nil)

	got := loop.Analyze(context.Background(), "q", "r", "f", "middle")
	assert.Equal(t, "unknown", got.LanguageAppropriateness)
	assert.Equal(t, []string{"Unable to parse feedback analysis"}, got.ClarityIssues)
	assert.Empty(t, got.RevisedExplanation)
}

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	s, err := store.NewLocalStore(filepath.Join(t.TempDir(), "tutorbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewTracker(s)
}

func TestTrackerTrack(t *testing.T) {
	tracker := newTestTracker(t)

	ev, err := tracker.Track("sess-1", "science_explain", "resp-1", "thanks, very helpful", "explicit", 250)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.True(t, ev.IsPositive)

	pos, neg, err := tracker.Stats("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Zero(t, neg)
}

func TestImproveResponseTracksAndRevises(t *testing.T) {
	tracker := newTestTracker(t)
	client := &mockClient{response: `{"revised_explanation": "A simpler explanation.", "language_appropriateness": "too_complex"}`}
	loop := NewLoop(client, nil, tracker)

	improved, analysis := loop.ImproveResponse(context.Background(),
		"Why is the sky blue?", "Rayleigh scattering.", "i don't understand, explain again",
		"elementary", "sess-1", "science_explain", "resp-1")

	assert.Equal(t, "A simpler explanation.", improved)
	assert.Equal(t, "too_complex", analysis.LanguageAppropriateness)

	pos, neg, err := tracker.Stats("sess-1")
	require.NoError(t, err)
	assert.Zero(t, pos)
	assert.Equal(t, 1, neg)
}

func TestImproveResponseKeepsPreviousWithoutRevision(t *testing.T) {
	loop := NewLoop(&mockClient{response: `{"language_appropriateness": "appropriate"}`}, nil, nil)

	improved, _ := loop.ImproveResponse(context.Background(), "q", "previous answer", "hm", "middle", "", "", "")
	assert.Equal(t, "previous answer", improved)
}
