package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "tutorbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreTurnAndHistory(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTurn("sess-1", 1, "What is gravity?", `{"subject":"science"}`, "Gravity pulls masses together.", `{"escalate":false}`))
	require.NoError(t, s.StoreTurn("sess-1", 2, "Does it work in space?", `{"subject":"science"}`, "Yes, gravity acts everywhere.", `{"escalate":false}`))
	require.NoError(t, s.StoreTurn("sess-2", 1, "other session", "{}", "resp", "{}"))

	history, err := s.GetHistory("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Chronological order
	assert.Equal(t, 1, history[0].TurnNumber)
	assert.Equal(t, "What is gravity?", history[0].StudentInput)
	assert.Equal(t, 2, history[1].TurnNumber)
	assert.Equal(t, "Yes, gravity acts everywhere.", history[1].Response)
}

func TestStoreTurnIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.StoreTurn("sess-1", 1, "input", "{}", "resp", "{}"))
	require.NoError(t, s.StoreTurn("sess-1", 1, "replayed", "{}", "resp2", "{}"))

	count, err := s.TurnCount("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	history, err := s.GetHistory("sess-1", 10)
	require.NoError(t, err)
	assert.Equal(t, "input", history[0].StudentInput)
}

func TestGetHistoryLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.StoreTurn("sess-1", i, "q", "{}", "a", "{}"))
	}

	history, err := s.GetHistory("sess-1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Most recent three, oldest first
	assert.Equal(t, 3, history[0].TurnNumber)
	assert.Equal(t, 5, history[2].TurnNumber)
}

func TestGetHistoryEmpty(t *testing.T) {
	s := newTestStore(t)

	history, err := s.GetHistory("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	count, err := s.TurnCount("missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecordFeedbackAndStats(t *testing.T) {
	s := newTestStore(t)

	for _, positive := range []bool{true, true, false} {
		require.NoError(t, s.RecordFeedback(FeedbackEvent{
			ID:         uuid.NewString(),
			SessionID:  "sess-1",
			Feedback:   "some feedback",
			IsPositive: positive,
		}))
	}
	require.NoError(t, s.RecordFeedback(FeedbackEvent{
		ID:         uuid.NewString(),
		SessionID:  "sess-2",
		IsPositive: false,
	}))

	pos, neg, err := s.FeedbackStats("sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 1, neg)

	pos, neg, err = s.FeedbackStats("")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 2, neg)
}

func TestRecentFeedback(t *testing.T) {
	s := newTestStore(t)

	ev := FeedbackEvent{
		ID:             uuid.NewString(),
		SessionID:      "sess-1",
		PromptID:       "science_explain",
		ResponseID:     uuid.NewString(),
		Feedback:       "thanks, that makes sense",
		FeedbackType:   "explicit",
		IsPositive:     true,
		ResponseTimeMS: 420,
	}
	require.NoError(t, s.RecordFeedback(ev))

	events, err := s.RecentFeedback("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, ev.ID, events[0].ID)
	assert.Equal(t, "explicit", events[0].FeedbackType)
	assert.True(t, events[0].IsPositive)
	assert.EqualValues(t, 420, events[0].ResponseTimeMS)
}

func TestFeedbackTypeDefaultsImplicit(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordFeedback(FeedbackEvent{
		ID:        uuid.NewString(),
		SessionID: "sess-1",
	}))

	events, err := s.RecentFeedback("sess-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "implicit", events[0].FeedbackType)
}
