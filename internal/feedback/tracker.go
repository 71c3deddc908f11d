package feedback

import (
	"github.com/google/uuid"

	"tutorbot/internal/store"
)

// Tracker records feedback events in the local store.
type Tracker struct {
	store *store.LocalStore
}

// NewTracker creates a tracker backed by the given store.
func NewTracker(s *store.LocalStore) *Tracker {
	return &Tracker{store: s}
}

// Track records one feedback event. The sentiment is derived from the
// feedback text. Returns the stored event including its generated ID.
func (t *Tracker) Track(sessionID, promptID, responseID, feedback, feedbackType string, responseTimeMS int64) (store.FeedbackEvent, error) {
	ev := store.FeedbackEvent{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		PromptID:       promptID,
		ResponseID:     responseID,
		Feedback:       feedback,
		FeedbackType:   feedbackType,
		IsPositive:     IsPositive(feedback),
		ResponseTimeMS: responseTimeMS,
	}

	if err := t.store.RecordFeedback(ev); err != nil {
		return store.FeedbackEvent{}, err
	}
	return ev, nil
}

// Stats returns positive and negative feedback counts for a session.
// An empty sessionID counts across all sessions.
func (t *Tracker) Stats(sessionID string) (positive, negative int, err error) {
	return t.store.FeedbackStats(sessionID)
}
