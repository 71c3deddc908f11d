package tutor

import (
	"github.com/google/uuid"

	"tutorbot/internal/reading"
)

// Session tracks one student conversation: who is asking, how many
// exchanges have happened, and what has already been said. Turn state
// lives in memory; persistence happens through the store when the
// tutor processes a turn.
type Session struct {
	// ID identifies the session in the store.
	ID string

	// GradeLevel is the student's grade band (elementary, middle,
	// high, college).
	GradeLevel string

	// FirstQuestion is the question that opened the session. The
	// escalation engine judges follow-ups against it.
	FirstQuestion string

	// LastResponse is the most recent formatted answer, kept so
	// negative feedback on it can trigger a revision.
	LastResponse string

	// LastPromptID and LastResponseID tie feedback events back to the
	// exchange that produced them.
	LastPromptID   string
	LastResponseID string

	// Responses holds formatted answers in order, for escalation
	// context.
	Responses []string

	// ExchangeCount is how many turns have been processed.
	ExchangeCount int
}

// NewSession creates a session for a student at the given grade level.
// Invalid grade levels collapse to middle.
func NewSession(gradeLevel string) *Session {
	if !reading.ValidGradeLevel(gradeLevel) {
		gradeLevel = "middle"
	}
	return &Session{
		ID:         uuid.NewString(),
		GradeLevel: gradeLevel,
	}
}

// recordTurn updates in-memory state after a processed exchange.
func (s *Session) recordTurn(input, formatted, promptID, responseID string) {
	if s.FirstQuestion == "" {
		s.FirstQuestion = input
	}
	s.LastResponse = formatted
	s.LastPromptID = promptID
	s.LastResponseID = responseID
	s.Responses = append(s.Responses, formatted)
	s.ExchangeCount++
}
