// Package tutor orchestrates a tutoring turn: intent classification,
// subject routing into the reading and science pipelines, the
// escalation decision that accompanies every response, and turn
// persistence.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tutorbot/internal/config"
	"tutorbot/internal/embedding"
	"tutorbot/internal/escalation"
	"tutorbot/internal/feedback"
	"tutorbot/internal/intent"
	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
	"tutorbot/internal/reading"
	"tutorbot/internal/science"
	"tutorbot/internal/store"
)

// Response types produced by Process.
const (
	TypeReadingPassageAnalysis = "reading_passage_analysis"
	TypeReadingExplanation     = "reading_explanation"
	TypeReadingQuestionAnswer  = "reading_question_answer"
	TypeScienceExplanation     = "science_explanation"
	TypeUnsupportedSubject     = "unsupported_subject"
	TypeEscalation             = "escalation"
	TypeRevisedExplanation     = "revised_explanation"
	TypeFeedbackAcknowledged   = "feedback_acknowledged"
)

// Response is the structured result of one processed turn. Exactly one
// of the payload groups is populated, selected by Type.
type Response struct {
	Type       string                `json:"response_type"`
	Intent     intent.Classification `json:"intent"`
	Escalation escalation.Decision   `json:"escalation"`
	Message    string                `json:"message,omitempty"`

	// Reading passage analysis payload.
	PassageAnalysis   *reading.DifficultyAnalysis `json:"passage_analysis,omitempty"`
	GeneratedQuestion *reading.Question           `json:"generated_question,omitempty"`

	// Science explanation payload.
	DoubtClassification *science.DoubtClassification `json:"doubt_classification,omitempty"`
	Explanation         *science.Explanation         `json:"explanation,omitempty"`
	UnderstandingCheck  string                       `json:"understanding_check,omitempty"`

	// Feedback payload for revised explanations.
	FeedbackAnalysis *feedback.Analysis `json:"feedback_analysis,omitempty"`
}

const unsupportedSubjectMessage = "I'm not sure how to help with that subject yet. Can you ask me a question about reading or science?"

const readingClarifyMessage = "I'd be happy to help with your reading question. Could you provide a specific passage or quote you'd like to analyze?"

const positiveFeedbackMessage = "I'm glad that helped! Feel free to ask me another reading or science question."

// readingAnswerSystem frames direct reading answers that do not go
// through passage analysis.
const readingAnswerSystem = `You are a patient reading tutor. Answer the student's question about reading, literature, or language clearly and at their grade level. Keep the answer focused and encouraging.`

// Tutor wires the classification, subject, escalation, and feedback
// components together over a shared LLM client and template store.
type Tutor struct {
	client    perception.LLMClient
	intents   *intent.Classifier
	reading   *reading.Analyzer
	science   *science.Tutor
	escalator *escalation.Engine
	loop      *feedback.Loop
	tracker   *feedback.Tracker
	local     *store.LocalStore

	// historyWindow bounds how many previous responses go to the
	// escalation model; <= 0 sends everything.
	historyWindow int
}

// New builds a Tutor. engine and local may be nil; the classifier then
// skips its semantic tier and turns are not persisted.
func New(client perception.LLMClient, engine embedding.Engine, templates *prompt.Store, local *store.LocalStore, cfg config.SessionConfig) *Tutor {
	var tracker *feedback.Tracker
	if local != nil {
		tracker = feedback.NewTracker(local)
	}
	return &Tutor{
		client:    client,
		intents:   intent.NewClassifier(client, engine, templates),
		reading:   reading.NewAnalyzer(client, templates),
		science:   science.NewTutor(client, templates),
		escalator: escalation.NewEngine(client, templates, cfg.MaxExchanges),
		loop:      feedback.NewLoop(client, templates, tracker),
		tracker:   tracker,
		local:     local,

		historyWindow: cfg.HistoryWindow,
	}
}

// Process handles one student input end to end. Every returned
// response carries an intent classification and an escalation
// decision, and the turn is persisted when a store is configured.
func (t *Tutor) Process(ctx context.Context, sess *Session, input string) (*Response, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty student input")
	}

	timer := logging.StartTimer(logging.CategorySession, "Process")
	defer timer.Stop()

	logging.Session("[Tutor] session=%s turn=%d input=%q", sess.ID, sess.ExchangeCount+1, truncate(input, 60))

	resp := t.route(ctx, sess, input)

	// Escalation runs on every turn, after routing so the decision
	// sees the full exchange history including this turn's framing.
	resp.Escalation = t.escalator.Decide(ctx, escalation.Request{
		StudentQuestion:   firstQuestion(sess, input),
		StudentFollowup:   input,
		Subject:           resp.Intent.Subject,
		GradeLevel:        sess.GradeLevel,
		QueryType:         resp.Intent.QueryType,
		PreviousResponses: windowResponses(sess.Responses, t.historyWindow),
		ExchangeCount:     sess.ExchangeCount,
	})
	if resp.Escalation.Escalate {
		resp.Type = TypeEscalation
		resp.Message = escalation.FormatStudentMessage(resp.Escalation)
		logging.Escalation("[Tutor] session=%s escalating: %s", sess.ID, resp.Escalation.Reason)
	}

	formatted := Format(resp)
	promptID := uuid.NewString()
	responseID := uuid.NewString()

	if t.local != nil {
		if err := t.persistTurn(sess, input, resp, formatted); err != nil {
			logging.StoreDebug("[Tutor] persist turn failed: %v", err)
		}
	}

	sess.recordTurn(input, formatted, promptID, responseID)
	return resp, nil
}

// route dispatches by subject, handling follow-up feedback before a
// fresh classification.
func (t *Tutor) route(ctx context.Context, sess *Session, input string) *Response {
	// Unambiguous reactions to the previous answer take the feedback
	// path; anything that could be a fresh question is classified.
	if sess.LastResponse != "" && !reading.IsPassage(input) && feedback.IsFollowup(input) {
		return t.handleFeedback(ctx, sess, input)
	}

	cls := t.intents.Classify(ctx, input)
	resp := &Response{Intent: cls}

	switch cls.Subject {
	case "reading":
		t.processReading(ctx, sess, input, resp)
	case "science", "physics", "chemistry", "biology", "earth_science", "astronomy":
		t.processScience(ctx, sess, input, resp)
	default:
		resp.Type = TypeUnsupportedSubject
		resp.Message = unsupportedSubjectMessage
	}
	return resp
}

// processReading handles passages and direct reading questions. For a
// passage, difficulty analysis and question generation run
// concurrently; the question uses the session grade level since the
// analyzed one is not known until both finish.
func (t *Tutor) processReading(ctx context.Context, sess *Session, input string, resp *Response) {
	if reading.IsPassage(input) {
		var (
			analysis reading.DifficultyAnalysis
			question reading.Question
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			analysis = t.reading.ClassifyDifficulty(gctx, input)
			return nil
		})
		g.Go(func() error {
			q, err := t.reading.GenerateQuestion(gctx, input, sess.GradeLevel, "main_idea")
			if err != nil {
				return err
			}
			question = q
			return nil
		})

		err := g.Wait()
		resp.Type = TypeReadingPassageAnalysis
		resp.PassageAnalysis = &analysis
		if err != nil {
			logging.Reading("[Tutor] question generation failed: %v", err)
		} else {
			resp.GeneratedQuestion = &question
		}
		return
	}

	// Direct reading question: answer with the model, fall back to a
	// clarifying prompt when no answer is available.
	if t.client != nil {
		answer, err := t.client.CompleteWithSystem(ctx, readingAnswerSystem, input)
		if err == nil && strings.TrimSpace(answer) != "" {
			resp.Type = TypeReadingExplanation
			resp.Message = strings.TrimSpace(answer)
			return
		}
		if err != nil {
			logging.Reading("[Tutor] direct answer failed: %v", err)
		}
	}
	resp.Type = TypeReadingQuestionAnswer
	resp.Message = readingClarifyMessage
}

// processScience runs the doubt classification, explanation, and
// understanding check pipeline.
func (t *Tutor) processScience(ctx context.Context, sess *Session, input string, resp *Response) {
	doubt := t.science.ClassifyDoubt(ctx, input)

	topic := doubt.SpecificTopic
	if topic == "" || topic == "unknown" {
		topic = input
	}
	gradeLevel := doubt.GradeLevel
	if !science.ValidGradeLevel(gradeLevel) {
		gradeLevel = sess.GradeLevel
	}

	explanation, err := t.science.ExplainConcept(ctx, topic, gradeLevel, doubt.Complexity, "")
	resp.DoubtClassification = &doubt
	if err != nil {
		logging.Science("[Tutor] explanation failed: %v", err)
		resp.Type = TypeScienceExplanation
		resp.Message = fmt.Sprintf("I'm having trouble putting together an explanation of %s right now. Could you try rephrasing your question?", topic)
		return
	}

	check := t.loop.GenerateUnderstandingCheck(ctx, explanation.DetailedExplanation, topic, gradeLevel)

	resp.Type = TypeScienceExplanation
	resp.Explanation = &explanation
	resp.UnderstandingCheck = check
}

// handleFeedback reacts to a follow-up that reads as feedback on the
// previous response. Positive feedback is acknowledged and tracked;
// negative feedback triggers a revised explanation.
func (t *Tutor) handleFeedback(ctx context.Context, sess *Session, input string) *Response {
	resp := &Response{
		Intent: intent.Classification{
			Subject:   "other",
			QueryType: "feedback",
			Reason:    "Follow-up feedback on previous response",
		},
	}

	if feedback.IsPositive(input) {
		logging.Feedback("[Tutor] session=%s positive feedback", sess.ID)
		if t.tracker != nil {
			if _, err := t.tracker.Track(sess.ID, sess.LastPromptID, sess.LastResponseID, input, "explicit", 0); err != nil {
				logging.FeedbackDebug("[Tutor] track positive feedback: %v", err)
			}
		}
		resp.Type = TypeFeedbackAcknowledged
		resp.Message = positiveFeedbackMessage
		return resp
	}

	logging.Feedback("[Tutor] session=%s negative feedback, revising", sess.ID)
	revised, analysis := t.loop.ImproveResponse(ctx, firstQuestion(sess, input), sess.LastResponse, input, sess.GradeLevel, sess.ID, sess.LastPromptID, sess.LastResponseID)
	resp.Type = TypeRevisedExplanation
	resp.Message = revised
	resp.FeedbackAnalysis = &analysis
	return resp
}

// persistTurn stores the turn with its intent and escalation payloads
// as JSON.
func (t *Tutor) persistTurn(sess *Session, input string, resp *Response, formatted string) error {
	intentJSON, err := json.Marshal(resp.Intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	escalationJSON, err := json.Marshal(resp.Escalation)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}
	return t.local.StoreTurn(sess.ID, sess.ExchangeCount+1, input, string(intentJSON), formatted, string(escalationJSON))
}

// windowResponses keeps the most recent n responses for model context;
// n <= 0 keeps everything.
func windowResponses(responses []string, n int) []string {
	if n <= 0 || len(responses) <= n {
		return responses
	}
	return responses[len(responses)-n:]
}

func firstQuestion(sess *Session, input string) string {
	if sess.FirstQuestion != "" {
		return sess.FirstQuestion
	}
	return input
}

// truncate shortens s to n runes for log lines without splitting a
// multi-byte character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
