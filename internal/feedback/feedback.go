// Package feedback closes the tutoring loop: it checks student
// understanding, judges whether feedback is positive, analyzes negative
// feedback to improve the next explanation, and records every event for
// teacher review.
package feedback

import (
	"context"
	"strings"
	"time"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// positivePatterns and negativePatterns drive the deterministic
// sentiment check. Counting wins over presence so mixed feedback like
// "thanks but I'm still confused" lands on the dominant side.
var positivePatterns = []string{
	"thank", "thanks", "got it", "understand", "makes sense",
	"helpful", "clear", "good explanation", "i see", "that works",
	"great", "excellent", "perfect", "awesome", "cool",
}

var negativePatterns = []string{
	"don't understand", "confused", "not clear", "doesn't make sense",
	"still don't get it", "i'm lost", "too complicated", "too complex",
	"what do you mean", "explain again", "i'm not following",
}

// IsPositive reports whether student feedback reads as positive.
func IsPositive(feedback string) bool {
	feedbackLower := strings.ToLower(feedback)

	positiveCount := 0
	for _, pattern := range positivePatterns {
		if strings.Contains(feedbackLower, pattern) {
			positiveCount++
		}
	}

	negativeCount := 0
	for _, pattern := range negativePatterns {
		if strings.Contains(feedbackLower, pattern) {
			negativeCount++
		}
	}

	return positiveCount > negativeCount
}

// followupAcknowledgments are phrases that only make sense as a
// reaction to a previous answer. The broader sentiment words
// ("understand", "clear", "great", "cool") show up in fresh questions
// too, so they score sentiment but never gate routing.
var followupAcknowledgments = []string{
	"thank", "got it", "makes sense", "that helps", "that works", "i see now",
}

// IsFollowup reports whether the text reads as a reaction to the
// previous response rather than a new question. Only the unambiguous
// acknowledgment phrases and the negative patterns qualify.
func IsFollowup(feedback string) bool {
	feedbackLower := strings.ToLower(feedback)
	for _, pattern := range followupAcknowledgments {
		if strings.Contains(feedbackLower, pattern) {
			return true
		}
	}
	for _, pattern := range negativePatterns {
		if strings.Contains(feedbackLower, pattern) {
			return true
		}
	}
	return false
}

// Analysis is the model's self-critique of a previous response.
type Analysis struct {
	ClarityIssues           []string `json:"clarity_issues"`
	MissingInformation      []string `json:"missing_information"`
	LanguageAppropriateness string   `json:"language_appropriateness"`
	ImprovementStrategies   []string `json:"improvement_strategies"`
	RevisedExplanation      string   `json:"revised_explanation"`
}

const improvementPromptText = `You are an AI educational assistant that is analyzing your previous responses to improve future explanations.

Original Student Question: "${student_question}"

Your Previous Response:
${previous_response}

Student's Feedback/Follow-up: "${student_feedback}"

Based on the student's feedback, analyze what could be improved:
1. Was your explanation clear and at the appropriate level?
2. Did you miss any key concepts the student was asking about?
3. Was your language appropriate for the student's grade level (${grade_level})?
4. How can you better explain this concept next time?

Provide a self-improvement analysis in JSON format:

` + "```json" + `
{
    "clarity_issues": ["List any clarity issues identified"],
    "missing_information": ["Key concepts that were missed"],
    "language_appropriateness": "too_simple|appropriate|too_complex",
    "improvement_strategies": ["Specific strategies to improve future responses"],
    "revised_explanation": "A revised, improved explanation that addresses the issues"
}
` + "```"

const understandingCheckPromptText = `You are an AI educational assistant helping a student. After providing an explanation about ${topic},
check the student's understanding by asking a thoughtful follow-up question.

The explanation you provided was:
${explanation}

Generate a follow-up question that:
1. Tests comprehension of the key concept
2. Is appropriate for ${grade_level} grade level
3. Encourages critical thinking
4. Is brief and clearly worded

Your response should:
1. Express interest in the student's understanding
2. Ask a single, focused follow-up question
3. Be encouraging and supportive

Example: "Does that explanation make sense? To check your understanding, could you tell me what would happen if we increased the temperature in this experiment?"`

// ImprovementPrompt and UnderstandingCheckPrompt are the built-in
// prompts. Templates named "feedback_improvement" and
// "understanding_check" in the store override them.
var (
	ImprovementPrompt        = prompt.New("feedback_improvement", improvementPromptText)
	UnderstandingCheckPrompt = prompt.New("understanding_check", understandingCheckPromptText)
)

// defaultUnderstandingCheck is used when the model cannot produce one.
const defaultUnderstandingCheck = "Does that explanation make sense to you? Do you have any questions about what I've explained?"

// Loop runs the feedback cycle.
type Loop struct {
	client  perception.LLMClient
	store   *prompt.Store
	tracker *Tracker
}

// NewLoop creates a feedback loop. store and tracker may be nil; with a
// nil tracker, events are simply not recorded.
func NewLoop(client perception.LLMClient, store *prompt.Store, tracker *Tracker) *Loop {
	return &Loop{client: client, store: store, tracker: tracker}
}

// GenerateUnderstandingCheck produces a follow-up question for an
// explanation. Never fails; a canned question covers model errors.
func (l *Loop) GenerateUnderstandingCheck(ctx context.Context, explanation, topic, gradeLevel string) string {
	if l.client == nil {
		return defaultUnderstandingCheck
	}

	tmpl := UnderstandingCheckPrompt
	if l.store != nil {
		tmpl = l.store.GetOrDefault("understanding_check", UnderstandingCheckPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{
		"topic":       topic,
		"explanation": explanation,
		"grade_level": gradeLevel,
	})
	if err != nil {
		return defaultUnderstandingCheck
	}

	response, err := l.client.Complete(ctx, rendered)
	if err != nil || strings.TrimSpace(response) == "" {
		logging.FeedbackDebug("GenerateUnderstandingCheck: using default question: %v", err)
		return defaultUnderstandingCheck
	}

	return strings.TrimSpace(response)
}

// Analyze critiques a previous response in light of student feedback.
func (l *Loop) Analyze(ctx context.Context, studentQuestion, previousResponse, studentFeedback, gradeLevel string) Analysis {
	timer := logging.StartTimer(logging.CategoryFeedback, "Analyze")
	defer timer.Stop()

	fallback := Analysis{
		ClarityIssues:           []string{"Unable to parse feedback analysis"},
		MissingInformation:      []string{},
		LanguageAppropriateness: "unknown",
		ImprovementStrategies:   []string{"Review response format"},
	}

	if l.client == nil {
		return fallback
	}

	tmpl := ImprovementPrompt
	if l.store != nil {
		tmpl = l.store.GetOrDefault("feedback_improvement", ImprovementPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{
		"student_question":  studentQuestion,
		"previous_response": previousResponse,
		"student_feedback":  studentFeedback,
		"grade_level":       gradeLevel,
	})
	if err != nil {
		return fallback
	}

	response, err := l.client.Complete(ctx, rendered)
	if err != nil {
		logging.Get(logging.CategoryFeedback).Warn("Analyze: model call failed: %v", err)
		return fallback
	}

	var analysis Analysis
	if err := perception.Decode(response, &analysis); err != nil {
		logging.Get(logging.CategoryFeedback).Warn("Analyze: decode failed: %v", err)
		return fallback
	}

	return analysis
}

// ImproveResponse analyzes feedback and returns an improved explanation.
// Keeps the previous response when the model offers no revision. When
// the tracker and IDs are set, the feedback event is recorded.
func (l *Loop) ImproveResponse(ctx context.Context, studentQuestion, previousResponse, studentFeedback, gradeLevel, sessionID, promptID, responseID string) (string, Analysis) {
	start := time.Now()

	analysis := l.Analyze(ctx, studentQuestion, previousResponse, studentFeedback, gradeLevel)

	if l.tracker != nil && sessionID != "" && promptID != "" && responseID != "" {
		if _, err := l.tracker.Track(sessionID, promptID, responseID, studentFeedback, "implicit", time.Since(start).Milliseconds()); err != nil {
			logging.Get(logging.CategoryFeedback).Warn("ImproveResponse: failed to track feedback: %v", err)
		}
	}

	improved := analysis.RevisedExplanation
	if improved == "" {
		improved = previousResponse
	}

	logging.Feedback("ImproveResponse: revised=%v language=%s", improved != previousResponse, analysis.LanguageAppropriateness)
	return improved, analysis
}
