// Package escalation decides when a student's question should be routed
// to a human teacher. The decision runs in tiers: deterministic signal
// checks first (explicit human requests, frustration, exchange count),
// then an optional LLM judgment for the ambiguous middle ground. The
// deterministic tiers never depend on a model call, so a student asking
// for a teacher always gets one even when the LLM is unreachable.
package escalation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// MaxExchangesBeforeEscalation is the default exchange count at which a
// conversation is handed to a teacher regardless of content.
const MaxExchangesBeforeEscalation = 5

// Decision is the escalation verdict attached to every tutoring turn.
type Decision struct {
	Escalate        bool   `json:"escalate"`
	Reason          string `json:"reason"`
	SuggestedAction string `json:"suggested_action"`
	SuggestedTime   string `json:"suggested_time"`
	Priority        string `json:"priority"`
	TeacherNote     string `json:"teacher_note"`
}

// Request carries the conversation state the decision needs.
type Request struct {
	StudentQuestion   string
	StudentFollowup   string
	Subject           string
	GradeLevel        string
	QueryType         string
	PreviousResponses []string
	ExchangeCount     int
}

// decisionPromptText asks the model to judge the ambiguous cases.
const decisionPromptText = `You are an AI educational assistant deciding whether to escalate a student's question to a human teacher.

Context:
- Subject: ${subject}
- Student Grade Level: ${grade_level}
- Query Type: ${query_type}
- Previous AI Responses: ${previous_responses}
- Student's Initial Question: "${student_question}"
- Student's Follow-up: "${student_followup}"
- Number of back-and-forth exchanges: ${exchange_count}

Reasons to escalate to a human teacher include:
1. Question is too complex for an AI to answer accurately
2. Student shows frustration or confusion after multiple explanation attempts
3. Question requires subjective judgment that only a human teacher can provide
4. Student explicitly requests to speak with a human teacher
5. Topic requires specialized expertise or current information
6. Question may involve sensitive educational topics best handled by a human

Determine if this query should be escalated to a human teacher.
Respond with a JSON object:

` + "```json" + `
{
    "escalate": true/false,
    "reason": "Brief explanation of why escalation is needed or not needed",
    "suggested_action": "connect_to_teacher|provide_alternative_resources|simplify_explanation|other",
    "suggested_time": "immediate|end_of_day|scheduled",
    "priority": "low|medium|high",
    "teacher_note": "Brief note for the teacher about the student's question"
}
` + "```"

// DefaultPrompt is the built-in decision prompt. A template named
// "escalation_decision" in the store overrides it.
var DefaultPrompt = prompt.New("escalation_decision", decisionPromptText)

// Engine makes escalation decisions.
type Engine struct {
	client       perception.LLMClient
	store        *prompt.Store
	maxExchanges int
}

// NewEngine creates an escalation engine. client and store may be nil;
// maxExchanges <= 0 uses the default.
func NewEngine(client perception.LLMClient, store *prompt.Store, maxExchanges int) *Engine {
	if maxExchanges <= 0 {
		maxExchanges = MaxExchangesBeforeEscalation
	}
	return &Engine{
		client:       client,
		store:        store,
		maxExchanges: maxExchanges,
	}
}

// Decide returns the escalation verdict for the current turn.
func (e *Engine) Decide(ctx context.Context, req Request) Decision {
	timer := logging.StartTimer(logging.CategoryEscalation, "Decide")
	defer timer.Stop()

	if HasEscalationSignals(req.StudentFollowup) {
		logging.Escalation("Decide: signal tier escalated (frustration or human request), exchange_count=%d", req.ExchangeCount)
		return Decision{
			Escalate:        true,
			Reason:          "Student appears frustrated or explicitly requested human assistance",
			SuggestedAction: "connect_to_teacher",
			SuggestedTime:   "immediate",
			Priority:        "high",
			TeacherNote:     fmt.Sprintf("Student asked: '%s' and seems unsatisfied with AI responses", req.StudentQuestion),
		}
	}

	if req.ExchangeCount >= e.maxExchanges {
		logging.Escalation("Decide: exchange cap reached (%d >= %d)", req.ExchangeCount, e.maxExchanges)
		return Decision{
			Escalate:        true,
			Reason:          fmt.Sprintf("Reached maximum of %d exchanges without resolution", e.maxExchanges),
			SuggestedAction: "connect_to_teacher",
			SuggestedTime:   "end_of_day",
			Priority:        "medium",
			TeacherNote:     fmt.Sprintf("Multiple attempts to answer: '%s'. Consider reviewing conversation.", req.StudentQuestion),
		}
	}

	if e.client != nil {
		if decision, err := e.decideLLM(ctx, req); err == nil {
			logging.Escalation("Decide: LLM tier escalate=%v priority=%s", decision.Escalate, decision.Priority)
			return decision
		} else {
			logging.EscalationDebug("Decide: LLM tier failed, using default: %v", err)
		}
	}

	return Decision{
		Escalate:        false,
		Reason:          "No clear signals for escalation detected",
		SuggestedAction: "continue_assistance",
		SuggestedTime:   "not_applicable",
		Priority:        "low",
		TeacherNote:     "",
	}
}

// decideLLM renders the decision prompt and parses the model's verdict.
func (e *Engine) decideLLM(ctx context.Context, req Request) (Decision, error) {
	tmpl := DefaultPrompt
	if e.store != nil {
		tmpl = e.store.GetOrDefault("escalation_decision", DefaultPrompt)
	}

	var previous strings.Builder
	for i, resp := range req.PreviousResponses {
		if i > 0 {
			previous.WriteString("\n")
		}
		fmt.Fprintf(&previous, "Response %d: %s", i+1, resp)
	}

	rendered, err := tmpl.Render(map[string]string{
		"subject":            req.Subject,
		"grade_level":        req.GradeLevel,
		"query_type":         req.QueryType,
		"previous_responses": previous.String(),
		"student_question":   req.StudentQuestion,
		"student_followup":   req.StudentFollowup,
		"exchange_count":     strconv.Itoa(req.ExchangeCount),
	})
	if err != nil {
		return Decision{}, err
	}

	response, err := e.client.Complete(ctx, rendered)
	if err != nil {
		return Decision{}, err
	}

	var decision Decision
	if err := perception.Decode(response, &decision); err != nil {
		return Decision{}, err
	}

	if decision.Reason == "" {
		decision.Reason = "unknown"
	}
	if decision.SuggestedAction == "" {
		decision.SuggestedAction = "unknown"
	}

	return decision, nil
}

// FormatStudentMessage renders the message shown to the student when a
// decision escalates. Returns "" for non-escalating decisions.
func FormatStudentMessage(d Decision) string {
	if !d.Escalate {
		return ""
	}

	switch d.SuggestedAction {
	case "connect_to_teacher":
		return `I think it might be helpful to connect you with one of our teachers who can provide more personalized assistance with this question.

Would you like me to:
1. Connect you with a teacher now (if available)
2. Schedule a time to speak with a teacher later
3. Continue working with me to try a different approach

Please let me know what you prefer.`

	case "provide_alternative_resources":
		return `This is a great question that might benefit from some additional resources.

Would you like me to:
1. Recommend some learning resources on this topic
2. Connect you with a teacher who specializes in this area
3. Try explaining this in a different way

Please let me know how you'd like to proceed.`

	default:
		return `I want to make sure you get the help you need with this question.

Would you like to:
1. Try a different approach to this question
2. Connect with a teacher for more help
3. Take a break and come back to this later

Please let me know what works best for you.`
	}
}
