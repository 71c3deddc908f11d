// Package science classifies student science questions and generates
// grade-appropriate concept explanations.
package science

import (
	"context"
	"strings"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// DoubtClassification is the structured analysis of a science question.
type DoubtClassification struct {
	Subject                 string   `json:"subject"`
	SpecificTopic           string   `json:"specific_topic"`
	QuestionType            string   `json:"question_type"`
	PotentialMisconceptions []string `json:"potential_misconceptions"`
	GradeLevel              string   `json:"grade_level"`
	Complexity              string   `json:"complexity"`
	PriorKnowledgeNeeded    []string `json:"prior_knowledge_needed"`
	ConceptsToExplain       []string `json:"concepts_to_explain"`
	SuggestedVisualAids     []string `json:"suggested_visual_aids"`
	RealWorldConnection     string   `json:"real_world_connection"`
}

const doubtPromptText = `You are a science teacher analyzing a student's question or doubt. Your task is to classify the question to better address the student's learning needs.

Student Question: "${student_question}"

Please analyze the question for:
1. Science subject area (physics, chemistry, biology, earth science, etc.)
2. Specific topic within that subject
3. Type of question (factual, conceptual, procedural, application, analytical)
4. Misconceptions or knowledge gaps that might be present
5. Grade level appropriate for the question
6. Complexity level
7. Prior knowledge needed to understand the answer

Respond with a structured analysis in JSON format:

` + "```json" + `
{
    "subject": "physics|chemistry|biology|earth_science|astronomy|environmental_science|other",
    "specific_topic": "The specific scientific topic",
    "question_type": "factual|conceptual|procedural|application|analytical",
    "potential_misconceptions": ["Potential misconception 1", "Potential misconception 2"],
    "grade_level": "elementary|middle|high|college",
    "complexity": "basic|intermediate|advanced",
    "prior_knowledge_needed": ["Concept 1", "Concept 2"],
    "concepts_to_explain": ["Key concept 1", "Key concept 2"],
    "suggested_visual_aids": ["Diagram type 1", "Diagram type 2"],
    "real_world_connection": "How this connects to everyday experience"
}
` + "```"

// DoubtPrompt is the built-in classification prompt. A template named
// "science_doubt" in the store overrides it.
var DoubtPrompt = prompt.New("science_doubt", doubtPromptText)

// branchTerms maps science branches to their signal keywords for the
// deterministic fallback. Branches are checked in order.
var branchTerms = []struct {
	subject string
	terms   []string
}{
	{"physics", []string{"force", "motion", "energy", "gravity", "light", "wave", "electricity", "magnet"}},
	{"chemistry", []string{"element", "compound", "reaction", "molecule", "atom", "acid", "base", "solution"}},
	{"biology", []string{"cell", "organism", "animal", "plant", "dna", "evolution", "ecosystem", "body", "organ"}},
	{"earth_science", []string{"earth", "rock", "mineral", "volcano", "earthquake", "weather", "climate"}},
	{"astronomy", []string{"star", "planet", "galaxy", "universe", "solar", "space"}},
}

// QuickBranch classifies the science branch of a question by keywords.
// Returns "other" when nothing matches.
func QuickBranch(question string) string {
	questionLower := strings.ToLower(question)
	for _, branch := range branchTerms {
		for _, term := range branch.terms {
			if strings.Contains(questionLower, term) {
				return branch.subject
			}
		}
	}
	return "other"
}

// Tutor classifies science doubts and explains concepts.
type Tutor struct {
	client perception.LLMClient
	store  *prompt.Store
}

// NewTutor creates a science tutor. client and store may be nil; with a
// nil client only the keyword fallback runs.
func NewTutor(client perception.LLMClient, store *prompt.Store) *Tutor {
	return &Tutor{client: client, store: store}
}

// ClassifyDoubt analyzes a student's science question. Falls back to
// keyword branch detection when the model is unavailable or the
// response cannot be parsed.
func (t *Tutor) ClassifyDoubt(ctx context.Context, studentQuestion string) DoubtClassification {
	timer := logging.StartTimer(logging.CategoryScience, "ClassifyDoubt")
	defer timer.Stop()

	if t.client == nil {
		return fallbackClassification(studentQuestion)
	}

	tmpl := DoubtPrompt
	if t.store != nil {
		tmpl = t.store.GetOrDefault("science_doubt", DoubtPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{"student_question": studentQuestion})
	if err != nil {
		return fallbackClassification(studentQuestion)
	}

	response, err := t.client.Complete(ctx, rendered)
	if err != nil {
		logging.Get(logging.CategoryScience).Warn("ClassifyDoubt: model call failed: %v", err)
		return fallbackClassification(studentQuestion)
	}

	var classification DoubtClassification
	if err := perception.Decode(response, &classification); err != nil {
		logging.Get(logging.CategoryScience).Warn("ClassifyDoubt: decode failed: %v", err)
		return fallbackClassification(studentQuestion)
	}

	// Required fields default to unknown
	if classification.Subject == "" {
		classification.Subject = "unknown"
	}
	if classification.SpecificTopic == "" {
		classification.SpecificTopic = "unknown"
	}
	if classification.QuestionType == "" {
		classification.QuestionType = "unknown"
	}
	if classification.GradeLevel == "" {
		classification.GradeLevel = "unknown"
	}
	if classification.Complexity == "" {
		classification.Complexity = "unknown"
	}

	logging.Science("ClassifyDoubt: subject=%s topic=%s complexity=%s", classification.Subject, classification.SpecificTopic, classification.Complexity)
	return classification
}

func fallbackClassification(studentQuestion string) DoubtClassification {
	subject := QuickBranch(studentQuestion)
	logging.ScienceDebug("ClassifyDoubt: keyword fallback subject=%s", subject)
	return DoubtClassification{
		Subject:                 subject,
		SpecificTopic:           "unknown",
		QuestionType:            "unknown",
		PotentialMisconceptions: []string{},
		GradeLevel:              "unknown",
		Complexity:              "unknown",
		PriorKnowledgeNeeded:    []string{},
		ConceptsToExplain:       []string{},
		SuggestedVisualAids:     []string{},
	}
}
