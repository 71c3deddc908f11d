package science

import (
	"context"
	"fmt"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// Difficulties are the supported explanation difficulty levels.
var Difficulties = []string{"beginner", "basic", "intermediate", "advanced", "expert"}

// GradeLevels are the supported student levels.
var GradeLevels = []string{"elementary", "middle", "high", "college"}

// VocabularyEntry pairs a term with its grade-level definition.
type VocabularyEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Explanation is a structured concept explanation.
type Explanation struct {
	ConceptName          string            `json:"concept_name"`
	BriefDefinition      string            `json:"brief_definition"`
	DetailedExplanation  string            `json:"detailed_explanation"`
	RealWorldExamples    []string          `json:"real_world_examples"`
	HelpfulAnalogies     []string          `json:"helpful_analogies"`
	CommonMisconceptions []string          `json:"common_misconceptions"`
	KeyVocabulary        []VocabularyEntry `json:"key_vocabulary"`
	CheckUnderstanding   []string          `json:"check_understanding"`
	FurtherExploration   []string          `json:"further_exploration"`
}

const explainPromptText = `You are a science teacher explaining a concept to a student. Your goal is to create a clear, accurate, and engaging explanation tailored to the student's grade level.

Concept to explain: ${concept}
Student grade level: ${grade_level}
Difficulty level: ${difficulty}
Student's prior knowledge: ${prior_knowledge}

Your explanation should:
1. Start with a brief, accessible overview of the concept
2. Use grade-appropriate vocabulary and examples
3. Connect to real-world applications or experiences
4. Include analogies or visualizations when helpful
5. Break down complex ideas into manageable parts
6. Anticipate common misconceptions and address them
7. End with a simple check for understanding

Respond with a structured explanation in JSON format:

` + "```json" + `
{
    "concept_name": "The name of the concept",
    "brief_definition": "A one-sentence definition",
    "detailed_explanation": "The main explanation broken into paragraphs",
    "real_world_examples": ["Example 1", "Example 2"],
    "helpful_analogies": ["Analogy 1", "Analogy 2"],
    "common_misconceptions": ["Misconception 1", "Misconception 2"],
    "key_vocabulary": [
        {"term": "Term 1", "definition": "Definition 1"},
        {"term": "Term 2", "definition": "Definition 2"}
    ],
    "check_understanding": ["Question 1", "Question 2"],
    "further_exploration": ["Resource or activity 1", "Resource or activity 2"]
}
` + "```"

// ExplainPrompt is the built-in explanation prompt. A template named
// "science_explain" in the store overrides it.
var ExplainPrompt = prompt.New("science_explain", explainPromptText)

// DefaultPriorKnowledge is assumed when the caller knows nothing about
// the student's background.
const DefaultPriorKnowledge = "basic understanding of the subject"

// ValidDifficulty reports whether difficulty is supported.
func ValidDifficulty(difficulty string) bool {
	for _, d := range Difficulties {
		if d == difficulty {
			return true
		}
	}
	return false
}

// ValidGradeLevel reports whether gradeLevel is supported.
func ValidGradeLevel(gradeLevel string) bool {
	for _, g := range GradeLevels {
		if g == gradeLevel {
			return true
		}
	}
	return false
}

// ExplainConcept generates a structured explanation of a science
// concept. Invalid grade levels fall back to middle, invalid
// difficulties to basic, empty prior knowledge to the default.
func (t *Tutor) ExplainConcept(ctx context.Context, concept, gradeLevel, difficulty, priorKnowledge string) (Explanation, error) {
	timer := logging.StartTimer(logging.CategoryScience, "ExplainConcept")
	defer timer.Stop()

	if t.client == nil {
		return Explanation{}, fmt.Errorf("no LLM client configured")
	}

	if !ValidGradeLevel(gradeLevel) {
		gradeLevel = "middle"
	}
	if !ValidDifficulty(difficulty) {
		difficulty = "basic"
	}
	if priorKnowledge == "" {
		priorKnowledge = DefaultPriorKnowledge
	}

	tmpl := ExplainPrompt
	if t.store != nil {
		tmpl = t.store.GetOrDefault("science_explain", ExplainPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{
		"concept":         concept,
		"grade_level":     gradeLevel,
		"difficulty":      difficulty,
		"prior_knowledge": priorKnowledge,
	})
	if err != nil {
		return Explanation{}, err
	}

	response, err := t.client.Complete(ctx, rendered)
	if err != nil {
		return Explanation{}, fmt.Errorf("failed to generate explanation: %w", err)
	}

	var explanation Explanation
	if err := perception.Decode(response, &explanation); err != nil {
		return Explanation{}, fmt.Errorf("failed to parse explanation: %w", err)
	}

	if explanation.ConceptName == "" {
		explanation.ConceptName = concept
	}
	if explanation.DetailedExplanation == "" {
		return Explanation{}, fmt.Errorf("model returned no explanation text")
	}

	logging.Science("ExplainConcept: concept=%q grade_level=%s difficulty=%s", explanation.ConceptName, gradeLevel, difficulty)
	return explanation, nil
}
