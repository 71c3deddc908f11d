package reading

import (
	"context"
	"fmt"
	"strings"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// QuestionTypes are the comprehension skills a generated question can
// target. Unknown types fall back to main_idea.
var QuestionTypes = []string{
	"main_idea",
	"key_detail",
	"vocabulary",
	"inference",
	"authors_purpose",
	"character_analysis",
	"cause_effect",
	"compare_contrast",
	"sequence",
	"text_structure",
}

// Question is a generated multiple-choice comprehension question.
type Question struct {
	Question           string            `json:"question"`
	Options            []string          `json:"options"`
	CorrectOptionIndex int               `json:"correct_option_index"`
	SkillTested        string            `json:"skill_tested"`
	Explanations       map[string]string `json:"explanations"`
	FollowUpQuestion   string            `json:"follow_up_question"`
}

const questionPromptText = `You are an educational assistant specializing in reading comprehension. Based on the following paragraph, generate a multiple-choice question that checks comprehension.

Text Passage:
${paragraph}

Reading Level: ${grade_level}
Question Type: ${question_type}

Generate a multiple-choice question that:
1. Tests understanding of the main idea, key details, vocabulary, inference, or author's purpose
2. Is appropriate for the specified grade level
3. Has one clearly correct answer and three plausible distractors
4. Includes an explanation for why each option is correct or incorrect

Respond with a structured question in JSON format:

` + "```json" + `
{
    "question": "The comprehensive question text",
    "options": [
        "Option A",
        "Option B",
        "Option C",
        "Option D"
    ],
    "correct_option_index": 0,
    "skill_tested": "main_idea|key_detail|vocabulary|inference|authors_purpose",
    "explanations": {
        "A": "Explanation for why option A is correct/incorrect",
        "B": "Explanation for why option B is correct/incorrect",
        "C": "Explanation for why option C is correct/incorrect",
        "D": "Explanation for why option D is correct/incorrect"
    },
    "follow_up_question": "An open-ended follow-up question to extend thinking"
}
` + "```"

// QuestionPrompt is the built-in question prompt. A template named
// "comprehension_question" in the store overrides it.
var QuestionPrompt = prompt.New("comprehension_question", questionPromptText)

// ValidQuestionType reports whether questionType is a known skill.
func ValidQuestionType(questionType string) bool {
	for _, qt := range QuestionTypes {
		if qt == questionType {
			return true
		}
	}
	return false
}

// GenerateQuestion creates a comprehension question for a paragraph.
// Invalid question types fall back to main_idea, invalid grade levels
// to middle.
func (a *Analyzer) GenerateQuestion(ctx context.Context, paragraph, gradeLevel, questionType string) (Question, error) {
	timer := logging.StartTimer(logging.CategoryReading, "GenerateQuestion")
	defer timer.Stop()

	if a.client == nil {
		return Question{}, fmt.Errorf("no LLM client configured")
	}

	if !ValidQuestionType(questionType) {
		logging.ReadingDebug("GenerateQuestion: unknown question type %q, using main_idea", questionType)
		questionType = "main_idea"
	}
	if !ValidGradeLevel(gradeLevel) {
		gradeLevel = "middle"
	}

	tmpl := QuestionPrompt
	if a.store != nil {
		tmpl = a.store.GetOrDefault("comprehension_question", QuestionPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{
		"paragraph":     paragraph,
		"grade_level":   gradeLevel,
		"question_type": questionType,
	})
	if err != nil {
		return Question{}, err
	}

	response, err := a.client.Complete(ctx, rendered)
	if err != nil {
		return Question{}, fmt.Errorf("failed to generate question: %w", err)
	}

	var q Question
	if err := perception.Decode(response, &q); err != nil {
		return Question{}, fmt.Errorf("failed to parse question: %w", err)
	}

	if q.Question == "" {
		return Question{}, fmt.Errorf("model returned no question text")
	}
	if q.SkillTested == "" {
		q.SkillTested = questionType
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return Question{}, fmt.Errorf("correct_option_index %d out of range for %d options", q.CorrectOptionIndex, len(q.Options))
	}

	logging.Reading("GenerateQuestion: skill=%s options=%d", q.SkillTested, len(q.Options))
	return q, nil
}

// GradeLevels are the supported student levels.
var GradeLevels = []string{"elementary", "middle", "high", "college"}

// ValidGradeLevel reports whether gradeLevel is supported.
func ValidGradeLevel(gradeLevel string) bool {
	for _, g := range GradeLevels {
		if g == gradeLevel {
			return true
		}
	}
	return false
}

// PassageWordThreshold is the word count above which input is treated
// as a passage to analyze rather than a question about reading.
const PassageWordThreshold = 30

// IsPassage reports whether input looks like a pasted text passage.
func IsPassage(input string) bool {
	return len(strings.Fields(input)) > PassageWordThreshold
}
