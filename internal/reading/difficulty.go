// Package reading analyzes text passages and generates comprehension
// questions for them.
package reading

import (
	"context"

	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// DifficultyAnalysis is the structured result of passage analysis.
type DifficultyAnalysis struct {
	LexileRange           string   `json:"lexile_range"`
	GradeLevel            string   `json:"grade_level"`
	VocabularyComplexity  string   `json:"vocabulary_complexity"`
	SentenceComplexity    string   `json:"sentence_complexity"`
	ConceptualDifficulty  string   `json:"conceptual_difficulty"`
	BackgroundKnowledge   string   `json:"background_knowledge_required"`
	OverallDifficulty     string   `json:"overall_difficulty"`
	ChallengingVocabulary []string `json:"challenging_vocabulary"`
	Notes                 string   `json:"notes"`
}

const difficultyPromptText = `You are an educational assistant specializing in reading comprehension. Your task is to analyze a text passage and determine its reading difficulty level.

Text Passage:
${passage}

Analyze the passage for:
1. Lexile level range (if possible to determine)
2. Grade level appropriateness
3. Vocabulary complexity
4. Sentence structure complexity
5. Conceptual difficulty
6. Background knowledge requirements

Respond with a structured analysis in JSON format:

` + "```json" + `
{
    "lexile_range": "XXL-YYL or 'unable to determine'",
    "grade_level": "elementary (K-5)|middle (6-8)|high (9-12)|college",
    "vocabulary_complexity": "simple|moderate|advanced",
    "sentence_complexity": "simple|moderate|complex",
    "conceptual_difficulty": "concrete|moderate|abstract",
    "background_knowledge_required": "minimal|moderate|extensive",
    "overall_difficulty": "beginner|basic|intermediate|advanced|expert",
    "challenging_vocabulary": ["list", "of", "potentially", "challenging", "words"],
    "notes": "Additional observations about the text"
}
` + "```"

// DifficultyPrompt is the built-in analysis prompt. A template named
// "reading_difficulty" in the store overrides it.
var DifficultyPrompt = prompt.New("reading_difficulty", difficultyPromptText)

// Analyzer classifies passages and generates comprehension questions.
type Analyzer struct {
	client perception.LLMClient
	store  *prompt.Store
}

// NewAnalyzer creates a reading analyzer. store may be nil.
func NewAnalyzer(client perception.LLMClient, store *prompt.Store) *Analyzer {
	return &Analyzer{client: client, store: store}
}

// ClassifyDifficulty analyzes a passage's reading difficulty.
// Returns an analysis with unknown fields when the model response
// cannot be parsed.
func (a *Analyzer) ClassifyDifficulty(ctx context.Context, passage string) DifficultyAnalysis {
	timer := logging.StartTimer(logging.CategoryReading, "ClassifyDifficulty")
	defer timer.Stop()

	if a.client == nil {
		return unknownDifficulty("No model available to analyze the passage")
	}

	tmpl := DifficultyPrompt
	if a.store != nil {
		tmpl = a.store.GetOrDefault("reading_difficulty", DifficultyPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{"passage": passage})
	if err != nil {
		return unknownDifficulty(err.Error())
	}

	response, err := a.client.Complete(ctx, rendered)
	if err != nil {
		logging.Get(logging.CategoryReading).Warn("ClassifyDifficulty: model call failed: %v", err)
		return unknownDifficulty("Error analyzing passage: " + err.Error())
	}

	var analysis DifficultyAnalysis
	if err := perception.Decode(response, &analysis); err != nil {
		logging.Get(logging.CategoryReading).Warn("ClassifyDifficulty: decode failed: %v", err)
		return unknownDifficulty("Error analyzing passage: " + err.Error())
	}

	// Required fields default to unknown
	if analysis.GradeLevel == "" {
		analysis.GradeLevel = "unknown"
	}
	if analysis.VocabularyComplexity == "" {
		analysis.VocabularyComplexity = "unknown"
	}
	if analysis.OverallDifficulty == "" {
		analysis.OverallDifficulty = "unknown"
	}

	logging.Reading("ClassifyDifficulty: grade_level=%s overall=%s", analysis.GradeLevel, analysis.OverallDifficulty)
	return analysis
}

func unknownDifficulty(notes string) DifficultyAnalysis {
	return DifficultyAnalysis{
		LexileRange:           "unable to determine",
		GradeLevel:            "unknown",
		VocabularyComplexity:  "unknown",
		SentenceComplexity:    "unknown",
		ConceptualDifficulty:  "unknown",
		BackgroundKnowledge:   "unknown",
		OverallDifficulty:     "unknown",
		ChallengingVocabulary: []string{},
		Notes:                 notes,
	}
}
