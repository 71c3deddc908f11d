// Package intent classifies student input by subject, query type, and
// complexity. Classification runs in tiers: LLM first, then semantic
// matching against subject exemplars, then keyword counting. Every tier
// failure falls through to the next, so classification never errors out
// entirely.
package intent

import (
	"context"
	"fmt"
	"sync"

	"tutorbot/internal/embedding"
	"tutorbot/internal/logging"
	"tutorbot/internal/perception"
	"tutorbot/internal/prompt"
)

// Classification is the typed result of intent classification.
type Classification struct {
	Subject           string  `json:"subject"`
	QueryType         string  `json:"query_type"`
	GradeLevel        string  `json:"grade_level"`
	Complexity        string  `json:"complexity"`
	NeedsHumanTeacher bool    `json:"needs_human_teacher"`
	Reason            string  `json:"reason"`
	Confidence        float64 `json:"confidence,omitempty"`
}

// semanticThreshold is the minimum cosine similarity for the embedding
// tier to claim a subject.
const semanticThreshold = 0.55

// classifierPromptText asks the model for a full classification in JSON.
const classifierPromptText = `You are an educational assistant that helps students with various subjects. Given a student's question, your task is to:
1. Identify the subject the question relates to (Reading, Science, Math, or Other)
2. Determine the specific type of question
3. Assess the complexity level
4. Decide if this needs human teacher intervention

Student Query: "${query}"

Please classify the intent and respond in JSON format:

` + "```json" + `
{
    "subject": "reading|science|math|other",
    "query_type": "explanation|question|problem_solving|factual|comprehension|other",
    "grade_level": "elementary|middle|high|college|unknown",
    "complexity": "basic|intermediate|advanced",
    "needs_human_teacher": false,
    "reason": "Brief explanation of your classification"
}
` + "```"

// DefaultPrompt is the built-in classifier prompt. A template named
// "intent_classifier" in the store overrides it.
var DefaultPrompt = prompt.New("intent_classifier", classifierPromptText)

// subjectExemplars describe each subject for the semantic tier.
var subjectExemplars = map[string]string{
	"reading": "reading comprehension of books, stories, and passages; characters, plot, themes, authors, and literature",
	"science": "science questions about physics, chemistry, biology, experiments, energy, atoms, cells, planets, and ecosystems",
	"math":    "math problems with equations, numbers, fractions, algebra, geometry, and calculations",
}

// Classifier classifies student input. The LLM client and embedding
// engine are both optional; with neither set, only the keyword tier runs.
type Classifier struct {
	client perception.LLMClient
	engine embedding.Engine
	store  *prompt.Store

	corpusMu    sync.Mutex
	corpusReady bool
	subjects    []string
	vectors     [][]float32
}

// NewClassifier creates a classifier. client, engine, and store may each
// be nil.
func NewClassifier(client perception.LLMClient, engine embedding.Engine, store *prompt.Store) *Classifier {
	return &Classifier{
		client: client,
		engine: engine,
		store:  store,
	}
}

// Classify determines the subject and shape of a student query.
func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	timer := logging.StartTimer(logging.CategoryIntent, "Classify")
	defer timer.Stop()

	if c.client != nil {
		if result, err := c.classifyLLM(ctx, query); err == nil {
			logging.Intent("Classify: LLM tier subject=%s query_type=%s complexity=%s", result.Subject, result.QueryType, result.Complexity)
			return result
		} else {
			logging.IntentDebug("Classify: LLM tier failed, falling through: %v", err)
		}
	}

	if c.engine != nil {
		if subject, similarity, err := c.classifySemantic(ctx, query); err == nil && similarity >= semanticThreshold {
			logging.Intent("Classify: semantic tier subject=%s similarity=%.3f", subject, similarity)
			return Classification{
				Subject:    subject,
				QueryType:  "unknown",
				GradeLevel: "unknown",
				Complexity: "unknown",
				Reason:     fmt.Sprintf("Semantic match (similarity %.2f)", similarity),
				Confidence: similarity,
			}
		} else if err != nil {
			logging.IntentDebug("Classify: semantic tier failed, falling through: %v", err)
		}
	}

	subject := QuickSubject(query)
	logging.Intent("Classify: keyword tier subject=%s", subject)
	return Classification{
		Subject:    subject,
		QueryType:  "unknown",
		GradeLevel: "unknown",
		Complexity: "unknown",
		Reason:     "Classification based on keyword matching only",
	}
}

// classifyLLM runs the full prompt-based classification.
func (c *Classifier) classifyLLM(ctx context.Context, query string) (Classification, error) {
	tmpl := DefaultPrompt
	if c.store != nil {
		tmpl = c.store.GetOrDefault("intent_classifier", DefaultPrompt)
	}

	rendered, err := tmpl.Render(map[string]string{"query": query})
	if err != nil {
		return Classification{}, err
	}

	response, err := c.client.Complete(ctx, rendered)
	if err != nil {
		return Classification{}, err
	}

	var result Classification
	if err := perception.Decode(response, &result); err != nil {
		return Classification{}, err
	}

	// Required fields default to unknown rather than empty
	if result.Subject == "" {
		result.Subject = "unknown"
	}
	if result.QueryType == "" {
		result.QueryType = "unknown"
	}
	if result.Complexity == "" {
		result.Complexity = "unknown"
	}
	if result.GradeLevel == "" {
		result.GradeLevel = "unknown"
	}

	return result, nil
}

// classifySemantic compares the query embedding against subject exemplars.
func (c *Classifier) classifySemantic(ctx context.Context, query string) (string, float64, error) {
	if err := c.ensureCorpus(ctx); err != nil {
		return "", 0, err
	}

	queryVec, err := c.engine.Embed(ctx, query)
	if err != nil {
		return "", 0, fmt.Errorf("failed to embed query: %w", err)
	}

	match, err := embedding.BestMatch(queryVec, c.vectors)
	if err != nil {
		return "", 0, err
	}

	return c.subjects[match.Index], match.Similarity, nil
}

// ensureCorpus embeds the subject exemplars, retrying on the next call
// when a previous attempt failed.
func (c *Classifier) ensureCorpus(ctx context.Context) error {
	c.corpusMu.Lock()
	defer c.corpusMu.Unlock()

	if c.corpusReady {
		return nil
	}

	subjects := make([]string, 0, len(subjectExemplars))
	texts := make([]string, 0, len(subjectExemplars))
	for _, subject := range subjectOrder {
		subjects = append(subjects, subject)
		texts = append(texts, subjectExemplars[subject])
	}

	vectors, err := c.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed subject exemplars: %w", err)
	}

	c.subjects = subjects
	c.vectors = vectors
	c.corpusReady = true
	logging.IntentDebug("ensureCorpus: embedded %d subject exemplars (dim=%d)", len(vectors), c.engine.Dimensions())
	return nil
}
