package science

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	response   string
	err        error
	model      string
	lastPrompt string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.response, m.err
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	m.lastPrompt = user
	return m.response, m.err
}

func (m *mockClient) SetModel(model string) { m.model = model }
func (m *mockClient) GetModel() string      { return m.model }

func TestQuickBranch(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"Why does gravity pull things down?", "physics"},
		{"What happens when an acid meets a base?", "chemistry"},
		{"How does a cell divide?", "biology"},
		{"What causes an earthquake?", "earth_science"},
		{"How far away is the nearest galaxy?", "astronomy"},
		{"What should I have for lunch?", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, QuickBranch(tt.question))
		})
	}
}

func TestQuickBranchOrderPhysicsFirst(t *testing.T) {
	// "energy" (physics) and "reaction" (chemistry) both present;
	// physics wins by branch order
	assert.Equal(t, "physics", QuickBranch("How much energy does the reaction release?"))
}

func TestClassifyDoubtLLM(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"subject": "astronomy",
		"specific_topic": "planetary orbits",
		"question_type": "conceptual",
		"potential_misconceptions": ["Orbits are perfect circles"],
		"grade_level": "middle",
		"complexity": "intermediate",
		"prior_knowledge_needed": ["gravity"],
		"concepts_to_explain": ["elliptical orbits"],
		"suggested_visual_aids": ["orbit diagram"],
		"real_world_connection": "Satellites orbit Earth the same way"
	}` + "\n```"}

	tutor := NewTutor(client, nil)
	got := tutor.ClassifyDoubt(context.Background(), "Why do planets orbit the sun?")

	assert.Equal(t, "astronomy", got.Subject)
	assert.Equal(t, "planetary orbits", got.SpecificTopic)
	assert.Equal(t, "intermediate", got.Complexity)
	assert.Contains(t, client.lastPrompt, "Why do planets orbit the sun?")
}

func TestClassifyDoubtNoClientUsesKeywords(t *testing.T) {
	tutor := NewTutor(nil, nil)

	got := tutor.ClassifyDoubt(context.Background(), "What is a molecule made of?")
	assert.Equal(t, "chemistry", got.Subject)
	assert.Equal(t, "unknown", got.QuestionType)
	assert.Empty(t, got.PotentialMisconceptions)
}

func TestClassifyDoubtModelErrorFallsBack(t *testing.T) {
	tutor := NewTutor(&mockClient{err: fmt.Errorf("down")}, nil)

	got := tutor.ClassifyDoubt(context.Background(), "How do plants grow?")
	assert.Equal(t, "biology", got.Subject)
}

func TestClassifyDoubtUnparseableFallsBack(t *testing.T) {
	tutor := NewTutor(&mockClient{response: "no json here"}, nil)

	got := tutor.ClassifyDoubt(context.Background(), "Why do magnets attract?")
	assert.Equal(t, "physics", got.Subject)
}

func TestClassifyDoubtMissingFieldsDefaultUnknown(t *testing.T) {
	tutor := NewTutor(&mockClient{response: `{"subject": "biology"}`}, nil)

	got := tutor.ClassifyDoubt(context.Background(), "What is DNA?")
	assert.Equal(t, "biology", got.Subject)
	assert.Equal(t, "unknown", got.SpecificTopic)
	assert.Equal(t, "unknown", got.Complexity)
}

func TestExplainConcept(t *testing.T) {
	client := &mockClient{response: "```json\n" + `{
		"concept_name": "Photosynthesis",
		"brief_definition": "How plants make food from sunlight",
		"detailed_explanation": "Plants capture light energy and turn it into sugar.",
		"real_world_examples": ["Trees growing toward sunlight"],
		"helpful_analogies": ["A solar-powered kitchen"],
		"common_misconceptions": ["Plants eat soil"],
		"key_vocabulary": [{"term": "chlorophyll", "definition": "The green pigment that captures light"}],
		"check_understanding": ["What does a plant need to make food?"],
		"further_exploration": ["Grow a bean plant in the dark and in light"]
	}` + "\n```"}

	tutor := NewTutor(client, nil)
	got, err := tutor.ExplainConcept(context.Background(), "photosynthesis", "elementary", "beginner", "")
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis", got.ConceptName)
	assert.Len(t, got.KeyVocabulary, 1)
	assert.Equal(t, "chlorophyll", got.KeyVocabulary[0].Term)
	assert.Contains(t, client.lastPrompt, DefaultPriorKnowledge)
}

func TestExplainConceptValidationFallbacks(t *testing.T) {
	client := &mockClient{response: `{"concept_name": "Gravity", "detailed_explanation": "Masses attract."}`}

	tutor := NewTutor(client, nil)
	_, err := tutor.ExplainConcept(context.Background(), "gravity", "preschool", "impossible", "")
	require.NoError(t, err)

	assert.Contains(t, client.lastPrompt, "Student grade level: middle")
	assert.Contains(t, client.lastPrompt, "Difficulty level: basic")
}

func TestExplainConceptNoClient(t *testing.T) {
	tutor := NewTutor(nil, nil)
	_, err := tutor.ExplainConcept(context.Background(), "gravity", "middle", "basic", "")
	require.Error(t, err)
}

func TestExplainConceptNoExplanationText(t *testing.T) {
	tutor := NewTutor(&mockClient{response: `{"concept_name": "Gravity"}`}, nil)

	_, err := tutor.ExplainConcept(context.Background(), "gravity", "middle", "basic", "")
	require.Error(t, err)
}

func TestValidators(t *testing.T) {
	for _, d := range Difficulties {
		assert.True(t, ValidDifficulty(d), d)
	}
	assert.False(t, ValidDifficulty("impossible"))

	for _, g := range GradeLevels {
		assert.True(t, ValidGradeLevel(g), g)
	}
	assert.False(t, ValidGradeLevel("preschool"))
}
