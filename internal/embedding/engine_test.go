package embedding

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	a := []float32{0.5, 0.5, 0.5}
	sim, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("similarity = %f, want 1.0", sim)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim) > 1e-9 {
		t.Errorf("similarity = %f, want 0", sim)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim+1.0) > 1e-9 {
		t.Errorf("similarity = %f, want -1.0", sim)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if sim != 0 {
		t.Errorf("similarity = %f, want 0 for zero vector", sim)
	}
}

func TestBestMatch(t *testing.T) {
	query := []float32{1, 0, 0}
	corpus := [][]float32{
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}

	match, err := BestMatch(query, corpus)
	if err != nil {
		t.Fatalf("BestMatch failed: %v", err)
	}
	if match.Index != 1 {
		t.Errorf("index = %d, want 1", match.Index)
	}
	if match.Similarity <= 0.9 {
		t.Errorf("similarity = %f, want > 0.9", match.Similarity)
	}
}

func TestBestMatchSkipsMismatched(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{1, 0, 0}, // wrong dimension, skipped
		{0.5, 0.5},
	}

	match, err := BestMatch(query, corpus)
	if err != nil {
		t.Fatalf("BestMatch failed: %v", err)
	}
	if match.Index != 1 {
		t.Errorf("index = %d, want 1", match.Index)
	}
}

func TestBestMatchEmptyCorpus(t *testing.T) {
	if _, err := BestMatch([]float32{1}, nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	if _, err := NewEngine(Config{Provider: "sbert"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
