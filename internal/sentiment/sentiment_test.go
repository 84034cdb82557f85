package sentiment

import (
	"context"
	"math"
	"testing"
)

func TestHeuristic(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		sentiment string
		score     float64
	}{
		{"neutral", "the weather is cloudy today", "neutral", 0.5},
		{"positive", "great release, love the new tooling", "positive", 0.7},
		{"negative", "terrible outage, everything is broken", "negative", 0.3},
		{"mixed cancels out", "good idea but bad execution", "neutral", 0.5},
		{"score clamps at one", "great good love excellent amazing win success happy", "positive", 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Heuristic(tc.text)
			if got.Sentiment != tc.sentiment {
				t.Fatalf("sentiment = %q, want %q", got.Sentiment, tc.sentiment)
			}
			if math.Abs(got.Score-tc.score) > 1e-9 {
				t.Fatalf("score = %v, want %v", got.Score, tc.score)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", got.Confidence)
			}
		})
	}
}

func TestAnalyzeWithoutKeyUsesHeuristic(t *testing.T) {
	a := New("none", "", "")
	got := a.Analyze(context.Background(), "awesome work")
	if got.Sentiment != "positive" {
		t.Fatalf("sentiment = %q, want positive", got.Sentiment)
	}
}

func TestAnalyzeOpenAIWithoutKeyStaysDisabled(t *testing.T) {
	a := New("openai", "gpt-4o-mini", "")
	if a.enabled {
		t.Fatal("analyzer must not enable the LLM path without a key")
	}
}
