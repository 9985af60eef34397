package ai

import (
	"context"
	"strings"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0, 2}, []float32{1, 0, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Fatalf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankByRelevancePassesSmallSetsThrough(t *testing.T) {
	// Under the cap no embedding call happens, so no client is needed.
	r := &Responder{}

	snippets := []string{"a", "b", "c"}
	got := r.rankByRelevance(context.Background(), "question", snippets)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("snippets reordered or dropped: %v", got)
	}
}

func TestSystemPromptCarriesChannelSettings(t *testing.T) {
	prompt := systemPrompt(Settings{
		BusinessContext: "We install heat pumps in Denver.",
		Tone:            "friendly",
		Style:           "concise",
	})

	for _, want := range []string{"heat pumps", "friendly", "concise"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
