package engine

import (
	"math"
	"testing"
)

func buildCorpus(docs ...[]string) *Corpus {
	c := NewCorpus()
	for _, d := range docs {
		c.AddDocument(d)
	}
	return c
}

func TestScorer_ScoreBounds(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	corpus := buildCorpus(
		[]string{"driver", "panel", "issue"},
		[]string{"driver", "build", "ticket"},
		[]string{"urgent", "driver", "fix"},
	)

	tests := []struct {
		name      string
		tokens    []string
		flagged   bool
		important bool
	}{
		{name: "empty tokens"},
		{name: "single common term", tokens: []string{"driver"}},
		{name: "boosted terms", tokens: []string{"urgent", "asap", "critical"}},
		{name: "flagged and important", tokens: []string{"urgent", "panel"}, flagged: true, important: true},
		{name: "heavy repetition", tokens: []string{"panel", "panel", "panel", "panel", "panel", "panel"}},
		{name: "unknown terms", tokens: []string{"zzz", "qqq"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Score(tt.tokens, corpus, tt.flagged, tt.important)
			if got.Score < 0 || got.Score > 1 {
				t.Errorf("Score = %v, want within [0, 1]", got.Score)
			}
		})
	}
}

func TestScorer_TermStatistics(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	// "driver" appears in all 3 documents, "panel" in 1 of 3.
	corpus := buildCorpus(
		[]string{"driver", "panel"},
		[]string{"driver", "build"},
		[]string{"driver", "driver", "ticket"},
	)

	result := s.Score([]string{"driver", "panel", "panel"}, corpus, false, false)

	var driver, panel *TermWeight
	for i := range result.Terms {
		switch result.Terms[i].Term {
		case "driver":
			driver = &result.Terms[i]
		case "panel":
			panel = &result.Terms[i]
		}
	}
	if driver == nil || panel == nil {
		t.Fatalf("expected term weights for driver and panel, got %v", result.Terms)
	}

	// Term in every document has IDF log10(3/3) = 0.
	if driver.IDF != 0 {
		t.Errorf("IDF(driver) = %v, want 0", driver.IDF)
	}
	// Rarer term has strictly higher IDF.
	if panel.IDF <= driver.IDF {
		t.Errorf("IDF(panel) = %v, want > IDF(driver) = %v", panel.IDF, driver.IDF)
	}
	// TF is 1 + log10(count): one occurrence gives exactly 1.
	if driver.TF != 1 {
		t.Errorf("TF(driver) = %v, want 1", driver.TF)
	}
	if want := 1 + math.Log10(2); math.Abs(panel.TF-want) > 1e-12 {
		t.Errorf("TF(panel) = %v, want %v", panel.TF, want)
	}
	// CF(driver) = 4 occurrences / 3 docs.
	if want := 4.0 / 3.0; math.Abs(driver.CF-want) > 1e-12 {
		t.Errorf("CF(driver) = %v, want %v", driver.CF, want)
	}
}

func TestScorer_TFNonDecreasing(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	corpus := buildCorpus([]string{"panel"}, []string{"driver"})

	prev := -1.0
	for count := 1; count <= 6; count++ {
		tokens := make([]string, count)
		for i := range tokens {
			tokens[i] = "panel"
		}
		result := s.Score(tokens, corpus, false, false)
		if len(result.Terms) != 1 {
			t.Fatalf("expected single term, got %v", result.Terms)
		}
		tf := result.Terms[0].TF
		if tf < prev {
			t.Fatalf("TF decreased from %v to %v at count %d", prev, tf, count)
		}
		prev = tf
	}
}

func TestScorer_ContextualBoost(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	corpus := buildCorpus(
		[]string{"panel", "issue"},
		[]string{"driver", "build"},
	)

	plain := s.Score([]string{"panel"}, corpus, false, false)
	if plain.CTMax != 1.0 {
		t.Errorf("CTMax without boost = %v, want 1.0", plain.CTMax)
	}

	boosted := s.Score([]string{"urgent", "panel"}, corpus, false, false)
	if boosted.CTMax != 2.0 {
		t.Errorf("CTMax with urgent term = %v, want 2.0", boosted.CTMax)
	}

	flagged := s.Score([]string{"urgent", "panel"}, corpus, true, false)
	if flagged.CTMax != 3.0 {
		t.Errorf("CTMax with urgent term and flag = %v, want 3.0", flagged.CTMax)
	}
}

func TestScorer_EmptyCorpus(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	result := s.Score([]string{"urgent", "panel", "panel"}, NewCorpus(), true, true)

	for _, tw := range result.Terms {
		if tw.IDF != 0 || tw.CF != 0 {
			t.Errorf("empty corpus: term %q has IDF=%v CF=%v, want zeros", tw.Term, tw.IDF, tw.CF)
		}
	}
	if result.Score < 0 || result.Score > 1 {
		t.Errorf("Score = %v, want within [0, 1]", result.Score)
	}
}

func TestScorer_Deterministic(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	corpus := buildCorpus(
		[]string{"driver", "panel", "issue", "urgent"},
		[]string{"build", "ticket", "driver"},
		[]string{"panel", "urgent", "escalate"},
	)
	tokens := []string{"panel", "driver", "urgent", "issue", "escalate", "panel", "build"}

	first := s.Score(tokens, corpus, false, true)
	for i := 0; i < 50; i++ {
		again := s.Score(tokens, corpus, false, true)
		if again.Score != first.Score {
			t.Fatalf("score not reproducible: %v vs %v", again.Score, first.Score)
		}
	}
}
