package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/models"
)

func pattern(text string, pt models.PatternType) models.ActionablePattern {
	return models.ActionablePattern{
		ID:          uuid.New(),
		Pattern:     text,
		PatternType: pt,
		IsActive:    true,
	}
}

func TestMatchPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		patterns []models.ActionablePattern
		want     []string // matched pattern texts, in order
	}{
		{
			name: "word matches whole word only",
			text: "Please review the build",
			patterns: []models.ActionablePattern{
				pattern("review", models.PatternTypeWord),
				pattern("rev", models.PatternTypeWord),
			},
			want: []string{"review"},
		},
		{
			name: "word match is case-insensitive",
			text: "REVIEW the attached report",
			patterns: []models.ActionablePattern{
				pattern("review", models.PatternTypeWord),
			},
			want: []string{"review"},
		},
		{
			name: "phrase matches substring",
			text: "Could you follow up with the vendor?",
			patterns: []models.ActionablePattern{
				pattern("follow up", models.PatternTypePhrase),
			},
			want: []string{"follow up"},
		},
		{
			name: "regex search",
			text: "This needs to be fixed ASAP",
			patterns: []models.ActionablePattern{
				pattern(`asap|immediately`, models.PatternTypeRegex),
			},
			want: []string{`asap|immediately`},
		},
		{
			name: "all matching patterns returned in input order",
			text: "Please review and approve the request",
			patterns: []models.ActionablePattern{
				pattern("approve", models.PatternTypeWord),
				pattern("review", models.PatternTypeWord),
				pattern("reject", models.PatternTypeWord),
			},
			want: []string{"approve", "review"},
		},
		{
			name: "inactive pattern skipped",
			text: "Please review",
			patterns: []models.ActionablePattern{
				{Pattern: "review", PatternType: models.PatternTypeWord, IsActive: false},
			},
			want: nil,
		},
		{
			name: "invalid regex skipped without failing others",
			text: "Please review",
			patterns: []models.ActionablePattern{
				pattern(`(`, models.PatternTypeRegex),
				pattern("review", models.PatternTypeWord),
			},
			want: []string{"review"},
		},
		{
			name: "word pattern with regex metacharacters is literal",
			text: "the c++ build failed",
			patterns: []models.ActionablePattern{
				pattern("c++", models.PatternTypeWord),
			},
			// \b after '+' never matches against a space, so a word
			// pattern ending in punctuation cannot match; it must be
			// configured as a phrase instead
			want: nil,
		},
		{
			name:     "no patterns means not actionable",
			text:     "anything at all",
			patterns: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MatchPatterns(tt.text, tt.patterns)
			if len(got) != len(tt.want) {
				t.Fatalf("MatchPatterns returned %d patterns, want %d (%v)", len(got), len(tt.want), got)
			}
			for i, p := range got {
				if p.Pattern != tt.want[i] {
					t.Errorf("match[%d] = %q, want %q", i, p.Pattern, tt.want[i])
				}
			}
		})
	}
}

func TestMatchPatterns_NoDuplicates(t *testing.T) {
	t.Parallel()

	patterns := []models.ActionablePattern{
		pattern("review", models.PatternTypeWord),
		pattern("approve", models.PatternTypeWord),
	}
	got := MatchPatterns("review review review approve", patterns)
	if len(got) != 2 {
		t.Fatalf("expected each pattern reported once, got %d results", len(got))
	}
}
