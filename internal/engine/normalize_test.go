package engine

import (
	"reflect"
	"testing"
)

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "plain text with stopwords removed",
			text:     "Please review the driver installation report",
			expected: []string{"please", "review", "driver", "installation", "report"},
		},
		{
			name:     "markup stripped",
			text:     "<p>Please <b>review</b> the report</p>",
			expected: []string{"please", "review", "report"},
		},
		{
			name:     "signature block removed",
			text:     "Submit the logs. Best regards, John Doe",
			expected: []string{"submit", "logs"},
		},
		{
			name:     "greeting clause removed",
			text:     "Hi team, submit the logs",
			expected: []string{"submit", "logs"},
		},
		{
			name:     "duplicates and order retained",
			text:     "driver driver panel driver",
			expected: []string{"driver", "driver", "panel", "driver"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: []string{},
		},
		{
			name:     "punctuation only",
			text:     "!!! ... ???",
			expected: []string{},
		},
		{
			name:     "case folded",
			text:     "URGENT Panel ISSUE",
			expected: []string{"urgent", "panel", "issue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := n.Normalize(tt.text)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestNormalizer_SignatureMarkers(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()

	markers := []string{
		"Best regards", "Regards", "Sent from my iPhone", "Sincerely",
		"Thanks", "Thank you", "Yours truly", "Cheers", "BR",
	}

	for _, marker := range markers {
		tokens := n.Normalize("Fix the panel issue. " + marker + ", Someone Else")
		for _, tok := range tokens {
			if tok == "someone" || tok == "else" {
				t.Errorf("marker %q: signature content leaked into tokens %v", marker, tokens)
			}
		}
	}
}

func TestNormalizer_EarliestMarkerWins(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	tokens := n.Normalize("Send the file. Thanks a lot. Best regards, John")
	for _, tok := range tokens {
		if tok == "lot" || tok == "john" {
			t.Errorf("text after first marker should be cut, got %v", tokens)
		}
	}
}

func TestNormalizer_UnparseableMarkupPassthrough(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	// Broken markup must not panic or swallow the content entirely.
	got := n.Normalize("<div<span>fix panel issue")
	found := false
	for _, tok := range got {
		if tok == "panel" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected content tokens from broken markup, got %v", got)
	}
}
