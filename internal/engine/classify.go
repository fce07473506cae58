package engine

import (
	"regexp"
	"strings"

	"github.com/kcarante/thinktasker/internal/models"
)

// MatchPatterns returns every active pattern whose type-specific rule
// matches the text, preserving input order. A message is actionable
// iff the result is non-empty. Patterns with an invalid regular
// expression are skipped rather than failing the whole classification.
func MatchPatterns(text string, patterns []models.ActionablePattern) []models.ActionablePattern {
	lower := strings.ToLower(text)

	var matched []models.ActionablePattern
	for _, p := range patterns {
		if !p.IsActive {
			continue
		}
		if patternMatches(text, lower, p) {
			matched = append(matched, p)
		}
	}
	return matched
}

func patternMatches(text, lowerText string, p models.ActionablePattern) bool {
	switch p.PatternType {
	case models.PatternTypeWord:
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(p.Pattern) + `\b`)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	case models.PatternTypePhrase:
		return strings.Contains(lowerText, strings.ToLower(p.Pattern))
	case models.PatternTypeRegex:
		re, err := regexp.Compile(`(?i)` + p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	default:
		return false
	}
}
