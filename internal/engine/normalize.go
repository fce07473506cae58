package engine

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// signatureRe matches the first closing marker of an email signature
// block. Longer alternatives come first so "best regards" wins over
// "regards" at the same position.
var signatureRe = regexp.MustCompile(`(?i)\b(best regards|sent from my|yours truly|thank you|sincerely|regards|thanks|cheers|br)\b`)

// greetingRe matches a leading greeting clause up to its comma.
var greetingRe = regexp.MustCompile(`(?i)^(hi|hello|dear|good morning|good afternoon|good evening)[^,]*,?`)

// wordRe extracts lowercase alphanumeric word tokens.
var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// stopwords is the fixed English stopword set applied during
// normalization. Kept small and explicit so token streams are stable
// across releases.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "about", "above", "after", "again", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before",
		"being", "below", "between", "both", "but", "by", "can", "could",
		"did", "do", "does", "doing", "down", "during", "each", "few",
		"for", "from", "further", "had", "has", "have", "having", "he",
		"her", "here", "hers", "him", "his", "how", "i", "if", "in",
		"into", "is", "it", "its", "just", "me", "more", "most", "my",
		"no", "nor", "not", "now", "of", "off", "on", "once", "only",
		"or", "other", "our", "ours", "out", "over", "own", "same",
		"she", "should", "so", "some", "such", "than", "that", "the",
		"their", "theirs", "them", "then", "there", "these", "they",
		"this", "those", "through", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "would", "you",
		"your", "yours",
	} {
		stopwords[w] = struct{}{}
	}
}

// Normalizer converts raw message text (possibly HTML) into an ordered
// stream of lowercase content tokens. It never fails: unparseable
// markup is passed through as-is.
type Normalizer struct {
	policy *bluemonday.Policy
}

// NewNormalizer creates a normalizer with a strict strip-everything
// HTML policy.
func NewNormalizer() *Normalizer {
	return &Normalizer{policy: bluemonday.StrictPolicy()}
}

// Normalize runs the full normalization chain: markup strip, signature
// cut, greeting strip, tokenization, stopword removal. Token order and
// duplicates are preserved because term frequency is counted downstream.
func (n *Normalizer) Normalize(text string) []string {
	plain := n.StripMarkup(text)
	plain = stripSignature(plain)
	plain = strings.TrimSpace(plain)
	plain = greetingRe.ReplaceAllString(plain, "")
	return tokenize(plain)
}

// StripMarkup removes HTML tags and collapses the remainder into
// space-separated plain text.
func (n *Normalizer) StripMarkup(text string) string {
	sanitized := n.policy.Sanitize(text)
	// bluemonday escapes entities in its output; fold them back so
	// "&amp;" does not leak into tokens.
	sanitized = html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(sanitized), " ")
}

// stripSignature cuts everything from the first signature closing
// marker to the end of the text.
func stripSignature(text string) string {
	if loc := signatureRe.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// tokenize lowercases the text and returns alphanumeric word tokens
// with stopwords removed.
func tokenize(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
