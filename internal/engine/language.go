package engine

import "github.com/pemistahl/lingua-go"

// LanguageGate excludes non-English messages from the actionable
// pipeline. Detection failure counts as not English: exclusion is the
// fail-safe outcome, not a processing error.
type LanguageGate struct {
	detector lingua.LanguageDetector
}

// NewLanguageGate builds a detector over a small set of languages the
// inbox realistically sees. A narrow set keeps detection fast and
// confident.
func NewLanguageGate() *LanguageGate {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.German,
			lingua.French,
			lingua.Spanish,
			lingua.Chinese,
			lingua.Japanese,
		).
		Build()
	return &LanguageGate{detector: detector}
}

// IsEnglish reports whether the text is detectably English.
func (g *LanguageGate) IsEnglish(text string) bool {
	lang, ok := g.detector.DetectLanguageOf(text)
	return ok && lang == lingua.English
}
