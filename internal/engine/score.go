package engine

import (
	"math"
	"sort"
)

// Normalization caps for the aggregate statistics. Sums are clamped
// against these before mixing into the final score.
const (
	TFIDFMax = 20.0
	CFMax    = 2.0
)

// Score mixing weights: term weighting dominates, collection frequency
// contributes the rest.
const (
	tfidfWeight = 0.7
	cfWeight    = 0.3
)

// highPriorityTerms get a fixed 2.0 contextual boost.
var highPriorityTerms = map[string]struct{}{
	"urgent":    {},
	"asap":      {},
	"emergency": {},
	"escalate":  {},
	"critical":  {},
	"immediate": {},
}

// TermWeight holds the per-term statistics computed for one candidate
// message.
type TermWeight struct {
	Term string  `json:"term"`
	TF   float64 `json:"tf"`
	IDF  float64 `json:"idf"`
	CF   float64 `json:"cf"`
	CT   float64 `json:"ct"`
}

// ScoredCandidate is the transient scoring result for one message.
type ScoredCandidate struct {
	Terms    []TermWeight `json:"terms"`
	TFIDFSum float64      `json:"tfidf_sum"`
	CFSum    float64      `json:"cf_sum"`
	CTMax    float64      `json:"ct_max"`
	Score    float64      `json:"score"`
}

// Corpus aggregates document frequencies over the reference documents.
// It is append-only: documents are added as messages sync, never
// removed.
type Corpus struct {
	docs      int
	docFreq   map[string]int
	termTotal map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		docFreq:   make(map[string]int),
		termTotal: make(map[string]int),
	}
}

// AddDocument folds one tokenized document into the corpus statistics.
func (c *Corpus) AddDocument(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	c.docs++
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		c.termTotal[t]++
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			c.docFreq[t]++
		}
	}
}

// Documents returns the number of documents folded into the corpus.
func (c *Corpus) Documents() int {
	return c.docs
}

// DocFreq returns the number of corpus documents containing the term.
func (c *Corpus) DocFreq(term string) int {
	return c.docFreq[term]
}

// TermTotal returns the total occurrences of the term across the corpus.
func (c *Corpus) TermTotal(term string) int {
	return c.termTotal[term]
}

// Scorer computes the bounded [0,1] relevance score of a candidate
// message against a reference corpus.
type Scorer struct{}

// NewScorer returns a relevance scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes per-term TF/IDF/CF/contextual weights for the
// candidate tokens and folds them into a normalized score. Unique
// terms are walked in sorted order so floating-point accumulation is
// reproducible for identical input. An empty corpus zeroes IDF and CF
// for every term; the score then derives from the contextual boost
// alone.
func (s *Scorer) Score(tokens []string, corpus *Corpus, flagged, important bool) ScoredCandidate {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	result := ScoredCandidate{CTMax: 1.0}
	n := corpus.Documents()
	for _, term := range terms {
		tw := TermWeight{Term: term, CT: 1.0}

		tw.TF = 1 + math.Log10(float64(counts[term]))

		if df := corpus.DocFreq(term); df > 0 {
			tw.IDF = math.Log10(float64(n) / float64(df))
		}
		if n > 0 {
			tw.CF = float64(corpus.TermTotal(term)) / float64(n)
		}
		if _, boosted := highPriorityTerms[term]; boosted {
			tw.CT = 2.0
		}

		result.TFIDFSum += tw.TF * tw.IDF * tw.CT
		result.CFSum += tw.CF
		if tw.CT > result.CTMax {
			result.CTMax = tw.CT
		}
		result.Terms = append(result.Terms, tw)
	}

	if flagged || important {
		result.CTMax += 1.0
	}

	tfidfNorm := math.Min(result.TFIDFSum*result.CTMax/TFIDFMax, 1)
	cfNorm := math.Min(result.CFSum/CFMax, 1)
	result.Score = tfidfWeight*tfidfNorm + cfWeight*cfNorm
	return result
}
