package mapper

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/ontology"
	"github.com/teranos/ontomap/termutil"
)

// ngramSize is the character n-gram length used for TF-IDF vectors
const ngramSize = 3

// tfidfDoc is one normalized label or synonym of a term
type tfidfDoc struct {
	term   int
	vector map[string]float64
}

// posting is a document weight for one n-gram
type posting struct {
	doc    int
	weight float64
}

// tfidfMapper scores terms by cosine similarity of character n-gram TF-IDF
// vectors. Every label and synonym is its own document; a term scores the
// best of its documents.
type tfidfMapper struct {
	terms  []*ontology.Term
	docs   []tfidfDoc
	idf    map[string]float64
	index  map[string][]posting
	logger *zap.SugaredLogger
}

func newTFIDFMapper(coll *ontology.Collection) *tfidfMapper {
	m := &tfidfMapper{
		idf:    make(map[string]float64),
		index:  make(map[string][]posting),
		logger: logger.ComponentLogger("mapper"),
	}

	var counts []map[string]int
	df := make(map[string]int)
	for _, tt := range normalizedTexts(coll) {
		termIdx := len(m.terms)
		m.terms = append(m.terms, tt.term)
		for _, text := range tt.texts {
			tf := ngramCounts(text)
			if len(tf) == 0 {
				continue
			}
			for g := range tf {
				df[g]++
			}
			counts = append(counts, tf)
			m.docs = append(m.docs, tfidfDoc{term: termIdx})
		}
	}

	n := float64(len(m.docs))
	for g, d := range df {
		m.idf[g] = math.Log((1+n)/(1+float64(d))) + 1
	}

	for i, tf := range counts {
		vec := m.weigh(tf)
		m.docs[i].vector = vec
		for g, w := range vec {
			m.index[g] = append(m.index[g], posting{doc: i, weight: w})
		}
	}

	m.logger.Debugw("Built TF-IDF index",
		"documents", len(m.docs),
		"ngrams", len(m.idf),
		logger.FieldCount, len(m.terms),
	)
	return m
}

// weigh turns raw n-gram counts into an l2-normalized TF-IDF vector.
// N-grams missing from the vocabulary are dropped.
func (m *tfidfMapper) weigh(tf map[string]int) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	var norm float64
	for g, c := range tf {
		idf, ok := m.idf[g]
		if !ok {
			continue
		}
		w := float64(c) * idf
		vec[g] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for g := range vec {
		vec[g] /= norm
	}
	return vec
}

func (m *tfidfMapper) Kind() Kind { return TFIDF }

func (m *tfidfMapper) Map(ctx context.Context, terms []SourceTerm, maxMappings int) ([]Candidate, error) {
	var out []Candidate
	for _, src := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		query := termutil.Normalize(src.Term)
		if query == "" {
			continue
		}

		docScores := make(map[int]float64)
		for g, w := range m.weigh(ngramCounts(query)) {
			for _, p := range m.index[g] {
				docScores[p.doc] += w * p.weight
			}
		}

		termScores := make(map[int]float64)
		for doc, s := range docScores {
			t := m.docs[doc].term
			if s > termScores[t] {
				termScores[t] = s
			}
		}

		scored := make([]Candidate, 0, len(termScores))
		for t, s := range termScores {
			term := m.terms[t]
			scored = append(scored, Candidate{
				SourceID: src.ID,
				IRI:      term.IRI,
				Label:    term.Label(),
				CURIE:    term.CURIE(),
				Score:    s,
			})
		}
		ranked := rank(scored, maxMappings)
		m.logger.Debugw("Ranked candidates",
			logger.FieldMapper, TFIDF,
			logger.FieldQuery, query,
			logger.FieldCount, len(ranked),
		)
		out = append(out, ranked...)
	}
	return out, nil
}

// ngramCounts counts the character n-grams of s by rune.
// Strings shorter than ngramSize count as a single gram.
func ngramCounts(s string) map[string]int {
	runes := []rune(s)
	counts := make(map[string]int)
	if len(runes) == 0 {
		return counts
	}
	if len(runes) < ngramSize {
		counts[s]++
		return counts
	}
	for i := 0; i+ngramSize <= len(runes); i++ {
		counts[string(runes[i:i+ngramSize])]++
	}
	return counts
}
