package mapper

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/ontology"
	"github.com/teranos/ontomap/termutil"
)

// similarityFunc scores two normalized strings in [0,1]
type similarityFunc func(a, b string) float64

// termTexts is a term with its normalized labels and synonyms
type termTexts struct {
	term  *ontology.Term
	texts []string
}

// syntacticMapper scores every term of a collection with a string metric.
// A term's score is the best over its labels and synonyms.
type syntacticMapper struct {
	kind   Kind
	sim    similarityFunc
	terms  []termTexts
	logger *zap.SugaredLogger
}

func newSyntacticMapper(kind Kind, coll *ontology.Collection) *syntacticMapper {
	m := &syntacticMapper{
		kind:   kind,
		sim:    similarityFor(kind),
		terms:  normalizedTexts(coll),
		logger: logger.ComponentLogger("mapper"),
	}
	return m
}

func similarityFor(kind Kind) similarityFunc {
	switch kind {
	case Levenshtein:
		return levenshteinSimilarity
	case Jaro:
		jaro := metrics.NewJaro()
		return func(a, b string) float64 { return strutil.Similarity(a, b, jaro) }
	case JaroWinkler:
		jw := metrics.NewJaroWinkler()
		return func(a, b string) float64 { return strutil.Similarity(a, b, jw) }
	case Jaccard:
		jaccard := metrics.NewJaccard()
		jaccard.NgramSize = 2
		return func(a, b string) float64 { return strutil.Similarity(a, b, jaccard) }
	case Indel:
		return indelSimilarity
	case Fuzzy:
		return tokenSetRatio
	case Soundex:
		return soundexSimilarity
	}
	return func(a, b string) float64 { return 0 }
}

// normalizedTexts precomputes the distinct normalized match texts of each term
func normalizedTexts(coll *ontology.Collection) []termTexts {
	out := make([]termTexts, 0, coll.Len())
	for _, term := range coll.Terms() {
		seen := make(map[string]bool)
		var texts []string
		for _, raw := range term.MatchTexts() {
			n := termutil.Normalize(raw)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			texts = append(texts, n)
		}
		if len(texts) > 0 {
			out = append(out, termTexts{term: term, texts: texts})
		}
	}
	return out
}

func (m *syntacticMapper) Kind() Kind { return m.kind }

func (m *syntacticMapper) Map(ctx context.Context, terms []SourceTerm, maxMappings int) ([]Candidate, error) {
	var out []Candidate
	for _, src := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		query := termutil.Normalize(src.Term)
		if query == "" {
			continue
		}

		scored := make([]Candidate, 0, 16)
		for _, tt := range m.terms {
			best := 0.0
			for _, text := range tt.texts {
				if s := m.sim(query, text); s > best {
					best = s
					if best >= 1 {
						break
					}
				}
			}
			if best > 0 {
				scored = append(scored, Candidate{
					SourceID: src.ID,
					IRI:      tt.term.IRI,
					Label:    tt.term.Label(),
					CURIE:    tt.term.CURIE(),
					Score:    best,
				})
			}
		}
		ranked := rank(scored, maxMappings)
		m.logger.Debugw("Ranked candidates",
			logger.FieldMapper, m.kind,
			logger.FieldQuery, query,
			logger.FieldCount, len(ranked),
		)
		out = append(out, ranked...)
	}
	return out, nil
}

// levenshteinSimilarity is 1 - edit distance / longer rune length
func levenshteinSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
}

// indelMetric is Levenshtein with substitutions costing a delete plus an insert
var indelMetric = func() *metrics.Levenshtein {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = true
	m.ReplaceCost = 2
	return m
}()

// indelSimilarity is 1 - indel distance / combined rune length
func indelSimilarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 1 - float64(indelMetric.Distance(a, b))/float64(total)
}

// tokenSetRatio compares the shared and differing word sets of a and b
// using the indel similarity, so word order and repeats do not matter.
func tokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	diffA := strings.Join(onlyA, " ")
	diffB := strings.Join(onlyB, " ")

	if sect == "" {
		return indelSimilarity(diffA, diffB)
	}
	if diffA == "" || diffB == "" {
		return 1
	}

	withA := sect + " " + diffA
	withB := sect + " " + diffB
	return max(
		indelSimilarity(sect, withA),
		indelSimilarity(sect, withB),
		indelSimilarity(withA, withB),
	)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
