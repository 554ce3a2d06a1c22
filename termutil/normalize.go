// Package termutil normalizes term text and derives labels, CURIEs and
// generated identifiers from IRIs.
package termutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StopWords are dropped by Normalize. Besides English filler words the set
// carries abbreviations common in GWAS trait names (dx, fh, tx, qnorm, rdgwas).
var StopWords = map[string]struct{}{
	"in": {}, "the": {}, "any": {}, "all": {}, "for": {}, "and": {}, "or": {},
	"dx": {}, "on": {}, "fh": {}, "tx": {}, "only": {}, "qnorm": {}, "w": {},
	"iqb": {}, "ds": {}, "rd": {}, "rdgwas": {}, "average": {}, "weekly": {},
	"monthly": {}, "daily": {},
}

var (
	bracketedText = regexp.MustCompile(`[(\[].*?[)\]]`)
	nonWordChars  = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Normalize lower-cases s and strips bracketed text, diacritics,
// punctuation, underscores and stop words, collapsing whitespace.
//
//	Normalize("Asthma (disorder), Childhood-Onset") == "asthma childhood onset"
func Normalize(s string) string {
	s = bracketedText.ReplaceAllString(s, "")
	s = foldDiacritics(s)
	s = nonWordChars.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := StopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeAll applies Normalize to every element of terms
func NormalizeAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = Normalize(t)
	}
	return out
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// RemoveQuotes drops single and double quote characters
func RemoveQuotes(s string) string {
	return strings.NewReplacer(`"`, "", `'`, "").Replace(s)
}
