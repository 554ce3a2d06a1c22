package mapper

import (
	"strings"
	"unicode"
)

// soundexCodes maps consonants to their American Soundex digit.
// Vowels and y code to '0' and separate repeated digits; h and w do not.
var soundexCodes = map[rune]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
	'a': '0', 'e': '0', 'i': '0', 'o': '0', 'u': '0', 'y': '0',
}

// soundexCode returns the four character code of word, e.g. "robert" -> "R163".
// Words that do not start with an ASCII letter are returned unchanged.
func soundexCode(word string) string {
	word = strings.ToLower(word)
	runes := []rune(word)
	if len(runes) == 0 {
		return ""
	}
	first := runes[0]
	if first > unicode.MaxASCII || !unicode.IsLetter(first) {
		return word
	}

	code := []byte{byte(unicode.ToUpper(first))}
	last := soundexCodes[first]
	for _, r := range runes[1:] {
		if len(code) == 4 {
			break
		}
		if r == 'h' || r == 'w' {
			continue
		}
		digit, ok := soundexCodes[r]
		if !ok {
			last = 0
			continue
		}
		if digit != '0' && digit != last {
			code = append(code, digit)
		}
		last = digit
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// soundexSimilarity is the Jaccard index of the per-token Soundex code sets
func soundexSimilarity(a, b string) float64 {
	codesA, codesB := soundexSet(a), soundexSet(b)
	if len(codesA) == 0 || len(codesB) == 0 {
		return 0
	}
	shared := 0
	for c := range codesA {
		if codesB[c] {
			shared++
		}
	}
	return float64(shared) / float64(len(codesA)+len(codesB)-shared)
}

func soundexSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		if c := soundexCode(tok); c != "" {
			set[c] = true
		}
	}
	return set
}
