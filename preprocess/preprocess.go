// Package preprocess rewrites source terms before mapping: templates pull
// the meaningful part out of structured names and blocklists blank out
// terms that should never be mapped.
package preprocess

import (
	"regexp"
	"strings"

	"github.com/teranos/ontomap/errors"
)

// TagSeparator splits a term or template from its tags in input files
const TagSeparator = ";:;"

// BlocklistedTag is added to tagged terms removed by the blocklist
const BlocklistedTag = "blocklisted"

// Template rewrites terms that fully match Pattern into its capture groups
type Template struct {
	Pattern *regexp.Regexp
	Tags    []string
}

// NewTemplate compiles expr so that it must match a whole term
func NewTemplate(expr string, tags ...string) (Template, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return Template{}, errors.Wrapf(errors.Mark(err, errors.ErrInvalidRequest), "invalid template %q", expr)
	}
	return Template{Pattern: re, Tags: tags}, nil
}

// Apply returns the capture groups of term joined by a space, or false when
// the template does not match. Templates without groups keep the term.
func (t Template) Apply(term string) (string, bool) {
	groups := t.Pattern.FindStringSubmatch(term)
	if groups == nil {
		return "", false
	}
	if len(groups) == 1 {
		return strings.TrimSpace(term), true
	}
	var parts []string
	for _, g := range groups[1:] {
		if g = strings.TrimSpace(g); g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, " "), true
}

// Options configures preprocessing
type Options struct {
	Templates        []Template
	Blocklist        []*regexp.Regexp
	BlocklistChar    string // Replacement for blocklisted terms
	RemoveDuplicates bool   // Drop terms whose processed form was already produced
}

// Pair maps an input term to its processed form
type Pair struct {
	Original  string `json:"original"`
	Processed string `json:"processed"`
}

// TaggedTerm is a source term with tags attached
type TaggedTerm struct {
	Term     string   `json:"term"`
	Tags     []string `json:"tags,omitempty"`
	Original string   `json:"original,omitempty"`
}

// process applies the blocklist then the first matching template
func (o Options) process(term string) (processed string, tags []string, blocked bool) {
	for _, re := range o.Blocklist {
		if re.MatchString(term) {
			return o.BlocklistChar, nil, true
		}
	}
	trimmed := strings.TrimSpace(term)
	for _, tmpl := range o.Templates {
		if out, ok := tmpl.Apply(trimmed); ok {
			return out, tmpl.Tags, false
		}
	}
	return trimmed, nil, false
}

// Terms preprocesses terms, returning original to processed pairs in input order
func Terms(terms []string, opts Options) []Pair {
	seen := make(map[string]bool, len(terms))
	out := make([]Pair, 0, len(terms))
	for _, term := range terms {
		processed, _, _ := opts.process(term)
		if opts.RemoveDuplicates {
			if seen[processed] {
				continue
			}
			seen[processed] = true
		}
		out = append(out, Pair{Original: term, Processed: processed})
	}
	return out
}

// TaggedTerms preprocesses tagged terms. Matching templates add their tags and
// blocklisted terms gain the blocklisted tag.
func TaggedTerms(terms []TaggedTerm, opts Options) []TaggedTerm {
	seen := make(map[string]bool, len(terms))
	out := make([]TaggedTerm, 0, len(terms))
	for _, tt := range terms {
		processed, tags, blocked := opts.process(tt.Term)
		if opts.RemoveDuplicates {
			if seen[processed] {
				continue
			}
			seen[processed] = true
		}

		merged := append([]string(nil), tt.Tags...)
		for _, tag := range tags {
			merged = appendTag(merged, tag)
		}
		if blocked {
			merged = appendTag(merged, BlocklistedTag)
		}

		original := tt.Original
		if original == "" {
			original = tt.Term
		}
		out = append(out, TaggedTerm{Term: processed, Tags: merged, Original: original})
	}
	return out
}

func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
