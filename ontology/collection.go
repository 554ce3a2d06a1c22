package ontology

import (
	"encoding/json"
	"strings"
)

// CollectOptions filters the terms of an ontology
type CollectOptions struct {
	BaseIRIs          []string // Keep terms whose IRI starts with any of these; empty keeps all
	TermType          TermType // TermAny or empty keeps all
	ExcludeDeprecated bool
}

// Collection is an ordered, IRI-deduplicated sequence of terms
type Collection struct {
	terms []*Term
	index map[string]int
}

// NewCollection builds a collection keeping the first occurrence of each IRI
func NewCollection(terms []*Term) *Collection {
	c := &Collection{index: make(map[string]int, len(terms))}
	for _, t := range terms {
		if t == nil || t.IRI == "" {
			continue
		}
		if _, dup := c.index[t.IRI]; dup {
			continue
		}
		c.index[t.IRI] = len(c.terms)
		c.terms = append(c.terms, t)
	}
	return c
}

// Collect returns the terms of ont that pass opts.
// Blank nodes and owl:Thing/owl:Nothing never pass.
func Collect(ont *Ontology, opts CollectOptions) *Collection {
	if ont == nil {
		return NewCollection(nil)
	}
	return NewCollection(ont.Terms).Filter(opts)
}

// Filter returns a new collection with the terms that pass opts
func (c *Collection) Filter(opts CollectOptions) *Collection {
	kept := make([]*Term, 0, len(c.terms))
	for _, t := range c.terms {
		if opts.matches(t) {
			kept = append(kept, t)
		}
	}
	return NewCollection(kept)
}

func (o CollectOptions) matches(t *Term) bool {
	if strings.HasPrefix(t.IRI, "_:") || isTopOrBottom(t.IRI) {
		return false
	}
	if o.ExcludeDeprecated && t.Deprecated {
		return false
	}
	if o.TermType != "" && o.TermType != TermAny && t.Type != o.TermType {
		return false
	}
	if len(o.BaseIRIs) == 0 {
		return true
	}
	for _, base := range o.BaseIRIs {
		if strings.HasPrefix(t.IRI, base) {
			return true
		}
	}
	return false
}

// Terms returns the terms in collection order. Callers must not modify the slice.
func (c *Collection) Terms() []*Term {
	return c.terms
}

// Len returns the number of terms
func (c *Collection) Len() int {
	return len(c.terms)
}

// Get looks a term up by IRI
func (c *Collection) Get(iri string) (*Term, bool) {
	i, ok := c.index[iri]
	if !ok {
		return nil, false
	}
	return c.terms[i], true
}

// IRIs returns the term IRIs in collection order
func (c *Collection) IRIs() []string {
	iris := make([]string, len(c.terms))
	for i, t := range c.terms {
		iris[i] = t.IRI
	}
	return iris
}

type collectionJSON struct {
	Terms []*Term `json:"terms"`
}

// MarshalJSON encodes the collection as {"terms": [...]}
func (c *Collection) MarshalJSON() ([]byte, error) {
	terms := c.terms
	if terms == nil {
		terms = []*Term{}
	}
	return json.Marshal(collectionJSON{Terms: terms})
}

// UnmarshalJSON decodes {"terms": [...]} and rebuilds the IRI index
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw collectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *NewCollection(raw.Terms)
	return nil
}
