package termutil

import (
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// BaseIRI prefixes every identifier ontomap generates
const BaseIRI = "http://ccb.hms.harvard.edu/t2t/"

// ShortIDLength is the length of ids returned by ShortID
const ShortIDLength = 10

// ShortID returns a random 10 character base58 identifier
func ShortID() string {
	id := uuid.New()
	encoded := base58.Encode(id[:])
	// A 16 byte value encodes to at least 11 base58 digits
	return encoded[len(encoded)-ShortIDLength:]
}

// GenerateIRI returns a fresh IRI for a source term or ad-hoc ontology class
func GenerateIRI() string {
	return BaseIRI + "R" + ShortID()
}

// GenerateIRIs returns n fresh IRIs
func GenerateIRIs(n int) []string {
	iris := make([]string, n)
	for i := range iris {
		iris[i] = GenerateIRI()
	}
	return iris
}
