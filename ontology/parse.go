package ontology

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/ontomap/errors"
)

// sniffSize is how many leading bytes DetectFormat inspects
const sniffSize = 4096

// sparqlPrefix matches a SPARQL-style PREFIX directive, which Turtle 1.1 allows
var sparqlPrefix = regexp.MustCompile(`^(?i)prefix\s`)

// ErrUnsupportedSyntax marks ontology serializations ontomap cannot read
var ErrUnsupportedSyntax = errors.New("unsupported ontology syntax")

// FormatFromPath guesses the format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".owl", ".rdf", ".xml", ".owx":
		return FormatRDFXML, true
	case ".ttl":
		return FormatTurtle, true
	case ".nt":
		return FormatNTriples, true
	case ".obo":
		return FormatOBO, true
	}
	return "", false
}

// DetectFormat guesses the format from the first bytes of a document
func DetectFormat(head []byte) (Format, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")))
	text := string(trimmed)

	switch {
	case strings.HasPrefix(text, "<?xml"), strings.HasPrefix(text, "<rdf:RDF"),
		strings.HasPrefix(text, "<!DOCTYPE"), strings.HasPrefix(text, "<!--"):
		if strings.Contains(text, "<Ontology") && !strings.Contains(text, "rdf:RDF") {
			return "", errors.WithHint(
				errors.Wrap(ErrUnsupportedSyntax, "OWL/XML"),
				"convert the ontology to RDF/XML, e.g. with robot convert",
			)
		}
		return FormatRDFXML, nil
	case strings.HasPrefix(text, "format-version:"), strings.HasPrefix(text, "[Term]"), strings.HasPrefix(text, "ontology:"):
		return FormatOBO, nil
	case strings.HasPrefix(text, "Prefix("), strings.HasPrefix(text, "Ontology("):
		return "", errors.WithHint(
			errors.Wrap(ErrUnsupportedSyntax, "OWL functional syntax"),
			"convert the ontology to RDF/XML, e.g. with robot convert",
		)
	case strings.HasPrefix(text, "@prefix"), strings.HasPrefix(text, "@base"),
		sparqlPrefix.MatchString(text), strings.HasPrefix(text, "#"):
		return FormatTurtle, nil
	case strings.HasPrefix(text, "<http"), strings.HasPrefix(text, "_:"):
		// Turtle is a superset of N-Triples
		return FormatTurtle, nil
	}
	return "", errors.NewInvalidRequestError("could not detect ontology format")
}

// Parse reads an ontology in the given format. An empty format is sniffed from the content.
func Parse(r io.Reader, format Format) (*Ontology, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	if format == "" {
		head, err := br.Peek(sniffSize)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, errors.Wrap(err, "read ontology header")
		}
		format, err = DetectFormat(head)
		if err != nil {
			return nil, err
		}
	}

	var (
		ont *Ontology
		err error
	)
	switch format {
	case FormatOBO:
		ont, err = parseOBO(br)
	case FormatRDFXML, FormatTurtle, FormatNTriples:
		ont, err = parseRDF(br, format)
	default:
		return nil, errors.NewInvalidRequestError("unsupported ontology format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", format)
	}
	ont.Format = format
	return ont, nil
}

// ParseFile parses the ontology at path, detecting the format by extension
// and then by content. A misnamed file (e.g. OBO saved as .owl) is sniffed.
func ParseFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ontology %s", path)
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrapf(err, "read ontology %s", path)
	}
	head = head[:n]

	format, ok := FormatFromPath(path)
	detected, derr := DetectFormat(head)
	switch {
	case errors.Is(derr, ErrUnsupportedSyntax):
		return nil, errors.Wrapf(derr, "ontology %s", path)
	case derr == nil && (!ok || isRDF(detected) != isRDF(format)):
		format = detected
	case !ok:
		return nil, errors.Wrapf(derr, "ontology %s", path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "rewind ontology %s", path)
	}

	ont, err := Parse(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "ontology %s", path)
	}
	return ont, nil
}

func isRDF(f Format) bool {
	return f == FormatRDFXML || f == FormatTurtle || f == FormatNTriples
}
