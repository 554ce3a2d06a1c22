package ontology

import (
	"encoding/xml"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/teranos/ontomap/errors"
)

// xmlNS is the namespace encoding/xml gives the xml: prefix
const xmlNS = "http://www.w3.org/XML/1998/namespace"

// entityDecl matches <!ENTITY name "value"> inside a DOCTYPE
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([\w.-]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// xmlScope carries the inherited xml:base and xml:lang of an element
type xmlScope struct {
	base string
	lang string
}

func (s xmlScope) enter(start xml.StartElement) xmlScope {
	for _, a := range start.Attr {
		if a.Name.Space != xmlNS {
			continue
		}
		switch a.Name.Local {
		case "base":
			s.base = resolveIRI(s.base, a.Value)
		case "lang":
			s.lang = a.Value
		}
	}
	return s
}

// rdfxmlDecoder streams RDF/XML into triples. It covers node and property
// elements at any nesting depth, rdf:parseType Resource/Literal/Collection,
// property attributes, rdf:li, xml:base, xml:lang and DOCTYPE entities.
type rdfxmlDecoder struct {
	dec     *xml.Decoder
	triples []rdf.Triple
	blanks  int
}

func decodeRDFXML(r io.Reader) ([]rdf.Triple, error) {
	d := &rdfxmlDecoder{dec: xml.NewDecoder(r)}
	d.dec.Entity = make(map[string]string)
	d.dec.CharsetReader = charsetReader

	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			return d.triples, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read RDF/XML")
		}
		switch t := tok.(type) {
		case xml.Directive:
			d.declareEntities(string(t))
		case xml.StartElement:
			scope := xmlScope{}.enter(t)
			if isRDFName(t.Name, "RDF") {
				err = d.nodeElements(scope)
			} else {
				_, err = d.nodeElement(t, scope)
			}
			if err != nil {
				return nil, err
			}
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, errors.Newf("unsupported XML encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (d *rdfxmlDecoder) declareEntities(directive string) {
	for _, m := range entityDecl.FindAllStringSubmatch("<!"+directive+">", -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		d.dec.Entity[m[1]] = value
	}
}

// nodeElements reads sibling node elements until the parent closes
func (d *rdfxmlDecoder) nodeElements(scope xmlScope) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return errors.Wrap(err, "read RDF/XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := d.nodeElement(t, scope.enter(t)); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// nodeElement emits the triples of one node element and returns its subject
func (d *rdfxmlDecoder) nodeElement(start xml.StartElement, scope xmlScope) (rdf.Subject, error) {
	subj := d.subjectOf(start, scope)

	if !isRDFName(start.Name, "Description") {
		d.emitIRI(subj, rdfNS+"type", nameIRI(start.Name))
	}
	for _, a := range start.Attr {
		switch {
		case isSyntaxAttr(a.Name):
		case isRDFName(a.Name, "type"):
			d.emitIRI(subj, rdfNS+"type", resolveIRI(scope.base, a.Value))
		default:
			d.emitLiteral(subj, nameIRI(a.Name), a.Value, scope.lang, "")
		}
	}
	return subj, d.propertyElements(subj, scope)
}

func (d *rdfxmlDecoder) subjectOf(start xml.StartElement, scope xmlScope) rdf.Subject {
	if about, ok := rdfAttr(start, "about"); ok {
		if iri, ok := newIRI(resolveIRI(scope.base, about)); ok {
			return iri
		}
	}
	if id, ok := rdfAttr(start, "ID"); ok {
		if iri, ok := newIRI(resolveIRI(scope.base, "#"+id)); ok {
			return iri
		}
	}
	if nodeID, ok := rdfAttr(start, "nodeID"); ok {
		return d.namedBlank(nodeID)
	}
	return d.newBlank()
}

// propertyElements reads the property elements of subj until its node element closes
func (d *rdfxmlDecoder) propertyElements(subj rdf.Subject, scope xmlScope) error {
	li := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return errors.Wrap(err, "read RDF/XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			pred := nameIRI(t.Name)
			if isRDFName(t.Name, "li") {
				li++
				pred = rdfNS + "_" + strconv.Itoa(li)
			}
			if err := d.propertyElement(subj, pred, t, scope.enter(t)); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (d *rdfxmlDecoder) propertyElement(subj rdf.Subject, pred string, start xml.StartElement, scope xmlScope) error {
	parseType, _ := rdfAttr(start, "parseType")
	switch parseType {
	case "":
	case "Resource":
		obj := d.newBlank()
		d.emit(subj, pred, obj)
		return d.propertyElements(obj, scope)
	case "Collection":
		return d.collection(subj, pred, scope)
	default:
		text, err := d.innerText()
		if err != nil {
			return err
		}
		d.emitLiteral(subj, pred, text, "", rdfNS+"XMLLiteral")
		return nil
	}

	var (
		text   strings.Builder
		nested rdf.Subject
	)
	for done := false; !done; {
		tok, err := d.dec.Token()
		if err != nil {
			return errors.Wrap(err, "read RDF/XML")
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			node, err := d.nodeElement(t, scope.enter(t))
			if err != nil {
				return err
			}
			nested = node
		case xml.EndElement:
			done = true
		}
	}

	if nested != nil {
		d.emit(subj, pred, nested)
		return nil
	}

	var obj rdf.Subject
	if resource, ok := rdfAttr(start, "resource"); ok {
		iri, valid := newIRI(resolveIRI(scope.base, resource))
		if !valid {
			return nil
		}
		obj = iri
	} else if nodeID, ok := rdfAttr(start, "nodeID"); ok {
		obj = d.namedBlank(nodeID)
	}

	var props []xml.Attr
	for _, a := range start.Attr {
		if !isSyntaxAttr(a.Name) && !isRDFName(a.Name, "datatype") {
			props = append(props, a)
		}
	}
	if obj == nil && len(props) == 0 {
		datatype, _ := rdfAttr(start, "datatype")
		if datatype != "" {
			datatype = resolveIRI(scope.base, datatype)
		}
		d.emitLiteral(subj, pred, text.String(), scope.lang, datatype)
		return nil
	}

	if obj == nil {
		obj = d.newBlank()
	}
	d.emit(subj, pred, obj)
	for _, a := range props {
		if isRDFName(a.Name, "type") {
			d.emitIRI(obj, rdfNS+"type", resolveIRI(scope.base, a.Value))
			continue
		}
		d.emitLiteral(obj, nameIRI(a.Name), a.Value, scope.lang, "")
	}
	return nil
}

// collection turns rdf:parseType="Collection" into an rdf:first/rdf:rest list
func (d *rdfxmlDecoder) collection(subj rdf.Subject, pred string, scope xmlScope) error {
	var items []rdf.Subject
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return errors.Wrap(err, "read RDF/XML")
		}
		if t, ok := tok.(xml.StartElement); ok {
			item, err := d.nodeElement(t, scope.enter(t))
			if err != nil {
				return err
			}
			items = append(items, item)
			continue
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
	}

	if len(items) == 0 {
		d.emitIRI(subj, pred, rdfNS+"nil")
		return nil
	}
	head := d.newBlank()
	d.emit(subj, pred, head)
	for i, item := range items {
		d.emit(head, rdfNS+"first", item)
		if i == len(items)-1 {
			d.emitIRI(head, rdfNS+"rest", rdfNS+"nil")
			break
		}
		next := d.newBlank()
		d.emit(head, rdfNS+"rest", next)
		head = next
	}
	return nil
}

// innerText returns the character data up to the end of the current element
func (d *rdfxmlDecoder) innerText() (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return "", errors.Wrap(err, "read RDF/XML")
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return b.String(), nil
			}
			depth--
		}
	}
}

func (d *rdfxmlDecoder) newBlank() rdf.Blank {
	d.blanks++
	b, _ := rdf.NewBlank("b" + strconv.Itoa(d.blanks))
	return b
}

func (d *rdfxmlDecoder) namedBlank(nodeID string) rdf.Blank {
	b, err := rdf.NewBlank("n" + nodeID)
	if err != nil {
		return d.newBlank()
	}
	return b
}

// emit takes any term since nested node subjects are also objects
func (d *rdfxmlDecoder) emit(subj rdf.Subject, pred string, obj rdf.Term) {
	o, isObject := obj.(rdf.Object)
	p, ok := newIRI(pred)
	if !ok || !isObject {
		return
	}
	d.triples = append(d.triples, rdf.Triple{Subj: subj, Pred: p, Obj: o})
}

func (d *rdfxmlDecoder) emitIRI(subj rdf.Subject, pred, obj string) {
	if iri, ok := newIRI(obj); ok {
		d.emit(subj, pred, iri)
	}
}

func (d *rdfxmlDecoder) emitLiteral(subj rdf.Subject, pred, text, lang, datatype string) {
	var lit rdf.Literal
	switch {
	case datatype != "":
		dt, ok := newIRI(datatype)
		if !ok {
			return
		}
		lit = rdf.NewTypedLiteral(text, dt)
	case lang != "":
		tagged, err := rdf.NewLangLiteral(text, lang)
		if err != nil {
			tagged, _ = rdf.NewLiteral(text)
		}
		lit = tagged
	default:
		lit, _ = rdf.NewLiteral(text)
	}
	d.emit(subj, pred, lit)
}

// newIRI drops IRIs knakk/rdf rejects instead of failing the whole document
func newIRI(s string) (rdf.IRI, bool) {
	iri, err := rdf.NewIRI(s)
	return iri, err == nil
}

func nameIRI(n xml.Name) string {
	return n.Space + n.Local
}

func isRDFName(n xml.Name, local string) bool {
	return n.Space == rdfNS && n.Local == local
}

func rdfAttr(start xml.StartElement, local string) (string, bool) {
	for _, a := range start.Attr {
		if isRDFName(a.Name, local) {
			return a.Value, true
		}
	}
	return "", false
}

// isSyntaxAttr reports attributes that never become property triples
func isSyntaxAttr(n xml.Name) bool {
	if n.Space == "" || n.Space == "xmlns" || n.Space == xmlNS {
		return true
	}
	if n.Space != rdfNS {
		return false
	}
	switch n.Local {
	case "about", "ID", "nodeID", "resource", "parseType", "bagID", "aboutEach", "aboutEachPrefix":
		return true
	}
	return false
}

func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.Scheme != "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
