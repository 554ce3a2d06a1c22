package ontology

// GraphNode is a term in a term graph
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GraphEdge links a term to one of its parents
type GraphEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// TermGraph is a term together with its ancestors present in a collection
type TermGraph struct {
	Root  string      `json:"root"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// RelationIsA labels subclass edges
const RelationIsA = "is_a"

// BuildGraph walks the parents of iri breadth-first. Parents missing from
// coll end the walk on that branch; cycles are visited once.
// Returns false when iri is not in coll.
func BuildGraph(coll *Collection, iri string) (*TermGraph, bool) {
	root, ok := coll.Get(iri)
	if !ok {
		return nil, false
	}

	g := &TermGraph{Root: iri}
	visited := map[string]bool{iri: true}
	queue := []*Term{root}
	g.Nodes = append(g.Nodes, GraphNode{ID: root.IRI, Label: root.Label()})

	for len(queue) > 0 {
		term := queue[0]
		queue = queue[1:]

		for _, parentIRI := range sortedKeys(term.Parents) {
			parent, present := coll.Get(parentIRI)
			if !present {
				continue
			}
			g.Edges = append(g.Edges, GraphEdge{From: term.IRI, To: parentIRI, Relation: RelationIsA})
			if visited[parentIRI] {
				continue
			}
			visited[parentIRI] = true
			g.Nodes = append(g.Nodes, GraphNode{ID: parent.IRI, Label: parent.Label()})
			queue = append(queue, parent)
		}
	}

	return g, true
}
