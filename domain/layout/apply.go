package layout

import "ontology-backend/domain/ontology"

// Partition splits nodes into those with stored coordinates and those without,
// keeping input order in both.
func Partition(nodes []ontology.Node) (positioned, unpositioned []ontology.Node) {
	for _, n := range nodes {
		if n.Position().IsOrigin() {
			unpositioned = append(unpositioned, n)
		} else {
			positioned = append(positioned, n)
		}
	}
	return positioned, unpositioned
}

// Apply lays out the unpositioned nodes, against every edge, and returns the
// positioned nodes unchanged followed by the newly placed ones. When every node
// already has coordinates the input is returned as is.
func Apply(nodes []ontology.Node, edges []ontology.Edge, opts Options) []ontology.Node {
	positioned, unpositioned := Partition(nodes)
	if len(unpositioned) == 0 {
		return nodes
	}

	placed := Layered(unpositioned, edges, opts)

	out := make([]ontology.Node, 0, len(nodes))
	out = append(out, positioned...)
	for _, n := range unpositioned {
		if p, ok := placed[n.ID]; ok {
			n.X, n.Y = p.X, p.Y
		}
		out = append(out, n)
	}
	return out
}
