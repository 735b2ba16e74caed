package diagram

// SnapshotOf builds a Snapshot straight from a parse result, numbering
// entities in first-seen order. Generate(SnapshotOf(r)) is the canonical
// formatting of the parsed source.
func SnapshotOf(r *ParseResult) *Snapshot {
	s := &Snapshot{Direction: r.Direction}

	for i, name := range r.StyleOrder {
		s.Styles = append(s.Styles, StyleSnapshot{
			ID:         int64(i + 1),
			Name:       name,
			Definition: r.Styles[name],
		})
	}

	owner := make(map[string]string)
	for i, sg := range r.Subgraphs {
		s.Subgraphs = append(s.Subgraphs, SubgraphSnapshot{
			ID:         int64(i + 1),
			SymbolicID: sg.SymbolicID,
			Title:      sg.Title,
			StyleRef:   sg.StyleRef,
		})
		for _, m := range sg.Members {
			owner[m] = sg.SymbolicID
		}
	}

	for i, n := range r.OrderedNodes() {
		s.Nodes = append(s.Nodes, NodeSnapshot{
			ID:         int64(i + 1),
			SymbolicID: n.SymbolicID,
			Title:      n.Title,
			StyleRef:   n.StyleRef,
			Subgraph:   owner[n.SymbolicID],
		})
	}

	for i, e := range r.Edges {
		s.Edges = append(s.Edges, EdgeSnapshot{
			ID:     int64(i + 1),
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Kind:   e.Kind,
		})
	}
	return s
}
