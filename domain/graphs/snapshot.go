package graphs

import "github.com/Cloutiere/mermaid/pkg/diagram"

// Snapshot converts the loaded entities into generator input. Edges whose
// endpoints are not among the loaded nodes are left out.
func (d *GraphDetail) Snapshot() *diagram.Snapshot {
	s := &diagram.Snapshot{Direction: d.Direction}

	for _, st := range d.Styles {
		s.Styles = append(s.Styles, diagram.StyleSnapshot{
			ID:         st.ID,
			Name:       st.Name,
			Definition: st.Definition,
		})
	}

	subgraphSymbols := make(map[int64]string, len(d.Subgraphs))
	for _, sg := range d.Subgraphs {
		subgraphSymbols[sg.ID] = sg.SymbolicID
		s.Subgraphs = append(s.Subgraphs, diagram.SubgraphSnapshot{
			ID:         sg.ID,
			SymbolicID: sg.SymbolicID,
			Title:      sg.Title,
			StyleRef:   sg.StyleRef,
		})
	}

	nodeSymbols := make(map[int64]string, len(d.Nodes))
	for _, n := range d.Nodes {
		nodeSymbols[n.ID] = n.SymbolicID
		ns := diagram.NodeSnapshot{
			ID:         n.ID,
			SymbolicID: n.SymbolicID,
			Title:      n.Title,
			StyleRef:   n.StyleRef,
		}
		if n.SubgraphID != nil {
			ns.Subgraph = subgraphSymbols[*n.SubgraphID]
		}
		s.Nodes = append(s.Nodes, ns)
	}

	for _, e := range d.Edges {
		src, okSrc := nodeSymbols[e.SourceNodeID]
		dst, okDst := nodeSymbols[e.TargetNodeID]
		if !okSrc || !okDst {
			continue
		}
		s.Edges = append(s.Edges, diagram.EdgeSnapshot{
			ID:     e.ID,
			Source: src,
			Target: dst,
			Label:  e.Label,
			Kind:   e.Kind,
		})
	}

	return s
}
