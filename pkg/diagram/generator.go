package diagram

import (
	"sort"
	"strings"
)

// Snapshot is everything Generate needs to render one graph.
type Snapshot struct {
	Direction string
	Styles    []StyleSnapshot
	Nodes     []NodeSnapshot
	Subgraphs []SubgraphSnapshot
	Edges     []EdgeSnapshot
}

type StyleSnapshot struct {
	ID         int64
	Name       string
	Definition string
}

type NodeSnapshot struct {
	ID         int64
	SymbolicID string
	Title      *string
	StyleRef   *string
	// Subgraph is the symbolic id of the owning subgraph, empty when none.
	Subgraph string
}

type SubgraphSnapshot struct {
	ID         int64
	SymbolicID string
	Title      *string
	StyleRef   *string
}

type EdgeSnapshot struct {
	ID     int64
	Source string
	Target string
	Label  *string
	Kind   LinkKind
}

// Generate renders canonical diagram code for a snapshot.
//
// Sections come in a fixed order (direction, style definitions, nodes and
// subgraphs, style applications, edges), separated by one blank line and
// left out when empty. Every collection is ordered by storage id, so the
// same snapshot always renders to the same bytes.
func Generate(s *Snapshot) string {
	direction := strings.ToUpper(strings.TrimSpace(s.Direction))
	if direction == "" {
		direction = DefaultDirection
	}

	styles := append([]StyleSnapshot(nil), s.Styles...)
	sort.SliceStable(styles, func(i, j int) bool { return styles[i].ID < styles[j].ID })
	nodes := append([]NodeSnapshot(nil), s.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	subgraphs := append([]SubgraphSnapshot(nil), s.Subgraphs...)
	sort.SliceStable(subgraphs, func(i, j int) bool { return subgraphs[i].ID < subgraphs[j].ID })
	edges := append([]EdgeSnapshot(nil), s.Edges...)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	sections := [][]string{{"graph " + direction}}

	var styleLines []string
	for _, st := range styles {
		styleLines = append(styleLines, "classDef "+st.Name+" "+st.Definition)
	}
	sections = append(sections, styleLines)

	known := make(map[string]bool, len(subgraphs))
	for _, sg := range subgraphs {
		known[sg.SymbolicID] = true
	}
	members := make(map[string][]NodeSnapshot, len(subgraphs))
	var body []string
	for _, n := range nodes {
		if n.Subgraph != "" && known[n.Subgraph] {
			members[n.Subgraph] = append(members[n.Subgraph], n)
			continue
		}
		body = append(body, nodeLine(n))
	}
	for _, sg := range subgraphs {
		header := "subgraph " + sg.SymbolicID
		if title := deref(sg.Title); title != "" {
			header += "[" + SafeTitle(title, sg.SymbolicID) + "]"
		}
		body = append(body, header)
		for _, n := range members[sg.SymbolicID] {
			body = append(body, nodeLine(n))
		}
		body = append(body, "end")
	}
	sections = append(sections, body)

	var classLines []string
	for _, n := range nodes {
		if style := deref(n.StyleRef); style != "" {
			classLines = append(classLines, "class "+n.SymbolicID+" "+style)
		}
	}
	for _, sg := range subgraphs {
		if style := deref(sg.StyleRef); style != "" {
			classLines = append(classLines, "class "+sg.SymbolicID+" "+style)
		}
	}
	sections = append(sections, classLines)

	var edgeLines []string
	for _, e := range edges {
		line := e.Source + e.Kind.Connector()
		if label := SafeLabel(deref(e.Label)); label != "" {
			line += "|" + label + "|"
		}
		edgeLines = append(edgeLines, line+e.Target)
	}
	sections = append(sections, edgeLines)

	var out []string
	for _, section := range sections {
		if len(section) > 0 {
			out = append(out, strings.Join(section, "\n"))
		}
	}
	return strings.Join(out, "\n\n")
}

// SafeTitle renders a title so that Parse reads it back unchanged.
// Double quotes become the quote entity; titles holding a space or a
// bracket are wrapped in quotes. An empty title renders as fallback.
//
// A title that already spells out an entity gets every '#' escaped too,
// otherwise decoding would turn the literal text into a quote.
func SafeTitle(title, fallback string) string {
	if title == "" {
		return fallback
	}
	safe := title
	if strings.Contains(title, quoteEntity) || strings.Contains(title, hashEntity) {
		safe = strings.ReplaceAll(safe, "#", hashEntity)
	}
	safe = strings.ReplaceAll(safe, `"`, quoteEntity)
	if strings.ContainsAny(title, " []{}") {
		return `"` + safe + `"`
	}
	return safe
}

// SafeLabel replaces the label delimiter inside an edge label.
func SafeLabel(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), "|", "/")
}

func nodeLine(n NodeSnapshot) string {
	return n.SymbolicID + "[" + SafeTitle(deref(n.Title), n.SymbolicID) + "]"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
