package diagram

import "strings"

// Parse reads diagram code and returns its structured form.
//
// The first non-empty line must be a direction line ("graph TD"); an empty
// source or any other first line is a *ParseError. Body lines that no rule
// recognizes are skipped.
func Parse(source string) (*ParseResult, error) {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, &ParseError{Reason: "diagram source is empty"}
	}

	header := strings.TrimSpace(lines[first])
	direction, ok := MatchDirection(header)
	if !ok {
		return nil, &ParseError{
			Line:   first + 1,
			Text:   header,
			Reason: "first line must declare the graph direction, e.g. \"graph TD\"",
		}
	}

	b := newBuilder(direction)
	for _, raw := range lines[first+1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		b.apply(Classify(line))
	}
	return b.result, nil
}

// builder accumulates a ParseResult line by line.
type builder struct {
	result    *ParseResult
	subgraphs map[string]*SubgraphDef
	// active is the open subgraph scope; only one is tracked.
	active *SubgraphDef
}

func newBuilder(direction string) *builder {
	return &builder{
		result: &ParseResult{
			Direction: direction,
			Styles:    make(map[string]string),
			Nodes:     make(map[string]*NodeDef),
		},
		subgraphs: make(map[string]*SubgraphDef),
	}
}

func (b *builder) apply(l Line) {
	switch l.Kind {
	case LineStyleDef:
		if _, seen := b.result.Styles[l.ID]; !seen {
			b.result.StyleOrder = append(b.result.StyleOrder, l.ID)
		}
		b.result.Styles[l.ID] = l.Definition

	case LineSubgraphStart:
		sg, ok := b.subgraphs[l.ID]
		if !ok {
			sg = &SubgraphDef{SymbolicID: l.ID, Members: []string{}}
			b.subgraphs[l.ID] = sg
			b.result.Subgraphs = append(b.result.Subgraphs, sg)
		}
		if l.Title != nil {
			sg.Title = l.Title
		}
		b.active = sg

	case LineSubgraphEnd:
		b.active = nil

	case LineNode:
		b.declare(l.ID, l.Title)
		if b.active != nil {
			b.addMember(b.active, l.ID)
		}

	case LineClass:
		style := l.Style
		for _, id := range l.Targets {
			if n := b.result.Nodes[id]; n != nil {
				n.StyleRef = &style
				continue
			}
			if sg := b.subgraphs[id]; sg != nil {
				sg.StyleRef = &style
				continue
			}
			b.ensure(id).StyleRef = &style
		}

	case LineEdge:
		if l.HasSourceShape {
			b.declare(l.Edge.Source, l.SourceTitle)
		} else {
			b.ensure(l.Edge.Source)
		}
		if l.HasTargetShape {
			b.declare(l.Edge.Target, l.TargetTitle)
		} else {
			b.ensure(l.Edge.Target)
		}
		b.result.Edges = append(b.result.Edges, *l.Edge)
	}
}

// declare registers an explicit node declaration. A later declaration of the
// same id overwrites the title and content; the style is kept.
func (b *builder) declare(id string, title *string) {
	n := b.ensure(id)
	n.Title = title
	if title != nil {
		n.Content = *title
	} else {
		n.Content = id
	}
}

// ensure returns the node for id, registering a stub when it is unknown.
func (b *builder) ensure(id string) *NodeDef {
	if n, ok := b.result.Nodes[id]; ok {
		return n
	}
	stub := NodeStub(id)
	b.result.Nodes[id] = &stub
	b.result.NodeOrder = append(b.result.NodeOrder, id)
	return &stub
}

// addMember puts id in sg. A node belongs to one subgraph at most, so it is
// removed from any other subgraph first.
func (b *builder) addMember(sg *SubgraphDef, id string) {
	for _, other := range b.result.Subgraphs {
		if other == sg {
			continue
		}
		other.Members = removeString(other.Members, id)
	}
	for _, m := range sg.Members {
		if m == id {
			return
		}
	}
	sg.Members = append(sg.Members, id)
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
