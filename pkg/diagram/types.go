// Package diagram converts between flowchart diagram code and structured
// graph data.
//
// Only the flowchart subset used by the narrative editor is understood:
// the direction line, classDef/class style lines, node declarations,
// flat subgraph blocks and edges. Parse and Generate are pure functions;
// persisting a parse result is the job of the graphs domain.
package diagram

import "strings"

// LinkKind is the kind of an edge, which selects its connector in diagram code.
type LinkKind string

const (
	// LinkVisible is rendered as a solid arrow (-->).
	LinkVisible LinkKind = "VISIBLE"
	// LinkInvisible is rendered as a plain segment (---).
	LinkInvisible LinkKind = "INVISIBLE"
)

// Connector returns the diagram connector for the link kind.
// Unknown kinds fall back to the plain segment.
func (k LinkKind) Connector() string {
	if k == LinkVisible {
		return "-->"
	}
	return "---"
}

// Valid reports whether k is one of the known link kinds.
func (k LinkKind) Valid() bool {
	return k == LinkVisible || k == LinkInvisible
}

// LinkKindFromConnector maps a connector found in diagram code to a LinkKind.
func LinkKindFromConnector(connector string) LinkKind {
	if strings.Contains(connector, "---") {
		return LinkInvisible
	}
	return LinkVisible
}

// Layout direction codes accepted by the diagram language.
const (
	DirectionTopDown   = "TD"
	DirectionTopBottom = "TB"
	DirectionBottomTop = "BT"
	DirectionLeftRight = "LR"
	DirectionRightLeft = "RL"
)

// DefaultDirection is used when a graph has no direction yet.
const DefaultDirection = DirectionTopDown

// Directions lists the layout direction codes in documentation order.
var Directions = []string{
	DirectionTopDown,
	DirectionTopBottom,
	DirectionBottomTop,
	DirectionLeftRight,
	DirectionRightLeft,
}

// NodeDef is a node as extracted from diagram code.
type NodeDef struct {
	SymbolicID string  `json:"symbolic_id" yaml:"symbolic_id"`
	Title      *string `json:"title,omitempty" yaml:"title,omitempty"`
	Content    string  `json:"content" yaml:"content"`
	StyleRef   *string `json:"style_ref,omitempty" yaml:"style_ref,omitempty"`
}

// NodeStub returns the placeholder registered for an id that is referenced
// (by an edge or a class line) before being declared.
func NodeStub(symbolicID string) NodeDef {
	return NodeDef{SymbolicID: symbolicID, Content: symbolicID}
}

// EdgeDef is an edge as extracted from diagram code.
type EdgeDef struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Label  *string  `json:"label,omitempty" yaml:"label,omitempty"`
	Kind   LinkKind `json:"kind" yaml:"kind"`
}

// SubgraphDef is a subgraph block as extracted from diagram code.
type SubgraphDef struct {
	SymbolicID string   `json:"symbolic_id" yaml:"symbolic_id"`
	Title      *string  `json:"title,omitempty" yaml:"title,omitempty"`
	StyleRef   *string  `json:"style_ref,omitempty" yaml:"style_ref,omitempty"`
	Members    []string `json:"members" yaml:"members"`
}

// ParseResult is the intermediate form produced by Parse.
//
// Maps are paired with order slices so that consumers iterating the result
// (the reconciler, the CLI) behave deterministically.
type ParseResult struct {
	Direction  string              `json:"direction" yaml:"direction"`
	Styles     map[string]string   `json:"styles" yaml:"styles"`
	StyleOrder []string            `json:"-" yaml:"-"`
	Nodes      map[string]*NodeDef `json:"nodes" yaml:"nodes"`
	NodeOrder  []string            `json:"-" yaml:"-"`
	Edges      []EdgeDef           `json:"edges" yaml:"edges"`
	Subgraphs  []*SubgraphDef      `json:"subgraphs" yaml:"subgraphs"`
}

// Node returns the parsed node with the given symbolic id, or nil.
func (r *ParseResult) Node(symbolicID string) *NodeDef {
	return r.Nodes[symbolicID]
}

// Subgraph returns the parsed subgraph with the given symbolic id, or nil.
func (r *ParseResult) Subgraph(symbolicID string) *SubgraphDef {
	for _, sg := range r.Subgraphs {
		if sg.SymbolicID == symbolicID {
			return sg
		}
	}
	return nil
}

// SubgraphMembers returns subgraph symbolic id -> ordered member ids.
func (r *ParseResult) SubgraphMembers() map[string][]string {
	members := make(map[string][]string, len(r.Subgraphs))
	for _, sg := range r.Subgraphs {
		ids := make([]string, len(sg.Members))
		copy(ids, sg.Members)
		members[sg.SymbolicID] = ids
	}
	return members
}

// OrderedNodes returns the parsed nodes in first-seen order.
func (r *ParseResult) OrderedNodes() []*NodeDef {
	nodes := make([]*NodeDef, 0, len(r.NodeOrder))
	for _, id := range r.NodeOrder {
		nodes = append(nodes, r.Nodes[id])
	}
	return nodes
}
