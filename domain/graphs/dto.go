package graphs

import sdkgraphs "github.com/Cloutiere/mermaid/pkg/sdk/graphs"

// CreateGraphRequest is the request body for creating a graph
type CreateGraphRequest struct {
	Title     string `json:"title"`
	Direction string `json:"direction,omitempty"`
}

// UpdateGraphRequest is the request body for updating a graph.
// Absent fields are left unchanged.
type UpdateGraphRequest struct {
	Title        *string        `json:"title,omitempty"`
	Direction    *string        `json:"direction,omitempty"`
	VisualLayout map[string]any `json:"visualLayout,omitempty"`
}

// DiagramRequest carries diagram code to synchronize into a graph
type DiagramRequest = sdkgraphs.DiagramRequest

// ImportRequest creates a new graph from diagram code
type ImportRequest struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

// GraphDetail is a graph with all of its entities, each in id order
type GraphDetail struct {
	*Graph
	Nodes     []Node     `json:"nodes"`
	Edges     []Edge     `json:"edges"`
	Styles    []StyleDef `json:"styles"`
	Subgraphs []Subgraph `json:"subgraphs"`
}

// CreateNodeRequest is the request body for creating a node.
// Title and content default to the symbolic id.
type CreateNodeRequest struct {
	SymbolicID string  `json:"symbolicId"`
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	StyleRef   *string `json:"styleRef,omitempty"`
	SubgraphID *int64  `json:"subgraphId,omitempty"`
}

// UpdateNodeRequest is the request body for updating a node.
// An empty StyleRef clears the style; a zero SubgraphID removes the node
// from its subgraph.
type UpdateNodeRequest struct {
	SymbolicID *string `json:"symbolicId,omitempty"`
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	StyleRef   *string `json:"styleRef,omitempty"`
	SubgraphID *int64  `json:"subgraphId,omitempty"`
}

// CreateEdgeRequest is the request body for creating an edge
type CreateEdgeRequest struct {
	SourceNodeID int64   `json:"sourceNodeId"`
	TargetNodeID int64   `json:"targetNodeId"`
	Label        *string `json:"label,omitempty"`
	Color        *string `json:"color,omitempty"`
	Kind         string  `json:"kind,omitempty"`
}

// UpdateEdgeRequest is the request body for updating an edge.
// Empty Label or Color strings clear the field.
type UpdateEdgeRequest struct {
	SourceNodeID *int64  `json:"sourceNodeId,omitempty"`
	TargetNodeID *int64  `json:"targetNodeId,omitempty"`
	Label        *string `json:"label,omitempty"`
	Color        *string `json:"color,omitempty"`
	Kind         *string `json:"kind,omitempty"`
}

// CreateStyleRequest is the request body for creating a style definition
type CreateStyleRequest struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// UpdateStyleRequest is the request body for updating a style definition
type UpdateStyleRequest struct {
	Name       *string `json:"name,omitempty"`
	Definition *string `json:"definition,omitempty"`
}

// CreateSubgraphRequest is the request body for creating a subgraph.
// A symbolic id is generated when none is given.
type CreateSubgraphRequest struct {
	SymbolicID string  `json:"symbolicId,omitempty"`
	Title      *string `json:"title,omitempty"`
	StyleRef   *string `json:"styleRef,omitempty"`
	NodeIDs    []int64 `json:"nodeIds,omitempty"`
}

// UpdateSubgraphRequest is the request body for updating a subgraph.
// Empty Title or StyleRef strings clear the field.
type UpdateSubgraphRequest struct {
	Title    *string `json:"title,omitempty"`
	StyleRef *string `json:"styleRef,omitempty"`
}

// MembershipRequest lists nodes to assign to or remove from a subgraph
type MembershipRequest struct {
	NodeIDs []int64 `json:"nodeIds"`
}

// SubgraphDetail is a subgraph together with its member nodes
type SubgraphDetail struct {
	*Subgraph
	Nodes []Node `json:"nodes"`
}
