package graphs

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/Cloutiere/mermaid/pkg/diagram"
)

// Graph is one narrative graph of a project together with its diagram code.
type Graph struct {
	bun.BaseModel `bun:"table:narrative.graphs,alias:g"`

	ID           int64          `bun:"id,pk,autoincrement" json:"id"`
	ProjectID    int64          `bun:"project_id,notnull" json:"projectId"`
	Title        string         `bun:"title,notnull" json:"title"`
	Direction    string         `bun:"direction,notnull" json:"direction"`
	Source       string         `bun:"source,nullzero" json:"source"`
	VisualLayout map[string]any `bun:"visual_layout,type:jsonb,nullzero" json:"visualLayout,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt    time.Time      `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// Node is a story element. SymbolicID is its identifier in diagram code.
type Node struct {
	bun.BaseModel `bun:"table:narrative.nodes,alias:n"`

	ID         int64   `bun:"id,pk,autoincrement" json:"id"`
	GraphID    int64   `bun:"graph_id,notnull" json:"graphId"`
	SubgraphID *int64  `bun:"subgraph_id" json:"subgraphId"`
	SymbolicID string  `bun:"symbolic_id,notnull" json:"symbolicId"`
	Title      *string `bun:"title" json:"title"`
	Content    string  `bun:"content,notnull" json:"content"`
	StyleRef   *string `bun:"style_ref" json:"styleRef"`
}

// Edge is a directed link between two nodes of the same graph.
type Edge struct {
	bun.BaseModel `bun:"table:narrative.edges,alias:e"`

	ID           int64            `bun:"id,pk,autoincrement" json:"id"`
	GraphID      int64            `bun:"graph_id,notnull" json:"graphId"`
	SourceNodeID int64            `bun:"source_node_id,notnull" json:"sourceNodeId"`
	TargetNodeID int64            `bun:"target_node_id,notnull" json:"targetNodeId"`
	Label        *string          `bun:"label" json:"label"`
	Color        *string          `bun:"color" json:"color"`
	Kind         diagram.LinkKind `bun:"kind,notnull" json:"kind"`
}

// StyleDef is a named style (classDef) of a graph.
type StyleDef struct {
	bun.BaseModel `bun:"table:narrative.style_defs,alias:sd"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	GraphID    int64  `bun:"graph_id,notnull" json:"graphId"`
	Name       string `bun:"name,notnull" json:"name"`
	Definition string `bun:"definition,notnull" json:"definition"`
}

// Subgraph is a named visual cluster. Nodes point at it through SubgraphID.
type Subgraph struct {
	bun.BaseModel `bun:"table:narrative.subgraphs,alias:sg"`

	ID         int64   `bun:"id,pk,autoincrement" json:"id"`
	GraphID    int64   `bun:"graph_id,notnull" json:"graphId"`
	SymbolicID string  `bun:"symbolic_id,notnull" json:"symbolicId"`
	Title      *string `bun:"title" json:"title"`
	StyleRef   *string `bun:"style_ref" json:"styleRef"`
}
