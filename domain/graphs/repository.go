package graphs

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"github.com/Cloutiere/mermaid/internal/database"
	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/logger"
	"github.com/Cloutiere/mermaid/pkg/pgutils"
)

// Repository handles database operations for graphs and their entities
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new graph repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("graphs.repo")),
	}
}

// WithTx returns a repository whose queries run on tx.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{db: tx, log: r.log}
}

// BeginTx starts a new database transaction.
// Returns a SafeTx that's safe to call Rollback after Commit (important for savepoints).
func (r *Repository) BeginTx(ctx context.Context) (*database.SafeTx, error) {
	return database.BeginSafeTx(ctx, r.db)
}

// LockGraph takes a transaction-scoped advisory lock on a graph so that
// concurrent writers to the same graph are serialized.
func (r *Repository) LockGraph(ctx context.Context, graphID int64) error {
	lockKey := "graph|" + strconv.FormatInt(graphID, 10)
	_, err := r.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?)::bigint)", lockKey)
	if err != nil {
		return r.dbError("failed to lock graph", err, slog.Int64("graphID", graphID))
	}
	return nil
}

func (r *Repository) dbError(msg string, err error, attrs ...any) error {
	r.log.Error(msg, append([]any{logger.Error(err)}, attrs...)...)
	return apperror.ErrDatabase.WithInternal(err)
}

func (r *Repository) writeError(msg, conflict string, err error, attrs ...any) error {
	if pgutils.IsUniqueViolation(err) {
		return apperror.NewConflict(conflict).WithInternal(err)
	}
	return r.dbError(msg, err, attrs...)
}

// --- graphs ---

// ListGraphs returns the graphs of a project ordered by title
func (r *Repository) ListGraphs(ctx context.Context, projectID int64) ([]Graph, error) {
	var graphs []Graph
	err := r.db.NewSelect().
		Model(&graphs).
		Where("project_id = ?", projectID).
		Order("g.title ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list graphs", err, slog.Int64("projectID", projectID))
	}
	return graphs, nil
}

// GetGraph returns a graph by ID, or nil when it does not exist
func (r *Repository) GetGraph(ctx context.Context, id int64) (*Graph, error) {
	var graph Graph
	err := r.db.NewSelect().
		Model(&graph).
		Where("g.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("failed to get graph", err, slog.Int64("id", id))
	}
	return &graph, nil
}

// ProjectExists reports whether a project exists
func (r *Repository) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	exists, err := r.db.NewSelect().
		Table("narrative.projects").
		Where("id = ?", projectID).
		Exists(ctx)
	if err != nil {
		return false, r.dbError("failed to check project", err, slog.Int64("projectID", projectID))
	}
	return exists, nil
}

// InsertGraph inserts a graph
func (r *Repository) InsertGraph(ctx context.Context, graph *Graph) error {
	_, err := r.db.NewInsert().
		Model(graph).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return apperror.ErrProjectNotFound
		}
		return r.writeError("failed to create graph", "A graph with this title already exists in the project", err)
	}
	return nil
}

// UpdateGraph writes the given graph columns; updated_at is always set
func (r *Repository) UpdateGraph(ctx context.Context, graph *Graph, columns ...string) error {
	graph.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(graph).
		Column(append(columns, "updated_at")...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to update graph", "A graph with this title already exists in the project", err,
			slog.Int64("id", graph.ID))
	}
	return nil
}

// DeleteGraph removes a graph; its entities cascade
func (r *Repository) DeleteGraph(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.NewDelete().
		Model((*Graph)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, r.dbError("failed to delete graph", err, slog.Int64("id", id))
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// --- nodes ---

// ListNodes returns the nodes of a graph in id order
func (r *Repository) ListNodes(ctx context.Context, graphID int64) ([]Node, error) {
	var nodes []Node
	err := r.db.NewSelect().
		Model(&nodes).
		Where("graph_id = ?", graphID).
		Order("n.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list nodes", err, slog.Int64("graphID", graphID))
	}
	return nodes, nil
}

// ListSubgraphNodes returns the members of a subgraph in id order
func (r *Repository) ListSubgraphNodes(ctx context.Context, subgraphID int64) ([]Node, error) {
	var nodes []Node
	err := r.db.NewSelect().
		Model(&nodes).
		Where("subgraph_id = ?", subgraphID).
		Order("n.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list subgraph nodes", err, slog.Int64("subgraphID", subgraphID))
	}
	return nodes, nil
}

// GetNode returns a node by ID, or nil when it does not exist
func (r *Repository) GetNode(ctx context.Context, id int64) (*Node, error) {
	var node Node
	err := r.db.NewSelect().
		Model(&node).
		Where("n.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("failed to get node", err, slog.Int64("id", id))
	}
	return &node, nil
}

// CountNodes returns how many of ids are nodes of the graph
func (r *Repository) CountNodes(ctx context.Context, graphID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := r.db.NewSelect().
		Model((*Node)(nil)).
		Where("graph_id = ?", graphID).
		Where("id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return 0, r.dbError("failed to count nodes", err, slog.Int64("graphID", graphID))
	}
	return count, nil
}

// NodeSymbolExists reports whether the graph has a node with the given
// symbolic id
func (r *Repository) NodeSymbolExists(ctx context.Context, graphID int64, symbolicID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Node)(nil)).
		Where("graph_id = ?", graphID).
		Where("symbolic_id = ?", symbolicID).
		Exists(ctx)
	if err != nil {
		return false, r.dbError("failed to check node", err, slog.Int64("graphID", graphID))
	}
	return exists, nil
}

// InsertNode inserts a node
func (r *Repository) InsertNode(ctx context.Context, node *Node) error {
	_, err := r.db.NewInsert().
		Model(node).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to create node", "A node with this symbolic id already exists in the graph", err,
			slog.String("symbolicID", node.SymbolicID))
	}
	return nil
}

// UpdateNode writes every mutable node column
func (r *Repository) UpdateNode(ctx context.Context, node *Node) error {
	_, err := r.db.NewUpdate().
		Model(node).
		Column("symbolic_id", "title", "content", "style_ref", "subgraph_id").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to update node", "A node with this symbolic id already exists in the graph", err,
			slog.Int64("id", node.ID))
	}
	return nil
}

// DeleteNodes removes nodes of a graph; their edges cascade
func (r *Repository) DeleteNodes(ctx context.Context, graphID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.NewDelete().
		Model((*Node)(nil)).
		Where("graph_id = ?", graphID).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, r.dbError("failed to delete nodes", err, slog.Int64("graphID", graphID))
	}
	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

// --- edges ---

// ListEdges returns the edges of a graph in id order
func (r *Repository) ListEdges(ctx context.Context, graphID int64) ([]Edge, error) {
	var edges []Edge
	err := r.db.NewSelect().
		Model(&edges).
		Where("graph_id = ?", graphID).
		Order("e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list edges", err, slog.Int64("graphID", graphID))
	}
	return edges, nil
}

// GetEdge returns an edge by ID, or nil when it does not exist
func (r *Repository) GetEdge(ctx context.Context, id int64) (*Edge, error) {
	var edge Edge
	err := r.db.NewSelect().
		Model(&edge).
		Where("e.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("failed to get edge", err, slog.Int64("id", id))
	}
	return &edge, nil
}

// InsertEdge inserts an edge
func (r *Repository) InsertEdge(ctx context.Context, edge *Edge) error {
	_, err := r.db.NewInsert().
		Model(edge).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return apperror.ErrValidation.WithMessage("Edge endpoints must be nodes of the same graph").WithInternal(err)
		}
		return r.dbError("failed to create edge", err)
	}
	return nil
}

// UpdateEdge writes every mutable edge column
func (r *Repository) UpdateEdge(ctx context.Context, edge *Edge) error {
	_, err := r.db.NewUpdate().
		Model(edge).
		Column("source_node_id", "target_node_id", "label", "color", "kind").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to update edge", err, slog.Int64("id", edge.ID))
	}
	return nil
}

// DeleteEdge removes an edge
func (r *Repository) DeleteEdge(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.NewDelete().
		Model((*Edge)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, r.dbError("failed to delete edge", err, slog.Int64("id", id))
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// DeleteGraphEdges removes every edge of a graph
func (r *Repository) DeleteGraphEdges(ctx context.Context, graphID int64) error {
	_, err := r.db.NewDelete().
		Model((*Edge)(nil)).
		Where("graph_id = ?", graphID).
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to delete edges", err, slog.Int64("graphID", graphID))
	}
	return nil
}

// --- style definitions ---

// ListStyles returns the style definitions of a graph in id order
func (r *Repository) ListStyles(ctx context.Context, graphID int64) ([]StyleDef, error) {
	var styles []StyleDef
	err := r.db.NewSelect().
		Model(&styles).
		Where("graph_id = ?", graphID).
		Order("sd.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list style definitions", err, slog.Int64("graphID", graphID))
	}
	return styles, nil
}

// GetStyle returns a style definition by ID, or nil when it does not exist
func (r *Repository) GetStyle(ctx context.Context, id int64) (*StyleDef, error) {
	var style StyleDef
	err := r.db.NewSelect().
		Model(&style).
		Where("sd.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("failed to get style definition", err, slog.Int64("id", id))
	}
	return &style, nil
}

// StyleExists reports whether the graph defines a style with the given name
func (r *Repository) StyleExists(ctx context.Context, graphID int64, name string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*StyleDef)(nil)).
		Where("graph_id = ?", graphID).
		Where("name = ?", name).
		Exists(ctx)
	if err != nil {
		return false, r.dbError("failed to check style definition", err, slog.Int64("graphID", graphID))
	}
	return exists, nil
}

// InsertStyle inserts a style definition
func (r *Repository) InsertStyle(ctx context.Context, style *StyleDef) error {
	_, err := r.db.NewInsert().
		Model(style).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to create style definition", "A style with this name already exists in the graph", err,
			slog.String("name", style.Name))
	}
	return nil
}

// UpdateStyle writes the style name and definition
func (r *Repository) UpdateStyle(ctx context.Context, style *StyleDef) error {
	_, err := r.db.NewUpdate().
		Model(style).
		Column("name", "definition").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to update style definition", "A style with this name already exists in the graph", err,
			slog.Int64("id", style.ID))
	}
	return nil
}

// DeleteStyle removes a style definition
func (r *Repository) DeleteStyle(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*StyleDef)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to delete style definition", err, slog.Int64("id", id))
	}
	return nil
}

// DeleteGraphStyles removes every style definition of a graph
func (r *Repository) DeleteGraphStyles(ctx context.Context, graphID int64) error {
	_, err := r.db.NewDelete().
		Model((*StyleDef)(nil)).
		Where("graph_id = ?", graphID).
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to delete style definitions", err, slog.Int64("graphID", graphID))
	}
	return nil
}

// RenameStyleRefs points node and subgraph style references from one style
// name to another. A nil name clears the references.
func (r *Repository) RenameStyleRefs(ctx context.Context, graphID int64, from string, to *string) error {
	for _, model := range []any{(*Node)(nil), (*Subgraph)(nil)} {
		_, err := styleRefUpdate(r.db, model, graphID, from, to).Exec(ctx)
		if err != nil {
			return r.dbError("failed to update style references", err,
				slog.Int64("graphID", graphID), slog.String("style", from))
		}
	}
	return nil
}

func styleRefUpdate(db bun.IDB, model any, graphID int64, from string, to *string) *bun.UpdateQuery {
	return db.NewUpdate().
		Model(model).
		Set("style_ref = ?", to).
		Where("graph_id = ?", graphID).
		Where("style_ref = ?", from)
}

// --- subgraphs ---

// ListSubgraphs returns the subgraphs of a graph in id order
func (r *Repository) ListSubgraphs(ctx context.Context, graphID int64) ([]Subgraph, error) {
	var subgraphs []Subgraph
	err := r.db.NewSelect().
		Model(&subgraphs).
		Where("graph_id = ?", graphID).
		Order("sg.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.dbError("failed to list subgraphs", err, slog.Int64("graphID", graphID))
	}
	return subgraphs, nil
}

// GetSubgraph returns a subgraph by ID, or nil when it does not exist
func (r *Repository) GetSubgraph(ctx context.Context, id int64) (*Subgraph, error) {
	var subgraph Subgraph
	err := r.db.NewSelect().
		Model(&subgraph).
		Where("sg.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.dbError("failed to get subgraph", err, slog.Int64("id", id))
	}
	return &subgraph, nil
}

// SubgraphSymbolExists reports whether the graph has a subgraph with the
// given symbolic id
func (r *Repository) SubgraphSymbolExists(ctx context.Context, graphID int64, symbolicID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Subgraph)(nil)).
		Where("graph_id = ?", graphID).
		Where("symbolic_id = ?", symbolicID).
		Exists(ctx)
	if err != nil {
		return false, r.dbError("failed to check subgraph", err, slog.Int64("graphID", graphID))
	}
	return exists, nil
}

// InsertSubgraph inserts a subgraph
func (r *Repository) InsertSubgraph(ctx context.Context, subgraph *Subgraph) error {
	_, err := r.db.NewInsert().
		Model(subgraph).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return r.writeError("failed to create subgraph", "A subgraph with this symbolic id already exists in the graph", err,
			slog.String("symbolicID", subgraph.SymbolicID))
	}
	return nil
}

// UpdateSubgraph writes the subgraph title and style
func (r *Repository) UpdateSubgraph(ctx context.Context, subgraph *Subgraph) error {
	_, err := r.db.NewUpdate().
		Model(subgraph).
		Column("title", "style_ref").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to update subgraph", err, slog.Int64("id", subgraph.ID))
	}
	return nil
}

// DeleteSubgraph removes a subgraph after detaching its members
func (r *Repository) DeleteSubgraph(ctx context.Context, subgraph *Subgraph) error {
	if err := r.UnassignNodes(ctx, subgraph.ID, nil); err != nil {
		return err
	}
	_, err := r.db.NewDelete().
		Model((*Subgraph)(nil)).
		Where("id = ?", subgraph.ID).
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to delete subgraph", err, slog.Int64("id", subgraph.ID))
	}
	return nil
}

// AssignNodes moves nodes of the graph into a subgraph
func (r *Repository) AssignNodes(ctx context.Context, graphID, subgraphID int64, nodeIDs []int64) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	_, err := r.db.NewUpdate().
		Model((*Node)(nil)).
		Set("subgraph_id = ?", subgraphID).
		Where("graph_id = ?", graphID).
		Where("id IN (?)", bun.In(nodeIDs)).
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to assign nodes", err, slog.Int64("subgraphID", subgraphID))
	}
	return nil
}

// UnassignNodes removes nodes from a subgraph. With no ids every member is
// removed.
func (r *Repository) UnassignNodes(ctx context.Context, subgraphID int64, nodeIDs []int64) error {
	query := r.db.NewUpdate().
		Model((*Node)(nil)).
		Set("subgraph_id = NULL").
		Where("subgraph_id = ?", subgraphID)
	if len(nodeIDs) > 0 {
		query = query.Where("id IN (?)", bun.In(nodeIDs))
	}
	if _, err := query.Exec(ctx); err != nil {
		return r.dbError("failed to unassign nodes", err, slog.Int64("subgraphID", subgraphID))
	}
	return nil
}

// ClearMembership removes every node of the graph from its subgraph
func (r *Repository) ClearMembership(ctx context.Context, graphID int64) error {
	_, err := r.db.NewUpdate().
		Model((*Node)(nil)).
		Set("subgraph_id = NULL").
		Where("graph_id = ?", graphID).
		Where("subgraph_id IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return r.dbError("failed to clear subgraph membership", err, slog.Int64("graphID", graphID))
	}
	return nil
}

// LoadDetail loads a graph's entities, each in id order
func (r *Repository) LoadDetail(ctx context.Context, graph *Graph) (*GraphDetail, error) {
	detail := &GraphDetail{Graph: graph}
	var err error
	if detail.Nodes, err = r.ListNodes(ctx, graph.ID); err != nil {
		return nil, err
	}
	if detail.Edges, err = r.ListEdges(ctx, graph.ID); err != nil {
		return nil, err
	}
	if detail.Styles, err = r.ListStyles(ctx, graph.ID); err != nil {
		return nil, err
	}
	if detail.Subgraphs, err = r.ListSubgraphs(ctx, graph.ID); err != nil {
		return nil, err
	}
	return detail, nil
}
