package graphs

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memState is one committed version of the in-memory database.
type memState struct {
	graphs    map[int64]*Graph
	nodes     []Node
	edges     []Edge
	styles    []StyleDef
	subgraphs []Subgraph
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		graphs:    make(map[int64]*Graph, len(s.graphs)),
		nodes:     slices.Clone(s.nodes),
		edges:     slices.Clone(s.edges),
		styles:    slices.Clone(s.styles),
		subgraphs: slices.Clone(s.subgraphs),
		nextID:    s.nextID,
	}
	for id, g := range s.graphs {
		cp := *g
		c.graphs[id] = &cp
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// memStore is a SyncStore whose transactions work on a private copy that
// replaces the committed state on Commit.
type memStore struct {
	state   *memState
	begins  int
	failOn  string
	failErr error
}

func newMemStore() *memStore {
	return &memStore{state: &memState{graphs: make(map[int64]*Graph)}}
}

func (m *memStore) addGraph(g Graph) *Graph {
	if g.ID == 0 {
		g.ID = m.state.id()
	}
	m.state.graphs[g.ID] = &g
	return &g
}

func (m *memStore) addNode(n Node) Node {
	n.ID = m.state.id()
	m.state.nodes = append(m.state.nodes, n)
	return n
}

func (m *memStore) addEdge(e Edge) Edge {
	e.ID = m.state.id()
	m.state.edges = append(m.state.edges, e)
	return e
}

func (m *memStore) addStyle(s StyleDef) StyleDef {
	s.ID = m.state.id()
	m.state.styles = append(m.state.styles, s)
	return s
}

func (m *memStore) addSubgraph(s Subgraph) Subgraph {
	s.ID = m.state.id()
	m.state.subgraphs = append(m.state.subgraphs, s)
	return s
}

func (m *memStore) detail(graphID int64) *GraphDetail {
	g := *m.state.graphs[graphID]
	d := &GraphDetail{Graph: &g}
	for _, n := range m.state.nodes {
		if n.GraphID == graphID {
			d.Nodes = append(d.Nodes, n)
		}
	}
	for _, e := range m.state.edges {
		if e.GraphID == graphID {
			d.Edges = append(d.Edges, e)
		}
	}
	for _, s := range m.state.styles {
		if s.GraphID == graphID {
			d.Styles = append(d.Styles, s)
		}
	}
	for _, s := range m.state.subgraphs {
		if s.GraphID == graphID {
			d.Subgraphs = append(d.Subgraphs, s)
		}
	}
	return d
}

func (m *memStore) node(graphID int64, symbolicID string) *Node {
	for _, n := range m.state.nodes {
		if n.GraphID == graphID && n.SymbolicID == symbolicID {
			return &n
		}
	}
	return nil
}

func (m *memStore) BeginSync(_ context.Context, graphID int64) (SyncTx, error) {
	m.begins++
	work := m.state.clone()
	graph, ok := work.graphs[graphID]
	if !ok {
		return nil, apperror.ErrGraphNotFound
	}
	return &memTx{store: m, work: work, graph: graph}, nil
}

func (m *memStore) BeginImport(_ context.Context, graph *Graph) (SyncTx, error) {
	m.begins++
	work := m.state.clone()
	for _, g := range work.graphs {
		if g.ProjectID == graph.ProjectID && g.Title == graph.Title {
			return nil, apperror.NewConflict("A graph with this title already exists in the project")
		}
	}
	graph.ID = work.id()
	work.graphs[graph.ID] = graph
	return &memTx{store: m, work: work, graph: graph}, nil
}

type memTx struct {
	store *memStore
	work  *memState
	graph *Graph
	done  bool
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return t.store.failErr
	}
	return nil
}

func (t *memTx) Graph() *Graph { return t.graph }

func (t *memTx) ListNodes(context.Context) ([]Node, error) {
	var out []Node
	for _, n := range t.work.nodes {
		if n.GraphID == t.graph.ID {
			out = append(out, n)
		}
	}
	return out, t.fail("ListNodes")
}

func (t *memTx) ListEdges(context.Context) ([]Edge, error) {
	var out []Edge
	for _, e := range t.work.edges {
		if e.GraphID == t.graph.ID {
			out = append(out, e)
		}
	}
	return out, t.fail("ListEdges")
}

func (t *memTx) ListSubgraphs(context.Context) ([]Subgraph, error) {
	var out []Subgraph
	for _, s := range t.work.subgraphs {
		if s.GraphID == t.graph.ID {
			out = append(out, s)
		}
	}
	return out, t.fail("ListSubgraphs")
}

func (t *memTx) DeleteEdges(context.Context) error {
	if err := t.fail("DeleteEdges"); err != nil {
		return err
	}
	t.work.edges = slices.DeleteFunc(t.work.edges, func(e Edge) bool { return e.GraphID == t.graph.ID })
	return nil
}

func (t *memTx) DeleteStyleDefs(context.Context) error {
	if err := t.fail("DeleteStyleDefs"); err != nil {
		return err
	}
	t.work.styles = slices.DeleteFunc(t.work.styles, func(s StyleDef) bool { return s.GraphID == t.graph.ID })
	return nil
}

func (t *memTx) DeleteNodes(_ context.Context, ids []int64) error {
	if err := t.fail("DeleteNodes"); err != nil {
		return err
	}
	t.work.nodes = slices.DeleteFunc(t.work.nodes, func(n Node) bool { return slices.Contains(ids, n.ID) })
	t.work.edges = slices.DeleteFunc(t.work.edges, func(e Edge) bool {
		return slices.Contains(ids, e.SourceNodeID) || slices.Contains(ids, e.TargetNodeID)
	})
	return nil
}

func (t *memTx) InsertStyleDef(_ context.Context, style *StyleDef) error {
	if err := t.fail("InsertStyleDef"); err != nil {
		return err
	}
	for _, s := range t.work.styles {
		if s.GraphID == style.GraphID && s.Name == style.Name {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	style.ID = t.work.id()
	t.work.styles = append(t.work.styles, *style)
	return nil
}

func (t *memTx) UpsertNode(_ context.Context, node *Node) error {
	if err := t.fail("UpsertNode"); err != nil {
		return err
	}
	for _, n := range t.work.nodes {
		if n.GraphID == node.GraphID && n.SymbolicID == node.SymbolicID && n.ID != node.ID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if node.ID == 0 {
		node.ID = t.work.id()
		t.work.nodes = append(t.work.nodes, *node)
		return nil
	}
	for i := range t.work.nodes {
		if t.work.nodes[i].ID == node.ID {
			t.work.nodes[i] = *node
		}
	}
	return nil
}

func (t *memTx) InsertEdge(_ context.Context, edge *Edge) error {
	if err := t.fail("InsertEdge"); err != nil {
		return err
	}
	edge.ID = t.work.id()
	t.work.edges = append(t.work.edges, *edge)
	return nil
}

func (t *memTx) ClearMembership(context.Context) error {
	for i := range t.work.nodes {
		if t.work.nodes[i].GraphID == t.graph.ID {
			t.work.nodes[i].SubgraphID = nil
		}
	}
	return t.fail("ClearMembership")
}

func (t *memTx) AssignMembership(_ context.Context, subgraphID int64, nodeIDs []int64) error {
	for i := range t.work.nodes {
		if slices.Contains(nodeIDs, t.work.nodes[i].ID) {
			id := subgraphID
			t.work.nodes[i].SubgraphID = &id
		}
	}
	return t.fail("AssignMembership")
}

func (t *memTx) UpdateSubgraph(_ context.Context, subgraph *Subgraph) error {
	for i := range t.work.subgraphs {
		if t.work.subgraphs[i].ID == subgraph.ID {
			t.work.subgraphs[i] = *subgraph
		}
	}
	return t.fail("UpdateSubgraph")
}

func (t *memTx) UpdateGraph(context.Context) error {
	return t.fail("UpdateGraph")
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	if err := t.fail("Commit"); err != nil {
		return err
	}
	t.done = true
	t.store.state = t.work
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}
