package graphs

import (
	"context"

	"github.com/Cloutiere/mermaid/internal/database"
	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// RepoSyncStore is the SyncStore backed by the graph repository. Each
// transaction holds the graph's advisory lock until it ends.
type RepoSyncStore struct {
	repo *Repository
}

// NewSyncStore creates a SyncStore over repo
func NewSyncStore(repo *Repository) *RepoSyncStore {
	return &RepoSyncStore{repo: repo}
}

// BeginSync implements SyncStore
func (s *RepoSyncStore) BeginSync(ctx context.Context, graphID int64) (SyncTx, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	repo := s.repo.WithTx(tx.Tx)

	if err := repo.LockGraph(ctx, graphID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	graph, err := repo.GetGraph(ctx, graphID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if graph == nil {
		_ = tx.Rollback()
		return nil, apperror.ErrGraphNotFound
	}

	return &repoSyncTx{tx: tx, repo: repo, graph: graph}, nil
}

// BeginImport implements SyncStore
func (s *RepoSyncStore) BeginImport(ctx context.Context, graph *Graph) (SyncTx, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	repo := s.repo.WithTx(tx.Tx)

	if err := repo.InsertGraph(ctx, graph); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := repo.LockGraph(ctx, graph.ID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	return &repoSyncTx{tx: tx, repo: repo, graph: graph}, nil
}

type repoSyncTx struct {
	tx    *database.SafeTx
	repo  *Repository
	graph *Graph
}

func (t *repoSyncTx) Graph() *Graph { return t.graph }

func (t *repoSyncTx) ListNodes(ctx context.Context) ([]Node, error) {
	return t.repo.ListNodes(ctx, t.graph.ID)
}

func (t *repoSyncTx) ListEdges(ctx context.Context) ([]Edge, error) {
	return t.repo.ListEdges(ctx, t.graph.ID)
}

func (t *repoSyncTx) ListSubgraphs(ctx context.Context) ([]Subgraph, error) {
	return t.repo.ListSubgraphs(ctx, t.graph.ID)
}

func (t *repoSyncTx) DeleteEdges(ctx context.Context) error {
	return t.repo.DeleteGraphEdges(ctx, t.graph.ID)
}

func (t *repoSyncTx) DeleteStyleDefs(ctx context.Context) error {
	return t.repo.DeleteGraphStyles(ctx, t.graph.ID)
}

func (t *repoSyncTx) DeleteNodes(ctx context.Context, ids []int64) error {
	_, err := t.repo.DeleteNodes(ctx, t.graph.ID, ids)
	return err
}

func (t *repoSyncTx) InsertStyleDef(ctx context.Context, style *StyleDef) error {
	return t.repo.InsertStyle(ctx, style)
}

func (t *repoSyncTx) UpsertNode(ctx context.Context, node *Node) error {
	if node.ID == 0 {
		return t.repo.InsertNode(ctx, node)
	}
	return t.repo.UpdateNode(ctx, node)
}

func (t *repoSyncTx) InsertEdge(ctx context.Context, edge *Edge) error {
	return t.repo.InsertEdge(ctx, edge)
}

func (t *repoSyncTx) ClearMembership(ctx context.Context) error {
	return t.repo.ClearMembership(ctx, t.graph.ID)
}

func (t *repoSyncTx) AssignMembership(ctx context.Context, subgraphID int64, nodeIDs []int64) error {
	return t.repo.AssignNodes(ctx, t.graph.ID, subgraphID, nodeIDs)
}

func (t *repoSyncTx) UpdateSubgraph(ctx context.Context, subgraph *Subgraph) error {
	return t.repo.UpdateSubgraph(ctx, subgraph)
}

func (t *repoSyncTx) UpdateGraph(ctx context.Context) error {
	return t.repo.UpdateGraph(ctx, t.graph, "direction", "source")
}

func (t *repoSyncTx) Commit() error   { return t.tx.Commit() }
func (t *repoSyncTx) Rollback() error { return t.tx.Rollback() }
