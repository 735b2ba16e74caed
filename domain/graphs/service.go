package graphs

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/diagram"
	"github.com/Cloutiere/mermaid/pkg/logger"
)

// Service handles business logic for graphs and their entities.
//
// Every mutation runs in a transaction that holds the graph lock and
// regenerates the graph's stored diagram code before committing.
type Service struct {
	repo *Repository
	sync *Synchronizer
	cfg  *config.Config
	log  *slog.Logger
}

// NewService creates a new graph service
func NewService(repo *Repository, sync *Synchronizer, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		sync: sync,
		cfg:  cfg,
		log:  log.With(logger.Scope("graphs.svc")),
	}
}

type mutation func(ctx context.Context, repo *Repository, graph *Graph) error

func (s *Service) mutate(ctx context.Context, graphID int64, fn mutation) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	repo := s.repo.WithTx(tx.Tx)
	if err := repo.LockGraph(ctx, graphID); err != nil {
		return err
	}
	graph, err := repo.GetGraph(ctx, graphID)
	if err != nil {
		return err
	}
	if graph == nil {
		return apperror.ErrGraphNotFound
	}

	if err := fn(ctx, repo, graph); err != nil {
		return err
	}
	if err := regenerate(ctx, repo, graph); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

func regenerate(ctx context.Context, repo *Repository, graph *Graph) error {
	detail, err := repo.LoadDetail(ctx, graph)
	if err != nil {
		return err
	}
	graph.Source = diagram.Generate(detail.Snapshot())
	return repo.UpdateGraph(ctx, graph, "source")
}

// ListGraphs returns the graphs of a project
func (s *Service) ListGraphs(ctx context.Context, projectID int64) ([]Graph, error) {
	exists, err := s.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.ErrProjectNotFound
	}

	graphs, err := s.repo.ListGraphs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if graphs == nil {
		graphs = []Graph{}
	}
	return graphs, nil
}

// GetGraph returns a graph by ID
func (s *Service) GetGraph(ctx context.Context, id int64) (*Graph, error) {
	graph, err := s.repo.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, apperror.ErrGraphNotFound
	}
	return graph, nil
}

// GetGraphDetail returns a graph with all of its entities
func (s *Service) GetGraphDetail(ctx context.Context, id int64) (*GraphDetail, error) {
	graph, err := s.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.LoadDetail(ctx, graph)
}

// CreateGraph creates an empty graph in a project
func (s *Service) CreateGraph(ctx context.Context, projectID int64, req CreateGraphRequest) (*Graph, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.ErrValidation.WithMessage("Title required").WithDetails(map[string]any{
			"title": []string{"must not be blank"},
		})
	}
	direction, err := normalizeDirection(req.Direction, s.cfg.Diagram.DefaultDirection)
	if err != nil {
		return nil, err
	}

	graph := &Graph{
		ProjectID: projectID,
		Title:     title,
		Direction: direction,
		Source:    diagram.Generate(&diagram.Snapshot{Direction: direction}),
	}
	if err := s.repo.InsertGraph(ctx, graph); err != nil {
		return nil, err
	}

	s.log.Info("graph created",
		slog.Int64("graphID", graph.ID),
		slog.Int64("projectID", projectID),
		slog.String("title", title))

	return graph, nil
}

// UpdateGraph changes a graph's title, direction or layout
func (s *Service) UpdateGraph(ctx context.Context, id int64, req UpdateGraphRequest) (*Graph, error) {
	var updated *Graph
	err := s.mutate(ctx, id, func(ctx context.Context, repo *Repository, graph *Graph) error {
		var columns []string
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return apperror.ErrValidation.WithMessage("Title cannot be empty").WithDetails(map[string]any{
					"title": []string{"must not be blank"},
				})
			}
			graph.Title = title
			columns = append(columns, "title")
		}
		if req.Direction != nil {
			direction, err := normalizeDirection(*req.Direction, "")
			if err != nil {
				return err
			}
			graph.Direction = direction
			columns = append(columns, "direction")
		}
		if req.VisualLayout != nil {
			graph.VisualLayout = req.VisualLayout
			columns = append(columns, "visual_layout")
		}
		updated = graph
		if len(columns) == 0 {
			return nil
		}
		return repo.UpdateGraph(ctx, graph, columns...)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteGraph deletes a graph and everything it owns
func (s *Service) DeleteGraph(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteGraph(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrGraphNotFound
	}

	s.log.Info("graph deleted", slog.Int64("graphID", id))
	return nil
}

// Export generates diagram code from the graph's current entities
func (s *Service) Export(ctx context.Context, id int64) (string, error) {
	detail, err := s.GetGraphDetail(ctx, id)
	if err != nil {
		return "", err
	}
	return diagram.Generate(detail.Snapshot()), nil
}

// Synchronize applies edited diagram code to a graph
func (s *Service) Synchronize(ctx context.Context, id int64, req DiagramRequest) (*SyncResult, error) {
	return s.sync.Synchronize(ctx, id, req.Code)
}

// Import creates a graph in a project from diagram code
func (s *Service) Import(ctx context.Context, projectID int64, req ImportRequest) (*SyncResult, error) {
	return s.sync.Import(ctx, projectID, req.Title, req.Code)
}

func normalizeDirection(direction, fallback string) (string, error) {
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction == "" {
		direction = fallback
	}
	if !slices.Contains(diagram.Directions, direction) {
		return "", apperror.ErrValidation.WithMessage("Unknown direction").WithDetails(map[string]any{
			"direction": diagram.Directions,
		})
	}
	return direction, nil
}

// normalizeTitle trims an optional title. Blank titles become nil; titles
// spanning several lines cannot be written as diagram code.
func normalizeTitle(field string, title *string) (*string, error) {
	if title == nil {
		return nil, nil
	}
	if strings.ContainsAny(*title, "\r\n") {
		return nil, apperror.ErrValidation.WithMessage("Value must be a single line").WithDetails(map[string]any{
			field: []string{"must not contain line breaks"},
		})
	}
	trimmed := strings.TrimSpace(*title)
	if trimmed == "" {
		return nil, nil
	}
	return &trimmed, nil
}

func validateIdentifier(field, value string) error {
	if !diagram.IsIdentifier(value) {
		return apperror.ErrValidation.WithMessage("Invalid identifier").WithDetails(map[string]any{
			field: []string{"must contain only letters, digits and underscores"},
		})
	}
	return nil
}

// symbolCollision is returned when a symbolic id is already taken by the
// other element kind. Nodes and subgraphs share one namespace in the diagram.
func symbolCollision(symbolicID, usedBy string) error {
	return apperror.ErrIntegrity.WithMessage("Symbolic id is already used by a " + usedBy).WithDetails(map[string]any{
		"symbolicId": symbolicID,
		"usedBy":     usedBy,
	})
}

// ensureNodeSymbolFree fails when a subgraph of the graph already uses symbolicID.
func ensureNodeSymbolFree(ctx context.Context, repo *Repository, graphID int64, symbolicID string) error {
	taken, err := repo.SubgraphSymbolExists(ctx, graphID, symbolicID)
	if err != nil {
		return err
	}
	if taken {
		return symbolCollision(symbolicID, "subgraph")
	}
	return nil
}

// ensureSubgraphSymbolFree fails when a node of the graph already uses symbolicID.
func ensureSubgraphSymbolFree(ctx context.Context, repo *Repository, graphID int64, symbolicID string) error {
	taken, err := repo.NodeSymbolExists(ctx, graphID, symbolicID)
	if err != nil {
		return err
	}
	if taken {
		return symbolCollision(symbolicID, "node")
	}
	return nil
}

// resolveStyleRef normalizes a style reference; a non-empty reference must
// name a style of the graph.
func resolveStyleRef(ctx context.Context, repo *Repository, graphID int64, ref *string) (*string, error) {
	if ref == nil {
		return nil, nil
	}
	name := strings.TrimSpace(*ref)
	if name == "" {
		return nil, nil
	}
	exists, err := repo.StyleExists(ctx, graphID, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.ErrValidation.WithMessage("Unknown style").WithDetails(map[string]any{
			"styleRef": []string{"style '" + name + "' is not defined in this graph"},
		})
	}
	return &name, nil
}

// requireNodes checks that every id is a node of the graph.
func requireNodes(ctx context.Context, repo *Repository, graphID int64, ids []int64) error {
	unique := uniqueIDs(ids)
	count, err := repo.CountNodes(ctx, graphID, unique)
	if err != nil {
		return err
	}
	if count != len(unique) {
		return apperror.ErrValidation.WithMessage("Nodes must belong to the graph").WithDetails(map[string]any{
			"nodeIds": unique,
		})
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
