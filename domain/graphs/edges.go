package graphs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/diagram"
)

// ListEdges returns the edges of a graph in id order
func (s *Service) ListEdges(ctx context.Context, graphID int64) ([]Edge, error) {
	if _, err := s.GetGraph(ctx, graphID); err != nil {
		return nil, err
	}
	edges, err := s.repo.ListEdges(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = []Edge{}
	}
	return edges, nil
}

// GetEdge returns an edge by ID
func (s *Service) GetEdge(ctx context.Context, id int64) (*Edge, error) {
	edge, err := s.repo.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apperror.ErrEdgeNotFound
	}
	return edge, nil
}

// CreateEdge links two nodes of a graph. Self-loops are allowed.
func (s *Service) CreateEdge(ctx context.Context, graphID int64, req CreateEdgeRequest) (*Edge, error) {
	kind, err := parseLinkKind(req.Kind)
	if err != nil {
		return nil, err
	}
	label, err := normalizeLabel(req.Label)
	if err != nil {
		return nil, err
	}

	edge := &Edge{
		GraphID:      graphID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Label:        label,
		Color:        normalizeColor(req.Color),
		Kind:         kind,
	}
	err = s.mutate(ctx, graphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		if err := requireNodes(ctx, repo, graphID, []int64{edge.SourceNodeID, edge.TargetNodeID}); err != nil {
			return err
		}
		return repo.InsertEdge(ctx, edge)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("edge created",
		slog.Int64("edgeID", edge.ID),
		slog.Int64("graphID", graphID),
		slog.Int64("source", edge.SourceNodeID),
		slog.Int64("target", edge.TargetNodeID))

	return edge, nil
}

// UpdateEdge changes the given edge fields
func (s *Service) UpdateEdge(ctx context.Context, id int64, req UpdateEdgeRequest) (*Edge, error) {
	current, err := s.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}

	var edge *Edge
	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		e, err := repo.GetEdge(ctx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return apperror.ErrEdgeNotFound
		}

		if req.SourceNodeID != nil {
			e.SourceNodeID = *req.SourceNodeID
		}
		if req.TargetNodeID != nil {
			e.TargetNodeID = *req.TargetNodeID
		}
		if req.Label != nil {
			label, err := normalizeLabel(req.Label)
			if err != nil {
				return err
			}
			e.Label = label
		}
		if req.Color != nil {
			e.Color = normalizeColor(req.Color)
		}
		if req.Kind != nil {
			kind, err := parseLinkKind(*req.Kind)
			if err != nil {
				return err
			}
			e.Kind = kind
		}

		if err := requireNodes(ctx, repo, graph.ID, []int64{e.SourceNodeID, e.TargetNodeID}); err != nil {
			return err
		}
		edge = e
		return repo.UpdateEdge(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// DeleteEdge removes an edge
func (s *Service) DeleteEdge(ctx context.Context, id int64) error {
	edge, err := s.GetEdge(ctx, id)
	if err != nil {
		return err
	}

	return s.mutate(ctx, edge.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		deleted, err := repo.DeleteEdge(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperror.ErrEdgeNotFound
		}
		return nil
	})
}

func parseLinkKind(kind string) (diagram.LinkKind, error) {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if kind == "" {
		return diagram.LinkVisible, nil
	}
	k := diagram.LinkKind(kind)
	if !k.Valid() {
		return "", apperror.ErrValidation.WithMessage("Unknown link kind").WithDetails(map[string]any{
			"kind": []diagram.LinkKind{diagram.LinkVisible, diagram.LinkInvisible},
		})
	}
	return k, nil
}

// normalizeLabel stores labels the way they are written to diagram code,
// so that a synchronization round trip leaves them unchanged.
func normalizeLabel(label *string) (*string, error) {
	l, err := normalizeTitle("label", label)
	if err != nil || l == nil {
		return nil, err
	}
	safe := diagram.SafeLabel(*l)
	return &safe, nil
}

func normalizeColor(color *string) *string {
	if color == nil {
		return nil
	}
	c := strings.TrimSpace(*color)
	if c == "" {
		return nil
	}
	return &c
}
