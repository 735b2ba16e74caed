package graphs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// ListNodes returns the nodes of a graph in id order
func (s *Service) ListNodes(ctx context.Context, graphID int64) ([]Node, error) {
	if _, err := s.GetGraph(ctx, graphID); err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListNodes(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return nodes, nil
}

// GetNode returns a node by ID
func (s *Service) GetNode(ctx context.Context, id int64) (*Node, error) {
	node, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apperror.ErrNodeNotFound
	}
	return node, nil
}

// CreateNode adds a node to a graph
func (s *Service) CreateNode(ctx context.Context, graphID int64, req CreateNodeRequest) (*Node, error) {
	symbolicID := strings.TrimSpace(req.SymbolicID)
	if err := validateIdentifier("symbolicId", symbolicID); err != nil {
		return nil, err
	}

	node := &Node{GraphID: graphID, SymbolicID: symbolicID}
	err := s.mutate(ctx, graphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		if err := ensureNodeSymbolFree(ctx, repo, graphID, symbolicID); err != nil {
			return err
		}
		if err := applyNodeFields(ctx, repo, node, req.Title, req.Content, req.StyleRef, req.SubgraphID); err != nil {
			return err
		}
		if node.Title == nil {
			node.Title = &symbolicID
		}
		if node.Content == "" {
			node.Content = symbolicID
		}
		return repo.InsertNode(ctx, node)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("node created",
		slog.Int64("nodeID", node.ID),
		slog.Int64("graphID", graphID),
		slog.String("symbolicID", symbolicID))

	return node, nil
}

// UpdateNode changes the given node fields
func (s *Service) UpdateNode(ctx context.Context, id int64, req UpdateNodeRequest) (*Node, error) {
	current, err := s.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	var node *Node
	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		n, err := repo.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return apperror.ErrNodeNotFound
		}

		if req.SymbolicID != nil {
			symbolicID := strings.TrimSpace(*req.SymbolicID)
			if err := validateIdentifier("symbolicId", symbolicID); err != nil {
				return err
			}
			if symbolicID != n.SymbolicID {
				if err := ensureNodeSymbolFree(ctx, repo, n.GraphID, symbolicID); err != nil {
					return err
				}
			}
			n.SymbolicID = symbolicID
		}
		if err := applyNodeFields(ctx, repo, n, req.Title, req.Content, req.StyleRef, req.SubgraphID); err != nil {
			return err
		}

		node = n
		return repo.UpdateNode(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// applyNodeFields copies the optional request fields onto node.
func applyNodeFields(ctx context.Context, repo *Repository, node *Node, title, content, styleRef *string, subgraphID *int64) error {
	if title != nil {
		t, err := normalizeTitle("title", title)
		if err != nil {
			return err
		}
		node.Title = t
	}
	if content != nil {
		node.Content = *content
	}
	if styleRef != nil {
		ref, err := resolveStyleRef(ctx, repo, node.GraphID, styleRef)
		if err != nil {
			return err
		}
		node.StyleRef = ref
	}
	if subgraphID != nil {
		if *subgraphID == 0 {
			node.SubgraphID = nil
			return nil
		}
		sg, err := repo.GetSubgraph(ctx, *subgraphID)
		if err != nil {
			return err
		}
		if sg == nil || sg.GraphID != node.GraphID {
			return apperror.ErrValidation.WithMessage("Subgraph must belong to the graph").WithDetails(map[string]any{
				"subgraphId": *subgraphID,
			})
		}
		node.SubgraphID = &sg.ID
	}
	return nil
}

// DeleteNode removes a node; its edges go with it
func (s *Service) DeleteNode(ctx context.Context, id int64) error {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, node.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		deleted, err := repo.DeleteNodes(ctx, graph.ID, []int64{id})
		if err != nil {
			return err
		}
		if deleted == 0 {
			return apperror.ErrNodeNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("node deleted", slog.Int64("nodeID", id), slog.Int64("graphID", node.GraphID))
	return nil
}
