package graphs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// maxSymbolAttempts bounds the search for an unused generated symbolic id.
const maxSymbolAttempts = 5

// ListSubgraphs returns the subgraphs of a graph in id order
func (s *Service) ListSubgraphs(ctx context.Context, graphID int64) ([]Subgraph, error) {
	if _, err := s.GetGraph(ctx, graphID); err != nil {
		return nil, err
	}
	subgraphs, err := s.repo.ListSubgraphs(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if subgraphs == nil {
		subgraphs = []Subgraph{}
	}
	return subgraphs, nil
}

// GetSubgraph returns a subgraph with its member nodes
func (s *Service) GetSubgraph(ctx context.Context, id int64) (*SubgraphDetail, error) {
	subgraph, err := s.getSubgraph(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes, err := s.repo.ListSubgraphNodes(ctx, id)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return &SubgraphDetail{Subgraph: subgraph, Nodes: nodes}, nil
}

// CreateSubgraph adds a subgraph to a graph, optionally with initial members
func (s *Service) CreateSubgraph(ctx context.Context, graphID int64, req CreateSubgraphRequest) (*Subgraph, error) {
	symbolicID := strings.TrimSpace(req.SymbolicID)
	if symbolicID != "" {
		if err := validateIdentifier("symbolicId", symbolicID); err != nil {
			return nil, err
		}
	}
	title, err := normalizeTitle("title", req.Title)
	if err != nil {
		return nil, err
	}

	subgraph := &Subgraph{GraphID: graphID, SymbolicID: symbolicID, Title: title}
	err = s.mutate(ctx, graphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		if subgraph.SymbolicID == "" {
			generated, err := generateSymbolicID(ctx, repo, graphID)
			if err != nil {
				return err
			}
			subgraph.SymbolicID = generated
		} else if err := ensureSubgraphSymbolFree(ctx, repo, graphID, subgraph.SymbolicID); err != nil {
			return err
		}

		ref, err := resolveStyleRef(ctx, repo, graphID, req.StyleRef)
		if err != nil {
			return err
		}
		subgraph.StyleRef = ref

		if len(req.NodeIDs) > 0 {
			if err := requireNodes(ctx, repo, graphID, req.NodeIDs); err != nil {
				return err
			}
		}
		if err := repo.InsertSubgraph(ctx, subgraph); err != nil {
			return err
		}
		return repo.AssignNodes(ctx, graphID, subgraph.ID, uniqueIDs(req.NodeIDs))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subgraph created",
		slog.Int64("subgraphID", subgraph.ID),
		slog.Int64("graphID", graphID),
		slog.String("symbolicID", subgraph.SymbolicID))

	return subgraph, nil
}

// UpdateSubgraph changes a subgraph's title or style
func (s *Service) UpdateSubgraph(ctx context.Context, id int64, req UpdateSubgraphRequest) (*Subgraph, error) {
	current, err := s.getSubgraph(ctx, id)
	if err != nil {
		return nil, err
	}

	var subgraph *Subgraph
	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		sg, err := repo.GetSubgraph(ctx, id)
		if err != nil {
			return err
		}
		if sg == nil {
			return apperror.ErrSubgraphNotFound
		}

		if req.Title != nil {
			title, err := normalizeTitle("title", req.Title)
			if err != nil {
				return err
			}
			sg.Title = title
		}
		if req.StyleRef != nil {
			ref, err := resolveStyleRef(ctx, repo, graph.ID, req.StyleRef)
			if err != nil {
				return err
			}
			sg.StyleRef = ref
		}

		subgraph = sg
		return repo.UpdateSubgraph(ctx, sg)
	})
	if err != nil {
		return nil, err
	}
	return subgraph, nil
}

// AssignNodes moves nodes of the subgraph's graph into the subgraph
func (s *Service) AssignNodes(ctx context.Context, id int64, req MembershipRequest) (*SubgraphDetail, error) {
	return s.changeMembership(ctx, id, req, func(ctx context.Context, repo *Repository, sg *Subgraph, ids []int64) error {
		return repo.AssignNodes(ctx, sg.GraphID, sg.ID, ids)
	})
}

// UnassignNodes removes nodes from the subgraph. Nodes that are not members
// are ignored.
func (s *Service) UnassignNodes(ctx context.Context, id int64, req MembershipRequest) (*SubgraphDetail, error) {
	return s.changeMembership(ctx, id, req, func(ctx context.Context, repo *Repository, sg *Subgraph, ids []int64) error {
		return repo.UnassignNodes(ctx, sg.ID, ids)
	})
}

type membershipChange func(ctx context.Context, repo *Repository, sg *Subgraph, ids []int64) error

func (s *Service) changeMembership(ctx context.Context, id int64, req MembershipRequest, change membershipChange) (*SubgraphDetail, error) {
	if len(req.NodeIDs) == 0 {
		return nil, apperror.ErrValidation.WithMessage("No nodes given").WithDetails(map[string]any{
			"nodeIds": []string{"must not be empty"},
		})
	}
	current, err := s.getSubgraph(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		sg, err := repo.GetSubgraph(ctx, id)
		if err != nil {
			return err
		}
		if sg == nil {
			return apperror.ErrSubgraphNotFound
		}
		if err := requireNodes(ctx, repo, graph.ID, req.NodeIDs); err != nil {
			return err
		}
		return change(ctx, repo, sg, uniqueIDs(req.NodeIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.GetSubgraph(ctx, id)
}

// DeleteSubgraph removes a subgraph; its members stay in the graph
func (s *Service) DeleteSubgraph(ctx context.Context, id int64) error {
	current, err := s.getSubgraph(ctx, id)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		return repo.DeleteSubgraph(ctx, current)
	})
	if err != nil {
		return err
	}

	s.log.Info("subgraph deleted", slog.Int64("subgraphID", id), slog.String("symbolicID", current.SymbolicID))
	return nil
}

func (s *Service) getSubgraph(ctx context.Context, id int64) (*Subgraph, error) {
	subgraph, err := s.repo.GetSubgraph(ctx, id)
	if err != nil {
		return nil, err
	}
	if subgraph == nil {
		return nil, apperror.ErrSubgraphNotFound
	}
	return subgraph, nil
}

// generateSymbolicID picks an id of the form cluster_G<graph>_<6 chars> that
// no subgraph or node of the graph uses.
func generateSymbolicID(ctx context.Context, repo *Repository, graphID int64) (string, error) {
	for range maxSymbolAttempts {
		candidate := fmt.Sprintf("cluster_G%d_%s", graphID, randomSuffix())
		exists, err := repo.SubgraphSymbolExists(ctx, graphID, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		exists, err = repo.NodeSymbolExists(ctx, graphID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperror.NewInternal("could not generate a unique subgraph id", nil)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
