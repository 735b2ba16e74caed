package graphs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// ListStyles returns the style definitions of a graph in id order
func (s *Service) ListStyles(ctx context.Context, graphID int64) ([]StyleDef, error) {
	if _, err := s.GetGraph(ctx, graphID); err != nil {
		return nil, err
	}
	styles, err := s.repo.ListStyles(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if styles == nil {
		styles = []StyleDef{}
	}
	return styles, nil
}

// CreateStyle adds a named style to a graph
func (s *Service) CreateStyle(ctx context.Context, graphID int64, req CreateStyleRequest) (*StyleDef, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateIdentifier("name", name); err != nil {
		return nil, err
	}
	definition, err := normalizeDefinition(req.Definition)
	if err != nil {
		return nil, err
	}

	style := &StyleDef{GraphID: graphID, Name: name, Definition: definition}
	err = s.mutate(ctx, graphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		return repo.InsertStyle(ctx, style)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("style created",
		slog.Int64("styleID", style.ID),
		slog.Int64("graphID", graphID),
		slog.String("name", name))

	return style, nil
}

// UpdateStyle renames or redefines a style. Renaming carries every node
// and subgraph reference over to the new name.
func (s *Service) UpdateStyle(ctx context.Context, id int64, req UpdateStyleRequest) (*StyleDef, error) {
	current, err := s.getStyle(ctx, id)
	if err != nil {
		return nil, err
	}

	var style *StyleDef
	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		st, err := repo.GetStyle(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return apperror.ErrStyleNotFound
		}

		oldName := st.Name
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if err := validateIdentifier("name", name); err != nil {
				return err
			}
			st.Name = name
		}
		if req.Definition != nil {
			definition, err := normalizeDefinition(*req.Definition)
			if err != nil {
				return err
			}
			st.Definition = definition
		}

		if err := repo.UpdateStyle(ctx, st); err != nil {
			return err
		}
		if st.Name != oldName {
			if err := repo.RenameStyleRefs(ctx, graph.ID, oldName, &st.Name); err != nil {
				return err
			}
		}
		style = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return style, nil
}

// DeleteStyle removes a style and clears every reference to it
func (s *Service) DeleteStyle(ctx context.Context, id int64) error {
	current, err := s.getStyle(ctx, id)
	if err != nil {
		return err
	}

	err = s.mutate(ctx, current.GraphID, func(ctx context.Context, repo *Repository, graph *Graph) error {
		st, err := repo.GetStyle(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return apperror.ErrStyleNotFound
		}
		if err := repo.RenameStyleRefs(ctx, graph.ID, st.Name, nil); err != nil {
			return err
		}
		return repo.DeleteStyle(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("style deleted", slog.Int64("styleID", id), slog.String("name", current.Name))
	return nil
}

func (s *Service) getStyle(ctx context.Context, id int64) (*StyleDef, error) {
	style, err := s.repo.GetStyle(ctx, id)
	if err != nil {
		return nil, err
	}
	if style == nil {
		return nil, apperror.ErrStyleNotFound
	}
	return style, nil
}

func normalizeDefinition(definition string) (string, error) {
	d := strings.TrimSpace(definition)
	if d == "" || strings.ContainsAny(d, "\r\n") {
		return "", apperror.ErrValidation.WithMessage("Invalid style definition").WithDetails(map[string]any{
			"definition": []string{"must be a single non-blank line"},
		})
	}
	return d, nil
}
