package projects

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/logger"
)

const (
	// DefaultLimit is the default number of projects to return
	DefaultLimit = 100
	// MaxLimit is the maximum number of projects to return
	MaxLimit = 500
)

// store is the persistence the service needs; *Repository implements it.
type store interface {
	List(ctx context.Context, limit int) ([]Project, error)
	GetByID(ctx context.Context, id int64) (*Project, error)
	ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// Service handles business logic for projects
type Service struct {
	repo store
	log  *slog.Logger
}

// NewService creates a new project service
func NewService(repo *Repository, log *slog.Logger) *Service {
	return newService(repo, log)
}

func newService(repo store, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(logger.Scope("projects.svc")),
	}
}

// List returns projects, clamping limit to [1, MaxLimit]
func (s *Service) List(ctx context.Context, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	projects, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

// GetByID returns a project by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.ErrProjectNotFound
	}
	return project, nil
}

// Create creates a new project
func (s *Service) Create(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.ErrValidation.WithMessage("Title required").WithDetails(map[string]any{
			"title": []string{"must not be blank"},
		})
	}

	exists, err := s.repo.ExistsByTitle(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("A project with this title already exists")
	}

	project := &Project{Title: title}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.log.Info("project created",
		slog.Int64("projectID", project.ID),
		slog.String("title", project.Title))

	return project, nil
}

// Update renames a project
func (s *Service) Update(ctx context.Context, id int64, req UpdateProjectRequest) (*Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title == nil {
		return project, nil
	}

	title := strings.TrimSpace(*req.Title)
	if title == "" {
		return nil, apperror.ErrValidation.WithMessage("Title cannot be empty").WithDetails(map[string]any{
			"title": []string{"must not be blank"},
		})
	}
	if title == project.Title {
		return project, nil
	}

	exists, err := s.repo.ExistsByTitle(ctx, title, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("A project with this title already exists")
	}

	project.Title = title
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.log.Info("project updated",
		slog.Int64("projectID", project.ID),
		slog.String("title", project.Title))

	return project, nil
}

// Delete deletes a project and everything it owns
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrProjectNotFound
	}

	s.log.Info("project deleted", slog.Int64("projectID", id))
	return nil
}
