package projects

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/Cloutiere/mermaid/pkg/apperror"
	"github.com/Cloutiere/mermaid/pkg/logger"
	"github.com/Cloutiere/mermaid/pkg/pgutils"
)

// Repository handles database operations for projects
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new project repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("projects.repo")),
	}
}

// List returns projects ordered by title
func (r *Repository) List(ctx context.Context, limit int) ([]Project, error) {
	var projects []Project

	query := r.db.NewSelect().
		Model(&projects).
		Order("p.title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(ctx); err != nil {
		r.log.Error("failed to list projects", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	return projects, nil
}

// GetByID returns a project by ID, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*Project, error) {
	var project Project

	err := r.db.NewSelect().
		Model(&project).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("failed to get project", logger.Error(err), slog.Int64("id", id))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	return &project, nil
}

// ExistsByTitle reports whether another project already uses title
func (r *Repository) ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error) {
	query := r.db.NewSelect().
		Model((*Project)(nil)).
		Where("title = ?", title)
	if excludeID > 0 {
		query = query.Where("id != ?", excludeID)
	}

	exists, err := query.Exists(ctx)
	if err != nil {
		r.log.Error("failed to check duplicate title", logger.Error(err))
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return exists, nil
}

// Create inserts a project
func (r *Repository) Create(ctx context.Context, project *Project) error {
	_, err := r.db.NewInsert().
		Model(project).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return apperror.NewConflict("A project with this title already exists")
		}
		r.log.Error("failed to create project", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}

	return nil
}

// Update writes the project title
func (r *Repository) Update(ctx context.Context, project *Project) error {
	project.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(project).
		Column("title", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return apperror.NewConflict("A project with this title already exists")
		}
		r.log.Error("failed to update project", logger.Error(err), slog.Int64("id", project.ID))
		return apperror.ErrDatabase.WithInternal(err)
	}

	return nil
}

// Delete removes a project; graphs and their content cascade
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.NewDelete().
		Model((*Project)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		r.log.Error("failed to delete project", logger.Error(err), slog.Int64("id", id))
		return false, apperror.ErrDatabase.WithInternal(err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}
