package projects

import (
	"time"

	"github.com/uptrace/bun"
)

// Project is the top-level container for narrative graphs.
type Project struct {
	bun.BaseModel `bun:"table:narrative.projects,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// CreateProjectRequest is the request body for creating a project
type CreateProjectRequest struct {
	Title string `json:"title"`
}

// UpdateProjectRequest is the request body for updating a project
type UpdateProjectRequest struct {
	Title *string `json:"title,omitempty"`
}
