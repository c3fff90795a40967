package repository

import (
	"context"
	"errors"

	template "github.com/apardew63/wetarseel-server/internal/pkg/template/domain"
)

// ErrNotFound is returned when no template matches the lookup.
var ErrNotFound = errors.New("template not found")

// TemplateRepository abstracts template persistence. Name lookups are
// case-insensitive.
type TemplateRepository interface {
	Create(ctx context.Context, t template.Template) (string, error)
	List(ctx context.Context) ([]template.Template, error)
	GetByName(ctx context.Context, name string) (*template.Template, error)
	UpdateByName(ctx context.Context, name string, t template.Template) (*template.Template, error)
	DeleteByName(ctx context.Context, name string) error
}
