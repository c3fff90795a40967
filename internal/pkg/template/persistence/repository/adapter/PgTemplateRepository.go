package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	template "github.com/apardew63/wetarseel-server/internal/pkg/template/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/template/persistence/repository/port"
)

type PgTemplateRepository struct {
	pool *pgxpool.Pool
}

func NewPgTemplateRepository(pool *pgxpool.Pool) *PgTemplateRepository {
	return &PgTemplateRepository{pool: pool}
}

var _ repository.TemplateRepository = (*PgTemplateRepository)(nil)

func (r *PgTemplateRepository) Create(ctx context.Context, t template.Template) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgTemplateRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO templates (category, template_name, language, message, created_by, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id::text
	`, string(t.Category), t.Name, t.Language, t.Message, t.CreatedBy, t.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgTemplateRepository) List(ctx context.Context) ([]template.Template, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgTemplateRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, category, template_name, language, message, COALESCE(created_by, ''), created_at
		FROM templates
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]template.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (r *PgTemplateRepository) GetByName(ctx context.Context, name string) (*template.Template, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgTemplateRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, category, template_name, language, message, COALESCE(created_by, ''), created_at
		FROM templates
		WHERE LOWER(template_name) = LOWER($1)
	`, name)
	return scanTemplate(row)
}

func (r *PgTemplateRepository) UpdateByName(ctx context.Context, name string, t template.Template) (*template.Template, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgTemplateRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE templates
		SET category = $2, template_name = $3, language = $4, message = $5
		WHERE LOWER(template_name) = LOWER($1)
		RETURNING id::text, category, template_name, language, message, COALESCE(created_by, ''), created_at
	`, name, string(t.Category), t.Name, t.Language, t.Message)
	return scanTemplate(row)
}

func (r *PgTemplateRepository) DeleteByName(ctx context.Context, name string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgTemplateRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE LOWER(template_name) = LOWER($1)`, name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*template.Template, error) {
	var (
		t        template.Template
		category string
	)
	err := row.Scan(&t.ID, &category, &t.Name, &t.Language, &t.Message, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Category = template.Category(category)
	return &t, nil
}
