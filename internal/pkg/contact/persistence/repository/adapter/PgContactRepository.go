package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	contact "github.com/apardew63/wetarseel-server/internal/pkg/contact/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/contact/persistence/repository/port"
)

type PgContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

var _ repository.ContactRepository = (*PgContactRepository)(nil)

func (r *PgContactRepository) Create(ctx context.Context, c contact.Contact) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgContactRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (name, email, phone, tags, list_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id::text
	`, c.Name, c.Email, c.Phone, c.Tags, c.List, string(c.Status), c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgContactRepository) GetByName(ctx context.Context, name string) (*contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgContactRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, phone, tags, list_name, COALESCE(status, ''), created_at
		FROM contacts
		WHERE name = $1
	`, name)
	return scanContact(row)
}

func (r *PgContactRepository) UpdateByName(ctx context.Context, name string, c contact.Contact) (*contact.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgContactRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, tags = $5, list_name = $6, status = NULLIF($7, '')
		WHERE name = $1
		RETURNING id::text, name, email, phone, tags, list_name, COALESCE(status, ''), created_at
	`, name, c.Name, c.Email, c.Phone, c.Tags, c.List, string(c.Status))
	return scanContact(row)
}

func (r *PgContactRepository) DeleteByName(ctx context.Context, name string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgContactRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgContactRepository) BulkInsert(ctx context.Context, contacts []contact.Contact) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgContactRepository: nil pool")
	}
	rows := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		var status any
		if c.Status != "" {
			status = string(c.Status)
		}
		rows = append(rows, []any{c.Name, c.Email, c.Phone, c.Tags, c.List, status, c.CreatedAt})
	}
	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"contacts"},
		[]string{"name", "email", "phone", "tags", "list_name", "status", "created_at"},
		pgx.CopyFromRows(rows),
	)
}

func scanContact(row pgx.Row) (*contact.Contact, error) {
	var (
		c      contact.Contact
		status string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Tags, &c.List, &status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = contact.Status(status)
	return &c, nil
}
