package repository

import (
	"context"
	"errors"

	contact "github.com/apardew63/wetarseel-server/internal/pkg/contact/domain"
)

// ErrNotFound is returned when no contact matches the lookup key.
var ErrNotFound = errors.New("contact not found")

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, c contact.Contact) (string, error)
	GetByName(ctx context.Context, name string) (*contact.Contact, error)
	UpdateByName(ctx context.Context, name string, c contact.Contact) (*contact.Contact, error)
	DeleteByName(ctx context.Context, name string) error

	// BulkInsert loads many contacts in one round trip (CSV import).
	BulkInsert(ctx context.Context, contacts []contact.Contact) (int64, error)
}
