package repository

import (
	"context"
	"errors"

	campaign "github.com/apardew63/wetarseel-server/internal/pkg/campaign/domain"
)

// ErrNotFound is returned when no campaign matches the lookup.
var ErrNotFound = errors.New("campaign not found")

// CampaignRepository abstracts campaign persistence.
type CampaignRepository interface {
	Create(ctx context.Context, c campaign.Campaign) (string, error)
	List(ctx context.Context) ([]campaign.Campaign, error)
	GetByID(ctx context.Context, id string) (*campaign.Campaign, error)
	Delete(ctx context.Context, id string) error
	// MarkSent flips the campaign status to Sent.
	MarkSent(ctx context.Context, id string) error
}
