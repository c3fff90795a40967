package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	campaign "github.com/apardew63/wetarseel-server/internal/pkg/campaign/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/port"
)

type PgCampaignRepository struct {
	pool *pgxpool.Pool
}

func NewPgCampaignRepository(pool *pgxpool.Pool) *PgCampaignRepository {
	return &PgCampaignRepository{pool: pool}
}

var _ repository.CampaignRepository = (*PgCampaignRepository)(nil)

func (r *PgCampaignRepository) Create(ctx context.Context, c campaign.Campaign) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgCampaignRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (campaign_name, list_name, status, type, template, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id::text
	`, c.Name, c.ListName, string(c.Status), string(c.Type), c.Template, c.CreatedBy, c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgCampaignRepository) List(ctx context.Context) ([]campaign.Campaign, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgCampaignRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, campaign_name, list_name, status, type, template, COALESCE(created_by, ''), created_at
		FROM campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]campaign.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *PgCampaignRepository) GetByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgCampaignRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, campaign_name, list_name, status, type, template, COALESCE(created_by, ''), created_at
		FROM campaigns
		WHERE id::text = $1
	`, id)
	return scanCampaign(row)
}

func (r *PgCampaignRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgCampaignRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgCampaignRepository) MarkSent(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgCampaignRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $2 WHERE id::text = $1
	`, id, string(campaign.StatusSent))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var (
		c            campaign.Campaign
		status, kind string
	)
	err := row.Scan(&c.ID, &c.Name, &c.ListName, &status, &kind, &c.Template, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = campaign.Status(status)
	c.Type = campaign.Type(kind)
	return &c, nil
}
