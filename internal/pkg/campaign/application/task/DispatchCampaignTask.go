package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	queue "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/port"
	campaign "github.com/apardew63/wetarseel-server/internal/pkg/campaign/domain"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/port"
)

// TypeDispatchCampaign identifies the background job that executes a
// campaign send.
const TypeDispatchCampaign = "campaign:dispatch"

type dispatchPayload struct {
	CampaignID string `json:"campaignId"`
}

// NewDispatchTask builds the queue task for dispatching a campaign.
func NewDispatchTask(campaignID string) (queue.Task, error) {
	if campaignID == "" {
		return queue.Task{}, errors.New("dispatch task: campaign id is required")
	}
	payload, err := json.Marshal(dispatchPayload{CampaignID: campaignID})
	if err != nil {
		return queue.Task{}, err
	}
	return queue.Task{Type: TypeDispatchCampaign, Payload: payload}, nil
}

// DispatchCampaignTask is the worker-side handler. It loads the campaign and
// marks it Sent. Handlers must stay idempotent since the queue may retry.
type DispatchCampaignTask struct {
	repo repository.CampaignRepository
}

func NewDispatchCampaignTask(repo repository.CampaignRepository) *DispatchCampaignTask {
	return &DispatchCampaignTask{repo: repo}
}

// Register wires the handler onto the worker server.
func (t *DispatchCampaignTask) Register(srv queue.Server) {
	srv.Register(TypeDispatchCampaign, t.Handle)
}

func (t *DispatchCampaignTask) Handle(ctx context.Context, task queue.Task) error {
	var payload dispatchPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("dispatch task: decode payload: %w", err)
	}
	if payload.CampaignID == "" {
		return errors.New("dispatch task: empty campaign id")
	}

	c, err := t.repo.GetByID(ctx, payload.CampaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Campaign was deleted after enqueue; retrying cannot help.
			log.Printf("dispatch task: campaign %s no longer exists, dropping", payload.CampaignID)
			return nil
		}
		return fmt.Errorf("dispatch task: load campaign %s: %w", payload.CampaignID, err)
	}
	if c.Status == campaign.StatusSent {
		return nil
	}

	if err := t.repo.MarkSent(ctx, c.ID); err != nil {
		return fmt.Errorf("dispatch task: mark campaign %s sent: %w", c.ID, err)
	}
	log.Printf("dispatch task: campaign %s (%s) dispatched to list %q", c.ID, c.Name, c.ListName)
	return nil
}
