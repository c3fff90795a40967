package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queue "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/port"
	"github.com/apardew63/wetarseel-server/internal/pkg/campaign/application/task"
	campaign "github.com/apardew63/wetarseel-server/internal/pkg/campaign/domain"
	"github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/adapter"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/port"
)

const requestTimeout = 3 * time.Second

// CampaignController handles the campaign CRUD and dispatch endpoints.
type CampaignController struct {
	Repo  repository.CampaignRepository
	Queue queue.Client
}

func NewCampaignController(pool *pgxpool.Pool, q queue.Client) *CampaignController {
	return &CampaignController{Repo: adapter.NewPgCampaignRepository(pool), Queue: q}
}

type campaignRequest struct {
	Name      string `json:"campaignName" binding:"required"`
	ListName  string `json:"listName"`
	Status    string `json:"status"`
	Type      string `json:"type" binding:"required"`
	Template  string `json:"template"`
	CreatedBy string `json:"createdBy"`
}

func (h *CampaignController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req campaignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cp, err := campaign.New(campaign.Campaign{
			Name:      req.Name,
			ListName:  req.ListName,
			Status:    campaign.Status(req.Status),
			Type:      campaign.Type(req.Type),
			Template:  req.Template,
			CreatedBy: req.CreatedBy,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := h.Repo.Create(ctx, *cp)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cp.ID = id
		c.JSON(http.StatusCreated, cp)
	}
}

func (h *CampaignController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		campaigns, err := h.Repo.List(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, campaigns)
	}
}

func (h *CampaignController) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		cp, err := h.Repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			respondLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, cp)
	}
}

func (h *CampaignController) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.Repo.Delete(ctx, c.Param("id")); err != nil {
			respondLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
	}
}

// Dispatch enqueues the campaign send as a background job and answers
// immediately; the worker marks the campaign Sent.
func (h *CampaignController) Dispatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Queue == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dispatch queue unavailable"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		cp, err := h.Repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			respondLookupError(c, err)
			return
		}
		if cp.Status == campaign.StatusSent {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already sent"})
			return
		}

		t, err := task.NewDispatchTask(cp.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		taskID, err := h.Queue.Enqueue(ctx, t, queue.EnqueueOption{Queue: "campaigns", MaxRetry: 5})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message":    "Campaign dispatch enqueued",
			"campaignId": cp.ID,
			"taskId":     taskID,
		})
	}
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
