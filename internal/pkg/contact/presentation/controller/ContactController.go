package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	contact "github.com/apardew63/wetarseel-server/internal/pkg/contact/domain"
	"github.com/apardew63/wetarseel-server/internal/pkg/contact/persistence/repository/adapter"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/contact/persistence/repository/port"
)

const requestTimeout = 3 * time.Second

// ContactController handles the contact CRUD endpoints.
type ContactController struct {
	Repo repository.ContactRepository
}

func NewContactController(pool *pgxpool.Pool) *ContactController {
	return &ContactController{Repo: adapter.NewPgContactRepository(pool)}
}

type contactRequest struct {
	Name   string   `json:"name" binding:"required"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Tags   []string `json:"tags"`
	List   string   `json:"list"`
	Status string   `json:"status"`
}

func (h *ContactController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ct, err := contact.New(contact.Contact{
			Name:   req.Name,
			Email:  req.Email,
			Phone:  req.Phone,
			Tags:   req.Tags,
			List:   req.List,
			Status: contact.Status(req.Status),
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := h.Repo.Create(ctx, *ct)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ct.ID = id
		c.JSON(http.StatusCreated, ct)
	}
}

func (h *ContactController) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ct, err := h.Repo.GetByName(ctx, c.Param("name"))
		if err != nil {
			respondLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct)
	}
}

func (h *ContactController) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ct, err := contact.New(contact.Contact{
			Name:   req.Name,
			Email:  req.Email,
			Phone:  req.Phone,
			Tags:   req.Tags,
			List:   req.List,
			Status: contact.Status(req.Status),
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		updated, err := h.Repo.UpdateByName(ctx, c.Param("name"), *ct)
		if err != nil {
			respondLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func (h *ContactController) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		name := c.Param("name")
		if err := h.Repo.DeleteByName(ctx, name); err != nil {
			respondLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Contact '" + name + "' deleted successfully"})
	}
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
