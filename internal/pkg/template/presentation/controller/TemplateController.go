package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cache "github.com/apardew63/wetarseel-server/internal/infrastructure/cache/port"
	template "github.com/apardew63/wetarseel-server/internal/pkg/template/domain"
	"github.com/apardew63/wetarseel-server/internal/pkg/template/persistence/repository/adapter"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/template/persistence/repository/port"
)

const (
	requestTimeout = 3 * time.Second
	cacheTTL       = 5 * time.Minute
)

// TemplateController handles the template CRUD endpoints. Name lookups go
// through the cache first; a nil cache disables caching without changing
// behavior.
type TemplateController struct {
	Repo  repository.TemplateRepository
	Cache cache.Cache
}

func NewTemplateController(pool *pgxpool.Pool, c cache.Cache) *TemplateController {
	return &TemplateController{Repo: adapter.NewPgTemplateRepository(pool), Cache: c}
}

type templateRequest struct {
	Category string `json:"category" binding:"required"`
	Name     string `json:"templateName" binding:"required"`
	Language string `json:"language" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

func (h *TemplateController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := template.New(template.Template{
			Category: template.Category(req.Category),
			Name:     req.Name,
			Language: req.Language,
			Message:  req.Message,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := h.Repo.Create(ctx, *t)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		t.ID = id
		c.JSON(http.StatusCreated, t)
	}
}

func (h *TemplateController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		templates, err := h.Repo.List(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, templates)
	}
}

func (h *TemplateController) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		name := c.Param("templateName")
		if cached, ok := h.fromCache(ctx, name); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		t, err := h.Repo.GetByName(ctx, name)
		if err != nil {
			respondLookupError(c, err)
			return
		}
		h.store(ctx, name, t)
		c.JSON(http.StatusOK, t)
	}
}

func (h *TemplateController) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := template.New(template.Template{
			Category: template.Category(req.Category),
			Name:     req.Name,
			Language: req.Language,
			Message:  req.Message,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		name := c.Param("templateName")
		updated, err := h.Repo.UpdateByName(ctx, name, *t)
		if err != nil {
			respondLookupError(c, err)
			return
		}
		h.evict(ctx, name, updated.Name)
		c.JSON(http.StatusOK, updated)
	}
}

func (h *TemplateController) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		name := c.Param("templateName")
		if err := h.Repo.DeleteByName(ctx, name); err != nil {
			respondLookupError(c, err)
			return
		}
		h.evict(ctx, name)
		c.JSON(http.StatusOK, gin.H{"message": "Template '" + name + "' deleted successfully"})
	}
}

func cacheKey(name string) string {
	return "template:" + strings.ToLower(strings.TrimSpace(name))
}

func (h *TemplateController) fromCache(ctx context.Context, name string) (*template.Template, bool) {
	if h.Cache == nil {
		return nil, false
	}
	raw, err := h.Cache.Get(ctx, cacheKey(name))
	if errors.Is(err, cache.ErrMiss) {
		return nil, false
	}
	if err != nil {
		log.Printf("template cache: get %q: %v", name, err)
		return nil, false
	}
	var t template.Template
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		log.Printf("template cache: decode %q: %v", name, err)
		return nil, false
	}
	return &t, true
}

func (h *TemplateController) store(ctx context.Context, name string, t *template.Template) {
	if h.Cache == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := h.Cache.Set(ctx, cacheKey(name), string(raw), cacheTTL); err != nil {
		log.Printf("template cache: set %q: %v", name, err)
	}
}

func (h *TemplateController) evict(ctx context.Context, names ...string) {
	if h.Cache == nil {
		return
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, cacheKey(n))
	}
	if _, err := h.Cache.Del(ctx, keys...); err != nil {
		log.Printf("template cache: del %v: %v", keys, err)
	}
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
