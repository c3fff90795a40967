package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cache "github.com/apardew63/wetarseel-server/internal/infrastructure/cache/port"
	"github.com/apardew63/wetarseel-server/internal/pkg/template/presentation/controller"
)

// RegisterRoutes mounts the template CRUD endpoints.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, c cache.Cache) {
	ctl := controller.NewTemplateController(pool, c)

	g.POST("", ctl.Create())
	g.GET("", ctl.List())
	g.GET("/:templateName", ctl.Get())
	g.PUT("/:templateName", ctl.Update())
	g.DELETE("/:templateName", ctl.Delete())
}
