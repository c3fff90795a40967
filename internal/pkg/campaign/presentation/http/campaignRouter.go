package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queue "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/port"
	"github.com/apardew63/wetarseel-server/internal/pkg/campaign/presentation/controller"
)

// RegisterRoutes mounts the campaign CRUD and dispatch endpoints.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, q queue.Client) {
	ctl := controller.NewCampaignController(pool, q)

	g.POST("", ctl.Create())
	g.GET("", ctl.List())
	g.GET("/:id", ctl.Get())
	g.DELETE("/:id", ctl.Delete())
	g.POST("/:id/dispatch", ctl.Dispatch())
}
