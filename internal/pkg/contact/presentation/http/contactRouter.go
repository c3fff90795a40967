package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apardew63/wetarseel-server/internal/pkg/contact/presentation/controller"
)

// RegisterRoutes mounts the contact CRUD and CSV import endpoints.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool) {
	ctl := controller.NewContactController(pool)
	uploadCtl := controller.NewUploadCSVController(pool)

	g.POST("", ctl.Create())
	g.GET("/:name", ctl.Get())
	g.PUT("/:name", ctl.Update())
	g.DELETE("/:name", ctl.Delete())
	g.POST("/upload-csv", uploadCtl.Handle())
}
