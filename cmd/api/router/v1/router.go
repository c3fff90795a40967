package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apardew63/wetarseel-server/internal/identity"
	cache "github.com/apardew63/wetarseel-server/internal/infrastructure/cache/port"
	qport "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/port"
	"github.com/apardew63/wetarseel-server/internal/infrastructure/realtime"
	authHTTP "github.com/apardew63/wetarseel-server/internal/pkg/auth/presentation/http"
	campaignHTTP "github.com/apardew63/wetarseel-server/internal/pkg/campaign/presentation/http"
	chatHTTP "github.com/apardew63/wetarseel-server/internal/pkg/chat/presentation/http"
	contactHTTP "github.com/apardew63/wetarseel-server/internal/pkg/contact/presentation/http"
	templateHTTP "github.com/apardew63/wetarseel-server/internal/pkg/template/presentation/http"
)

// Deps carries the shared infrastructure handed down to the HTTP layer.
type Deps struct {
	Pool     *pgxpool.Pool
	Hub      *realtime.Hub
	Cache    cache.Cache
	Queue    qport.Client
	Identity *identity.Client
}

// RegisterRoutes mounts every bounded context on the engine.
func RegisterRoutes(r *gin.Engine, d Deps) {
	root := r.Group("")

	authHTTP.RegisterRoutes(root.Group("/auth"), d.Identity, d.Identity)
	contactHTTP.RegisterRoutes(root.Group("/contact"), d.Pool)
	templateHTTP.RegisterRoutes(root.Group("/template"), d.Pool, d.Cache)
	campaignHTTP.RegisterRoutes(root.Group("/campaign"), d.Pool, d.Queue)
	chatHTTP.RegisterRoutes(root, d.Pool, d.Hub)
}
