package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apardew63/wetarseel-server/internal/infrastructure/realtime"
	"github.com/apardew63/wetarseel-server/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers chat-related endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, hub *realtime.Hub) {
	socketCtl := controller.NewChatSocketController(pool, hub)
	getMsgCtl := controller.NewGetMessageController(pool)

	// GET /chat/ws -> websocket endpoint for realtime chat
	g.GET("/chat/ws", socketCtl.Handle())

	// GET /conversation/:conversationId/messages -> message history
	g.GET("/conversation/:conversationId/messages", getMsgCtl.Handle())
}
