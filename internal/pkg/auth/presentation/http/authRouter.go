package http

import (
	"github.com/gin-gonic/gin"

	"github.com/apardew63/wetarseel-server/internal/identity"
	"github.com/apardew63/wetarseel-server/internal/pkg/auth/presentation/controller"
)

// RegisterRoutes mounts signup, signin and the authenticated profile read.
func RegisterRoutes(g *gin.RouterGroup, provider controller.Provider, verifier identity.Verifier) {
	ctl := controller.NewAuthController(provider)

	g.POST("/signup", ctl.Signup())
	g.POST("/signin", ctl.Signin())
	g.GET("/profile", identity.RequireAuth(verifier), ctl.Profile())
}
