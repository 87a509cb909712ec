package authz

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, resolver *Resolver, gate *Gate) {
	authzGroup := r.Group("/authz")
	authzGroup.Use(middleware.AuthMiddleware())
	{
		authzGroup.GET("/me", handler.Me)
		authzGroup.POST("/invalidate/:userId",
			RequirePermission(resolver, gate, "manage:authz"),
			handler.Invalidate,
		)
	}
}
