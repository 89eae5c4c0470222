package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches the public registration and login endpoints.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	users := router.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/login", handler.Login)
	}
}
