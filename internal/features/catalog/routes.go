package catalog

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches the public catalog endpoints.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	courses := router.Group("/courses")
	{
		courses.GET("", handler.List)
		courses.GET("/categories", handler.Categories)
	}
}
