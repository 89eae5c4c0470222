package wishlist

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches wishlist endpoints behind authentication.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	wishlist := router.Group("/users/wishlist", authenticated)
	{
		wishlist.GET("", handler.List)
		wishlist.GET("/:courseId", handler.Check)
		wishlist.POST("/:courseId", handler.Add)
		wishlist.DELETE("/:courseId", handler.Remove)
	}
}
