package user

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches profile endpoints to the router. All of them require authentication.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	users := router.Group("/users", authenticated)
	{
		users.GET("/profile", handler.GetProfile)
		users.PUT("/profile", handler.UpdateProfile)
		users.DELETE("/profile", handler.Deactivate)
		users.POST("/onboarding", handler.CompleteOnboarding)
		users.POST("/upload-avatar", handler.UploadAvatar)
	}
}
