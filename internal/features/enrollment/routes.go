package enrollment

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches enrollment endpoints. All of them require authentication.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	courses := router.Group("/users/courses", authenticated)
	{
		courses.GET("", handler.List)
		courses.POST("/:courseId/enroll", handler.Enroll)
		courses.PUT("/:courseId/progress", handler.UpdateProgress)
	}
}
