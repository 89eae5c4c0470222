package course

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches course authoring endpoints. The public catalog listing
// at GET /courses is registered by the catalog feature.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, optionalAuth gin.HandlerFunc, instructorOnly []gin.HandlerFunc) {
	courses := router.Group("/courses")

	with := func(h ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(instructorOnly)+len(h))
		chain = append(chain, instructorOnly...)
		return append(chain, h...)
	}

	courses.POST("", with(handler.Create)...)
	courses.GET("/instructor", with(handler.ListMine)...)
	courses.GET("/:id", optionalAuth, handler.GetByID)
	courses.PUT("/:id", with(handler.Update)...)
	courses.DELETE("/:id", with(handler.Delete)...)
	courses.PUT("/:id/curriculum", with(handler.UpdateCurriculum)...)
	courses.PUT("/:id/thumbnail", with(handler.UpdateThumbnail)...)
	courses.GET("/:id/authoring", with(handler.Authoring)...)
	courses.POST("/:id/publish", with(handler.Transition(ActionPublish))...)
	courses.POST("/:id/unpublish", with(handler.Transition(ActionUnpublish))...)
	courses.POST("/:id/archive", with(handler.Transition(ActionArchive))...)
	courses.POST("/:id/restore", with(handler.Transition(ActionRestore))...)
}
