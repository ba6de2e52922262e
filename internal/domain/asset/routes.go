package asset

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/assets")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("/images", h.UploadImage)
		g.POST("/videos", h.UploadVideo)
		g.PATCH("/:id", h.UpdateMetadata)
		g.PUT("/:id", h.Edit)
		g.PUT("/:id/categories", h.SetCategories)
		g.DELETE("/:id", h.Delete)
	}
}
