package category

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/categories")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
	}
}
