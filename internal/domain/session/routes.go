package session

import "github.com/gin-gonic/gin"

// RegisterRoutes expects protected to run JWT auth and Middleware.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/session", h.GetSession)
}

// RegisterStreamRoute expects stream to authenticate from the query string.
func (h *Handler) RegisterStreamRoute(stream *gin.RouterGroup) {
	stream.GET("/auth/session/stream", h.Stream)
}
