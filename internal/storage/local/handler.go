package local

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/pkg/response"
	"figureit/internal/storage"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the signed download route. The bucket is private, so
// public object URLs are addresses only and are not served.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET(SignedRoute+"/*path", h.ServeSigned)
}

func (h *Handler) ServeSigned(c *gin.Context) {
	objectPath := c.Param("path")
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "SIGNATURE_REQUIRED", "Missing signature")
		return
	}
	if err := h.store.Verify(objectPath, token); err != nil {
		response.Error(c, http.StatusForbidden, "INVALID_SIGNATURE", "Invalid or expired link")
		return
	}

	abs, err := h.store.Open(objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Object not found")
			return
		}
		response.Error(c, http.StatusBadRequest, "INVALID_PATH", "Invalid object path")
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.File(abs)
}
