package category

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/domain/session"
	"figureit/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Category string `json:"category"`
}

// List GET /categories?sort=created_desc|created_asc|name
func (h *Handler) List(c *gin.Context) {
	s, ok := session.FromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	cats, err := h.service.List(c.Request.Context(), s.UserID(), ParseOrder(c.Query("sort")))
	if err != nil {
		response.FromError(c, err, msgLoadFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) Create(c *gin.Context) {
	s, ok := session.FromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	cat, err := h.service.Create(c.Request.Context(), s.UserID(), req.Category)
	if err != nil {
		response.FromError(c, err, msgCreateFailed)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"category": cat})
}
