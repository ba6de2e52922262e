package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/middleware"
	"figureit/internal/pkg/response"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SignIn exchanges email and password for an access token.
// @Summary		Sign in
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	SignInRequest	true	"credentials"
// @Success		200	{object}	SessionResult
// @Router		/auth/sign-in [post]
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to sign in")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to sign up")
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Please enter a valid email")
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err, "Failed to send reset email")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		h.fail(c, err, "Failed to reset password")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.fail(c, err, "Failed to update password")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) SignOut(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}
	h.service.SignOut(c.Request.Context(), userID)
	response.Success(c, http.StatusOK, gin.H{"status": "signed_out"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	accounts, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": accounts})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	created, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to create user")
		return
	}
	response.Success(c, http.StatusCreated, created)
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrPendingApproval):
		response.Error(c, http.StatusForbidden, "PENDING_APPROVAL", "Your account is pending approval. Please contact the administrator.")
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "A user with this email already exists")
	case errors.Is(err, ErrCurrentPasswordIncorrect):
		response.Error(c, http.StatusBadRequest, "CURRENT_PASSWORD_INCORRECT", "Current password is incorrect")
	case errors.Is(err, ErrInvalidResetToken):
		response.Error(c, http.StatusBadRequest, "INVALID_RESET_TOKEN", "Reset link is invalid or has expired")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		response.FromError(c, err, fallback)
	}
}
