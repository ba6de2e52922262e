package auth

import (
	"errors"

	"figureit/internal/pkg/validator"
)

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrUserNotFound             = errors.New("user not found")
	ErrProfileNotFound          = errors.New("profile not found")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrPendingApproval          = errors.New("account is pending approval")
)

const msgPasswordTooShort = "Password must be at least 8 characters long"

var passwordMessages = validator.Messages{
	"password":         msgPasswordTooShort,
	"confirm_password": "Passwords do not match",
}

var changePasswordMessages = validator.Messages{
	"confirm_password":     "New passwords do not match",
	"new_password.min":     msgPasswordTooShort,
	"new_password.nefield": "New password must be different from current password",
}

var createUserMessages = validator.Messages{
	"full_name":     "Please enter a full name",
	"role":          "Role must be admin or user",
	"temp_password": msgPasswordTooShort,
}
