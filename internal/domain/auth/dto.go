package auth

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" validate:"min=8"`
	FullName string `json:"full_name"`
}

// CreateUserRequest is an administrator creating an account. An empty
// TempPassword is replaced by a generated one.
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	FullName     string `json:"full_name" validate:"notblank"`
	Role         Role   `json:"role" validate:"oneof=admin user"`
	TempPassword string `json:"temp_password" validate:"omitempty,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// The confirmation is declared first so a mismatch is reported before
// password strength.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Password        string `json:"password" validate:"min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=NewPassword"`
	NewPassword     string `json:"new_password" validate:"min=8,nefield=CurrentPassword"`
}

// SessionResult is returned by sign-in.
type SessionResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        *User    `json:"user"`
	Profile     *Profile `json:"profile"`
}

// CreatedUser carries the temporary password back to the administrator
// exactly once.
type CreatedUser struct {
	User         *User    `json:"user"`
	Profile      *Profile `json:"profile"`
	TempPassword string   `json:"temp_password"`
}
