package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
	"figureit/internal/pkg/validator"
)

// TokenIssuer is the part of the JWT service the auth flow needs.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email, role string) (string, error)
	TTL() time.Duration
}

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	mailer   Mailer
	events   *EventBus
	log      *logger.Logger
	appURL   string
	resetTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, mailer Mailer, events *EventBus, log *logger.Logger, appURL string, resetTTL time.Duration) *Service {
	if events == nil {
		events = NewEventBus()
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		mailer:   mailer,
		events:   events,
		log:      log,
		appURL:   strings.TrimRight(appURL, "/"),
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

func (s *Service) Events() *EventBus { return s.events }

func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*SessionResult, error) {
	u, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Read("auth.sign_in", "Failed to sign in", err)
	}
	if CheckPassword(req.Password, u.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}

	p, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, apperr.Read("auth.sign_in", "Error fetching user profile", err)
	}
	if !p.IsApproved && p.Role != RoleAdmin {
		return nil, ErrPendingApproval
	}

	res, err := s.issueSession(u, p)
	if err != nil {
		return nil, err
	}
	s.events.Publish(Event{Type: EventSignedIn, UserID: u.ID, At: s.now()})
	return res, nil
}

// SignUp registers a plain user. New accounts start unapproved and cannot
// sign in until an administrator approves them, so no session is issued.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Account, error) {
	if err := validator.Check(&req, passwordMessages).Err(); err != nil {
		return nil, err
	}

	u, p, err := s.createAccount(ctx, req.Email, req.Password, req.FullName, RoleUser, false)
	if err != nil {
		return nil, err
	}
	return &Account{User: u, Profile: p}, nil
}

// CreateUser is the administrator flow: the account is approved at once
// and the caller receives the temporary password.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*CreatedUser, error) {
	if req.Role == "" {
		req.Role = RoleUser
	}
	if err := validator.Check(&req, createUserMessages).Err(); err != nil {
		return nil, err
	}

	password := req.TempPassword
	if password == "" {
		generated, err := GenerateTempPassword()
		if err != nil {
			return nil, err
		}
		password = generated
	}

	u, p, err := s.createAccount(ctx, req.Email, password, req.FullName, req.Role, true)
	if err != nil {
		return nil, err
	}
	s.log.Info("user created by admin", "user_id", u.ID, "role", p.Role)
	return &CreatedUser{User: u, Profile: p, TempPassword: password}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, apperr.Read("auth.list_users", "Failed to load users", err)
	}
	return accounts, nil
}

// RequestPasswordReset mails a single-use link. Unknown emails succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Read("auth.forgot_password", "Failed to send reset email", err)
	}

	raw, hash, err := generateResetToken()
	if err != nil {
		return err
	}
	tok := &PasswordResetToken{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.repo.CreateResetToken(ctx, tok); err != nil {
		return apperr.Write("auth.forgot_password", "Failed to send reset email", err)
	}

	link := s.appURL + "/reset-password?token=" + url.QueryEscape(raw)
	if err := s.mailer.SendPasswordReset(ctx, u.Email, link); err != nil {
		return apperr.Write("auth.forgot_password", "Failed to send reset email", err)
	}
	s.events.Publish(Event{Type: EventPasswordRecovery, UserID: u.ID, At: s.now()})
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validator.Check(&req, passwordMessages).Err(); err != nil {
		return err
	}

	tok, err := s.repo.ConsumeResetToken(ctx, hashToken(req.Token), s.now())
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return err
		}
		return apperr.Write("auth.reset_password", "Failed to reset password", err)
	}
	if err := s.setPassword(ctx, tok.UserID, req.Password); err != nil {
		return apperr.Write("auth.reset_password", "Failed to reset password", err)
	}
	s.events.Publish(Event{Type: EventUserUpdated, UserID: tok.UserID, At: s.now()})
	return nil
}

// ChangePassword checks the form locally first, then re-authenticates with
// the current password before updating.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if err := validator.Check(&req, changePasswordMessages).Err(); err != nil {
		return err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return apperr.Read("auth.change_password", "Failed to update password", err)
	}
	if CheckPassword(req.CurrentPassword, u.PasswordHash) != nil {
		return ErrCurrentPasswordIncorrect
	}
	if err := s.setPassword(ctx, u.ID, req.NewPassword); err != nil {
		return apperr.Write("auth.change_password", "Failed to update password", err)
	}
	s.events.Publish(Event{Type: EventUserUpdated, UserID: u.ID, At: s.now()})
	return nil
}

// SignOut announces the sign-out. Access tokens are stateless and expire
// on their own.
func (s *Service) SignOut(_ context.Context, userID uuid.UUID) {
	s.events.Publish(Event{Type: EventSignedOut, UserID: userID, At: s.now()})
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

func (s *Service) createAccount(ctx context.Context, email, password, fullName string, role Role, approved bool) (*User, *Profile, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	u := &User{Email: email, PasswordHash: hash}
	p := &Profile{FullName: strings.TrimSpace(fullName), Role: role, IsApproved: approved}
	if err := s.repo.CreateAccount(ctx, u, p); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, nil, err
		}
		return nil, nil, apperr.Write("auth.create_account", "Failed to create user", err)
	}
	return u, p, nil
}

func (s *Service) setPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *Service) issueSession(u *User, p *Profile) (*SessionResult, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Email, string(p.Role))
	if err != nil {
		return nil, err
	}
	return &SessionResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        u,
		Profile:     p,
	}, nil
}
