package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
	"figureit/internal/pkg/validator"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateAccount(ctx context.Context, u *User, p *Profile) error {
	args := m.Called(ctx, u, p)
	if args.Error(0) == nil && u.ID == uuid.Nil {
		u.ID = uuid.New()
		p.ID = u.ID
	}
	return args.Error(0)
}

func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Profile), args.Error(1)
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockRepo) ListAccounts(ctx context.Context) ([]Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *mockRepo) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockRepo) ConsumeResetToken(ctx context.Context, hash string, now time.Time) (*PasswordResetToken, error) {
	args := m.Called(ctx, hash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PasswordResetToken), args.Error(1)
}

func (m *mockRepo) DeleteStaleResetTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) GenerateToken(userID uuid.UUID, email, role string) (string, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) TTL() time.Duration { return 24 * time.Hour }

type recordingMailer struct {
	email string
	link  string
	err   error
}

func (r *recordingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	r.email, r.link = email, link
	return r.err
}

func newTestService(repo Repository, tokens TokenIssuer, mailer Mailer) *Service {
	return NewService(repo, tokens, mailer, NewEventBus(), logger.NewNop(), "https://admin.figureit.test/", time.Hour)
}

func userWithPassword(t *testing.T, password string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &User{ID: uuid.New(), Email: "owner@figureit.test", PasswordHash: hash}
}

func TestService_SignIn_Success(t *testing.T) {
	repo := new(mockRepo)
	tokens := new(mockTokens)
	u := userWithPassword(t, "correct-horse")
	profile := &Profile{ID: u.ID, FullName: "Owner", Role: RoleAdmin, IsApproved: true}

	repo.On("GetUserByEmail", mock.Anything, "owner@figureit.test").Return(u, nil)
	repo.On("GetProfile", mock.Anything, u.ID).Return(profile, nil)
	tokens.On("GenerateToken", u.ID, u.Email, "admin").Return("signed-token", nil)

	svc := newTestService(repo, tokens, &recordingMailer{})
	events, unsubscribe := svc.Events().Subscribe(u.ID)
	defer unsubscribe()

	res, err := svc.SignIn(context.Background(), SignInRequest{Email: "owner@figureit.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.AccessToken)
	assert.Equal(t, int64(86400), res.ExpiresIn)
	assert.Equal(t, profile, res.Profile)

	select {
	case e := <-events:
		assert.Equal(t, EventSignedIn, e.Type)
	default:
		t.Fatal("expected SIGNED_IN event")
	}
	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestService_SignIn_WrongPassword(t *testing.T) {
	repo := new(mockRepo)
	u := userWithPassword(t, "correct-horse")
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	_, err := svc.SignIn(context.Background(), SignInRequest{Email: u.Email, Password: "battery-staple"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SignIn_UnknownEmail(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetUserByEmail", mock.Anything, "nobody@figureit.test").Return(nil, ErrUserNotFound)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	_, err := svc.SignIn(context.Background(), SignInRequest{Email: "nobody@figureit.test", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SignUp_ShortPassword(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, new(mockTokens), &recordingMailer{})

	_, err := svc.SignUp(context.Background(), SignUpRequest{Email: "new@figureit.test", Password: "short"})

	var fields validator.Errors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "Password must be at least 8 characters long", fields.First())
	repo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SignIn_PendingApproval(t *testing.T) {
	repo := new(mockRepo)
	tokens := new(mockTokens)
	u := userWithPassword(t, "correct-horse")
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	repo.On("GetProfile", mock.Anything, u.ID).Return(&Profile{ID: u.ID, Role: RoleUser}, nil)

	svc := newTestService(repo, tokens, &recordingMailer{})
	_, err := svc.SignIn(context.Background(), SignInRequest{Email: u.Email, Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrPendingApproval)
	tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SignIn_UnapprovedAdminAllowed(t *testing.T) {
	repo := new(mockRepo)
	tokens := new(mockTokens)
	u := userWithPassword(t, "correct-horse")
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	repo.On("GetProfile", mock.Anything, u.ID).Return(&Profile{ID: u.ID, Role: RoleAdmin}, nil)
	tokens.On("GenerateToken", u.ID, u.Email, "admin").Return("tok", nil)

	svc := newTestService(repo, tokens, &recordingMailer{})
	res, err := svc.SignIn(context.Background(), SignInRequest{Email: u.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
}

func TestService_SignIn_ProfileLookupFails(t *testing.T) {
	repo := new(mockRepo)
	u := userWithPassword(t, "correct-horse")
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	repo.On("GetProfile", mock.Anything, u.ID).Return(nil, ErrProfileNotFound)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	_, err := svc.SignIn(context.Background(), SignInRequest{Email: u.Email, Password: "correct-horse"})
	assert.ErrorIs(t, err, apperr.ErrRemoteRead)
	assert.Equal(t, "Error fetching user profile", apperr.Message(err, ""))
}

func TestService_SignUp_CreatesUnapprovedUser(t *testing.T) {
	repo := new(mockRepo)
	tokens := new(mockTokens)

	repo.On("CreateAccount", mock.Anything, mock.Anything, mock.MatchedBy(func(p *Profile) bool {
		return p.Role == RoleUser && !p.IsApproved
	})).Return(nil)

	svc := newTestService(repo, tokens, &recordingMailer{})
	acct, err := svc.SignUp(context.Background(), SignUpRequest{Email: "new@figureit.test", Password: "longenough"})
	require.NoError(t, err)
	assert.False(t, acct.Profile.IsApproved)
	tokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestService_CreateUser_GeneratesTempPassword(t *testing.T) {
	repo := new(mockRepo)
	var stored *User
	repo.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*User) }).
		Return(nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	created, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email:    "staff@figureit.test",
		FullName: "Staff Member",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)
	assert.Len(t, created.TempPassword, tempPasswordLength)
	for _, r := range created.TempPassword {
		assert.Contains(t, tempPasswordChars, string(r))
	}
	assert.True(t, created.Profile.IsApproved)
	assert.Equal(t, RoleAdmin, created.Profile.Role)
	require.NotNil(t, stored)
	assert.NoError(t, CheckPassword(created.TempPassword, stored.PasswordHash))
}

func TestService_CreateUser_Validation(t *testing.T) {
	svc := newTestService(new(mockRepo), new(mockTokens), &recordingMailer{})

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Email: "x@figureit.test", Role: "owner"})

	var fields validator.Errors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, validator.Errors{
		{Field: "full_name", Message: "Please enter a full name"},
		{Field: "role", Message: "Role must be admin or user"},
	}, fields)

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{Email: "x@figureit.test", FullName: "X", TempPassword: "short"})
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, validator.Errors{{Field: "temp_password", Message: "Password must be at least 8 characters long"}}, fields)
}

func TestService_CreateUser_DuplicateEmail(t *testing.T) {
	repo := new(mockRepo)
	repo.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).Return(ErrEmailAlreadyExists)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Email: "x@figureit.test", FullName: "X"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_ChangePassword_LocalChecks(t *testing.T) {
	cases := []struct {
		name string
		req  ChangePasswordRequest
		msg  string
	}{
		{
			name: "mismatch",
			req:  ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword", ConfirmPassword: "newpassw0rd"},
			msg:  "New passwords do not match",
		},
		{
			name: "too short",
			req:  ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "short", ConfirmPassword: "short"},
			msg:  "Password must be at least 8 characters long",
		},
		{
			name: "unchanged",
			req:  ChangePasswordRequest{CurrentPassword: "samepassword", NewPassword: "samepassword", ConfirmPassword: "samepassword"},
			msg:  "New password must be different from current password",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockRepo)
			svc := newTestService(repo, new(mockTokens), &recordingMailer{})

			err := svc.ChangePassword(context.Background(), uuid.New(), tc.req)

			var fields validator.Errors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, tc.msg, fields.First())
			repo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
		})
	}
}

func TestService_ChangePassword_WrongCurrent(t *testing.T) {
	repo := new(mockRepo)
	u := userWithPassword(t, "oldpassword")
	repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	err := svc.ChangePassword(context.Background(), u.ID, ChangePasswordRequest{
		CurrentPassword: "notmypassword",
		NewPassword:     "newpassword",
		ConfirmPassword: "newpassword",
	})
	assert.ErrorIs(t, err, ErrCurrentPasswordIncorrect)
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ChangePassword_Success(t *testing.T) {
	repo := new(mockRepo)
	u := userWithPassword(t, "oldpassword")
	repo.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)
	repo.On("UpdatePassword", mock.Anything, u.ID, mock.MatchedBy(func(hash string) bool {
		return CheckPassword("newpassword", hash) == nil
	})).Return(nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	events, unsubscribe := svc.Events().Subscribe(u.ID)
	defer unsubscribe()

	err := svc.ChangePassword(context.Background(), u.ID, ChangePasswordRequest{
		CurrentPassword: "oldpassword",
		NewPassword:     "newpassword",
		ConfirmPassword: "newpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, EventUserUpdated, (<-events).Type)
	repo.AssertExpectations(t)
}

func TestService_RequestPasswordReset(t *testing.T) {
	repo := new(mockRepo)
	mailer := &recordingMailer{}
	u := userWithPassword(t, "whatever1")

	var saved *PasswordResetToken
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	repo.On("CreateResetToken", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*PasswordResetToken) }).
		Return(nil)

	svc := newTestService(repo, new(mockTokens), mailer)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), u.Email))

	require.NotNil(t, saved)
	assert.Equal(t, u.Email, mailer.email)
	assert.Contains(t, mailer.link, "https://admin.figureit.test/reset-password?token=")
	raw := mailer.link[len("https://admin.figureit.test/reset-password?token="):]
	assert.Equal(t, hashToken(raw), saved.TokenHash)
	assert.NotEqual(t, raw, saved.TokenHash)
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	repo := new(mockRepo)
	mailer := &recordingMailer{}
	repo.On("GetUserByEmail", mock.Anything, "ghost@figureit.test").Return(nil, ErrUserNotFound)

	svc := newTestService(repo, new(mockTokens), mailer)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@figureit.test"))
	assert.Empty(t, mailer.link)
}

func TestService_RequestPasswordReset_MailerFailure(t *testing.T) {
	repo := new(mockRepo)
	u := userWithPassword(t, "whatever1")
	repo.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	repo.On("CreateResetToken", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{err: errors.New("smtp down")})
	err := svc.RequestPasswordReset(context.Background(), u.Email)
	assert.ErrorIs(t, err, apperr.ErrRemoteWrite)
}

func TestService_ResetPassword(t *testing.T) {
	repo := new(mockRepo)
	userID := uuid.New()
	repo.On("ConsumeResetToken", mock.Anything, hashToken("raw-token"), mock.Anything).
		Return(&PasswordResetToken{UserID: userID}, nil)
	repo.On("UpdatePassword", mock.Anything, userID, mock.Anything).Return(nil)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:           "raw-token",
		Password:        "brandnewpass",
		ConfirmPassword: "brandnewpass",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_ResetPassword_LocalChecks(t *testing.T) {
	cases := []struct {
		name string
		req  ResetPasswordRequest
		want validator.Errors
	}{
		{
			name: "mismatch reported before length",
			req:  ResetPasswordRequest{Token: "t", Password: "short", ConfirmPassword: "shorter"},
			want: validator.Errors{
				{Field: "confirm_password", Message: "Passwords do not match"},
				{Field: "password", Message: "Password must be at least 8 characters long"},
			},
		},
		{
			name: "too short",
			req:  ResetPasswordRequest{Token: "t", Password: "short", ConfirmPassword: "short"},
			want: validator.Errors{{Field: "password", Message: "Password must be at least 8 characters long"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockRepo)
			svc := newTestService(repo, new(mockTokens), &recordingMailer{})

			err := svc.ResetPassword(context.Background(), tc.req)

			var fields validator.Errors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, tc.want, fields)
			repo.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_ResetPassword_InvalidToken(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil, ErrInvalidResetToken)

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:           "stale",
		Password:        "brandnewpass",
		ConfirmPassword: "brandnewpass",
	})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestService_ListUsers_ReadFailure(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAccounts", mock.Anything).Return(nil, errors.New("db gone"))

	svc := newTestService(repo, new(mockTokens), &recordingMailer{})
	_, err := svc.ListUsers(context.Background())
	assert.ErrorIs(t, err, apperr.ErrRemoteRead)
	assert.Equal(t, "Failed to load users", apperr.Message(err, ""))
}
