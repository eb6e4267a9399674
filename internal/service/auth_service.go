package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
	"participium/api/internal/config"
	"participium/api/internal/ids"
	"participium/api/internal/models"
	"participium/api/internal/repository"
	"participium/api/internal/security"
)

const refreshTokenBytes = 32

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdateProfile(ctx context.Context, id string, telegramUsername *string, emailNotifications *bool) (models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	RotateRefreshHash(ctx context.Context, sessionID string, refreshHash []byte, expiresAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByDevice(ctx context.Context, userID string, deviceID string) error
}

// VerificationCodeStore is satisfied by cache.CodeStore.
type VerificationCodeStore interface {
	Put(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email string) (string, error)
}

// VerificationMailer is satisfied by email.Service.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	codes    VerificationCodeStore
	mailer   VerificationMailer
	security config.SecurityConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	codes VerificationCodeStore,
	mailer VerificationMailer,
	securityCfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codes:    codes,
		mailer:   mailer,
		security: securityCfg,
		log:      log,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return apperr.New(apperr.KindValidation, "First and last name are required.")
	}
	if !strings.Contains(in.Email, "@") {
		return apperr.New(apperr.KindValidation, "A valid email address is required.")
	}
	if len(in.Password) < 8 {
		return apperr.New(apperr.KindValidation, "Password must be at least 8 characters.")
	}
	return nil
}

// Register creates a pending citizen account and sends a verification code.
// The account cannot log in until the code is confirmed.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	if err := input.validate(); err != nil {
		return models.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, apperr.New(apperr.KindConflict, "An account with this email already exists.")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("check email uniqueness: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           ids.New(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleCitizen,
		Status:       models.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueVerificationCode(ctx, email); err != nil {
		return models.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("citizen registered")
	return user, nil
}

func (s *AuthService) issueVerificationCode(ctx context.Context, email string) error {
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	if err := s.codes.Put(ctx, email, code); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return s.mailer.SendVerificationEmail(ctx, email, code)
}

// VerifyEmail consumes the stored code for the address and activates the
// account. The code is single use; a wrong guess burns it.
func (s *AuthService) VerifyEmail(ctx context.Context, emailAddr, code string) (models.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	stored, err := s.codes.Consume(ctx, emailAddr)
	if err != nil {
		return models.User{}, fmt.Errorf("consume verification code: %w", err)
	}
	if stored == "" || stored != code {
		return models.User{}, apperr.New(apperr.KindValidation, "Invalid or expired verification code.")
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.New(apperr.KindValidation, "Invalid or expired verification code.")
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if user.Status == models.UserStatusPending {
		if err := s.users.UpdateStatus(ctx, user.ID, models.UserStatusActive); err != nil {
			return models.User{}, fmt.Errorf("activate user: %w", err)
		}
		user.Status = models.UserStatusActive
	}

	s.log.Info().Str("user_id", user.ID).Msg("email verified")
	return user, nil
}

// ResendVerification issues a fresh code, superseding any earlier one. It
// answers identically whether or not the address exists.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.Status != models.UserStatusPending {
		return nil
	}

	return s.issueVerificationCode(ctx, emailAddr)
}

type LoginInput struct {
	Email      string
	Password   string
	DeviceID   string
	DeviceName string
	IPAddress  string
	UserAgent  string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type LoginResult struct {
	User   models.User
	Tokens TokenPair
}

// Login authenticates an active account and opens a device-keyed session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, apperr.FromKind(apperr.KindInvalidCredentials)
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, apperr.FromKind(apperr.KindInvalidCredentials)
	}

	switch user.Status {
	case models.UserStatusPending:
		return LoginResult{}, apperr.New(apperr.KindForbidden, "Email address not verified.")
	case models.UserStatusSuspended:
		return LoginResult{}, apperr.New(apperr.KindForbidden, "Account is suspended.")
	}

	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		deviceID = ids.New()
	}

	refreshToken, refreshHash, err := security.GenerateRefreshToken(refreshTokenBytes)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		DeviceName:       input.DeviceName,
		RefreshTokenHash: refreshHash,
		IPAddress:        input.IPAddress,
		UserAgent:        input.UserAgent,
		ExpiresAt:        time.Now().Add(s.security.JWTRefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.enforceSessionCap(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("session cap enforcement failed")
	}

	access, err := security.GenerateAccessToken(
		s.security.JWTAccessSecret, user.ID, session.ID, deviceID, string(user.Role), s.security.JWTAccessTTL,
	)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate access token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("device_id", deviceID).Msg("login")

	return LoginResult{
		User: user,
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(s.security.JWTAccessTTL.Seconds()),
		},
	}, nil
}

func (s *AuthService) enforceSessionCap(ctx context.Context, userID string) error {
	if s.security.MaxSessions <= 0 {
		return nil
	}
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count > s.security.MaxSessions {
		return s.sessions.DeleteOldestSessions(ctx, userID, s.security.MaxSessions)
	}
	return nil
}

// Refresh rotates the refresh token and issues a new access token. An
// unknown or expired refresh token is treated as an invalid credential.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		return LoginResult{}, apperr.FromKind(apperr.KindUnauthorized)
	}

	session, err := s.sessions.FindByRefreshHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return LoginResult{}, apperr.FromKind(apperr.KindUnauthorized)
		}
		return LoginResult{}, fmt.Errorf("load session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return LoginResult{}, apperr.FromKind(apperr.KindUnauthorized)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return LoginResult{}, apperr.FromKind(apperr.KindUnauthorized)
	}
	if user.Status != models.UserStatusActive {
		return LoginResult{}, apperr.New(apperr.KindForbidden, "Account is not active.")
	}

	newToken, newHash, err := security.GenerateRefreshToken(refreshTokenBytes)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	expiresAt := time.Now().Add(s.security.JWTRefreshTTL)
	if err := s.sessions.RotateRefreshHash(ctx, session.ID, newHash, expiresAt); err != nil {
		return LoginResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	access, err := security.GenerateAccessToken(
		s.security.JWTAccessSecret, user.ID, session.ID, session.DeviceID, string(user.Role), s.security.JWTAccessTTL,
	)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return LoginResult{
		User: user,
		Tokens: TokenPair{
			AccessToken:  access,
			RefreshToken: newToken,
			ExpiresIn:    int64(s.security.JWTAccessTTL.Seconds()),
		},
	}, nil
}

// Logout deletes the caller's session. Missing sessions are not an error;
// logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// RevokeDevice removes the session for one of the caller's devices.
func (s *AuthService) RevokeDevice(ctx context.Context, userID, deviceID string) error {
	return s.sessions.DeleteByDevice(ctx, userID, deviceID)
}

type ProfileUpdateInput struct {
	TelegramUsername          *string
	EmailNotificationsEnabled *bool
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (models.User, error) {
	if input.TelegramUsername != nil {
		trimmed := strings.TrimPrefix(strings.TrimSpace(*input.TelegramUsername), "@")
		input.TelegramUsername = &trimmed
	}
	user, err := s.users.UpdateProfile(ctx, userID, input.TelegramUsername, input.EmailNotificationsEnabled)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.New(apperr.KindNotFound, "User not found.")
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// CreateStaffUser provisions a municipal staff account. The account is
// active immediately; staff do not go through email verification.
func (s *AuthService) CreateStaffUser(ctx context.Context, input RegisterInput) (models.User, error) {
	if err := input.validate(); err != nil {
		return models.User{}, err
	}

	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.FindByEmail(ctx, emailAddr); err == nil {
		return models.User{}, apperr.New(apperr.KindConflict, "An account with this email already exists.")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("check email uniqueness: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           ids.New(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         models.UserRoleMunicipalStaff,
		Status:       models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("staff account created")
	return user, nil
}
