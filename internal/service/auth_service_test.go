package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
	"participium/api/internal/config"
	"participium/api/internal/models"
	"participium/api/internal/repository"
	"participium/api/internal/security"
)

type memUserStore struct {
	byEmail map[string]models.User
	byID    map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]models.User{}, byID: map[string]models.User{}}
}

func (m *memUserStore) put(user models.User) {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
}

func (m *memUserStore) Create(_ context.Context, user models.User) error {
	m.put(user)
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUserStore) UpdateStatus(_ context.Context, id string, status models.UserStatus) error {
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Status = status
	m.put(user)
	return nil
}

func (m *memUserStore) UpdateProfile(_ context.Context, id string, telegram *string, emailNotifications *bool) (models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	if telegram != nil {
		user.TelegramUsername = telegram
	}
	if emailNotifications != nil {
		user.EmailNotificationsEnabled = emailNotifications
	}
	m.put(user)
	return user, nil
}

type memSessionStore struct {
	sessions map[string]models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]models.Session{}}
}

func (m *memSessionStore) Create(_ context.Context, session models.Session) error {
	for id, existing := range m.sessions {
		if existing.UserID == session.UserID && existing.DeviceID == session.DeviceID {
			delete(m.sessions, id)
		}
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memSessionStore) FindByRefreshHash(_ context.Context, hash []byte) (models.Session, error) {
	for _, session := range m.sessions {
		if string(session.RefreshTokenHash) == string(hash) {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (m *memSessionStore) RotateRefreshHash(_ context.Context, id string, hash []byte, expiresAt time.Time) error {
	session, ok := m.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.RefreshTokenHash = hash
	session.ExpiresAt = expiresAt
	m.sessions[id] = session
	return nil
}

func (m *memSessionStore) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	var out []models.Session
	for _, session := range m.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (m *memSessionStore) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, session := range m.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memSessionStore) DeleteOldestSessions(context.Context, string, int) error { return nil }

func (m *memSessionStore) DeleteByID(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessionStore) DeleteByDevice(_ context.Context, userID, deviceID string) error {
	for id, session := range m.sessions {
		if session.UserID == userID && session.DeviceID == deviceID {
			delete(m.sessions, id)
		}
	}
	return nil
}

type memCodeStore struct {
	codes map[string]string
}

func newMemCodeStore() *memCodeStore { return &memCodeStore{codes: map[string]string{}} }

func (m *memCodeStore) Put(_ context.Context, email, code string) error {
	m.codes[email] = code
	return nil
}

func (m *memCodeStore) Consume(_ context.Context, email string) (string, error) {
	code := m.codes[email]
	delete(m.codes, email)
	return code, nil
}

type recordingMailer struct {
	sent []struct{ to, code string }
	err  error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ to, code string }{to, code})
	return nil
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    30 * 24 * time.Hour,
		MaxSessions:      10,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *memUserStore, *memSessionStore, *memCodeStore, *recordingMailer) {
	t.Helper()
	users := newMemUserStore()
	sessions := newMemSessionStore()
	codes := newMemCodeStore()
	mailer := &recordingMailer{}
	svc := NewAuthService(users, sessions, codes, mailer, testSecurityConfig(), zerolog.Nop())
	return svc, users, sessions, codes, mailer
}

func TestRegisterSendsSingleSixDigitCode(t *testing.T) {
	svc, users, _, codes, mailer := newAuthFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "New",
		LastName:  "User",
		Email:     "New@Test.com",
		Password:  "Test1234!",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Email != "new@test.com" {
		t.Errorf("email not lowercased: %q", user.Email)
	}
	if user.Role != models.UserRoleCitizen {
		t.Errorf("role = %s, want CITIZEN", user.Role)
	}
	if user.Status != models.UserStatusPending {
		t.Errorf("status = %s, want pending", user.Status)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want exactly 1", len(mailer.sent))
	}
	code := mailer.sent[0].code
	if len(code) != 6 {
		t.Errorf("code %q is not six digits", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit", code)
		}
	}
	if codes.codes[user.Email] != code {
		t.Errorf("stored code %q does not match emailed code %q", codes.codes[user.Email], code)
	}
	if _, ok := users.byEmail["new@test.com"]; !ok {
		t.Error("user was not persisted")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "taken@test.com", Status: models.UserStatusActive})

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "A", LastName: "B", Email: "taken@test.com", Password: "Test1234!",
	})
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestRegisterSurfacesMailerFailure(t *testing.T) {
	svc, _, _, _, mailer := newAuthFixture(t)
	mailer.err = apperr.FromKind(apperr.KindVerificationEmail)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "A", LastName: "B", Email: "a@test.com", Password: "Test1234!",
	})
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindVerificationEmail {
		t.Fatalf("err = %v, want verification email failure", err)
	}
}

func TestVerifyEmailActivatesAccount(t *testing.T) {
	svc, users, _, codes, _ := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "a@test.com", Status: models.UserStatusPending})
	codes.codes["a@test.com"] = "123456"

	user, err := svc.VerifyEmail(context.Background(), "a@test.com", "123456")
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if user.Status != models.UserStatusActive {
		t.Errorf("status = %s, want active", user.Status)
	}
}

func TestVerifyEmailCodeIsSingleUse(t *testing.T) {
	svc, users, _, codes, _ := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "a@test.com", Status: models.UserStatusPending})
	codes.codes["a@test.com"] = "123456"

	if _, err := svc.VerifyEmail(context.Background(), "a@test.com", "123456"); err != nil {
		t.Fatalf("first VerifyEmail: %v", err)
	}
	_, err := svc.VerifyEmail(context.Background(), "a@test.com", "123456")
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindValidation {
		t.Fatalf("second use err = %v, want validation", err)
	}
}

func TestVerifyEmailWrongCodeBurnsStored(t *testing.T) {
	svc, users, _, codes, _ := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "a@test.com", Status: models.UserStatusPending})
	codes.codes["a@test.com"] = "123456"

	_, err := svc.VerifyEmail(context.Background(), "a@test.com", "000000")
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if _, remaining := codes.codes["a@test.com"]; remaining {
		t.Error("wrong guess should consume the stored code")
	}
}

func TestResendSupersedesOldCode(t *testing.T) {
	svc, users, _, codes, mailer := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "a@test.com", Status: models.UserStatusPending})
	codes.codes["a@test.com"] = "111111"

	if err := svc.ResendVerification(context.Background(), "a@test.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if codes.codes["a@test.com"] == "111111" {
		t.Error("old code not superseded")
	}
	if codes.codes["a@test.com"] != mailer.sent[0].code {
		t.Error("stored code does not match emailed code")
	}
}

func TestResendUnknownEmailSilentlySucceeds(t *testing.T) {
	svc, _, _, _, mailer := newAuthFixture(t)
	if err := svc.ResendVerification(context.Background(), "nobody@test.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("no email should be sent for unknown address")
	}
}

func loginReadyUser(t *testing.T, users *memUserStore, status models.UserStatus) models.User {
	t.Helper()
	hash, err := security.HashPassword("Test1234!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := models.User{
		ID:           "u1",
		Email:        "a@test.com",
		PasswordHash: hash,
		Role:         models.UserRoleCitizen,
		Status:       status,
	}
	users.put(user)
	return user
}

func TestLoginIssuesTokensForActiveUser(t *testing.T) {
	svc, users, sessions, _, _ := newAuthFixture(t)
	loginReadyUser(t, users, models.UserStatusActive)

	result, err := svc.Login(context.Background(), LoginInput{
		Email: "a@test.com", Password: "Test1234!", DeviceID: "dev-1",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("tokens missing")
	}

	claims, err := security.ParseAccessToken(result.Tokens.AccessToken, "test-access-secret")
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "CITIZEN" {
		t.Errorf("claims = %+v", claims)
	}
	if n, _ := sessions.CountByUser(context.Background(), "u1"); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

func TestLoginPendingUserForbidden(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture(t)
	loginReadyUser(t, users, models.UserStatusPending)

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@test.com", Password: "Test1234!"})
	appErr := &apperr.Error{}
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if appErr.Message != "Email address not verified." {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestLoginWrongPasswordInvalidCredentials(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture(t)
	loginReadyUser(t, users, models.UserStatusActive)

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@test.com", Password: "wrong"})
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindInvalidCredentials {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture(t)
	loginReadyUser(t, users, models.UserStatusActive)

	first, err := svc.Login(context.Background(), LoginInput{Email: "a@test.com", Password: "Test1234!", DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Error("refresh token not rotated")
	}

	// The old token is dead after rotation.
	if _, err := svc.Refresh(context.Background(), first.Tokens.RefreshToken); err == nil {
		t.Error("stale refresh token accepted")
	}
	if _, err := svc.Refresh(context.Background(), second.Tokens.RefreshToken); err != nil {
		t.Errorf("rotated token rejected: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, sessions, _, _ := newAuthFixture(t)
	sessions.sessions["s1"] = models.Session{ID: "s1", UserID: "u1"}

	if err := svc.Logout(context.Background(), "s1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "s1"); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestUpdateProfileStripsTelegramAt(t *testing.T) {
	svc, users, _, _, _ := newAuthFixture(t)
	users.put(models.User{ID: "u1", Email: "a@test.com", Status: models.UserStatusActive})

	handle := "@civic_user"
	user, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdateInput{TelegramUsername: &handle})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.TelegramUsername == nil || *user.TelegramUsername != "civic_user" {
		t.Errorf("telegram = %v, want civic_user", user.TelegramUsername)
	}
}

func TestCreateStaffUserIsActiveStaff(t *testing.T) {
	svc, _, _, _, mailer := newAuthFixture(t)

	user, err := svc.CreateStaffUser(context.Background(), RegisterInput{
		FirstName: "Ops", LastName: "Staff", Email: "ops@city.test", Password: "Test1234!",
	})
	if err != nil {
		t.Fatalf("CreateStaffUser: %v", err)
	}
	if user.Role != models.UserRoleMunicipalStaff {
		t.Errorf("role = %s", user.Role)
	}
	if user.Status != models.UserStatusActive {
		t.Errorf("status = %s, want active", user.Status)
	}
	if len(mailer.sent) != 0 {
		t.Error("staff accounts should not receive verification email")
	}
}
