package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"participium/api/internal/config"
	"participium/api/internal/models"
	"participium/api/internal/security"
)

const testSecret = "test-access-secret"

type fakeUserSource struct {
	users map[string]models.User
}

func (f *fakeUserSource) GetByID(ctx context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

type fakeSessionSource struct {
	sessions map[string]models.Session
	touched  int
}

func (f *fakeSessionSource) GetByID(ctx context.Context, id string) (models.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return models.Session{}, errors.New("session not found")
	}
	return session, nil
}

func (f *fakeSessionSource) Touch(ctx context.Context, sessionID, ip, userAgent string) error {
	f.touched++
	return nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{JWTAccessSecret: testSecret},
	}
}

func fixtures(role models.UserRole, status models.UserStatus) (*fakeUserSource, *fakeSessionSource, string) {
	user := models.User{
		ID:     "user-1",
		Email:  "citizen@test.com",
		Role:   role,
		Status: status,
	}
	session := models.Session{
		ID:       "session-1",
		UserID:   "user-1",
		DeviceID: "device-1",
	}

	token, _ := security.GenerateAccessToken(testSecret, user.ID, session.ID, session.DeviceID, string(role), time.Minute)

	return &fakeUserSource{users: map[string]models.User{user.ID: user}},
		&fakeSessionSource{sessions: map[string]models.Session{session.ID: session}},
		token
}

func runGuarded(t *testing.T, authHeader string, users UserSource, sessions SessionSource, extra ...gin.HandlerFunc) (*httptest.ResponseRecorder, *bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reached := false
	router := gin.New()
	chain := append([]gin.HandlerFunc{Auth(testConfig(), users, sessions)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	router.GET("/protected", chain...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, &reached
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error, body.Message
}

func TestAuth_FailsClosedOnMissingOrInvalidCredentials(t *testing.T) {
	users, sessions, _ := fixtures(models.UserRoleCitizen, models.UserStatusActive)

	headers := []string{
		"",
		"Bearer ",
		"Bearer not-a-jwt",
		"Basic dXNlcjpwYXNz",
	}

	for _, header := range headers {
		w, reached := runGuarded(t, header, users, sessions)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
		if *reached {
			t.Errorf("header %q: downstream handler must not run", header)
		}
		code, message := decodeError(t, w)
		if code != "unauthorized" {
			t.Errorf("header %q: expected error code unauthorized, got %q", header, code)
		}
		if message != "You don't have the right to access this resource." {
			t.Errorf("header %q: unexpected message %q", header, message)
		}
	}
}

func TestAuth_RejectsOrphanedSession(t *testing.T) {
	users, _, token := fixtures(models.UserRoleCitizen, models.UserStatusActive)
	emptySessions := &fakeSessionSource{sessions: map[string]models.Session{}}

	w, reached := runGuarded(t, "Bearer "+token, users, emptySessions)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if *reached {
		t.Error("downstream handler must not run")
	}
}

func TestAuth_AllowsValidCredential(t *testing.T) {
	users, sessions, token := fixtures(models.UserRoleCitizen, models.UserStatusActive)

	w, reached := runGuarded(t, "Bearer "+token, users, sessions)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !*reached {
		t.Error("expected downstream handler to run")
	}
	if sessions.touched != 1 {
		t.Errorf("expected session touch, got %d", sessions.touched)
	}
}

func TestAuth_BlocksPendingUser(t *testing.T) {
	users, sessions, token := fixtures(models.UserRoleCitizen, models.UserStatusPending)

	w, reached := runGuarded(t, "Bearer "+token, users, sessions)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if *reached {
		t.Error("downstream handler must not run")
	}
}

func TestRequireAdmin_ForbidsNonAdministrators(t *testing.T) {
	for _, role := range []models.UserRole{models.UserRoleCitizen, models.UserRoleMunicipalStaff} {
		users, sessions, token := fixtures(role, models.UserStatusActive)

		w, reached := runGuarded(t, "Bearer "+token, users, sessions, RequireAdmin())
		if w.Code != http.StatusForbidden {
			t.Errorf("role %s: expected 403, got %d", role, w.Code)
		}
		if *reached {
			t.Errorf("role %s: downstream handler must not run", role)
		}
		_, message := decodeError(t, w)
		if message != "Administrator privileges required." {
			t.Errorf("role %s: unexpected message %q", role, message)
		}
	}
}

func TestRequireAdmin_AllowsAdministrator(t *testing.T) {
	users, sessions, token := fixtures(models.UserRoleAdministrator, models.UserStatusActive)

	w, reached := runGuarded(t, "Bearer "+token, users, sessions, RequireAdmin())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !*reached {
		t.Error("expected downstream handler to run")
	}
}

func TestRequireRoles_StaffGuard(t *testing.T) {
	staffGuard := RequireRoles(models.UserRoleMunicipalStaff, models.UserRoleAdministrator)

	users, sessions, token := fixtures(models.UserRoleCitizen, models.UserStatusActive)
	w, _ := runGuarded(t, "Bearer "+token, users, sessions, staffGuard)
	if w.Code != http.StatusForbidden {
		t.Errorf("citizen: expected 403, got %d", w.Code)
	}

	users, sessions, token = fixtures(models.UserRoleMunicipalStaff, models.UserStatusActive)
	w, _ = runGuarded(t, "Bearer "+token, users, sessions, staffGuard)
	if w.Code != http.StatusOK {
		t.Errorf("staff: expected 200, got %d", w.Code)
	}
}
