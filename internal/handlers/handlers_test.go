package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestSignupRejectsMalformedPayloadWithWireShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &HandlerSet{log: zerolog.Nop()}

	router := gin.New()
	router.POST("/api/signup", h.Signup)

	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "validation_error" {
		t.Errorf("error = %q, want validation_error", body["error"])
	}
	if body["message"] == "" {
		t.Error("message missing")
	}
}

func TestPaginationDefaultsAndClamps(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", defaultPageSize, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=100000", maxPageSize, 0},
		{"?limit=-5&offset=-1", defaultPageSize, 0},
		{"?limit=abc&offset=xyz", defaultPageSize, 0},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/reports"+tc.query, nil)

		limit, offset := pagination(c)
		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Errorf("pagination(%q) = (%d, %d), want (%d, %d)",
				tc.query, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}
