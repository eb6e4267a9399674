package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"participium/api/internal/models"
)

func stubURL(photo models.Photo) string {
	return "https://cdn.test/" + photo.ObjectKey
}

func TestReportResponseOmitsUserWhenAnonymous(t *testing.T) {
	report := models.Report{
		ID:          "r1",
		Title:       "Overflowing bin",
		Category:    models.CategoryWaste,
		IsAnonymous: true,
		Status:      models.ReportStatusAssigned,
		UserID:      "u1",
		User:        &models.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace"},
	}

	raw, err := json.Marshal(newReportResponse(report, stubURL))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(raw), `"user"`) {
		t.Errorf("anonymous report leaked reporter identity: %s", raw)
	}
}

func TestReportResponseIncludesReporterWhenNotAnonymous(t *testing.T) {
	report := models.Report{
		ID:     "r1",
		Status: models.ReportStatusAssigned,
		UserID: "u1",
		User:   &models.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@test.com"},
	}

	raw, err := json.Marshal(newReportResponse(report, stubURL))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	if !strings.Contains(body, `"firstName":"Ada"`) {
		t.Errorf("reporter missing: %s", body)
	}
	// Only the public subset of the user is exposed.
	if strings.Contains(body, "ada@test.com") {
		t.Errorf("reporter email leaked: %s", body)
	}
}

func TestReportResponseFieldsNeverNullArrays(t *testing.T) {
	raw, err := json.Marshal(newReportResponse(models.Report{ID: "r1"}, stubURL))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	if !strings.Contains(body, `"photos":[]`) {
		t.Errorf("photos should be an empty array, got: %s", body)
	}
	if !strings.Contains(body, `"messages":[]`) {
		t.Errorf("messages should be an empty array, got: %s", body)
	}
	if !strings.Contains(body, `"rejectedReason":null`) {
		t.Errorf("rejectedReason should be explicit null, got: %s", body)
	}
}

func TestUserResponseDefaultsEmailNotificationsOn(t *testing.T) {
	out := newUserResponse(models.User{ID: "u1"})
	if !out.EmailNotificationsEnabled {
		t.Error("unset preference must read as enabled")
	}

	off := false
	out = newUserResponse(models.User{ID: "u1", EmailNotificationsEnabled: &off})
	if out.EmailNotificationsEnabled {
		t.Error("explicit opt-out ignored")
	}
}
