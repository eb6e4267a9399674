package models

import "testing"

func TestReportLifecycleLegalPath(t *testing.T) {
	steps := []ReportStatus{
		ReportStatusAssigned,
		ReportStatusInProgress,
		ReportStatusSuspended,
		ReportStatusInProgress,
		ReportStatusResolved,
	}

	current := ReportStatusPendingApproval
	for _, next := range steps {
		if !current.CanTransitionTo(next) {
			t.Fatalf("expected %s -> %s to be legal", current, next)
		}
		current = next
	}
}

func TestReportLifecycleIllegalTransitions(t *testing.T) {
	cases := []struct {
		from ReportStatus
		to   ReportStatus
	}{
		{ReportStatusResolved, ReportStatusPendingApproval},
		{ReportStatusResolved, ReportStatusInProgress},
		{ReportStatusRejected, ReportStatusAssigned},
		{ReportStatusPendingApproval, ReportStatusInProgress},
		{ReportStatusPendingApproval, ReportStatusResolved},
		{ReportStatusAssigned, ReportStatusResolved},
		{ReportStatusSuspended, ReportStatusResolved},
		{ReportStatusInProgress, ReportStatusPendingApproval},
	}

	for _, tc := range cases {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestRejectionReachableFromTriage(t *testing.T) {
	if !ReportStatusPendingApproval.CanTransitionTo(ReportStatusRejected) {
		t.Error("expected triage rejection to be legal")
	}
	if !ReportStatusInProgress.CanTransitionTo(ReportStatusRejected) {
		t.Error("expected in-progress rejection to be legal")
	}
}

func TestParseReportStatusClosedSet(t *testing.T) {
	if _, ok := ParseReportStatus("PENDING_APPROVAL"); !ok {
		t.Error("expected PENDING_APPROVAL to parse")
	}
	for _, bad := range []string{"", "pending_approval", "OPEN", "DELETED"} {
		if _, ok := ParseReportStatus(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestParseReportCategoryClosedSet(t *testing.T) {
	valid := []string{
		"WATER_SUPPLY_DRINKING_WATER", "ARCHITECTURAL_BARRIERS", "SEWER_SYSTEM",
		"PUBLIC_LIGHTING", "WASTE", "ROAD_SIGNS_TRAFFIC_LIGHTS",
		"ROADS_URBAN_FURNISHINGS", "PUBLIC_GREEN_AREAS_PLAYGROUNDS", "OTHER",
	}
	for _, s := range valid {
		if _, ok := ParseReportCategory(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	if _, ok := ParseReportCategory("GRAFFITI"); ok {
		t.Error("expected unknown category to be rejected")
	}
}

func TestRoleGuardsClosedSet(t *testing.T) {
	if _, ok := ParseUserRole("MODERATOR"); ok {
		t.Error("expected unknown role to be rejected")
	}
	if UserRoleCitizen.IsStaff() {
		t.Error("citizen must not count as staff")
	}
	if !UserRoleMunicipalStaff.IsStaff() || !UserRoleAdministrator.IsStaff() {
		t.Error("staff and administrator must count as staff")
	}
}
