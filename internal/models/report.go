package models

import "time"

type ReportStatus string

const (
	ReportStatusPendingApproval ReportStatus = "PENDING_APPROVAL"
	ReportStatusAssigned        ReportStatus = "ASSIGNED"
	ReportStatusInProgress      ReportStatus = "IN_PROGRESS"
	ReportStatusSuspended       ReportStatus = "SUSPENDED"
	ReportStatusRejected        ReportStatus = "REJECTED"
	ReportStatusResolved        ReportStatus = "RESOLVED"
)

func ParseReportStatus(s string) (ReportStatus, bool) {
	switch ReportStatus(s) {
	case ReportStatusPendingApproval, ReportStatusAssigned, ReportStatusInProgress,
		ReportStatusSuspended, ReportStatusRejected, ReportStatusResolved:
		return ReportStatus(s), true
	}
	return "", false
}

// reportTransitions is the closed set of legal lifecycle moves. A rejection is
// reachable both from triage (PENDING_APPROVAL) and from work in progress; a
// suspended report may only resume.
var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusPendingApproval: {ReportStatusAssigned, ReportStatusRejected},
	ReportStatusAssigned:        {ReportStatusInProgress},
	ReportStatusInProgress:      {ReportStatusSuspended, ReportStatusRejected, ReportStatusResolved},
	ReportStatusSuspended:       {ReportStatusInProgress},
	ReportStatusRejected:        nil,
	ReportStatusResolved:        nil,
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	for _, allowed := range reportTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ReportCategory string

const (
	CategoryWaterSupplyDrinkingWater    ReportCategory = "WATER_SUPPLY_DRINKING_WATER"
	CategoryArchitecturalBarriers       ReportCategory = "ARCHITECTURAL_BARRIERS"
	CategorySewerSystem                 ReportCategory = "SEWER_SYSTEM"
	CategoryPublicLighting              ReportCategory = "PUBLIC_LIGHTING"
	CategoryWaste                       ReportCategory = "WASTE"
	CategoryRoadSignsTrafficLights      ReportCategory = "ROAD_SIGNS_TRAFFIC_LIGHTS"
	CategoryRoadsUrbanFurnishings       ReportCategory = "ROADS_URBAN_FURNISHINGS"
	CategoryPublicGreenAreasPlaygrounds ReportCategory = "PUBLIC_GREEN_AREAS_PLAYGROUNDS"
	CategoryOther                       ReportCategory = "OTHER"
)

func ParseReportCategory(s string) (ReportCategory, bool) {
	switch ReportCategory(s) {
	case CategoryWaterSupplyDrinkingWater, CategoryArchitecturalBarriers, CategorySewerSystem,
		CategoryPublicLighting, CategoryWaste, CategoryRoadSignsTrafficLights,
		CategoryRoadsUrbanFurnishings, CategoryPublicGreenAreasPlaygrounds, CategoryOther:
		return ReportCategory(s), true
	}
	return "", false
}

type Report struct {
	ID          string
	Title       string
	Description string
	Category    ReportCategory
	Latitude    float64
	Longitude   float64
	IsAnonymous bool
	Status      ReportStatus
	UserID      string
	// RejectedReason is set iff Status == REJECTED.
	RejectedReason *string
	User           *User
	Photos         []Photo
	Messages       []Message
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Photo struct {
	ID          string
	ReportID    string
	Bucket      string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	Checksum    []byte
	Signature   []byte
	Position    int
	CreatedAt   time.Time
}

// Message is an append-only conversation entry between the reporter and staff.
type Message struct {
	ID        string
	ReportID  string
	SenderID  string
	Content   string
	CreatedAt time.Time
}

// InternalNote is a staff-only annotation. Author name and role are
// snapshotted at creation so historical notes stay accurate after profile
// changes.
type InternalNote struct {
	ID         string
	ReportID   string
	Content    string
	AuthorID   string
	AuthorName string
	AuthorRole UserRole
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Notification struct {
	ID        string
	UserID    string
	ReportID  string
	Message   string
	CreatedAt time.Time
}
