package models

import "time"

type UserRole string

const (
	UserRoleCitizen        UserRole = "CITIZEN"
	UserRoleMunicipalStaff UserRole = "MUNICIPAL_STAFF"
	UserRoleAdministrator  UserRole = "ADMINISTRATOR"
)

// ParseUserRole keeps the role set closed; unknown strings are rejected so a
// new role can never silently bypass a guard.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case UserRoleCitizen, UserRoleMunicipalStaff, UserRoleAdministrator:
		return UserRole(s), true
	}
	return "", false
}

// IsStaff reports whether the role may act on report triage and lifecycle.
func (r UserRole) IsStaff() bool {
	return r == UserRoleMunicipalStaff || r == UserRoleAdministrator
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	Role         UserRole
	Status       UserStatus
	// Optional profile fields; nil means the user never set them.
	TelegramUsername          *string
	EmailNotificationsEnabled *bool
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// WantsEmailNotifications defaults to true when the preference was never set.
func (u User) WantsEmailNotifications() bool {
	return u.EmailNotificationsEnabled == nil || *u.EmailNotificationsEnabled
}

type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
