package handlers

import (
	"time"

	"participium/api/internal/models"
)

type userResponse struct {
	ID                        string  `json:"id"`
	FirstName                 string  `json:"firstName"`
	LastName                  string  `json:"lastName"`
	Email                     string  `json:"email"`
	Role                      string  `json:"role"`
	Status                    string  `json:"status"`
	TelegramUsername          *string `json:"telegramUsername"`
	EmailNotificationsEnabled bool    `json:"emailNotificationsEnabled"`
	CreatedAt                 string  `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:                        user.ID,
		FirstName:                 user.FirstName,
		LastName:                  user.LastName,
		Email:                     user.Email,
		Role:                      string(user.Role),
		Status:                    string(user.Status),
		TelegramUsername:          user.TelegramUsername,
		EmailNotificationsEnabled: user.WantsEmailNotifications(),
		CreatedAt:                 user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// reportUser is the reporter as exposed on a report. It carries only what a
// reader of the report needs, never credentials or preferences.
type reportUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type photoResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	Position    int    `json:"position"`
}

type messageResponse struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type noteResponse struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
	AuthorRole string `json:"authorRole"`
	CreatedAt  string `json:"createdAt"`
}

type reportResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	IsAnonymous bool    `json:"isAnonymous"`
	Status      string  `json:"status"`
	// RejectedReason is null unless the report was rejected.
	RejectedReason *string `json:"rejectedReason"`
	// User is omitted entirely for anonymous reports.
	User      *reportUser       `json:"user,omitempty"`
	Photos    []photoResponse   `json:"photos"`
	Messages  []messageResponse `json:"messages"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// newReportResponse maps a report for the wire. urlFor turns a stored photo
// into its public URL.
func newReportResponse(report models.Report, urlFor func(models.Photo) string) reportResponse {
	out := reportResponse{
		ID:             report.ID,
		Title:          report.Title,
		Description:    report.Description,
		Category:       string(report.Category),
		Latitude:       report.Latitude,
		Longitude:      report.Longitude,
		IsAnonymous:    report.IsAnonymous,
		Status:         string(report.Status),
		RejectedReason: report.RejectedReason,
		Photos:         make([]photoResponse, 0, len(report.Photos)),
		Messages:       make([]messageResponse, 0, len(report.Messages)),
		CreatedAt:      report.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      report.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if !report.IsAnonymous && report.User != nil {
		out.User = &reportUser{
			ID:        report.User.ID,
			FirstName: report.User.FirstName,
			LastName:  report.User.LastName,
		}
	}

	for _, photo := range report.Photos {
		out.Photos = append(out.Photos, photoResponse{
			ID:          photo.ID,
			URL:         urlFor(photo),
			ContentType: photo.ContentType,
			SizeBytes:   photo.SizeBytes,
			Position:    photo.Position,
		})
	}
	for _, message := range report.Messages {
		out.Messages = append(out.Messages, newMessageResponse(message))
	}

	return out
}

func newMessageResponse(message models.Message) messageResponse {
	return messageResponse{
		ID:        message.ID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newNoteResponse(note models.InternalNote) noteResponse {
	return noteResponse{
		ID:         note.ID,
		Content:    note.Content,
		AuthorName: note.AuthorName,
		AuthorRole: string(note.AuthorRole),
		CreatedAt:  note.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type sessionResponse struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	IPAddress  string `json:"ipAddress"`
	LastSeenAt string `json:"lastSeenAt"`
	CreatedAt  string `json:"createdAt"`
}

func newSessionResponse(session models.Session) sessionResponse {
	return sessionResponse{
		DeviceID:   session.DeviceID,
		DeviceName: session.DeviceName,
		IPAddress:  session.IPAddress,
		LastSeenAt: session.LastSeenAt.UTC().Format(time.RFC3339),
		CreatedAt:  session.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type notificationResponse struct {
	ID        string `json:"id"`
	ReportID  string `json:"reportId"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

func newNotificationResponse(notification models.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		ReportID:  notification.ReportID,
		Message:   notification.Message,
		CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
