package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
	"participium/api/internal/ids"
	"participium/api/internal/models"
	"participium/api/internal/repository"
)

// ReportStore and NotificationStore are satisfied by the pgx repositories;
// tests substitute in-memory fakes.
type ReportStore interface {
	CreateWithPhotos(ctx context.Context, report models.Report, photos []models.Photo) error
	AddPhotos(ctx context.Context, reportID string, photos []models.Photo) error
	GetByID(ctx context.Context, id string) (models.Report, error)
	List(ctx context.Context, filter repository.ReportFilter) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, reason *string) error
	AddMessage(ctx context.Context, message models.Message) error
	AddNote(ctx context.Context, note models.InternalNote) error
	ListNotes(ctx context.Context, reportID string) ([]models.InternalNote, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification models.Notification) error
}

// Mailer is the outbound email surface the report lifecycle needs.
type Mailer interface {
	SendStatusUpdate(ctx context.Context, to, reportTitle, status string) error
}

// PhotoStorer stores accepted photo uploads in object storage.
type PhotoStorer interface {
	StorePhotos(ctx context.Context, reportID string, files []*multipart.FileHeader) ([]models.Photo, error)
	RemovePhotos(ctx context.Context, photos []models.Photo)
}

type ReportService struct {
	reports       ReportStore
	notifications NotificationStore
	photos        PhotoStorer
	mailer        Mailer
	log           zerolog.Logger
}

func NewReportService(
	reports ReportStore,
	notifications NotificationStore,
	photos PhotoStorer,
	mailer Mailer,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		reports:       reports,
		notifications: notifications,
		photos:        photos,
		mailer:        mailer,
		log:           log,
	}
}

type CreateReportInput struct {
	User        models.User
	Title       string
	Description string
	Category    models.ReportCategory
	Latitude    float64
	Longitude   float64
	IsAnonymous bool
	Files       []*multipart.FileHeader
}

// Create persists a new report in PENDING_APPROVAL. Photos are uploaded
// first; if the database transaction fails the uploaded objects are removed,
// so a partial write is never reported as success.
func (s *ReportService) Create(ctx context.Context, input CreateReportInput) (models.Report, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Report{}, apperr.New(apperr.KindValidation, "Title is required.")
	}

	report := models.Report{
		ID:          ids.New(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		IsAnonymous: input.IsAnonymous,
		Status:      models.ReportStatusPendingApproval,
		UserID:      input.User.ID,
	}

	photos, err := s.photos.StorePhotos(ctx, report.ID, input.Files)
	if err != nil {
		return models.Report{}, err
	}

	if err := s.reports.CreateWithPhotos(ctx, report, photos); err != nil {
		s.photos.RemovePhotos(ctx, photos)
		return models.Report{}, fmt.Errorf("create report: %w", err)
	}

	report.Photos = photos
	report.Messages = []models.Message{}
	user := input.User
	report.User = &user

	s.log.Info().
		Str("report_id", report.ID).
		Str("category", string(report.Category)).
		Bool("anonymous", report.IsAnonymous).
		Msg("report submitted")

	return report, nil
}

// AddPhotos appends photos to an existing report; allowed for the owner and
// for staff.
func (s *ReportService) AddPhotos(ctx context.Context, actor models.User, reportID string, files []*multipart.FileHeader) (models.Report, error) {
	report, err := s.getExisting(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if report.UserID != actor.ID && !actor.Role.IsStaff() {
		return models.Report{}, apperr.New(apperr.KindForbidden, "Only the reporter or municipal staff may add photos.")
	}
	if len(files) == 0 {
		return models.Report{}, apperr.New(apperr.KindBadRequest, "No photos provided.")
	}

	photos, err := s.photos.StorePhotos(ctx, reportID, files)
	if err != nil {
		return models.Report{}, err
	}

	if err := s.reports.AddPhotos(ctx, reportID, photos); err != nil {
		s.photos.RemovePhotos(ctx, photos)
		return models.Report{}, fmt.Errorf("attach photos: %w", err)
	}

	return s.getExisting(ctx, reportID)
}

// Transition moves a report through its lifecycle. Only staff and
// administrators may transition; legality is checked against the closed
// transition table, and a rejection requires a non-empty reason.
func (s *ReportService) Transition(ctx context.Context, actor models.User, reportID string, next models.ReportStatus, reason string) (models.Report, error) {
	if !actor.Role.IsStaff() {
		return models.Report{}, apperr.New(apperr.KindForbidden, "Only municipal staff may change report status.")
	}

	report, err := s.getExisting(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if !report.Status.CanTransitionTo(next) {
		return models.Report{}, apperr.New(
			apperr.KindInvalidTransition,
			fmt.Sprintf("Illegal status transition from %s to %s.", report.Status, next),
		)
	}

	reason = strings.TrimSpace(reason)
	var storedReason *string
	if next == models.ReportStatusRejected {
		if reason == "" {
			return models.Report{}, apperr.New(apperr.KindValidation, "A rejection reason is required.")
		}
		storedReason = &reason
	} else if reason != "" {
		return models.Report{}, apperr.New(apperr.KindValidation, "A reason may only accompany a rejection.")
	}

	if err := s.reports.UpdateStatus(ctx, reportID, next, storedReason); err != nil {
		return models.Report{}, fmt.Errorf("update report status: %w", err)
	}

	s.log.Info().
		Str("report_id", reportID).
		Str("actor_id", actor.ID).
		Str("from", string(report.Status)).
		Str("to", string(next)).
		Msg("report status changed")

	s.notifyOwner(ctx, report, next, reason)

	report.Status = next
	report.RejectedReason = storedReason
	return report, nil
}

func (s *ReportService) notifyOwner(ctx context.Context, report models.Report, next models.ReportStatus, reason string) {
	message := fmt.Sprintf("Your report \"%s\" is now %s.", report.Title, next)
	if next == models.ReportStatusRejected {
		message = fmt.Sprintf("Your report \"%s\" was rejected: %s", report.Title, reason)
	}

	notification := models.Notification{
		ID:       ids.New(),
		UserID:   report.UserID,
		ReportID: report.ID,
		Message:  message,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.log.Error().Err(err).Str("report_id", report.ID).Msg("notification create failed")
	}

	if !report.IsAnonymous && report.User != nil && report.User.WantsEmailNotifications() && report.User.Email != "" {
		if err := s.mailer.SendStatusUpdate(ctx, report.User.Email, report.Title, string(next)); err != nil {
			s.log.Warn().Err(err).Str("report_id", report.ID).Msg("status email failed")
		}
	}
}

// Get returns a report visible to the viewer. Reports still in triage or
// rejected are visible only to their owner and to staff; to everyone else
// they do not exist.
func (s *ReportService) Get(ctx context.Context, viewer *models.User, reportID string) (models.Report, error) {
	report, err := s.getExisting(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if report.Status == models.ReportStatusPendingApproval || report.Status == models.ReportStatusRejected {
		if viewer == nil || (viewer.ID != report.UserID && !viewer.Role.IsStaff()) {
			return models.Report{}, apperr.New(apperr.KindNotFound, "Report not found.")
		}
	}

	return report, nil
}

var publicStatuses = []models.ReportStatus{
	models.ReportStatusAssigned,
	models.ReportStatusInProgress,
	models.ReportStatusSuspended,
	models.ReportStatusResolved,
}

func (s *ReportService) ListPublic(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return s.reports.List(ctx, repository.ReportFilter{
		Statuses: publicStatuses,
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *ReportService) ListMine(ctx context.Context, userID string, limit, offset int) ([]models.Report, error) {
	return s.reports.List(ctx, repository.ReportFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *ReportService) ListAll(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return s.reports.List(ctx, repository.ReportFilter{
		Limit:  limit,
		Offset: offset,
	})
}

// AddMessage appends to the report conversation; only the owner and staff
// may write.
func (s *ReportService) AddMessage(ctx context.Context, actor models.User, reportID string, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, apperr.New(apperr.KindValidation, "Message content is required.")
	}

	report, err := s.getExisting(ctx, reportID)
	if err != nil {
		return models.Message{}, err
	}

	if report.UserID != actor.ID && !actor.Role.IsStaff() {
		return models.Message{}, apperr.New(apperr.KindForbidden, "Only the reporter or municipal staff may post messages.")
	}

	message := models.Message{
		ID:       ids.New(),
		ReportID: reportID,
		SenderID: actor.ID,
		Content:  content,
	}
	if err := s.reports.AddMessage(ctx, message); err != nil {
		return models.Message{}, fmt.Errorf("add message: %w", err)
	}

	return message, nil
}

// AddNote records a staff annotation, snapshotting the author's name and role
// so the note stays accurate after profile changes.
func (s *ReportService) AddNote(ctx context.Context, actor models.User, reportID string, content string) (models.InternalNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.InternalNote{}, apperr.New(apperr.KindValidation, "Note content is required.")
	}

	if _, err := s.getExisting(ctx, reportID); err != nil {
		return models.InternalNote{}, err
	}

	note := models.InternalNote{
		ID:         ids.New(),
		ReportID:   reportID,
		Content:    content,
		AuthorID:   actor.ID,
		AuthorName: actor.FullName(),
		AuthorRole: actor.Role,
	}
	if err := s.reports.AddNote(ctx, note); err != nil {
		return models.InternalNote{}, fmt.Errorf("add note: %w", err)
	}

	return note, nil
}

func (s *ReportService) ListNotes(ctx context.Context, reportID string) ([]models.InternalNote, error) {
	if _, err := s.getExisting(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.ListNotes(ctx, reportID)
}

func (s *ReportService) getExisting(ctx context.Context, reportID string) (models.Report, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return models.Report{}, apperr.New(apperr.KindNotFound, "Report not found.")
		}
		return models.Report{}, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}
