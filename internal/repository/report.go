package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"participium/api/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

const reportBaseQuery = `
	SELECT r.id, r.title, r.description, r.category, r.latitude, r.longitude,
	       r.is_anonymous, r.status, r.user_id, r.rejected_reason,
	       r.created_at, r.updated_at,
	       u.id, u.first_name, u.last_name, u.email, u.telegram_username,
	       u.email_notifications_enabled
	FROM reports r
	LEFT JOIN users u ON u.id = r.user_id
`

func scanReport(row pgx.Row) (models.Report, error) {
	var (
		report models.Report

		userID            *string
		userFirstName     *string
		userLastName      *string
		userEmail         *string
		userTelegram      *string
		userEmailNotified *bool
	)

	if err := row.Scan(
		&report.ID,
		&report.Title,
		&report.Description,
		&report.Category,
		&report.Latitude,
		&report.Longitude,
		&report.IsAnonymous,
		&report.Status,
		&report.UserID,
		&report.RejectedReason,
		&report.CreatedAt,
		&report.UpdatedAt,
		&userID,
		&userFirstName,
		&userLastName,
		&userEmail,
		&userTelegram,
		&userEmailNotified,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, err
	}

	if userID != nil {
		report.User = &models.User{
			ID:                        *userID,
			FirstName:                 derefString(userFirstName),
			LastName:                  derefString(userLastName),
			Email:                     derefString(userEmail),
			TelegramUsername:          userTelegram,
			EmailNotificationsEnabled: userEmailNotified,
		}
	}

	return report, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateWithPhotos persists the report row and all photo rows in a single
// transaction: the report either lands with every photo reference or not at
// all.
func (r *ReportRepository) CreateWithPhotos(ctx context.Context, report models.Report, photos []models.Photo) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertReport = `
		INSERT INTO reports (
			id, title, description, category, latitude, longitude, is_anonymous,
			status, user_id, rejected_reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`
	if _, err := tx.Exec(ctx, insertReport,
		report.ID,
		report.Title,
		report.Description,
		report.Category,
		report.Latitude,
		report.Longitude,
		report.IsAnonymous,
		report.Status,
		report.UserID,
		report.RejectedReason,
	); err != nil {
		return err
	}

	if err := insertPhotos(ctx, tx, photos); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AddPhotos appends photos to an existing report atomically.
func (r *ReportRepository) AddPhotos(ctx context.Context, reportID string, photos []models.Photo) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertPhotos(ctx, tx, photos); err != nil {
		return err
	}

	const touch = `UPDATE reports SET updated_at = NOW() WHERE id = $1`
	cmd, err := tx.Exec(ctx, touch, reportID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return tx.Commit(ctx)
}

func insertPhotos(ctx context.Context, tx pgx.Tx, photos []models.Photo) error {
	const insertPhoto = `
		INSERT INTO report_photos (
			id, report_id, bucket, object_key, content_type, size_bytes,
			checksum, signature, position, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`
	for _, photo := range photos {
		if _, err := tx.Exec(ctx, insertPhoto,
			photo.ID,
			photo.ReportID,
			photo.Bucket,
			photo.ObjectKey,
			photo.ContentType,
			photo.SizeBytes,
			photo.Checksum,
			photo.Signature,
			photo.Position,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (models.Report, error) {
	report, err := scanReport(r.pool.QueryRow(ctx, reportBaseQuery+` WHERE r.id = $1`, id))
	if err != nil {
		return models.Report{}, err
	}

	if err := r.attachAssociations(ctx, []*models.Report{&report}); err != nil {
		return models.Report{}, err
	}
	return report, nil
}

type ReportFilter struct {
	Statuses []models.ReportStatus
	UserID   string
	Limit    int
	Offset   int
}

func (r *ReportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	var statuses []string
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	const query = reportBaseQuery + `
		WHERE ($1::text[] IS NULL OR r.status = ANY($1))
		  AND ($2 = '' OR r.user_id = $2)
		ORDER BY r.created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, statuses, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*models.Report, len(reports))
	for i := range reports {
		refs[i] = &reports[i]
	}
	if err := r.attachAssociations(ctx, refs); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepository) attachAssociations(ctx context.Context, reports []*models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	byID := make(map[string]*models.Report, len(reports))
	ids := make([]string, 0, len(reports))
	for _, report := range reports {
		report.Photos = []models.Photo{}
		report.Messages = []models.Message{}
		byID[report.ID] = report
		ids = append(ids, report.ID)
	}

	const photoQuery = `
		SELECT id, report_id, bucket, object_key, content_type, size_bytes,
		       checksum, signature, position, created_at
		FROM report_photos
		WHERE report_id = ANY($1)
		ORDER BY report_id, position
	`
	photoRows, err := r.pool.Query(ctx, photoQuery, ids)
	if err != nil {
		return err
	}
	defer photoRows.Close()
	for photoRows.Next() {
		var photo models.Photo
		if err := photoRows.Scan(
			&photo.ID,
			&photo.ReportID,
			&photo.Bucket,
			&photo.ObjectKey,
			&photo.ContentType,
			&photo.SizeBytes,
			&photo.Checksum,
			&photo.Signature,
			&photo.Position,
			&photo.CreatedAt,
		); err != nil {
			return err
		}
		if report, ok := byID[photo.ReportID]; ok {
			report.Photos = append(report.Photos, photo)
		}
	}
	if err := photoRows.Err(); err != nil {
		return err
	}

	const messageQuery = `
		SELECT id, report_id, sender_id, content, created_at
		FROM report_messages
		WHERE report_id = ANY($1)
		ORDER BY report_id, created_at
	`
	messageRows, err := r.pool.Query(ctx, messageQuery, ids)
	if err != nil {
		return err
	}
	defer messageRows.Close()
	for messageRows.Next() {
		var message models.Message
		if err := messageRows.Scan(
			&message.ID,
			&message.ReportID,
			&message.SenderID,
			&message.Content,
			&message.CreatedAt,
		); err != nil {
			return err
		}
		if report, ok := byID[message.ReportID]; ok {
			report.Messages = append(report.Messages, message)
		}
	}
	return messageRows.Err()
}

// UpdateStatus writes the new lifecycle state. reason must be nil for every
// status except REJECTED; the column is overwritten unconditionally so stale
// reasons never survive a transition.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, reason *string) error {
	const query = `
		UPDATE reports
		SET status = $2, rejected_reason = $3, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) AddMessage(ctx context.Context, message models.Message) error {
	const query = `
		INSERT INTO report_messages (id, report_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ReportID,
		message.SenderID,
		message.Content,
	)
	return err
}

func (r *ReportRepository) AddNote(ctx context.Context, note models.InternalNote) error {
	const query = `
		INSERT INTO report_internal_notes (
			id, report_id, content, author_id, author_name, author_role,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		note.ID,
		note.ReportID,
		note.Content,
		note.AuthorID,
		note.AuthorName,
		note.AuthorRole,
	)
	return err
}

func (r *ReportRepository) ListNotes(ctx context.Context, reportID string) ([]models.InternalNote, error) {
	const query = `
		SELECT id, report_id, content, author_id, author_name, author_role,
		       created_at, updated_at
		FROM report_internal_notes
		WHERE report_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.InternalNote
	for rows.Next() {
		var note models.InternalNote
		if err := rows.Scan(
			&note.ID,
			&note.ReportID,
			&note.Content,
			&note.AuthorID,
			&note.AuthorName,
			&note.AuthorRole,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
