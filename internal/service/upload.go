package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"participium/api/internal/apperr"
	"participium/api/internal/config"
	"participium/api/internal/ids"
	"participium/api/internal/media/sniffer"
	"participium/api/internal/models"
	"participium/api/internal/security"
	"participium/api/internal/storage"
)

// PhotoFieldName is the only multipart file field reports accept.
const PhotoFieldName = "photos"

// MaxPhotoSizeBytes caps each uploaded photo at 10MB.
const MaxPhotoSizeBytes = 10 << 20

// ValidatePhotoBatch is the upload gate: it checks field names, file count,
// per-file size, and declared content type, translating every violation into
// a domain error. It does not read file contents.
func ValidatePhotoBatch(form *multipart.Form, maxCount int) ([]*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}

	for field := range form.File {
		if field != PhotoFieldName {
			return nil, apperr.New(apperr.KindBadRequest, fmt.Sprintf("Unexpected field: %s", field))
		}
	}

	files := form.File[PhotoFieldName]
	if len(files) > maxCount {
		return nil, apperr.New(apperr.KindBadRequest, fmt.Sprintf("Maximum %d files allowed", maxCount))
	}

	for _, file := range files {
		if file.Size > MaxPhotoSizeBytes {
			return nil, apperr.New(apperr.KindBadRequest, "File size exceeds 10MB limit")
		}
		declared := sniffer.MimeTypeFromHTTP(http.Header(file.Header))
		if !strings.HasPrefix(declared, "image/") {
			return nil, apperr.FromKind(apperr.KindInvalidPhotoType)
		}
	}

	return files, nil
}

type UploadService struct {
	store *storage.ObjectStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewUploadService(store *storage.ObjectStore, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// StorePhotos buffers each accepted file, verifies the content against its
// declared type, and uploads it to object storage. On any failure the objects
// already written are removed so storage never holds photos of a report that
// was not persisted.
func (s *UploadService) StorePhotos(ctx context.Context, reportID string, files []*multipart.FileHeader) ([]models.Photo, error) {
	photos := make([]models.Photo, 0, len(files))

	for position, header := range files {
		photo, err := s.storeOne(ctx, reportID, position, header)
		if err != nil {
			s.RemovePhotos(ctx, photos)
			return nil, err
		}
		photos = append(photos, photo)
	}

	return photos, nil
}

func (s *UploadService) storeOne(ctx context.Context, reportID string, position int, header *multipart.FileHeader) (models.Photo, error) {
	file, err := header.Open()
	if err != nil {
		return models.Photo{}, fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxPhotoSizeBytes+1))
	if err != nil {
		return models.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > MaxPhotoSizeBytes {
		return models.Photo{}, apperr.New(apperr.KindBadRequest, "File size exceeds 10MB limit")
	}
	if len(data) == 0 {
		return models.Photo{}, apperr.New(apperr.KindBadRequest, "Empty file")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := sniffer.DetectHead(head)
	if err != nil {
		return models.Photo{}, apperr.FromKind(apperr.KindInvalidPhotoType)
	}
	declared := sniffer.MimeTypeFromHTTP(http.Header(header.Header))
	if declared != "" && declared != detected.MIME {
		return models.Photo{}, apperr.FromKind(apperr.KindInvalidPhotoType)
	}

	photoID := ids.New()
	objectKey := s.buildObjectKey(reportID, photoID, string(detected.Type))

	_, err = s.store.Client().PutObject(
		ctx,
		s.store.PhotoBucket(),
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: detected.MIME},
	)
	if err != nil {
		s.log.Error().Err(err).Str("report_id", reportID).Msg("photo upload failed")
		return models.Photo{}, apperr.New(apperr.KindInternal, "Unable to store photo.")
	}

	sum := sha256.Sum256(data)

	photo := models.Photo{
		ID:          photoID,
		ReportID:    reportID,
		Bucket:      s.store.PhotoBucket(),
		ObjectKey:   objectKey,
		ContentType: detected.MIME,
		SizeBytes:   int64(len(data)),
		Checksum:    sum[:],
		Signature:   security.SignResource(s.cfg.Security.SignatureSecret, photoID, objectKey),
		Position:    position,
		CreatedAt:   time.Now().UTC(),
	}
	return photo, nil
}

// RemovePhotos deletes stored objects, best effort. Used to undo uploads when
// the surrounding database transaction does not commit.
func (s *UploadService) RemovePhotos(ctx context.Context, photos []models.Photo) {
	for _, photo := range photos {
		if err := s.store.Client().RemoveObject(ctx, photo.Bucket, photo.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
			s.log.Warn().Err(err).Str("object_key", photo.ObjectKey).Msg("photo cleanup failed")
		}
	}
}

func (s *UploadService) PublicURL(photo models.Photo) string {
	return s.store.PublicURL(photo.Bucket, photo.ObjectKey)
}

func (s *UploadService) buildObjectKey(reportID, photoID, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, reportID, fmt.Sprintf("%s.%s", photoID, ext))
}
