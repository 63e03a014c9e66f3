package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/cache"
	"tempiaops/internal/domain"
	"tempiaops/internal/logger"
	"tempiaops/internal/service/s3"
)

const (
	pdfContentType   = "application/pdf"
	signedURLKey     = "fdv:url:"
	signedURLLeeway  = time.Minute
	defaultSignedTTL = time.Hour
)

// Previewer renders and caches FDV thumbnails.
type Previewer interface {
	GetOrGenerate(ctx context.Context, file *domain.FdvFile) ([]byte, error)
	Remove(ctx context.Context, file *domain.FdvFile) error
}

// FdvUpload is one uploaded document as received from the client.
type FdvUpload struct {
	FileName string
	Data     []byte
	Tags     []string
}

type FdvService struct {
	files       FdvStore
	buildings   BuildingStore
	storage     s3.Storage
	urls        cache.KV
	previews    Previewer
	permissions *PermissionService
	signedTTL   time.Duration
	now         func() time.Time
}

func NewFdvService(
	files FdvStore,
	buildings BuildingStore,
	storage s3.Storage,
	urls cache.KV,
	previews Previewer,
	permissions *PermissionService,
	signedTTL time.Duration,
) *FdvService {
	if signedTTL <= 0 {
		signedTTL = defaultSignedTTL
	}
	if urls == nil {
		urls = cache.NoopKV{}
	}
	return &FdvService{
		files:       files,
		buildings:   buildings,
		storage:     storage,
		urls:        urls,
		previews:    previews,
		permissions: permissions,
		signedTTL:   signedTTL,
		now:         time.Now,
	}
}

func (s *FdvService) List(ctx context.Context, session *domain.Session, buildingNumber int) ([]domain.FdvFile, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}

	building, err := s.buildings.GetByNumber(ctx, buildingNumber)
	if err != nil {
		return nil, err
	}
	return s.files.ListByBuilding(ctx, building.ID)
}

// StorageKey is where an upload for buildingID lands: one object per upload,
// named by the upload time in milliseconds.
func StorageKey(buildingID uuid.UUID, at time.Time, fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	return fmt.Sprintf("%s/%d.%s", buildingID, at.UnixMilli(), ext)
}

// Upload stores a PDF for the building. The blob goes first; when the
// metadata row cannot be written the blob is removed again.
func (s *FdvService) Upload(ctx context.Context, session *domain.Session, buildingNumber int, in FdvUpload) (*domain.FdvFile, error) {
	if err := s.permissions.Check(session, OperationUpload); err != nil {
		return nil, err
	}

	name := filepath.Base(strings.TrimSpace(in.FileName))
	if name == "" || name == "." || len(in.Data) == 0 {
		return nil, apperror.New(apperror.CodeInvalid, "file is required")
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") || http.DetectContentType(in.Data) != pdfContentType {
		return nil, apperror.New(apperror.CodeInvalid, "only PDF files are accepted")
	}

	building, err := s.buildings.GetByNumber(ctx, buildingNumber)
	if err != nil {
		return nil, err
	}

	key := StorageKey(building.ID, s.now(), name)
	log := logger.L().With(zap.String("storage_path", key), zap.Int("building", buildingNumber))

	if err := s.storage.UploadBytes(ctx, key, in.Data, pdfContentType); err != nil {
		log.Error("failed to upload fdv file", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.CodeUnavailable, "failed to store file")
	}

	uploadedBy := session.UserID
	file := &domain.FdvFile{
		BuildingID:  building.ID,
		FileName:    name,
		StoragePath: key,
		UploadedBy:  &uploadedBy,
		Tags:        cleanTags(in.Tags),
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			log.Error("failed to remove orphaned blob", zap.Error(delErr))
		}
		return nil, err
	}

	log.Info("fdv file uploaded",
		zap.String("fdv_id", file.ID.String()),
		zap.Int("version", file.Version),
		zap.Int("size", len(in.Data)),
	)
	return file, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// SignedURL returns a short-lived download URL. URLs are cached until shortly
// before they expire.
func (s *FdvService) SignedURL(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.SignedURL, error) {
	if err := s.permissions.Check(session, OperationDownload); err != nil {
		return nil, err
	}

	key := signedURLKey + id.String()
	if raw, err := s.urls.Get(ctx, key); err == nil {
		var cached domain.SignedURL
		if json.Unmarshal([]byte(raw), &cached) == nil && s.now().Add(signedURLLeeway).Before(cached.ExpiresAt) {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.L().Warn("signed url cache unavailable", zap.Error(err))
	}

	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	url, err := s.storage.PresignGet(ctx, file.StoragePath, s.signedTTL)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeUnavailable, "failed to sign url")
	}
	signed := &domain.SignedURL{URL: url, ExpiresAt: issued.Add(s.signedTTL)}

	if ttl := s.signedTTL - signedURLLeeway; ttl > 0 {
		if raw, err := json.Marshal(signed); err == nil {
			if err := s.urls.Set(ctx, key, string(raw), ttl); err != nil {
				logger.L().Warn("failed to cache signed url", zap.Error(err))
			}
		}
	}

	return signed, nil
}

// Delete removes the blob, then the row. A failed blob delete leaves the row
// in place so the file stays reachable.
func (s *FdvService) Delete(ctx context.Context, session *domain.Session, id uuid.UUID) error {
	if err := s.permissions.Check(session, OperationDelete); err != nil {
		return err
	}

	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteObject(ctx, file.StoragePath); err != nil {
		return apperror.Wrap(err, apperror.CodeUnavailable, "failed to delete file from storage")
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.urls.Delete(ctx, signedURLKey+id.String()); err != nil {
		logger.L().Warn("failed to evict signed url", zap.Error(err))
	}
	if s.previews != nil {
		if err := s.previews.Remove(ctx, file); err != nil {
			logger.L().Warn("failed to remove preview", zap.Error(err))
		}
	}

	logger.L().Info("fdv file deleted", zap.String("fdv_id", id.String()), zap.String("user_id", session.UserID))
	return nil
}

func (s *FdvService) Preview(ctx context.Context, session *domain.Session, id uuid.UUID) ([]byte, error) {
	if err := s.permissions.Check(session, OperationView); err != nil {
		return nil, err
	}
	if s.previews == nil {
		return nil, apperror.New(apperror.CodeUnavailable, "previews are disabled")
	}

	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.previews.GetOrGenerate(ctx, file)
}
