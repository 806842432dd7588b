package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/attendly-hr/attendly-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
)

type FileService interface {
	// UploadPunchPhotoAsync stores a punch evidence photo without blocking the
	// caller. The returned key is final immediately; the actual write happens in
	// a detached goroutine and a storage failure is logged, never surfaced. The
	// attendance record keeps the key either way.
	UploadPunchPhotoAsync(userID, date, punchType string, file io.Reader, filename string) string

	// GetFileURL generates a URL to access a stored file.
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
	logger  *slog.Logger
}

func NewFileService(storage storage.FileStorage, logger *slog.Logger) FileService {
	return &fileServiceImpl{
		storage: storage,
		logger:  logger,
	}
}

// UploadPunchPhotoAsync implements FileService.
func (s *fileServiceImpl) UploadPunchPhotoAsync(userID, date, punchType string, file io.Reader, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		ext = ".jpg"
	}

	contentType := "image/jpeg"
	if ext == ".png" {
		contentType = "image/png"
	}

	newFilename := fmt.Sprintf("%s-%s-%s%s", userID, punchType, uuid.New().String(), ext)
	path := filepath.Join("attendance", date, newFilename)

	// The multipart temp file is gone once the handler returns, so the bytes
	// are drained here, synchronously. Only the storage write is deferred.
	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("punch photo read failed",
			slog.String("path", path),
			slog.String("user_id", userID),
			slog.String("punch_type", punchType),
			slog.Any("error", err),
		)
		return path
	}

	go func() {
		// Detached from the request; give the write its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.storage.Upload(ctx, bytes.NewReader(data), path, contentType); err != nil {
			s.logger.Error("punch photo upload failed",
				slog.String("path", path),
				slog.String("user_id", userID),
				slog.String("punch_type", punchType),
				slog.Any("error", err),
			)
		}
	}()

	return path
}

// GetFileURL implements FileService.
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}
