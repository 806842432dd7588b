package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploaded chan []byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: make(chan []byte, 1)}
}

func (f *fakeStorage) Upload(_ context.Context, file io.Reader, _ string, _ string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploaded <- data
	return "", nil
}

func (f *fakeStorage) Download(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeStorage) GetURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "http://localhost:8080/uploads/" + path, nil
}

func (f *fakeStorage) Exists(_ context.Context, _ string) (bool, error) { return false, nil }

// expiringReader mimics a multipart temp file: once expired (the request is
// over), reads fail.
type expiringReader struct {
	data    *bytes.Reader
	expired atomic.Bool
}

func (r *expiringReader) Read(p []byte) (int, error) {
	if r.expired.Load() {
		return 0, errors.New("read after request finished")
	}
	return r.data.Read(p)
}

func newService(storage *fakeStorage) FileService {
	return NewFileService(storage, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUploadPunchPhotoAsync_KeyShape(t *testing.T) {
	storage := newFakeStorage()
	svc := newService(storage)

	key := svc.UploadPunchPhotoAsync("user-1", "2024-05-10", "in", strings.NewReader("img"), "selfie.PNG")

	assert.True(t, strings.HasPrefix(key, "attendance/2024-05-10/user-1-in-"), "key %q", key)
	assert.True(t, strings.HasSuffix(key, ".png"), "key %q", key)

	key = svc.UploadPunchPhotoAsync("user-1", "2024-05-10", "out", strings.NewReader("img"), "photo.webp")
	assert.True(t, strings.HasSuffix(key, ".jpg"), "unexpected extension kept in %q", key)
}

func TestUploadPunchPhotoAsync_DrainsReaderBeforeReturning(t *testing.T) {
	storage := newFakeStorage()
	svc := newService(storage)

	photo := []byte("jpeg-bytes")
	reader := &expiringReader{data: bytes.NewReader(photo)}

	svc.UploadPunchPhotoAsync("user-1", "2024-05-10", "in", reader, "selfie.jpg")

	// The request is over; the source must already have been consumed.
	reader.expired.Store(true)

	select {
	case uploaded := <-storage.uploaded:
		assert.Equal(t, photo, uploaded)
	case <-time.After(2 * time.Second):
		t.Fatal("upload never reached storage")
	}
}

func TestGetFileURL(t *testing.T) {
	storage := newFakeStorage()
	svc := newService(storage)

	url, err := svc.GetFileURL(context.Background(), "attendance/2024-05-10/k.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/attendance/2024-05-10/k.jpg", url)
}
