package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"talkdoc/internal/backend"
)

// allowedExtensions mirrors the backend's accepted formats so an unusable
// file is rejected without a wasted round-trip.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// Uploader drives the upload lifecycle: at most one transfer in flight, and
// a registry refresh once the backend accepts the file. It never mutates the
// registry snapshot itself.
type Uploader struct {
	client   backend.Client
	registry *Registry

	mu       sync.Mutex
	inFlight bool
}

func NewUploader(client backend.Client, registry *Registry) *Uploader {
	return &Uploader{client: client, registry: registry}
}

// Submit transfers one file to the backend. Validation failures
// (ErrEmptyFile, ErrUnsupportedFileType) and a busy uploader (ErrUploadBusy)
// are reported before any network call. The file reference is not retained
// after the call settles.
func (u *Uploader) Submit(ctx context.Context, name string, size int64, file io.Reader) error {
	if size <= 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	u.mu.Lock()
	if u.inFlight {
		u.mu.Unlock()
		return ErrUploadBusy
	}
	u.inFlight = true
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		u.inFlight = false
		u.mu.Unlock()
	}()

	result, err := u.client.Upload(ctx, name, file)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Detail != "" {
			return fmt.Errorf("%w: %s", ErrUploadFailed, statusErr.Detail)
		}
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	slog.Info("upload accepted", "doc_id", result.DocID, "title", result.Title, "chunks", result.NumChunks)

	// The upload itself succeeded; a failed refresh only delays visibility
	// until the next one.
	if err := u.registry.Refresh(ctx); err != nil {
		slog.Warn("post-upload registry refresh failed", "error", err)
	}
	return nil
}

// InFlight reports whether a transfer is outstanding.
func (u *Uploader) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight
}
