package session_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkdoc/internal/session"
)

// recordingHandler wraps a handler and records the request paths it served.
type recordingHandler struct {
	mu    sync.Mutex
	paths []string
	next  http.HandlerFunc
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.paths = append(h.paths, r.URL.Path)
	h.mu.Unlock()
	h.next(w, r)
}

func (h *recordingHandler) requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func TestUploaderRejectsBeforeNetwork(t *testing.T) {
	ctx := context.Background()
	recorder := &recordingHandler{next: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}}
	client := newTestClient(t, recorder.ServeHTTP)
	registry := session.NewRegistry(client)
	uploader := session.NewUploader(client, registry)

	t.Run("Empty file", func(t *testing.T) {
		err := uploader.Submit(ctx, "report.pdf", 0, strings.NewReader(""))
		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrEmptyFile)
		assert.False(t, uploader.InFlight())
	})

	t.Run("Unsupported extension", func(t *testing.T) {
		err := uploader.Submit(ctx, "report.exe", 10, strings.NewReader("x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrUnsupportedFileType)
	})

	t.Run("Extension check is case-insensitive", func(t *testing.T) {
		// .PDF is allowed, so this one does reach the wire.
		err := uploader.Submit(ctx, "REPORT.PDF", 10, strings.NewReader("x"))
		assert.NotErrorIs(t, err, session.ErrUnsupportedFileType)
	})

	// Only the .PDF attempt may have cost a round-trip; the rejected
	// submissions settled client-side.
	assert.Equal(t, []string{"/upload"}, recorder.requests())
}

func TestUploaderSuccessTriggersRefresh(t *testing.T) {
	recorder := &recordingHandler{next: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			_, _ = w.Write([]byte(`{"status":"success","doc_id":"abc","title":"report.pdf","num_chunks":2}`))
		case "/documents":
			_, _ = w.Write([]byte(`{"documents":[{"doc_id":"abc","title":"report.pdf"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}}
	client := newTestClient(t, recorder.ServeHTTP)
	registry := session.NewRegistry(client)
	uploader := session.NewUploader(client, registry)

	require.NoError(t, uploader.Submit(context.Background(), "report.pdf", 9, strings.NewReader("pdf bytes")))

	assert.Equal(t, []string{"/upload", "/documents"}, recorder.requests())
	docs := registry.List("")
	require.Len(t, docs, 1)
	assert.Equal(t, "abc", docs[0].ID)
	assert.False(t, uploader.InFlight())
}

func TestUploaderFailure(t *testing.T) {
	recorder := &recordingHandler{next: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Only PDF, DOCX, TXT allowed"}`))
	}}
	client := newTestClient(t, recorder.ServeHTTP)
	registry := session.NewRegistry(client)
	uploader := session.NewUploader(client, registry)

	err := uploader.Submit(context.Background(), "report.pdf", 9, strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrUploadFailed)
	assert.ErrorContains(t, err, "Only PDF, DOCX, TXT allowed")

	// No refresh on failure, and the registry is untouched.
	assert.Equal(t, []string{"/upload"}, recorder.requests())
	assert.Zero(t, registry.Len())
	assert.False(t, uploader.InFlight())
}

func TestUploaderSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			once.Do(func() { close(entered) })
			<-release
			_, _ = w.Write([]byte(`{"status":"success","doc_id":"abc","title":"a.pdf"}`))
		case "/documents":
			_, _ = w.Write([]byte(`{"documents":[{"doc_id":"abc","title":"a.pdf"}]}`))
		}
	})
	registry := session.NewRegistry(client)
	uploader := session.NewUploader(client, registry)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- uploader.Submit(context.Background(), "a.pdf", 5, strings.NewReader("aaaaa"))
	}()

	<-entered
	assert.True(t, uploader.InFlight())

	// A second submission while the first is outstanding is dropped, not queued.
	err := uploader.Submit(context.Background(), "b.txt", 5, strings.NewReader("bbbbb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrUploadBusy)

	close(release)
	require.NoError(t, <-firstDone)
	assert.False(t, uploader.InFlight())

	// Once the first transfer settled, a new one is accepted again.
	require.NoError(t, uploader.Submit(context.Background(), "b.txt", 5, strings.NewReader("bbbbb")))
}
