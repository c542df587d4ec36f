package session

import "errors"

// Sentinel errors for the orchestration layer. Callers match them with
// errors.Is; per-call detail (the failing id, the backend's message) is
// attached by wrapping.

var (
	// ErrRegistryFetch signals a failed listing refresh. The previous
	// snapshot is retained, so the caller may keep showing it.
	ErrRegistryFetch = errors.New("could not refresh document registry")

	// ErrRegistryDelete signals that a delete was rejected or the backend
	// was unreachable. The local snapshot is left unchanged.
	ErrRegistryDelete = errors.New("could not delete document")

	// ErrEmptyFile rejects a zero-byte upload before any network call.
	ErrEmptyFile = errors.New("file is empty")

	// ErrUnsupportedFileType rejects an upload whose extension is outside
	// the allowlist, before any network call.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrUploadBusy rejects a second upload while one is in flight. The
	// attempt is dropped, not queued.
	ErrUploadBusy = errors.New("an upload is already in progress")

	// ErrUploadFailed signals a backend-reported or transport failure
	// during an upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrEmptyQuestion rejects a blank chat submission. The transcript is
	// unchanged.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrQuestionPending rejects a chat submission while another question
	// is awaiting its answer.
	ErrQuestionPending = errors.New("a question is already awaiting its answer")

	// ErrChatRequest signals a failed chat round-trip. The failure is also
	// recorded in the transcript as an assistant turn, so the session never
	// sticks in a pending state.
	ErrChatRequest = errors.New("chat request failed")
)
