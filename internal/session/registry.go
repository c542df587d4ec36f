package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"talkdoc/internal/backend"
	"talkdoc/internal/model"
)

// Registry caches the backend's document listing. The backend is the single
// source of truth: every successful refresh replaces the snapshot wholesale,
// and no mutation is applied locally until the backend has confirmed it.
type Registry struct {
	client backend.Client

	mu        sync.Mutex
	docs      []model.DocumentEntry
	onRemoved func(id string)
}

func NewRegistry(client backend.Client) *Registry {
	return &Registry{client: client}
}

// OnRemoved registers a hook invoked after a confirmed delete. The chat
// session uses it to drop a selection that points at the deleted document.
// Must be called during wiring, before the registry is shared.
func (r *Registry) OnRemoved(fn func(id string)) {
	r.onRemoved = fn
}

// Refresh replaces the snapshot with the backend's current listing. On
// failure the previous snapshot is kept and ErrRegistryFetch is returned.
func (r *Registry) Refresh(ctx context.Context) error {
	docs, err := r.client.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryFetch, err)
	}

	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()

	slog.Debug("registry refreshed", "documents", len(docs))
	return nil
}

// Remove deletes one document by id. The entry is dropped from the snapshot
// only after the backend confirms; on failure the snapshot is untouched.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: id %q: %v", ErrRegistryDelete, id, err)
	}

	r.mu.Lock()
	kept := r.docs[:0:0]
	for _, d := range r.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	r.docs = kept
	hook := r.onRemoved
	r.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	slog.Info("document deleted", "id", id)
	return nil
}

// List returns the entries whose display name contains filter,
// case-insensitively. An empty filter returns the whole snapshot. Order is
// the listing order of the last refresh. The returned slice is a copy.
func (r *Registry) List(filter string) []model.DocumentEntry {
	term := strings.ToLower(strings.TrimSpace(filter))

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.DocumentEntry, 0, len(r.docs))
	for _, d := range r.docs {
		if term == "" || strings.Contains(strings.ToLower(d.Name), term) {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}
