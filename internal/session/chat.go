package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"talkdoc/internal/backend"
	"talkdoc/internal/model"
)

// Literals shown to the user in place of a missing or failed answer.
const (
	fallbackAnswer = "No answer found."
	errorAnswer    = "Error connecting to backend."
)

// Chat owns the conversation transcript, the pending-question flag, the
// uncommitted input buffer and the selected-document reference. One question
// is in flight at a time; because of that, settlement order across questions
// is submission order, and the transcript stays strictly interleaved
// user/assistant without any request bookkeeping.
type Chat struct {
	client backend.Client
	topK   int

	mu         sync.Mutex
	transcript []model.ChatTurn
	pending    bool
	input      string
	selected   string
}

func NewChat(client backend.Client, topK int) *Chat {
	return &Chat{client: client, topK: topK}
}

// Ask submits one question. The user turn is appended before the request is
// issued; exactly one assistant turn is appended when the request settles,
// on the success and the failure path alike, after which the session is idle
// again. The selected document id is captured here, so a selection change
// while the request is in flight does not alter its scope.
func (c *Chat) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrQuestionPending
	}
	c.pending = true
	c.input = ""
	docID := c.selected
	c.transcript = append(c.transcript, model.ChatTurn{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   question,
		Timestamp: time.Now(),
	})
	c.mu.Unlock()

	resp, err := c.client.Ask(ctx, &backend.AskRequest{
		Question: question,
		DocID:    docID,
		TopK:     c.topK,
	})

	turn := model.ChatTurn{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Timestamp: time.Now(),
	}
	if err != nil {
		turn.Content = errorAnswer
	} else {
		turn.Content = resp.Answer
		if turn.Content == "" {
			turn.Content = fallbackAnswer
		}
		turn.Attachments = resp.Images
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, turn)
	c.pending = false
	c.mu.Unlock()

	if err != nil {
		slog.Warn("chat request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrChatRequest, err)
	}
	return nil
}

// SetInput updates the uncommitted input buffer. Allowed in any state.
func (c *Chat) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Chat) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SelectDocument scopes future questions to one document. Allowed in any
// state; an in-flight request keeps the scope it was submitted with.
func (c *Chat) SelectDocument(id string) {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
}

func (c *Chat) ClearSelection() {
	c.SelectDocument("")
}

func (c *Chat) SelectedDocument() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// DropSelection clears the selection only if it points at id. The registry
// calls this after a confirmed delete, so the selection is a weak reference
// that never dangles.
func (c *Chat) DropSelection(id string) {
	c.mu.Lock()
	if c.selected == id {
		c.selected = ""
	}
	c.mu.Unlock()
}

// Transcript returns the turns in order. The returned slice is a copy.
func (c *Chat) Transcript() []model.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ChatTurn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Pending reports whether a question is awaiting its answer.
func (c *Chat) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
