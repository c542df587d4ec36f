package model

import "time"

// DocumentEntry is one row of the client's local view of the backend
// document registry. The backend assigns the ID; everything besides ID and
// Name is optional display metadata that is absent unless the backend
// supplies it.
type DocumentEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Size       int64  `json:"size,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
	Preview    string `json:"preview,omitempty"`
}

// Roles a ChatTurn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single message in the conversation transcript. Turns are
// append-only; the transcript order is the submission/settlement order.
type ChatTurn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Attachments holds backend-provided image references. Only meaningful
	// on assistant turns.
	Attachments []string `json:"attachments,omitempty"`
}
