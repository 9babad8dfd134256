package audit

import (
	"encoding/json"
	"time"
)

// ListLimit caps how many entries a listing returns.
const ListLimit = 500

// UserRef is the acting user joined onto an entry. Nil when the actor was
// deleted or the action was anonymous.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Entry is one activity log row as returned to administrators.
type Entry struct {
	ID           int64           `json:"id"`
	Action       string          `json:"action"`
	Meta         json.RawMessage `json:"meta"`
	IP           *string         `json:"ip"`
	ResourceType *string         `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	Severity     string          `json:"severity"`
	CreatedAt    time.Time       `json:"created_at"`
	User         *UserRef        `json:"user"`
}

// Filters narrows a listing.
type Filters struct {
	Action string
	UserID *int64
	Limit  int
}
