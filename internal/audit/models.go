package audit

import "time"

// Event is an append-only record of a session change in this console.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; session flows never fail on audit errors.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	Username string `json:"username,omitempty"`
	TenantID *int64 `json:"tenant_id,omitempty"`

	// Method is how a login happened: password, ticket, dingtalk.
	Method string `json:"method,omitempty"`

	// Message is a short human-readable description.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeLogin  EventType = "login"
	EventTypeLogout EventType = "logout"
)
