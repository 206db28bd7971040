// Package notify delivers user-facing toasts and confirmation dialogs.
package notify

import (
	"context"
	"errors"
)

// ErrDialogExpired is returned when a dialog is not answered in time.
var ErrDialogExpired = errors.New("notify: dialog expired")

type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Dialog is a confirm/cancel prompt.
type Dialog struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	ConfirmText string `json:"confirm_text"`
	CancelText  string `json:"cancel_text"`
	Kind        Kind   `json:"kind"`
}

// Notifier is the UI surface the HTTP client reports through.
type Notifier interface {
	// Error shows a transient error toast.
	Error(ctx context.Context, msg string)
	// Confirm blocks until the user answers. false means cancelled.
	Confirm(ctx context.Context, d Dialog) (bool, error)
}
