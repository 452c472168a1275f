package model

import "context"

// NotificationKind identifies the message template.
type NotificationKind string

const (
	NotificationVerifyEmail   NotificationKind = "verify_email"
	NotificationResetPassword NotificationKind = "reset_password"
)

// Notification is an outbound message carrying a single-use link.
type Notification struct {
	Kind  NotificationKind
	Email string
	Name  string
	Token string
}

// Notifier dispatches notifications without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
