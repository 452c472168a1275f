// Package notify delivers verification and password reset links outside the
// request path.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	Kind    model.NotificationKind
	To      string
	Name    string
	Subject string
	Link    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Links holds the page URLs the single-use tokens are appended to.
type Links struct {
	VerifyEmailURL   string
	ResetPasswordURL string
}

// Render builds the message for n.
func (l Links) Render(n model.Notification) (Message, error) {
	var (
		base, param, subject string
	)
	switch n.Kind {
	case model.NotificationVerifyEmail:
		base, param, subject = l.VerifyEmailURL, "email_verify_token", "Verify your email"
	case model.NotificationResetPassword:
		base, param, subject = l.ResetPasswordURL, "forgot_password_token", "Reset your password"
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	u, err := url.Parse(base)
	if err != nil {
		return Message{}, fmt.Errorf("failed to parse link base %q: %w", base, err)
	}
	q := u.Query()
	q.Set(param, n.Token)
	u.RawQuery = q.Encode()

	return Message{Kind: n.Kind, To: n.Email, Name: n.Name, Subject: subject, Link: u.String()}, nil
}

// Dispatcher queues notifications and delivers them from a background worker.
// Notify never blocks; when the queue is full the notification is dropped.
type Dispatcher struct {
	links  Links
	sender Sender
	logger *logger.Logger
	queue  chan model.Notification

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ model.Notifier = (*Dispatcher)(nil)

func NewDispatcher(links Links, sender Sender, queueSize int, logger *logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		links:  links,
		sender: sender,
		logger: logger,
		queue:  make(chan model.Notification, queueSize),
	}
}

// Start runs the delivery worker until Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for n := range d.queue {
			d.deliver(ctx, n)
		}
	}()
}

func (d *Dispatcher) Notify(_ context.Context, n model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Notifier: dispatcher closed, dropping notification", "kind", n.Kind, "email", n.Email)
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn("Notifier: queue full, dropping notification", "kind", n.Kind, "email", n.Email)
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) {
	msg, err := d.links.Render(n)
	if err != nil {
		d.logger.Error("Notifier: failed to render notification", "kind", n.Kind, "error", err.Error())
		return
	}
	if err := d.sender.Send(context.WithoutCancel(ctx), msg); err != nil {
		d.logger.Error("Notifier: failed to send notification",
			"kind", n.Kind,
			"email", n.Email,
			"error", err.Error())
	}
}
