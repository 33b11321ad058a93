// Package notify sends the best-effort booking emails. Dispatch happens
// after the ledger write and never participates in the booking's outcome:
// a failed send is logged and nothing else.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Message is one notification bound for the mail relay: the sender identity
// shown on the email, the destination address, and an opaque text body.
type Message struct {
	TemplateID string
	Name       string
	Email      string
	ToEmail    string
	Subject    string
	Body       string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender swallows messages; used when no relay is configured.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

// Dispatcher fans a confirmed booking out to the organizer and the client
// as two independent, detached sends. Either may fail without affecting
// the other or the booking itself.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
}

func NewDispatcher(sender Sender, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sender: sender, logger: logger, timeout: timeout}
}

// Dispatch returns immediately; both sends run in the background with a
// bounded timeout each.
func (d *Dispatcher) Dispatch(notice BookingNotice) {
	go d.send("organizer", OrganizerMessage(notice))
	go d.send("client", ClientMessage(notice))
}

func (d *Dispatcher) send(audience string, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("booking notification failed",
			"audience", audience,
			"to", msg.ToEmail,
			"err", err,
		)
		return
	}
	d.logger.Info("booking notification sent", "audience", audience, "to", msg.ToEmail)
}
