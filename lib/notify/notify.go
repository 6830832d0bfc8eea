// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/workline-foundation/workline/lib/ref"
)

// Message is one notification to one user.
type Message struct {
	// To is the recipient.
	To ref.UserID

	// Subject is a short human-readable summary.
	Subject string

	// Body carries the detail text. May be empty.
	Body string

	// Link is an optional deep link to the entity the message is
	// about.
	Link string
}

// Dispatcher delivers a message to its recipient. Implementations
// may be email gateways, chat bridges, or in-memory sinks for tests.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Notifier sends messages through a Dispatcher and swallows delivery
// errors. A nil Notifier is valid and sends nothing.
type Notifier struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// New returns a Notifier over the dispatcher. If logger is nil,
// delivery failures are discarded silently.
func New(dispatcher Dispatcher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{dispatcher: dispatcher, logger: logger}
}

// Send delivers every message, logging failures instead of returning
// them. Safe on a nil receiver or nil dispatcher.
func (n *Notifier) Send(ctx context.Context, msgs ...Message) {
	if n == nil || n.dispatcher == nil {
		return
	}
	for _, msg := range msgs {
		if msg.To.IsZero() {
			continue
		}
		if err := n.dispatcher.Dispatch(ctx, msg); err != nil {
			n.logger.Warn("notification delivery failed",
				"recipient", msg.To,
				"subject", msg.Subject,
				"error", err,
			)
		}
	}
}

// LogDispatcher writes every message to a logger. Useful as a
// default when no real delivery channel is configured.
type LogDispatcher struct {
	Logger *slog.Logger
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"recipient", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
		"link", msg.Link,
	)
	return nil
}

// MemoryDispatcher records every message for inspection in tests.
// Safe for concurrent use.
type MemoryDispatcher struct {
	mu   sync.Mutex
	msgs []Message

	// Err, when set, is returned from every Dispatch call after the
	// message is recorded.
	Err error
}

// Dispatch implements Dispatcher.
func (d *MemoryDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return d.Err
}

// Messages returns a copy of everything dispatched so far.
func (d *MemoryDispatcher) Messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.msgs))
	copy(out, d.msgs)
	return out
}
