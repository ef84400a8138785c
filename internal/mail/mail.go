// Package mail defines the contracts between the core and the mail-side
// collaborators. Two implementations exist: the LLM agent (internal/agent)
// and the direct IMAP/POP3 + SMTP backend (internal/receiver,
// internal/sender).
package mail

import (
	"context"
	"sync"

	"github.com/tracyhatemice/mailbridge/internal/record"
)

// Checker reads unread messages from the mailbox.
type Checker interface {
	// CheckUnread returns up to count unread messages. A transport or
	// parse failure is returned as an error; callers treat it as "no
	// records this cycle".
	CheckUnread(ctx context.Context, count int) ([]record.Email, error)
}

// Sender delivers a reply to a previously seen message.
type Sender interface {
	// SendReply sends body as a reply to the message with the given ID.
	// The ID is forwarded as-is; "no such message" style failures come
	// back as errors with user-presentable text.
	SendReply(ctx context.Context, messageID, body string) error
}

// Envelope is what the direct backend remembers about a fetched message so a
// later reply can be addressed.
type Envelope struct {
	From    string
	Subject string
}

// Directory maps message IDs to envelopes across poll cycles. Reads may be
// stale relative to an in-flight poll; that is fine, the next poll
// self-corrects.
type Directory struct {
	mu sync.Mutex
	m  map[string]Envelope
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{m: make(map[string]Envelope)}
}

// Put records the envelope for a message ID.
func (d *Directory) Put(id string, env Envelope) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[id] = env
}

// Lookup returns the envelope for a message ID, if known.
func (d *Directory) Lookup(id string) (Envelope, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	env, ok := d.m[id]
	return env, ok
}
