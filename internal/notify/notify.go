package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tracyhatemice/mailbridge/internal/dedup"
	"github.com/tracyhatemice/mailbridge/internal/record"
	"github.com/tracyhatemice/mailbridge/internal/session"
)

// ChatSender delivers a text message to a chat channel.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier forwards new email records to the active chat channel. It owns
// the coupling between selection and dedup marking: a record is marked seen
// at the moment it is selected for notification, inside FilterUnseen.
type Notifier struct {
	tracker  *dedup.Tracker
	sessions *session.Registry
	chat     ChatSender
	logger   *slog.Logger
}

// New creates a Notifier.
func New(tracker *dedup.Tracker, sessions *session.Registry, chat ChatSender, logger *slog.Logger) *Notifier {
	return &Notifier{
		tracker:  tracker,
		sessions: sessions,
		chat:     chat,
		logger:   logger,
	}
}

// Dispatch sends a notification for every not-yet-notified record and
// returns the number delivered. With no active channel the whole batch is
// skipped with a warning and nothing is marked seen. A failed send is logged
// and does not stop the batch; the record stays marked, so delivery is
// at-most-once per run.
func (n *Notifier) Dispatch(ctx context.Context, records []record.Email) int {
	if len(records) == 0 {
		return 0
	}

	chatID, ok := n.sessions.Load()
	if !ok {
		n.logger.Warn("no active chat channel, skipping notification", "count", len(records))
		return 0
	}

	unseen := n.tracker.FilterUnseen(records)
	sent := 0
	for _, r := range unseen {
		if err := n.chat.SendMessage(ctx, chatID, Format(r)); err != nil {
			n.logger.Error("notification send failed", "msg_id", r.MessageID, "error", err)
			continue
		}
		sent++
		n.logger.Info("notified", "msg_id", r.MessageID, "from", r.From)
	}
	return sent
}

// Format renders the outbound notification for one email, ending with the
// reply instruction the inbound handler understands.
func Format(r record.Email) string {
	return fmt.Sprintf(
		"New Email Received:\nID: %s\nFrom: %s\nSubject: %s\nDate: %s\nBody: %s\n\nTo reply, send: REPLY %s <your reply>",
		r.MessageID, r.From, r.Subject, r.Date, r.Body, r.MessageID,
	)
}
