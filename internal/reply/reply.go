package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tracyhatemice/mailbridge/internal/mail"
)

const commandPrefix = "REPLY "

// Command is a parsed "REPLY <message_id> <body>" chat message.
type Command struct {
	MessageID string
	Body      string
}

// ParseCommand reports whether text is a reply command. The prefix match is
// case-sensitive; the remainder splits on the first space into a non-empty
// identifier and a verbatim body. Anything else is not a command and falls
// through to generic chat handling.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, commandPrefix) {
		return Command{}, false
	}
	id, body, found := strings.Cut(text[len(commandPrefix):], " ")
	if !found || id == "" || strings.TrimSpace(body) == "" {
		return Command{}, false
	}
	return Command{MessageID: id, Body: body}, true
}

// Correlator forwards reply commands to the mail sender. It does not check
// that the ID was ever notified; the sender's own error handling surfaces
// unknown IDs back to the user.
type Correlator struct {
	sender mail.Sender
	logger *slog.Logger
}

// NewCorrelator creates a correlator backed by the given sender.
func NewCorrelator(sender mail.Sender, logger *slog.Logger) *Correlator {
	return &Correlator{
		sender: sender,
		logger: logger,
	}
}

// Handle sends the reply and returns the text to show the user.
func (c *Correlator) Handle(ctx context.Context, cmd Command) string {
	if err := c.sender.SendReply(ctx, cmd.MessageID, cmd.Body); err != nil {
		c.logger.Error("send reply failed", "msg_id", cmd.MessageID, "error", err)
		return fmt.Sprintf("Could not send your reply to message %s: %v", cmd.MessageID, err)
	}
	c.logger.Info("reply sent", "msg_id", cmd.MessageID)
	return fmt.Sprintf("Your reply has been sent for message ID %s.", cmd.MessageID)
}
