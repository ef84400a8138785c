package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tracyhatemice/mailbridge/internal/mail"
	"github.com/tracyhatemice/mailbridge/internal/notify"
	"github.com/tracyhatemice/mailbridge/internal/reply"
	"github.com/tracyhatemice/mailbridge/internal/session"
)

const (
	longPollTimeout = 30 * time.Second
	errorRetryDelay = 5 * time.Second

	helpText = "Available commands:\n" +
		"/start - Start the conversation\n" +
		"/check - Check your inbox for new unread emails\n" +
		"/help - Show this help message\n\n" +
		"To answer an email notification, send: REPLY <message_id> <your reply>\n" +
		"Anything else is answered conversationally."
)

// ChatFunc answers a generic conversational message.
type ChatFunc func(ctx context.Context, text string) (string, error)

// BotOptions wires the bot to the rest of the system.
type BotOptions struct {
	Sessions     *session.Registry
	Correlator   *reply.Correlator
	Checker      mail.Checker
	Notifier     *notify.Notifier
	Chat         ChatFunc // nil when no conversational agent is configured
	AllowedUsers []int64
	CheckCount   int
}

// Bot consumes inbound updates and routes them to the reply correlator, the
// mail checker or the conversational agent. Every inbound message records
// its chat as the active notification channel.
type Bot struct {
	client     *Client
	sessions   *session.Registry
	correlator *reply.Correlator
	checker    mail.Checker
	notifier   *notify.Notifier
	chat       ChatFunc
	allowed    map[int64]bool
	checkCount int
	logger     *slog.Logger
}

// NewBot creates a Bot.
func NewBot(client *Client, opts BotOptions, logger *slog.Logger) *Bot {
	allowed := make(map[int64]bool, len(opts.AllowedUsers))
	for _, id := range opts.AllowedUsers {
		allowed[id] = true
	}

	checkCount := opts.CheckCount
	if checkCount <= 0 {
		checkCount = 3
	}

	return &Bot{
		client:     client,
		sessions:   opts.Sessions,
		correlator: opts.Correlator,
		checker:    opts.Checker,
		notifier:   opts.Notifier,
		chat:       opts.Chat,
		allowed:    allowed,
		checkCount: checkCount,
		logger:     logger,
	}
}

// Run long-polls for updates until ctx is cancelled. Each message is handled
// in its own goroutine; shared state is synchronized by its owners.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("starting telegram bot")

	var offset int64
	for {
		if ctx.Err() != nil {
			b.logger.Info("telegram bot stopped")
			return
		}

		updates, err := b.client.GetUpdates(ctx, offset, longPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("telegram bot stopped")
				return
			}
			b.logger.Error("get updates failed", "error", err)
			select {
			case <-time.After(errorRetryDelay):
			case <-ctx.Done():
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			msg := u.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			if len(b.allowed) > 0 && msg.From != nil && !b.allowed[msg.From.ID] {
				b.logger.Warn("rejected message from unknown user",
					"user_id", msg.From.ID, "username", msg.From.Username)
				continue
			}
			go b.handle(ctx, msg)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID

	// Track the most recent channel for outbound notifications.
	if err := b.sessions.Record(chatID); err != nil {
		b.logger.Warn("record chat session failed", "error", err)
	}

	text := strings.TrimSpace(msg.Text)

	if cmd, ok := reply.ParseCommand(text); ok {
		b.send(ctx, chatID, b.correlator.Handle(ctx, cmd))
		return
	}

	switch {
	case text == "/start":
		b.send(ctx, chatID, startMessage(msg.From))
	case text == "/help":
		b.send(ctx, chatID, helpText)
	case text == "/check" || strings.EqualFold(text, "check my email"):
		b.checkNow(ctx, chatID)
	default:
		b.converse(ctx, chatID, text)
	}
}

// checkNow runs an immediate mail check on user request. Results go through
// the same notifier as the background poll, so dedup still applies.
func (b *Bot) checkNow(ctx context.Context, chatID int64) {
	b.send(ctx, chatID, "Checking your inbox for new emails...")

	records, err := b.checker.CheckUnread(ctx, b.checkCount)
	if err != nil {
		b.logger.Error("mail check failed", "error", err)
		b.send(ctx, chatID, "Sorry, I could not check your inbox right now.")
		return
	}
	if len(records) == 0 {
		b.send(ctx, chatID, "No new unread emails found.")
		return
	}
	if sent := b.notifier.Dispatch(ctx, records); sent == 0 {
		b.send(ctx, chatID, "No new unread emails found.")
	}
}

func (b *Bot) converse(ctx context.Context, chatID int64, text string) {
	if b.chat == nil {
		b.send(ctx, chatID, "I did not recognize that. Send /help for the commands I understand.")
		return
	}

	if err := b.client.SendTyping(ctx, chatID); err != nil {
		b.logger.Debug("send typing failed", "error", err)
	}

	answer, err := b.chat(ctx, text)
	if err != nil {
		b.logger.Error("chat agent failed", "error", err)
		b.send(ctx, chatID, "I apologize, but I encountered an error processing your message. Please try again.")
		return
	}
	b.send(ctx, chatID, answer)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func startMessage(u *User) string {
	name := ""
	if u != nil && u.FirstName != "" {
		name = " " + u.FirstName
	}
	return fmt.Sprintf("Hi%s! I'm your Email Assistant.\n"+
		"Send /check or type 'Check my email' to get your latest unread emails.", name)
}
