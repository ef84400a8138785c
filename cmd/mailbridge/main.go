package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tracyhatemice/mailbridge/internal/agent"
	"github.com/tracyhatemice/mailbridge/internal/config"
	"github.com/tracyhatemice/mailbridge/internal/dedup"
	"github.com/tracyhatemice/mailbridge/internal/mail"
	"github.com/tracyhatemice/mailbridge/internal/notify"
	"github.com/tracyhatemice/mailbridge/internal/poller"
	"github.com/tracyhatemice/mailbridge/internal/receiver"
	"github.com/tracyhatemice/mailbridge/internal/reply"
	"github.com/tracyhatemice/mailbridge/internal/sender"
	"github.com/tracyhatemice/mailbridge/internal/session"
	"github.com/tracyhatemice/mailbridge/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	dataDir := flag.String("data-dir", "data", "directory for persistent data (chat session)")
	flag.Parse()

	// Secrets may come from a .env file next to the binary.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("mailbridge starting", "backend", cfg.Mail.GetBackend())

	sessions := session.NewRegistry(filepath.Join(*dataDir, "chat_id.txt"), logger)
	if id, ok := sessions.Load(); ok {
		logger.Info("loaded chat session", "chat_id", id)
	} else {
		logger.Info("no chat session yet; notifications start after the first message to the bot")
	}

	tracker := dedup.NewTracker()

	checker, mailSender, chatFn, err := newMailBackend(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	tg := telegram.NewClient(cfg.Telegram.Token)
	notifier := notify.New(tracker, sessions, tg, logger)

	bot := telegram.NewBot(tg, telegram.BotOptions{
		Sessions:     sessions,
		Correlator:   reply.NewCorrelator(mailSender, logger),
		Checker:      checker,
		Notifier:     notifier,
		Chat:         chatFn,
		AllowedUsers: cfg.Telegram.AllowedUsers,
		CheckCount:   cfg.Mail.GetCheckCount(),
	}, logger)

	p := poller.New(cfg.Mail.PollInterval(), func(ctx context.Context) error {
		records, err := checker.CheckUnread(ctx, cfg.Mail.GetCheckCount())
		if err != nil {
			return fmt.Errorf("check unread: %w", err)
		}
		notifier.Dispatch(ctx, records)
		return nil
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		bot.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	// Force exit on second signal.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Warn("forced shutdown")
		os.Exit(1)
	}()

	wg.Wait()
	logger.Info("mailbridge stopped")
}

// newMailBackend builds the mail-check and mail-send collaborators. The
// agent backend also provides the conversational fallback; the direct
// backends do not converse.
func newMailBackend(cfg *config.Config, logger *slog.Logger) (mail.Checker, mail.Sender, telegram.ChatFunc, error) {
	switch cfg.Mail.GetBackend() {
	case "agent":
		a := agent.New(agent.Config{
			APIKey:    cfg.Agent.APIKey,
			BaseURL:   cfg.Agent.BaseURL,
			Model:     cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}, logger)
		return a, a, a.Chat, nil

	case "imap":
		dir := mail.NewDirectory()
		box := cfg.Mail.Mailbox
		recv := receiver.NewIMAP(box.Host, box.Port, box.Username, box.Password, box.UseTLS, box.GetFolder(), dir, logger)
		snd := newSMTPSender(cfg, dir, logger)
		return recv, snd, nil, nil

	case "pop3":
		dir := mail.NewDirectory()
		box := cfg.Mail.Mailbox
		recv := receiver.NewPOP3(box.Host, box.Port, box.Username, box.Password, box.UseTLS, dir, logger)
		snd := newSMTPSender(cfg, dir, logger)
		return recv, snd, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported mail backend: %s", cfg.Mail.GetBackend())
	}
}

func newSMTPSender(cfg *config.Config, dir *mail.Directory, logger *slog.Logger) *sender.SMTP {
	s := cfg.Mail.SMTP
	return sender.New(s.Host, s.Port, s.Username, s.Password, s.UseTLS, dir, logger)
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
