package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	pop3client "github.com/knadh/go-pop3"

	"github.com/tracyhatemice/mailbridge/internal/mail"
	"github.com/tracyhatemice/mailbridge/internal/record"
)

// POP3 checks for messages over POP3/POP3S. POP3 has no unread flag, so this
// checker returns the newest messages and relies on the dedup layer to drop
// the ones already notified.
type POP3 struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	dir      *mail.Directory
	logger   *slog.Logger
}

// NewPOP3 creates a new POP3 checker.
func NewPOP3(host string, port int, username, password string, useTLS bool, dir *mail.Directory, logger *slog.Logger) *POP3 {
	return &POP3{
		host:     host,
		port:     port,
		username: username,
		password: password,
		useTLS:   useTLS,
		dir:      dir,
		logger:   logger,
	}
}

// CheckUnread retrieves up to count of the newest messages as normalized
// records.
func (r *POP3) CheckUnread(ctx context.Context, count int) ([]record.Email, error) {
	addr := net.JoinHostPort(r.host, fmt.Sprintf("%d", r.port))

	client := pop3client.New(pop3client.Opt{
		Host:       r.host,
		Port:       r.port,
		TLSEnabled: r.useTLS,
	})
	conn, err := client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("pop3 connect %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Auth(r.username, r.password); err != nil {
		return nil, fmt.Errorf("pop3 auth %s: %w", r.username, err)
	}

	msgs, err := conn.List(0)
	if err != nil {
		return nil, fmt.Errorf("pop3 list: %w", err)
	}
	if count > 0 && len(msgs) > count {
		msgs = msgs[len(msgs)-count:]
	}

	var records []record.Email
	for _, msg := range msgs {
		rawBuf, err := conn.RetrRaw(msg.ID)
		if err != nil {
			r.logger.Warn("pop3 retrieve failed", "msg_num", msg.ID, "error", err)
			continue
		}

		d := decodeMessage(rawBuf.Bytes())
		if d.MessageID == "" {
			if msg.UID != "" {
				d.MessageID = fmt.Sprintf("pop3-uid-%s-%s", msg.UID, r.username)
			} else {
				d.MessageID = fmt.Sprintf("pop3-%d-%s", msg.ID, r.username)
			}
		}

		r.dir.Put(d.MessageID, mail.Envelope{From: d.From, Subject: d.Subject})
		records = append(records, record.Email{
			MessageID: d.MessageID,
			From:      d.From,
			Subject:   d.Subject,
			Date:      d.Date,
			Body:      d.Body,
		})
	}

	r.logger.Info("fetched messages", "count", len(records))
	return records, nil
}
