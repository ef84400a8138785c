// Package sender implements the direct SMTP reply path.
package sender

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/tracyhatemice/mailbridge/internal/mail"
)

// SMTP composes and sends replies over SMTP. Reply targets are resolved
// through the directory filled by the receiver; an ID the receiver has not
// seen in this run yields a "no such message" error that is surfaced to the
// user.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	dir      *mail.Directory
	logger   *slog.Logger
}

// New creates a new SMTP sender.
func New(host string, port int, username, password string, useTLS bool, dir *mail.Directory, logger *slog.Logger) *SMTP {
	return &SMTP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		useTLS:   useTLS,
		dir:      dir,
		logger:   logger,
	}
}

// SendReply sends body as a reply to the message with the given ID.
func (s *SMTP) SendReply(ctx context.Context, messageID, body string) error {
	env, ok := s.dir.Lookup(messageID)
	if !ok {
		return fmt.Errorf("no such message: %s", messageID)
	}

	to := bareAddress(env.From)
	if to == "" {
		return fmt.Errorf("message %s has no usable sender address", messageID)
	}

	msg := composeReply(s.username, to, env.Subject, messageID, body)
	if err := s.send(to, msg); err != nil {
		return err
	}

	s.logger.Info("reply sent", "msg_id", messageID, "to", to)
	return nil
}

// composeReply builds an RFC 5322 reply message threading onto the original
// via In-Reply-To/References.
func composeReply(from, to, subject, messageID, body string) []byte {
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	ref := messageID
	if !strings.HasPrefix(ref, "<") {
		ref = "<" + ref + ">"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "In-Reply-To: %s\r\n", ref)
	fmt.Fprintf(&b, "References: %s\r\n", ref)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (s *SMTP) send(to string, message []byte) error {
	addr := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))

	var client *smtp.Client
	var err error

	if s.useTLS {
		tlsConfig := &tls.Config{ServerName: s.host}
		conn, dialErr := tls.Dial("tcp", addr, tlsConfig)
		if dialErr != nil {
			return fmt.Errorf("smtp tls dial %s: %w", addr, dialErr)
		}
		client, err = smtp.NewClient(conn, s.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp new client: %w", err)
		}
	} else {
		client, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial %s: %w", addr, err)
		}
		// Try STARTTLS if available.
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{ServerName: s.host}
			if err := client.StartTLS(tlsConfig); err != nil {
				s.logger.Warn("STARTTLS failed, continuing without TLS", "error", err)
			}
		}
	}
	defer client.Close()

	if s.username != "" && s.password != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.username); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

// bareAddress extracts the address part from a display string like
// "Alice <a@x.com>".
func bareAddress(from string) string {
	if addr, err := netmail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(from)
}
