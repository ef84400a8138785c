package receiver

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tracyhatemice/mailbridge/internal/mail"
	"github.com/tracyhatemice/mailbridge/internal/record"
)

// IMAP checks for unread messages over IMAP/IMAPS.
type IMAP struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	folder   string
	dir      *mail.Directory
	logger   *slog.Logger
}

// NewIMAP creates a new IMAP checker. Fetched envelopes are recorded in dir
// so the SMTP sender can address replies.
func NewIMAP(host string, port int, username, password string, useTLS bool, folder string, dir *mail.Directory, logger *slog.Logger) *IMAP {
	if folder == "" {
		folder = "INBOX"
	}
	return &IMAP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		useTLS:   useTLS,
		folder:   folder,
		dir:      dir,
		logger:   logger,
	}
}

// CheckUnread connects, searches for UNSEEN messages and returns up to count
// of the newest ones as normalized records. Bodies are fetched with PEEK so
// the messages stay unread in the mailbox.
func (r *IMAP) CheckUnread(ctx context.Context, count int) ([]record.Email, error) {
	addr := net.JoinHostPort(r.host, fmt.Sprintf("%d", r.port))

	var client *imapclient.Client
	var err error

	if r.useTLS {
		client, err = imapclient.DialTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: r.host},
		})
	} else {
		client, err = imapclient.DialInsecure(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("imap connect %s: %w", addr, err)
	}
	defer client.Close()

	if err := client.Login(r.username, r.password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login %s: %w", r.username, err)
	}
	defer client.Logout()

	if _, err := client.Select(r.folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", r.folder, err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}

	seqNums := searchData.AllSeqNums()
	if len(seqNums) == 0 {
		r.logger.Debug("no unread messages")
		return nil, nil
	}
	if count > 0 && len(seqNums) > count {
		seqNums = seqNums[len(seqNums)-count:]
	}

	seqSet := imap.SeqSetNum(seqNums...)
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	buffers, err := client.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	var records []record.Email
	for _, buf := range buffers {
		rec := record.Email{}

		if buf.Envelope != nil {
			rec.MessageID = trimMessageID(buf.Envelope.MessageID)
			rec.Subject = buf.Envelope.Subject
			if !buf.Envelope.Date.IsZero() {
				rec.Date = buf.Envelope.Date.Format(time.RFC1123Z)
			}
			if len(buf.Envelope.From) > 0 {
				a := buf.Envelope.From[0]
				rec.From = formatAddress(a.Name, fmt.Sprintf("%s@%s", a.Mailbox, a.Host))
			}
		}
		if rec.MessageID == "" {
			rec.MessageID = fmt.Sprintf("imap-%d-%s", buf.SeqNum, r.username)
		}

		raw := buf.FindBodySection(bodySection)
		if len(raw) > 0 {
			d := decodeMessage(raw)
			rec.Body = d.Body
			if rec.From == "" {
				rec.From = d.From
			}
			if rec.Subject == "" {
				rec.Subject = d.Subject
			}
			if rec.Date == "" {
				rec.Date = d.Date
			}
		}

		r.dir.Put(rec.MessageID, mail.Envelope{From: rec.From, Subject: rec.Subject})
		records = append(records, rec)
	}

	r.logger.Info("fetched unread messages", "count", len(records))
	return records, nil
}
