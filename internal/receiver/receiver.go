// Package receiver implements direct mailbox checkers (IMAP, POP3) that
// bypass the language-model agent and return normalized email records.
package receiver

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// decoded holds the fields extracted from one raw RFC 5322 message.
type decoded struct {
	MessageID string
	From      string
	Subject   string
	Date      string
	Body      string
}

// decodeMessage parses raw message bytes. Header decoding is best-effort:
// anything unparseable degrades to the raw header value or an empty field,
// never an error.
func decodeMessage(raw []byte) decoded {
	var d decoded

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		d.Body = rawBodyFallback(raw)
		return d
	}
	defer mr.Close()

	d.MessageID = trimMessageID(mr.Header.Get("Message-ID"))
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		d.From = formatAddress(addrs[0].Name, addrs[0].Address)
	} else {
		d.From = mr.Header.Get("From")
	}
	if subject, err := mr.Header.Subject(); err == nil {
		d.Subject = subject
	} else {
		d.Subject = mr.Header.Get("Subject")
	}
	if date, err := mr.Header.Date(); err == nil {
		d.Date = date.Format(time.RFC1123Z)
	} else {
		d.Date = mr.Header.Get("Date")
	}

	d.Body = readTextBody(mr)
	if d.Body == "" {
		d.Body = rawBodyFallback(raw)
	}
	return d
}

// readTextBody returns the first text/plain inline part, falling back to any
// other inline part.
func readTextBody(mr *mail.Reader) string {
	var fallback string
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(p.Body); err != nil {
			continue
		}
		ct, _, _ := mime.ParseMediaType(h.Get("Content-Type"))
		if ct == "text/plain" || ct == "" {
			return strings.TrimSpace(buf.String())
		}
		if fallback == "" {
			fallback = strings.TrimSpace(buf.String())
		}
	}
	return fallback
}

// rawBodyFallback slices everything after the header block.
func rawBodyFallback(raw []byte) string {
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return strings.TrimSpace(string(raw[idx+4:]))
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return strings.TrimSpace(string(raw[idx+2:]))
	}
	return ""
}

// trimMessageID strips the RFC 5322 angle brackets so the ID is a bare token
// users can echo back in a REPLY command.
func trimMessageID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
