package sender

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/tracyhatemice/mailbridge/internal/mail"
)

func TestSendReplyUnknownMessage(t *testing.T) {
	s := New("smtp.example", 587, "me@example", "pw", false,
		mail.NewDirectory(), slog.New(slog.NewTextHandler(os.Stderr, nil)))

	err := s.SendReply(context.Background(), "never-seen", "hi")
	if err == nil {
		t.Fatal("SendReply: expected error for unknown message ID")
	}
	if !strings.Contains(err.Error(), "no such message") {
		t.Errorf("error = %v, want no-such-message text", err)
	}
}

func TestComposeReply(t *testing.T) {
	msg := string(composeReply("me@example", "a@x.com", "Lunch", "abc123@mail", "see you"))

	for _, want := range []string{
		"From: me@example\r\n",
		"To: a@x.com\r\n",
		"Subject: Re: Lunch\r\n",
		"In-Reply-To: <abc123@mail>\r\n",
		"References: <abc123@mail>\r\n",
		"\r\n\r\nsee you\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("composed message missing %q:\n%s", want, msg)
		}
	}
}

func TestComposeReplyKeepsReSubject(t *testing.T) {
	msg := string(composeReply("me@example", "a@x.com", "Re: Lunch", "id1", "ok"))
	if strings.Contains(msg, "Re: Re:") {
		t.Errorf("subject doubled the Re: prefix:\n%s", msg)
	}
}

func TestBareAddress(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Alice <a@x.com>", "a@x.com"},
		{"a@x.com", "a@x.com"},
		{"  b@y.com  ", "b@y.com"},
	}
	for _, tt := range tests {
		if got := bareAddress(tt.in); got != tt.want {
			t.Errorf("bareAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
