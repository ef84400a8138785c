package reply

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		wantID string
		wantBd string
		wantOK bool
	}{
		{"REPLY abc123 please send tomorrow", "abc123", "please send tomorrow", true},
		{"REPLY abc123 one", "abc123", "one", true},
		{"REPLY abc123 body  with   spaces", "abc123", "body  with   spaces", true},
		{"REPLY abc123", "", "", false},
		{"REPLY abc123 ", "", "", false},
		{"REPLY  trailing body", "", "", false},
		{"reply abc123 lower case prefix", "", "", false},
		{"hello there", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		cmd, ok := ParseCommand(tt.text)
		if ok != tt.wantOK {
			t.Errorf("ParseCommand(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if cmd.MessageID != tt.wantID {
			t.Errorf("ParseCommand(%q) id = %q, want %q", tt.text, cmd.MessageID, tt.wantID)
		}
		if cmd.Body != tt.wantBd {
			t.Errorf("ParseCommand(%q) body = %q, want %q", tt.text, cmd.Body, tt.wantBd)
		}
	}
}

type fakeSender struct {
	lastID   string
	lastBody string
	err      error
}

func (f *fakeSender) SendReply(_ context.Context, messageID, body string) error {
	f.lastID = messageID
	f.lastBody = body
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestHandleSuccess(t *testing.T) {
	snd := &fakeSender{}
	c := NewCorrelator(snd, testLogger())

	got := c.Handle(context.Background(), Command{MessageID: "m1", Body: "on my way"})
	if snd.lastID != "m1" || snd.lastBody != "on my way" {
		t.Errorf("sender got (%q, %q)", snd.lastID, snd.lastBody)
	}
	if !strings.Contains(got, "m1") || !strings.Contains(got, "sent") {
		t.Errorf("confirmation = %q", got)
	}
}

func TestHandleFailure(t *testing.T) {
	snd := &fakeSender{err: errors.New("no such message: m9")}
	c := NewCorrelator(snd, testLogger())

	got := c.Handle(context.Background(), Command{MessageID: "m9", Body: "hi"})
	if !strings.Contains(got, "no such message") {
		t.Errorf("failure text = %q, want sender error surfaced", got)
	}
}
