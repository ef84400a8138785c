package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestSplitMessageShort(t *testing.T) {
	got := splitMessage("hello")
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("splitMessage = %q, want [hello]", got)
	}
}

func TestSplitMessagePrefersNewline(t *testing.T) {
	text := strings.Repeat("a", maxMessageLen-10) + "\n" + strings.Repeat("b", 100)
	got := splitMessage(text)
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	if !strings.HasSuffix(got[0], "\n") {
		t.Error("first chunk does not end at the newline")
	}
	if got[0]+got[1] != text {
		t.Error("chunks do not reassemble the original text")
	}
}

func TestSplitMessageNoNewline(t *testing.T) {
	text := strings.Repeat("a", maxMessageLen+50)
	got := splitMessage(text)
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	if len(got[0]) != maxMessageLen {
		t.Errorf("first chunk len = %d, want %d", len(got[0]), maxMessageLen)
	}
	if got[0]+got[1] != text {
		t.Error("chunks do not reassemble the original text")
	}
}

// fakeAPI records sendMessage calls and answers every method with ok.
type fakeAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		f.chats = append(f.chats, r.FormValue("chat_id"))
		f.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true,"result":true}`))
}

func (f *fakeAPI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		token:   "TEST",
		baseURL: srv.URL,
		http:    srv.Client(),
	}
}

func TestSendMessageChunks(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := newTestClient(srv)
	long := strings.Repeat("x", maxMessageLen) + "tail"
	if err := c.SendMessage(context.Background(), 42, long); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	got := api.sent()
	if len(got) != 2 {
		t.Fatalf("API calls = %d, want 2", len(got))
	}
	if got[0]+got[1] != long {
		t.Error("chunks do not reassemble the message")
	}
	if api.chats[0] != "42" {
		t.Errorf("chat_id = %q, want 42", api.chats[0])
	}
}

func TestCallAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	err := c.SendMessage(context.Background(), 1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want API description surfaced", err)
	}
}
