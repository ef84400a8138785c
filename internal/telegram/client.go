// Package telegram is a minimal Telegram Bot API client plus the inbound
// update loop. Only the handful of methods this bot needs are wrapped.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// maxMessageLen is the Bot API limit for one sendMessage call.
	maxMessageLen = 4096
)

// Bot API types.

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Client talks to the Bot API over HTTPS.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bot API client. The HTTP timeout leaves headroom over
// the getUpdates long-poll window.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, vals url.Values, result any) error {
	apiURL := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(vals.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("API error: %s", envelope.Description)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// SendMessage delivers text to a chat, splitting messages above the API
// limit.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	chunks := splitMessage(text)
	for i, chunk := range chunks {
		vals := url.Values{
			"chat_id": {strconv.FormatInt(chatID, 10)},
			"text":    {chunk},
		}
		if err := c.call(ctx, "sendMessage", vals, nil); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// SendTyping sends a "typing" indicator. Best effort.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	vals := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"action":  {"typing"},
	}
	return c.call(ctx, "sendChatAction", vals, nil)
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	vals := url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(int(timeout / time.Second))},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", vals, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	return updates, nil
}

// splitMessage cuts text into chunks under the API limit, preferring to cut
// at a newline.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxMessageLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxMessageLen
		for i := cut - 1; i > 0; i-- {
			if text[i] == '\n' {
				cut = i + 1
				break
			}
		}

		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}
