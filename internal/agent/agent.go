// Package agent drives mail reading and replying through a language model
// that has mailbox tools on its side. The model's output is untrusted,
// possibly malformed text; internal/record normalizes it.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tracyhatemice/mailbridge/internal/record"
)

const (
	defaultModel = "gpt-4o-mini"

	checkPromptFmt = "Show me my latest %d unread emails. For each email, " +
		"output a JSON object with the following fields: id, thread_id, from, " +
		"subject, date, body. Output a JSON array of these objects and nothing else."

	replyPromptFmt = "Send a reply to the email with message ID %s with the following text: %s"

	chatSystemPrompt = "You are a helpful email assistant chatting with your user over Telegram. " +
		"Answer briefly and in plain text."
)

// Config holds the model connection settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Agent is the LLM-backed mail collaborator. It implements mail.Checker and
// mail.Sender.
type Agent struct {
	client    openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// New creates an Agent from cfg.
func New(cfg Config, logger *slog.Logger) *Agent {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Agent{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// CheckUnread asks the model for the latest unread emails as JSON and parses
// whatever comes back. Unparseable output degrades to "no records this
// cycle" with a logged diagnostic; a transport error is returned.
func (a *Agent) CheckUnread(ctx context.Context, count int) ([]record.Email, error) {
	raw, err := a.complete(ctx, "", fmt.Sprintf(checkPromptFmt, count))
	if err != nil {
		return nil, fmt.Errorf("check unread: %w", err)
	}

	records, err := record.Parse(raw)
	if err != nil {
		a.logger.Warn("unparseable agent output", "error", err, "raw_len", len(raw))
		return nil, nil
	}
	return records, nil
}

// SendReply asks the model to reply to the given message. The model resolves
// the ID against the mailbox; an unknown ID surfaces as its error text.
func (a *Agent) SendReply(ctx context.Context, messageID, body string) error {
	if _, err := a.complete(ctx, "", fmt.Sprintf(replyPromptFmt, messageID, body)); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Chat answers a generic conversational message.
func (a *Agent) Chat(ctx context.Context, text string) (string, error) {
	answer, err := a.complete(ctx, chatSystemPrompt, text)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return answer, nil
}

func (a *Agent) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	}
	if a.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(a.maxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	a.logger.Debug("agent completion",
		"model", a.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
