package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

// Config is the top-level application configuration.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Telegram Telegram `yaml:"telegram"`
	Agent    Agent    `yaml:"agent"`
	Mail     Mail     `yaml:"mail"`
}

// Telegram holds the chat bot settings.
type Telegram struct {
	Token        string  `yaml:"token"`
	AllowedUsers []int64 `yaml:"allowed_users"`
}

// Agent holds the language-model connection settings.
type Agent struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Mail selects and configures the mail backend.
type Mail struct {
	Backend             string  `yaml:"backend"` // "agent", "imap" or "pop3"
	CheckCount          int     `yaml:"check_count"`
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	Mailbox             Mailbox `yaml:"mailbox"`
	SMTP                SMTP    `yaml:"smtp"`
}

// Mailbox holds the incoming mail server settings for the direct backends.
type Mailbox struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
	Folder   string `yaml:"folder"`
}

// SMTP holds the outgoing mail server settings for the direct backends.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

// PollInterval returns the poll interval as a time.Duration.
func (m *Mail) PollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// GetCheckCount returns how many unread emails to request, defaulting to 3.
func (m *Mail) GetCheckCount() int {
	if m.CheckCount <= 0 {
		return 3
	}
	return m.CheckCount
}

// GetBackend returns the mail backend name, defaulting to "agent".
func (m *Mail) GetBackend() string {
	if m.Backend == "" {
		return "agent"
	}
	return m.Backend
}

// GetFolder returns the IMAP folder name, defaulting to "INBOX".
func (b *Mailbox) GetFolder() string {
	if b.Folder == "" {
		return "INBOX"
	}
	return b.Folder
}

// Load reads and parses a YAML configuration file. Secrets left empty in the
// file are taken from the environment (TELEGRAM_TOKEN, OPENAI_API_KEY).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{
		LogLevel: "info",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	}
	if cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or set TELEGRAM_TOKEN)")
	}

	switch c.Mail.GetBackend() {
	case "agent":
		if c.Agent.APIKey == "" {
			return fmt.Errorf("agent.api_key is required for the agent backend (or set OPENAI_API_KEY)")
		}
	case "imap", "pop3":
		if c.Mail.Mailbox.Host == "" {
			return fmt.Errorf("mail.mailbox.host is required for the %s backend", c.Mail.GetBackend())
		}
		if c.Mail.Mailbox.Port == 0 {
			return fmt.Errorf("mail.mailbox.port is required for the %s backend", c.Mail.GetBackend())
		}
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail.smtp.host is required for the %s backend", c.Mail.GetBackend())
		}
		if c.Mail.SMTP.Port == 0 {
			return fmt.Errorf("mail.smtp.port is required for the %s backend", c.Mail.GetBackend())
		}
	default:
		return fmt.Errorf("mail.backend must be agent, imap or pop3")
	}
	return nil
}
