package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Registry persists the single active chat channel so notifications survive
// a restart. There is exactly one recipient at a time; every inbound
// interaction overwrites the stored value with the most recent channel.
type Registry struct {
	file   string
	logger *slog.Logger
}

// NewRegistry creates a registry backed by filePath.
func NewRegistry(filePath string, logger *slog.Logger) *Registry {
	return &Registry{
		file:   filePath,
		logger: logger,
	}
}

// Record stores chatID as the active channel, replacing any previous value.
// The file is rewritten in one unbuffered write so nothing is lost on abrupt
// termination.
func (r *Registry) Record(chatID int64) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data := strconv.FormatInt(chatID, 10) + "\n"
	if err := os.WriteFile(r.file, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load returns the most recently recorded channel. A missing or corrupt file
// means no active channel; both are logged and non-fatal.
func (r *Registry) Load() (int64, bool) {
	data, err := os.ReadFile(r.file)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("read session file failed", "file", r.file, "error", err)
		}
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		r.logger.Warn("corrupt session file, ignoring", "file", r.file, "error", err)
		return 0, false
	}
	return id, true
}
