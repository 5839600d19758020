package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

// NewJournalFromConfig creates a Journal based on the journal config type.
func NewJournalFromConfig(cfg config.JournalConfig) (plate.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return open(filepath.Join(cfg.DataDir, "journal.db"))
	case "memory":
		return open(":memory:")
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}

// open avoids returning a typed nil Journal on error.
func open(path string) (plate.Journal, error) {
	j, err := NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	return j, nil
}
