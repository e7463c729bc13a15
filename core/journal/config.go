package journal

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backends lists the supported store types.
var Backends = []string{"memory", "jsonl", "rotating", "sqlite"}

// Config defines settings for the action journal.
type Config struct {
	// Backend selects the store type: memory, jsonl, rotating or sqlite.
	Backend string `json:"backend"`
	// Path is the file location of the store. Unused by memory.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
	// TextPath, when set, also writes the plain text log there.
	TextPath string `json:"text_path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "yard-journal.db"
		case "jsonl", "rotating":
			c.Path = "yard-journal.jsonl"
		}
	}
	if c.Backend == "rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	known := false
	for _, b := range Backends {
		if c.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("journal path is required for backend %s", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal rotation settings must be non-negative")
	}
	return nil
}

// Open builds the configured store.
func Open(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Backend != "memory" {
		if dir := filepath.Dir(c.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	switch c.Backend {
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return NewMemoryStore(), nil
	}
}
