package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetDefaultAuditPath returns the query audit database path under
// XDG_STATE_HOME.
func GetDefaultAuditPath() string {
	return filepath.Join(xdg.StateHome, "nl2sql", "audit.db")
}
