package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// sqlitePragmas builds the pragma statements for this service's
// single-writer setup: WAL with relaxed synchronous for cheap note
// writes, a busy timeout so the lone writer connection never surfaces
// SQLITE_BUSY to request handlers, and foreign keys on.
func sqlitePragmas(cfg SQLiteConfig) []string {
	var stmts []string
	if cfg.WAL {
		stmts = append(stmts, "PRAGMA journal_mode=WAL;")
	}
	if s := strings.TrimSpace(cfg.Synchronous); s != "" {
		stmts = append(stmts, fmt.Sprintf("PRAGMA synchronous=%s;", s))
	}
	if cfg.BusyTimeoutMs > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeoutMs))
	}
	if cfg.ForeignKeys {
		stmts = append(stmts, "PRAGMA foreign_keys=ON;")
	}
	return stmts
}

func applySQLitePragmas(gdb *gorm.DB, cfg SQLiteConfig) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	for _, stmt := range sqlitePragmas(cfg) {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	return nil
}
