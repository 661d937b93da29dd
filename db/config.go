package db

import "time"

type Config struct {
	Driver string
	DSN    string
	SQLite SQLiteConfig
	Pool   PoolConfig
}

type SQLiteConfig struct {
	WAL           bool
	Synchronous   string
	BusyTimeoutMs int
	ForeignKeys   bool
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		SQLite: SQLiteConfig{
			WAL:           true,
			Synchronous:   "NORMAL",
			BusyTimeoutMs: 5000,
			ForeignKeys:   true,
		},
		// A single writer connection keeps sqlite write transactions
		// serialized instead of surfacing SQLITE_BUSY to callers.
		Pool: PoolConfig{MaxOpenConns: 1},
	}
}
