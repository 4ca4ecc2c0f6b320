package auth

import (
	"fmt"
	"time"

	"casino-lite/apps/server/internal/config"
	"casino-lite/apps/server/internal/sqldb"
)

const (
	ModeMemory = "memory"
	ModeSQL    = "sql"
)

func sessionTTLFromEnv() time.Duration {
	return config.EnvDuration("AUTH_SESSION_TTL", defaultSessionTTL)
}

// NewService returns the in-memory manager when db is nil, otherwise a
// manager on the shared database.
func NewService(db *sqldb.DB) (Service, string, error) {
	if db == nil {
		return NewManagerWithTTL(sessionTTLFromEnv()), ModeMemory, nil
	}
	manager, err := NewSQLManager(db, sessionTTLFromEnv())
	if err != nil {
		return nil, ModeSQL, fmt.Errorf("init %s auth: %w", db.Dialect, err)
	}
	return manager, ModeSQL + "/" + db.Dialect.String(), nil
}
