package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"casino-lite/apps/server/internal/sqldb"

	"golang.org/x/crypto/bcrypt"
)

// SQLManager stores accounts and tokens in Postgres or SQLite.
type SQLManager struct {
	db         *sqldb.DB
	sessionTTL time.Duration
}

func NewSQLManager(db *sqldb.DB, sessionTTL time.Duration) (*SQLManager, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database")
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, authSchema(db)); err != nil {
		return nil, err
	}
	return &SQLManager{db: db, sessionTTL: sessionTTL}, nil
}

// Close is a no-op: the database handle is owned by the caller.
func (m *SQLManager) Close() error { return nil }

func (m *SQLManager) Register(username, password string) (accountID uint64, sessionToken string, err error) {
	if err = validateCredentials(username, password); err != nil {
		return 0, "", err
	}
	normalized := normalizeUsername(username)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	nowMs := sqldb.NowMs()
	if err := tx.QueryRowContext(ctx, m.db.Rebind(`
INSERT INTO accounts (username, password_hash, created_at_ms, last_login_at_ms)
VALUES (?, ?, ?, ?)
RETURNING id
`), normalized, string(hash), nowMs, nowMs).Scan(&accountID); err != nil {
		if sqldb.IsUniqueViolation(err) {
			return 0, "", ErrUsernameTaken
		}
		return 0, "", err
	}

	sessionToken, err = m.issueSessionTx(ctx, tx, accountID)
	if err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return accountID, sessionToken, nil
}

func (m *SQLManager) Login(username, password string) (accountID uint64, sessionToken string, err error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var hash string
	if err := m.db.QueryRowContext(ctx, m.db.Rebind(`
SELECT id, password_hash
FROM accounts
WHERE username = ?
`), normalized).Scan(&accountID, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrInvalidCredentials
		}
		return 0, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.db.Rebind(`
UPDATE accounts
SET last_login_at_ms = ?
WHERE id = ?
`), sqldb.NowMs(), accountID); err != nil {
		return 0, "", err
	}
	sessionToken, err = m.issueSessionTx(ctx, tx, accountID)
	if err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return accountID, sessionToken, nil
}

func (m *SQLManager) ResolveSession(token string) (accountID uint64, username string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	nowMs := sqldb.NowMs()
	err := m.db.QueryRowContext(ctx, m.db.Rebind(`
SELECT s.account_id, a.username
FROM auth_sessions AS s
JOIN accounts AS a ON a.id = s.account_id
WHERE s.token = ?
  AND s.revoked_at_ms IS NULL
  AND s.expires_at_ms > ?
`), token, nowMs).Scan(&accountID, &username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Auth] resolve session failed: err=%v", err)
		}
		return 0, "", false
	}

	if _, err := m.db.ExecContext(ctx, m.db.Rebind(`
UPDATE auth_sessions
SET last_seen_at_ms = ?,
    expires_at_ms = ?
WHERE token = ?
`), nowMs, nowMs+m.sessionTTL.Milliseconds(), token); err != nil {
		log.Printf("[Auth] refresh session failed: account=%d err=%v", accountID, err)
	}
	return accountID, username, true
}

func (m *SQLManager) Logout(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.db.ExecContext(ctx, m.db.Rebind(`
UPDATE auth_sessions
SET revoked_at_ms = ?
WHERE token = ?
  AND revoked_at_ms IS NULL
`), sqldb.NowMs(), token); err != nil {
		log.Printf("[Auth] logout failed: err=%v", err)
	}
}

func (m *SQLManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64) (string, error) {
	nowMs := sqldb.NowMs()
	expiresAt := nowMs + m.sessionTTL.Milliseconds()
	for i := 0; i < 5; i++ {
		token := mustToken()
		if _, err := tx.ExecContext(ctx, m.db.Rebind(`
INSERT INTO auth_sessions (token, account_id, issued_at_ms, expires_at_ms, last_seen_at_ms)
VALUES (?, ?, ?, ?, ?)
`), token, accountID, nowMs, expiresAt, nowMs); err != nil {
			if sqldb.IsUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

func authSchema(db *sqldb.DB) []string {
	return []string{
		`
CREATE TABLE IF NOT EXISTS accounts (
    id ` + db.AutoID() + `,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at_ms BIGINT NOT NULL,
    last_login_at_ms BIGINT
)`,
		`
CREATE TABLE IF NOT EXISTS auth_sessions (
    token TEXT PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    issued_at_ms BIGINT NOT NULL,
    expires_at_ms BIGINT NOT NULL,
    revoked_at_ms BIGINT,
    last_seen_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_account ON auth_sessions(account_id, expires_at_ms DESC)`,
	}
}
