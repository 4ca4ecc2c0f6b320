package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"casino-lite/apps/server/internal/sqldb"
	"casino-lite/blackjack"
)

// SQLStore backs sessions, wallets, the journal and the event tape with
// Postgres or SQLite.
type SQLStore struct {
	db             *sqldb.DB
	startingPoints int64
}

func NewSQL(ctx context.Context, db *sqldb.DB, startingPoints int64) (*SQLStore, error) {
	if err := db.EnsureSchema(ctx, schema(db)); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, startingPoints: startingPoints}, nil
}

func schema(db *sqldb.DB) []string {
	return []string{
		`
CREATE TABLE IF NOT EXISTS blackjack_sessions (
    id TEXT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    bet_amount BIGINT NOT NULL,
    status TEXT NOT NULL,
    game_data TEXT NOT NULL,
    result TEXT NOT NULL DEFAULT '',
    payout BIGINT NOT NULL DEFAULT 0,
    created_at_ms BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL,
    settled_at_ms BIGINT NOT NULL DEFAULT 0
)`,
		`CREATE INDEX IF NOT EXISTS idx_blackjack_sessions_user_settled ON blackjack_sessions(user_id, status, settled_at_ms DESC)`,
		`
CREATE TABLE IF NOT EXISTS wallets (
    user_id BIGINT PRIMARY KEY,
    balance BIGINT NOT NULL CHECK (balance >= 0),
    updated_at_ms BIGINT NOT NULL
)`,
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS wallet_entries (
    id %s,
    user_id BIGINT NOT NULL,
    session_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    amount BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    created_at_ms BIGINT NOT NULL
)`, db.AutoID()),
		`CREATE INDEX IF NOT EXISTS idx_wallet_entries_user ON wallet_entries(user_id, id DESC)`,
		`
CREATE TABLE IF NOT EXISTS blackjack_session_events (
    session_id TEXT NOT NULL,
    seq BIGINT NOT NULL,
    event_type TEXT NOT NULL,
    envelope_b64 TEXT NOT NULL,
    server_ts_ms BIGINT NOT NULL,
    PRIMARY KEY (session_id, seq)
)`,
	}
}

// Close is a no-op: the caller owns the *sqldb.DB.
func (s *SQLStore) Close() error { return nil }

const sessionColumns = `id, user_id, bet_amount, status, game_data, result, payout, created_at_ms, updated_at_ms, settled_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (blackjack.Session, error) {
	var s blackjack.Session
	var status, result, gameDataRaw string
	var createdMs, updatedMs, settleMs int64
	if err := row.Scan(&s.ID, &s.UserID, &s.BetAmount, &status, &gameDataRaw, &result, &s.Payout, &createdMs, &updatedMs, &settleMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return blackjack.Session{}, blackjack.ErrSessionNotFound
		}
		return blackjack.Session{}, err
	}
	s.Status = blackjack.Status(status)
	s.Result = blackjack.Result(result)
	s.CreatedAt = sqldb.MsToTime(createdMs)
	s.UpdatedAt = sqldb.MsToTime(updatedMs)
	s.SettledAt = sqldb.MsToTime(settleMs)
	if err := decodeGameData(gameDataRaw, &s); err != nil {
		return blackjack.Session{}, err
	}
	if err := s.Validate(); err != nil {
		return blackjack.Session{}, err
	}
	return s, nil
}

func (s *SQLStore) Atomic(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{store: s, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Get(ctx context.Context, sessionID string) (blackjack.Session, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+sessionColumns+` FROM blackjack_sessions WHERE id = ?`), sessionID)
	return scanSession(row)
}

func (s *SQLStore) Balance(ctx context.Context, userID uint64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT balance FROM wallets WHERE user_id = ?`), userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return s.startingPoints, nil
	}
	return balance, err
}

func (s *SQLStore) Journal(ctx context.Context, userID uint64, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
SELECT user_id, session_id, kind, amount, balance_after, created_at_ms
FROM wallet_entries
WHERE user_id = ?
ORDER BY id DESC
LIMIT ?
`), userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var kind string
		var createdMs int64
		if err := rows.Scan(&e.UserID, &e.SessionID, &kind, &e.Amount, &e.BalanceAfter, &createdMs); err != nil {
			return nil, err
		}
		e.Kind = EntryKind(kind)
		e.CreatedAt = sqldb.MsToTime(createdMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListRecent(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
SELECT `+sessionColumns+`
FROM blackjack_sessions
WHERE user_id = ?
  AND status = ?
ORDER BY settled_at_ms DESC, id DESC
LIMIT ?
`), userID, string(blackjack.StatusSettled), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, historyItem(sess))
	}
	return items, rows.Err()
}

func (s *SQLStore) Events(ctx context.Context, sessionID string) ([]EventItem, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
SELECT seq, event_type, envelope_b64, server_ts_ms
FROM blackjack_session_events
WHERE session_id = ?
ORDER BY seq ASC
`), sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventItem, 0, 16)
	for rows.Next() {
		var e EventItem
		if err := rows.Scan(&e.Seq, &e.EventType, &e.EnvelopeB64, &e.ServerTsMs); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, blackjack.ErrSessionNotFound
	}
	return events, nil
}

type sqlTx struct {
	store *SQLStore
	tx    *sql.Tx
}

func (t *sqlTx) rebind(q string) string {
	return t.store.db.Rebind(q)
}

func (t *sqlTx) Load(ctx context.Context, sessionID string) (blackjack.Session, error) {
	row := t.tx.QueryRowContext(ctx, t.rebind(`SELECT `+sessionColumns+` FROM blackjack_sessions WHERE id = ?`+t.store.db.ForUpdate()), sessionID)
	return scanSession(row)
}

func (t *sqlTx) Insert(ctx context.Context, s blackjack.Session) error {
	gameData, err := encodeGameData(s)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, t.rebind(`
INSERT INTO blackjack_sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`), s.ID, s.UserID, s.BetAmount, string(s.Status), gameData, string(s.Result), s.Payout,
		sqldb.TimeToMs(s.CreatedAt), sqldb.TimeToMs(s.UpdatedAt), sqldb.TimeToMs(s.SettledAt))
	if sqldb.IsUniqueViolation(err) {
		return ErrDuplicateSession
	}
	return err
}

func (t *sqlTx) Save(ctx context.Context, s blackjack.Session) error {
	gameData, err := encodeGameData(s)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, t.rebind(`
UPDATE blackjack_sessions
SET bet_amount = ?,
    status = ?,
    game_data = ?,
    result = ?,
    payout = ?,
    updated_at_ms = ?,
    settled_at_ms = ?
WHERE id = ?
`), s.BetAmount, string(s.Status), gameData, string(s.Result), s.Payout,
		sqldb.TimeToMs(s.UpdatedAt), sqldb.TimeToMs(s.SettledAt), s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return blackjack.ErrSessionNotFound
	}
	return nil
}

func (t *sqlTx) AppendEvents(ctx context.Context, sessionID string, events []blackjack.Event, now time.Time) error {
	if len(events) == 0 {
		return nil
	}
	var last int64
	if err := t.tx.QueryRowContext(ctx, t.rebind(`
SELECT COALESCE(MAX(seq), 0) FROM blackjack_session_events WHERE session_id = ?
`), sessionID).Scan(&last); err != nil {
		return err
	}
	items, err := encodeEvents(sessionID, uint64(last)+1, events, now)
	if err != nil {
		return err
	}
	for _, e := range items {
		if _, err := t.tx.ExecContext(ctx, t.rebind(`
INSERT INTO blackjack_session_events (session_id, seq, event_type, envelope_b64, server_ts_ms)
VALUES (?, ?, ?, ?, ?)
`), sessionID, e.Seq, e.EventType, e.EnvelopeB64, e.ServerTsMs); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTx) ensureWallet(ctx context.Context, userID uint64) error {
	_, err := t.tx.ExecContext(ctx, t.rebind(`
INSERT INTO wallets (user_id, balance, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING
`), userID, t.store.startingPoints, sqldb.NowMs())
	return err
}

func (t *sqlTx) Balance(ctx context.Context, userID uint64) (int64, error) {
	if err := t.ensureWallet(ctx, userID); err != nil {
		return 0, err
	}
	var balance int64
	err := t.tx.QueryRowContext(ctx, t.rebind(`SELECT balance FROM wallets WHERE user_id = ?`+t.store.db.ForUpdate()), userID).Scan(&balance)
	return balance, err
}

// Debit only succeeds when the balance covers amount; the conditional
// UPDATE makes the check and the write one statement.
func (t *sqlTx) Debit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, blackjack.ErrInvalidBet
	}
	if err := t.ensureWallet(ctx, userID); err != nil {
		return 0, err
	}
	var balance int64
	err := t.tx.QueryRowContext(ctx, t.rebind(`
UPDATE wallets
SET balance = balance - ?,
    updated_at_ms = ?
WHERE user_id = ?
  AND balance >= ?
RETURNING balance
`), amount, sqldb.NowMs(), userID, amount).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, blackjack.ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	if err := t.record(ctx, userID, sessionID, kind, -amount, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (t *sqlTx) Credit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error) {
	if amount <= 0 {
		return t.Balance(ctx, userID)
	}
	if err := t.ensureWallet(ctx, userID); err != nil {
		return 0, err
	}
	var balance int64
	if err := t.tx.QueryRowContext(ctx, t.rebind(`
UPDATE wallets
SET balance = balance + ?,
    updated_at_ms = ?
WHERE user_id = ?
RETURNING balance
`), amount, sqldb.NowMs(), userID).Scan(&balance); err != nil {
		return 0, err
	}
	if err := t.record(ctx, userID, sessionID, kind, amount, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (t *sqlTx) record(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount, balanceAfter int64) error {
	_, err := t.tx.ExecContext(ctx, t.rebind(`
INSERT INTO wallet_entries (user_id, session_id, kind, amount, balance_after, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
`), userID, strings.TrimSpace(sessionID), string(kind), amount, balanceAfter, sqldb.NowMs())
	return err
}
