// Package store persists blackjack sessions together with the points wallet
// they move. Every session write and its wallet movement share one
// transaction.
package store

import (
	"context"
	"errors"
	"time"

	"casino-lite/apps/server/internal/sqldb"
	"casino-lite/blackjack"
)

const (
	DefaultStartingPoints = 1000
	defaultRecentLimit    = 20
	maxRecentLimit        = 100
)

var ErrDuplicateSession = errors.New("session id already exists")

type EntryKind string

const (
	EntryBetDebit     EntryKind = "bet_debit"
	EntryDoubleDebit  EntryKind = "double_debit"
	EntryPayoutCredit EntryKind = "payout_credit"
)

// Entry is one row of the append-only wallet journal.
type Entry struct {
	UserID       uint64    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	Kind         EntryKind `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryItem struct {
	SessionID    string           `json:"session_id"`
	BetAmount    int64            `json:"bet_amount"`
	Doubled      bool             `json:"doubled"`
	Result       blackjack.Result `json:"result"`
	Payout       int64            `json:"payout"`
	PointsChange int64            `json:"points_change"`
	PlayerScore  int              `json:"player_score"`
	DealerScore  int              `json:"dealer_score"`
	PlayedAt     time.Time        `json:"played_at"`
}

type EventItem struct {
	Seq         uint64 `json:"seq"`
	EventType   string `json:"event_type"`
	EnvelopeB64 string `json:"envelope_b64"`
	ServerTsMs  int64  `json:"server_ts_ms"`
}

type Store interface {
	Close() error
	// Atomic runs fn inside one transaction. If fn returns an error nothing
	// fn did is visible afterwards.
	Atomic(ctx context.Context, fn func(Tx) error) error
	Get(ctx context.Context, sessionID string) (blackjack.Session, error)
	Balance(ctx context.Context, userID uint64) (int64, error)
	Journal(ctx context.Context, userID uint64, limit int) ([]Entry, error)
	ListRecent(ctx context.Context, userID uint64, limit int) ([]HistoryItem, error)
	Events(ctx context.Context, sessionID string) ([]EventItem, error)
}

// Tx is the view of the store inside Atomic. Load takes the row lock where
// the backend has one.
type Tx interface {
	Load(ctx context.Context, sessionID string) (blackjack.Session, error)
	Insert(ctx context.Context, s blackjack.Session) error
	Save(ctx context.Context, s blackjack.Session) error
	AppendEvents(ctx context.Context, sessionID string, events []blackjack.Event, now time.Time) error
	Debit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error)
	Credit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error)
	Balance(ctx context.Context, userID uint64) (int64, error)
}

// New picks the backend: a nil db keeps everything in memory.
func New(ctx context.Context, db *sqldb.DB, startingPoints int64) (Store, string, error) {
	if startingPoints < 0 {
		startingPoints = 0
	}
	if db == nil {
		return NewMemory(startingPoints), "memory", nil
	}
	s, err := NewSQL(ctx, db, startingPoints)
	if err != nil {
		return nil, "", err
	}
	return s, db.Dialect.String(), nil
}

func historyItem(s blackjack.Session) HistoryItem {
	return HistoryItem{
		SessionID:    s.ID,
		BetAmount:    s.BetAmount,
		Doubled:      s.Doubled,
		Result:       s.Result,
		Payout:       s.Payout,
		PointsChange: s.PointsChange(),
		PlayerScore:  s.Player.Score(),
		DealerScore:  s.Dealer.Score(),
		PlayedAt:     s.SettledAt,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}
