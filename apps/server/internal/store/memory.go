package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"casino-lite/blackjack"
)

// MemoryStore keeps everything in process. A transaction reads committed
// state, stages its writes and applies them under a single lock on commit.
type MemoryStore struct {
	mu             sync.RWMutex
	startingPoints int64
	sessions       map[string]blackjack.Session
	wallets        map[uint64]int64
	journal        []Entry
	events         map[string][]EventItem
}

func NewMemory(startingPoints int64) *MemoryStore {
	return &MemoryStore{
		startingPoints: startingPoints,
		sessions:       make(map[string]blackjack.Session),
		wallets:        make(map[uint64]int64),
		events:         make(map[string][]EventItem),
	}
}

func (m *MemoryStore) Close() error { return nil }

type memTx struct {
	store    *MemoryStore
	inserted map[string]bool
	sessions map[string]blackjack.Session
	deltas   map[uint64]int64
	journal  []Entry
	events   map[string][]EventItem
}

func (m *MemoryStore) Atomic(ctx context.Context, fn func(Tx) error) error {
	tx := &memTx{
		store:    m,
		inserted: make(map[string]bool),
		sessions: make(map[string]blackjack.Session),
		deltas:   make(map[uint64]int64),
		events:   make(map[string][]EventItem),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryStore) commit(tx *memTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range tx.inserted {
		if _, exists := m.sessions[id]; exists {
			return ErrDuplicateSession
		}
	}
	for userID, delta := range tx.deltas {
		if m.walletLocked(userID)+delta < 0 {
			return blackjack.ErrInsufficientFunds
		}
	}

	for userID, delta := range tx.deltas {
		m.wallets[userID] = m.walletLocked(userID) + delta
	}
	for id, s := range tx.sessions {
		m.sessions[id] = s.Clone()
	}
	m.journal = append(m.journal, tx.journal...)
	for id, items := range tx.events {
		m.events[id] = append(m.events[id], items...)
	}
	return nil
}

func (m *MemoryStore) walletLocked(userID uint64) int64 {
	if balance, ok := m.wallets[userID]; ok {
		return balance
	}
	return m.startingPoints
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (blackjack.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return blackjack.Session{}, blackjack.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Balance(_ context.Context, userID uint64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.walletLocked(userID), nil
}

func (m *MemoryStore) Journal(_ context.Context, userID uint64, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for i := len(m.journal) - 1; i >= 0 && len(out) < limit; i-- {
		if m.journal[i].UserID == userID {
			out = append(out, m.journal[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) ListRecent(_ context.Context, userID uint64, limit int) ([]HistoryItem, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	settled := make([]blackjack.Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID && s.Settled() {
			settled = append(settled, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(settled, func(i, j int) bool {
		if settled[i].SettledAt.Equal(settled[j].SettledAt) {
			return settled[i].ID > settled[j].ID
		}
		return settled[i].SettledAt.After(settled[j].SettledAt)
	})
	if len(settled) > limit {
		settled = settled[:limit]
	}
	items := make([]HistoryItem, 0, len(settled))
	for _, s := range settled {
		items = append(items, historyItem(s))
	}
	return items, nil
}

func (m *MemoryStore) Events(_ context.Context, sessionID string) ([]EventItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.events[sessionID]
	if !ok {
		return nil, blackjack.ErrSessionNotFound
	}
	out := make([]EventItem, len(items))
	copy(out, items)
	return out, nil
}

func (tx *memTx) Load(ctx context.Context, sessionID string) (blackjack.Session, error) {
	if s, ok := tx.sessions[sessionID]; ok {
		return s.Clone(), nil
	}
	return tx.store.Get(ctx, sessionID)
}

func (tx *memTx) Insert(_ context.Context, s blackjack.Session) error {
	if _, staged := tx.sessions[s.ID]; staged {
		return ErrDuplicateSession
	}
	tx.store.mu.RLock()
	_, exists := tx.store.sessions[s.ID]
	tx.store.mu.RUnlock()
	if exists {
		return ErrDuplicateSession
	}
	tx.inserted[s.ID] = true
	tx.sessions[s.ID] = s.Clone()
	return nil
}

func (tx *memTx) Save(ctx context.Context, s blackjack.Session) error {
	if _, err := tx.Load(ctx, s.ID); err != nil {
		return err
	}
	tx.sessions[s.ID] = s.Clone()
	return nil
}

func (tx *memTx) AppendEvents(_ context.Context, sessionID string, events []blackjack.Event, now time.Time) error {
	tx.store.mu.RLock()
	next := uint64(len(tx.store.events[sessionID])) + 1
	tx.store.mu.RUnlock()
	next += uint64(len(tx.events[sessionID]))

	items, err := encodeEvents(sessionID, next, events, now)
	if err != nil {
		return err
	}
	tx.events[sessionID] = append(tx.events[sessionID], items...)
	return nil
}

func (tx *memTx) Balance(ctx context.Context, userID uint64) (int64, error) {
	committed, err := tx.store.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	return committed + tx.deltas[userID], nil
}

func (tx *memTx) Debit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, blackjack.ErrInvalidBet
	}
	balance, err := tx.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, blackjack.ErrInsufficientFunds
	}
	tx.deltas[userID] -= amount
	tx.record(userID, sessionID, kind, -amount, balance-amount)
	return balance - amount, nil
}

func (tx *memTx) Credit(ctx context.Context, userID uint64, sessionID string, kind EntryKind, amount int64) (int64, error) {
	balance, err := tx.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return balance, nil
	}
	tx.deltas[userID] += amount
	tx.record(userID, sessionID, kind, amount, balance+amount)
	return balance + amount, nil
}

func (tx *memTx) record(userID uint64, sessionID string, kind EntryKind, amount, balanceAfter int64) {
	tx.journal = append(tx.journal, Entry{
		UserID:       userID,
		SessionID:    sessionID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().UTC(),
	})
}
