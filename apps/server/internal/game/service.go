// Package game runs blackjack rounds for authenticated users: it serializes
// actions per session, applies the pure transitions from package blackjack
// and commits each result together with its wallet movement.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"casino-lite/apps/server/internal/metrics"
	"casino-lite/apps/server/internal/store"
	"casino-lite/blackjack"

	"github.com/oklog/ulid/v2"
)

const maxHistoryLimit = 100

// Request is the action envelope shared by the HTTP and WebSocket transports.
type Request struct {
	Action    string `json:"action"`
	BetAmount int64  `json:"betAmount,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Outcome is what a caller may see after an action. The view is already
// redacted; HoleCard is only set by getDealerSecondCard.
type Outcome struct {
	Action   blackjack.Action
	View     blackjack.View
	Points   int64
	HoleCard *blackjack.CardView
}

type TapeEvent struct {
	store.EventItem
	Payload map[string]any `json:"payload,omitempty"`
}

type Options struct {
	Rules        blackjack.Rules
	Metrics      *metrics.Metrics
	HistoryLimit int
	// Seed fixes the shuffle for tests; zero seeds from the clock.
	Seed int64
	Now  func() time.Time
	// NewDeck overrides shuffling entirely.
	NewDeck func() blackjack.Deck
	NewID   func() string
}

type Service struct {
	store        store.Store
	rules        blackjack.Rules
	metrics      *metrics.Metrics
	historyLimit int
	locks        *keyedMutex

	now     func() time.Time
	newID   func() string
	newDeck func() blackjack.Deck
}

func New(st store.Store, opts Options) (*Service, error) {
	if st == nil {
		return nil, errors.New("game: nil store")
	}
	if opts.Rules == (blackjack.Rules{}) {
		opts.Rules = blackjack.DefaultRules()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	s := &Service{
		store:        st,
		rules:        opts.Rules,
		metrics:      opts.Metrics,
		historyLimit: opts.HistoryLimit,
		locks:        newKeyedMutex(),
		now:          opts.Now,
		newID:        opts.NewID,
		newDeck:      opts.NewDeck,
	}
	if s.historyLimit <= 0 || s.historyLimit > maxHistoryLimit {
		s.historyLimit = 20
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return ulid.Make().String() }
	}
	if s.newDeck == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		var mu sync.Mutex
		rng := rand.New(rand.NewSource(seed))
		s.newDeck = func() blackjack.Deck {
			mu.Lock()
			defer mu.Unlock()
			return blackjack.NewShuffledDeck(rng)
		}
	}
	return s, nil
}

func (s *Service) Rules() blackjack.Rules {
	return s.rules
}

// Apply dispatches one envelope.
func (s *Service) Apply(ctx context.Context, userID uint64, req Request) (Outcome, error) {
	action, err := blackjack.ParseAction(req.Action)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %q", err, req.Action)
	}
	switch action {
	case blackjack.ActionStart:
		return s.Start(ctx, userID, req.BetAmount)
	case blackjack.ActionHit:
		return s.Hit(ctx, userID, req.SessionID)
	case blackjack.ActionStand:
		return s.Stand(ctx, userID, req.SessionID)
	case blackjack.ActionDouble:
		return s.Double(ctx, userID, req.SessionID)
	case blackjack.ActionDealerSecondCard:
		return s.DealerSecondCard(ctx, userID, req.SessionID)
	case blackjack.ActionDealerHit:
		return s.DealerHand(ctx, userID, req.SessionID)
	}
	return Outcome{}, blackjack.ErrInvalidAction
}

// Start debits the bet and deals a fresh round.
func (s *Service) Start(ctx context.Context, userID uint64, bet int64) (out Outcome, err error) {
	started := time.Now()
	defer func() { s.observe(blackjack.ActionStart, err, started) }()

	if userID == 0 {
		return Outcome{}, blackjack.ErrInvalidState("missing user")
	}
	now := s.now()
	step, err := blackjack.Deal(s.newID(), userID, bet, s.newDeck(), s.rules, now)
	if err != nil {
		return Outcome{}, err
	}

	unlock := s.locks.Lock(step.Session.ID)
	defer unlock()

	var balance int64
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		b, err := tx.Debit(ctx, userID, step.Session.ID, store.EntryBetDebit, bet)
		if err != nil {
			return err
		}
		balance = b
		if err := tx.Insert(ctx, step.Session); err != nil {
			return err
		}
		return tx.AppendEvents(ctx, step.Session.ID, step.Events, now)
	})
	if err != nil {
		return Outcome{}, err
	}

	s.metrics.RoundStarted(bet)
	log.Printf("[Blackjack] start: user=%d session=%s bet=%d balance=%d", userID, step.Session.ID, bet, balance)
	return Outcome{Action: blackjack.ActionStart, View: step.Session.View(), Points: balance}, nil
}

func (s *Service) Hit(ctx context.Context, userID uint64, sessionID string) (Outcome, error) {
	return s.mutate(ctx, blackjack.ActionHit, userID, sessionID, func(cur blackjack.Session, now time.Time) (blackjack.Step, error) {
		return blackjack.Hit(cur, s.rules, now)
	})
}

func (s *Service) Stand(ctx context.Context, userID uint64, sessionID string) (Outcome, error) {
	return s.mutate(ctx, blackjack.ActionStand, userID, sessionID, func(cur blackjack.Session, now time.Time) (blackjack.Step, error) {
		return blackjack.Stand(cur, s.rules, now)
	})
}

// Double charges the original bet again before the one-card draw.
func (s *Service) Double(ctx context.Context, userID uint64, sessionID string) (Outcome, error) {
	return s.mutate(ctx, blackjack.ActionDouble, userID, sessionID, func(cur blackjack.Session, now time.Time) (blackjack.Step, error) {
		return blackjack.Double(cur, s.rules, now)
	})
}

type transition func(cur blackjack.Session, now time.Time) (blackjack.Step, error)

// mutate is the shared path of every state-changing action after start:
// lock, load, check ownership, transition, move points, persist, commit.
func (s *Service) mutate(ctx context.Context, action blackjack.Action, userID uint64, sessionID string, next transition) (out Outcome, err error) {
	started := time.Now()
	defer func() { s.observe(action, err, started) }()

	sessionID, err = requireSessionID(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var (
		step    blackjack.Step
		extra   int64
		balance int64
	)
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		cur, err := tx.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if cur.UserID != userID {
			return blackjack.ErrForbidden
		}
		now := s.now()
		step, err = next(cur, now)
		if err != nil {
			return err
		}

		if extra = step.Session.BetAmount - cur.BetAmount; extra > 0 {
			if _, err := tx.Debit(ctx, userID, sessionID, store.EntryDoubleDebit, extra); err != nil {
				return err
			}
		}
		if step.Session.Settled() {
			if _, err := tx.Credit(ctx, userID, sessionID, store.EntryPayoutCredit, step.Session.Payout); err != nil {
				return err
			}
		}
		if err := tx.Save(ctx, step.Session); err != nil {
			return err
		}
		if err := tx.AppendEvents(ctx, sessionID, step.Events, now); err != nil {
			return err
		}
		balance, err = tx.Balance(ctx, userID)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	if extra > 0 {
		s.metrics.Doubled(extra)
	}
	if step.Session.Settled() {
		s.metrics.RoundSettled(string(step.Session.Result), step.Session.Payout)
		log.Printf("[Blackjack] settled: user=%d session=%s action=%s bet=%d result=%s payout=%d balance=%d",
			userID, sessionID, action, step.Session.BetAmount, step.Session.Result, step.Session.Payout, balance)
	}
	return Outcome{Action: action, View: step.Session.View(), Points: balance}, nil
}

// DealerSecondCard reveals the hole card of a settled round.
func (s *Service) DealerSecondCard(ctx context.Context, userID uint64, sessionID string) (out Outcome, err error) {
	started := time.Now()
	defer func() { s.observe(blackjack.ActionDealerSecondCard, err, started) }()

	cur, balance, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	dc, err := blackjack.DealerSecondCard(cur)
	if err != nil {
		return Outcome{}, err
	}
	cv := blackjack.NewCardView(dc)
	return Outcome{Action: blackjack.ActionDealerSecondCard, View: cur.View(), Points: balance, HoleCard: &cv}, nil
}

// DealerHand answers dealerHit with the completed dealer hand. The dealer
// already played inside stand or double, so this never draws.
func (s *Service) DealerHand(ctx context.Context, userID uint64, sessionID string) (out Outcome, err error) {
	started := time.Now()
	defer func() { s.observe(blackjack.ActionDealerHit, err, started) }()

	cur, balance, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := blackjack.DealerHand(cur); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: blackjack.ActionDealerHit, View: cur.View(), Points: balance}, nil
}

// Get returns the caller's current redacted view of a session.
func (s *Service) Get(ctx context.Context, userID uint64, sessionID string) (Outcome, error) {
	cur, balance, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{View: cur.View(), Points: balance}, nil
}

func (s *Service) History(ctx context.Context, userID uint64, limit int) ([]store.HistoryItem, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = s.historyLimit
	}
	return s.store.ListRecent(ctx, userID, limit)
}

// Events returns the tape of a settled round. Pending rounds are refused so
// the tape cannot leak the hole card.
func (s *Service) Events(ctx context.Context, userID uint64, sessionID string) ([]TapeEvent, error) {
	cur, _, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !cur.Settled() {
		return nil, blackjack.ErrCardConcealed
	}
	items, err := s.store.Events(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	out := make([]TapeEvent, 0, len(items))
	for _, item := range items {
		payload, err := store.DecodeEnvelope(item.EnvelopeB64)
		if err != nil {
			log.Printf("[Blackjack] decode tape event failed: session=%s seq=%d err=%v", cur.ID, item.Seq, err)
		}
		out = append(out, TapeEvent{EventItem: item, Payload: payload})
	}
	return out, nil
}

func (s *Service) Balance(ctx context.Context, userID uint64) (int64, error) {
	return s.store.Balance(ctx, userID)
}

func (s *Service) Journal(ctx context.Context, userID uint64, limit int) ([]store.Entry, error) {
	return s.store.Journal(ctx, userID, limit)
}

func (s *Service) owned(ctx context.Context, userID uint64, sessionID string) (blackjack.Session, int64, error) {
	sessionID, err := requireSessionID(sessionID)
	if err != nil {
		return blackjack.Session{}, 0, err
	}
	cur, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return blackjack.Session{}, 0, err
	}
	if cur.UserID != userID {
		return blackjack.Session{}, 0, blackjack.ErrForbidden
	}
	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return blackjack.Session{}, 0, err
	}
	return cur, balance, nil
}

func (s *Service) observe(action blackjack.Action, err error, started time.Time) {
	s.metrics.ObserveAction(string(action), ErrorKind(err), time.Since(started))
}

func requireSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: sessionId is required", blackjack.ErrSessionNotFound)
	}
	return id, nil
}
