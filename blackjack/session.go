package blackjack

import (
	"fmt"
	"time"
)

// Session is the aggregate root of one blackjack round.
type Session struct {
	ID        string
	UserID    uint64
	BetAmount int64
	Status    Status

	Player  Hand
	Dealer  Hand
	Deck    Deck
	Doubled bool

	Result Result
	Payout int64

	CreatedAt time.Time
	UpdatedAt time.Time
	SettledAt time.Time
}

func (s Session) Settled() bool {
	return s.Status == StatusSettled
}

func (s Session) Phase() Phase {
	switch {
	case s.Settled():
		return PhaseSettled
	case len(s.Player) < 2 || len(s.Dealer) < 2:
		return PhaseDealing
	default:
		return PhasePlayerTurn
	}
}

// PointsChange is the net effect of the round on the balance; zero until settled.
func (s Session) PointsChange() int64 {
	if !s.Settled() {
		return 0
	}
	return s.Payout - s.BetAmount
}

// Clone returns a copy that shares no hand storage with s.
func (s Session) Clone() Session {
	out := s
	out.Player = s.Player.clone()
	out.Dealer = s.Dealer.clone()
	return out
}

// Validate checks a session restored from storage.
func (s Session) Validate() error {
	if s.ID == "" || s.UserID == 0 {
		return fmt.Errorf("%w: missing id or owner", ErrCorruptSession)
	}
	if s.Status != StatusPending && s.Status != StatusSettled {
		return fmt.Errorf("%w: status %q", ErrCorruptSession, s.Status)
	}
	if s.BetAmount <= 0 {
		return fmt.Errorf("%w: bet %d", ErrCorruptSession, s.BetAmount)
	}
	if err := s.Deck.Validate(); err != nil {
		return err
	}
	if len(s.Player)+len(s.Dealer) != s.Deck.Index {
		return fmt.Errorf("%w: %d cards dealt but cursor at %d", ErrCorruptSession, len(s.Player)+len(s.Dealer), s.Deck.Index)
	}
	for _, h := range []Hand{s.Player, s.Dealer} {
		for _, dc := range h {
			if dc.Seq < 0 || dc.Seq >= s.Deck.Index || s.Deck.Cards[dc.Seq] != dc.Card {
				return fmt.Errorf("%w: card %v does not match deck position %d", ErrCorruptSession, dc.Card, dc.Seq)
			}
		}
	}
	return nil
}
