package blackjack

import (
	"fmt"
	"time"
)

// Step is the result of one transition: the new session value plus the
// ordered events that produced it.
type Step struct {
	Session Session
	Events  []Event
}

// dealer draws and hand growth go through a round so every draw advances
// the same cursor.
type round struct {
	s      Session
	events []Event
}

func (r *round) draw(side string, faceUp bool) (DealtCard, error) {
	c, next, err := r.s.Deck.Draw()
	if err != nil {
		return DealtCard{}, err
	}
	dc := DealtCard{Card: c, Seq: r.s.Deck.Index, FaceUp: faceUp}
	r.s.Deck = next
	switch side {
	case SidePlayer:
		r.s.Player = r.s.Player.with(dc)
	case SideDealer:
		r.s.Dealer = r.s.Dealer.with(dc)
	default:
		return DealtCard{}, ErrInvalidState("unknown side " + side)
	}
	return dc, nil
}

func (r *round) emit(e Event) {
	r.events = append(r.events, e)
}

func (r *round) step() Step {
	return Step{Session: r.s, Events: r.events}
}

// Deal opens a round: player, dealer, player, dealer (face down).
func Deal(id string, userID uint64, bet int64, deck Deck, rules Rules, now time.Time) (Step, error) {
	if err := rules.checkBet(bet); err != nil {
		return Step{}, err
	}
	if id == "" || userID == 0 {
		return Step{}, ErrInvalidState("session id and owner are required")
	}
	if deck.Remaining() < 4 {
		return Step{}, ErrDeckExhausted
	}

	r := &round{s: Session{
		ID:        id,
		UserID:    userID,
		BetAmount: bet,
		Status:    StatusPending,
		Deck:      deck,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	order := []struct {
		side   string
		faceUp bool
	}{
		{SidePlayer, true},
		{SideDealer, true},
		{SidePlayer, true},
		{SideDealer, false},
	}
	r.emit(Event{Type: EventDeal, Bet: bet})
	for _, o := range order {
		dc, err := r.draw(o.side, o.faceUp)
		if err != nil {
			return Step{}, err
		}
		ev := Event{Type: EventDeal, Side: o.side}
		if o.faceUp {
			ev.Card = &dc
		}
		r.emit(ev)
	}
	return r.step(), nil
}

// Hit draws one player card. A bust settles the round as a loss right away;
// the hole card is turned over for display but the dealer does not play.
func Hit(s Session, rules Rules, now time.Time) (Step, error) {
	if err := checkPending(s); err != nil {
		return Step{}, err
	}
	r := &round{s: s.Clone()}
	dc, err := r.draw(SidePlayer, true)
	if err != nil {
		return Step{}, err
	}
	r.emit(Event{Type: EventHit, Side: SidePlayer, Card: &dc})
	if r.s.Player.IsBust() {
		revealHoleCard(r)
		settle(r, rules, now)
	}
	r.s.UpdatedAt = now
	return r.step(), nil
}

// Stand ends the player's turn: reveal, dealer completion, settlement.
func Stand(s Session, rules Rules, now time.Time) (Step, error) {
	if err := checkPending(s); err != nil {
		return Step{}, err
	}
	r := &round{s: s.Clone()}
	r.emit(Event{Type: EventStand, Side: SidePlayer})
	if err := completeRound(r, rules, now); err != nil {
		return Step{}, err
	}
	return r.step(), nil
}

// Double doubles the wager, deals exactly one more player card and stands.
// The caller is responsible for debiting the additional stake.
func Double(s Session, rules Rules, now time.Time) (Step, error) {
	if err := checkPending(s); err != nil {
		return Step{}, err
	}
	if s.Doubled {
		return Step{}, ErrAlreadyDoubled
	}
	r := &round{s: s.Clone()}
	r.s.BetAmount = 2 * s.BetAmount
	r.s.Doubled = true
	dc, err := r.draw(SidePlayer, true)
	if err != nil {
		return Step{}, err
	}
	r.emit(Event{Type: EventDouble, Side: SidePlayer, Card: &dc, Bet: r.s.BetAmount})
	if err := completeRound(r, rules, now); err != nil {
		return Step{}, err
	}
	return r.step(), nil
}

// DealerSecondCard returns the hole card once the round is past concealment.
func DealerSecondCard(s Session) (DealtCard, error) {
	if !s.Settled() {
		return DealtCard{}, ErrCardConcealed
	}
	if len(s.Dealer) < 2 {
		return DealtCard{}, ErrInvalidState("dealer hand has no second card")
	}
	dc := s.Dealer[1]
	dc.FaceUp = true
	return dc, nil
}

// DealerHand returns the dealer's completed hand. It never draws: all dealer
// play happens inside Stand and Double.
func DealerHand(s Session) (Hand, error) {
	if !s.Settled() {
		return nil, ErrCardConcealed
	}
	return s.Dealer.revealed(), nil
}

func checkPending(s Session) error {
	if s.Settled() {
		return ErrAlreadySettled
	}
	if s.Status != StatusPending {
		return ErrInvalidState(fmt.Sprintf("status %q", s.Status))
	}
	if len(s.Player) < 2 || len(s.Dealer) < 2 {
		return ErrInvalidState("round was not dealt")
	}
	return nil
}

func revealHoleCard(r *round) {
	if !r.s.Dealer.HasConcealed() {
		return
	}
	r.s.Dealer = r.s.Dealer.revealed()
	hole := r.s.Dealer[1]
	r.emit(Event{Type: EventReveal, Side: SideDealer, Card: &hole})
}

// completeRound runs the dealer turn unless the player already busted, then
// settles. The dealer stands on any total >= rules.DealerStandsOn.
func completeRound(r *round, rules Rules, now time.Time) error {
	revealHoleCard(r)
	if !r.s.Player.IsBust() {
		for r.s.Dealer.Score() < rules.DealerStandsOn {
			dc, err := r.draw(SideDealer, true)
			if err != nil {
				return err
			}
			r.emit(Event{Type: EventDealerDraw, Side: SideDealer, Card: &dc})
		}
	}
	settle(r, rules, now)
	r.s.UpdatedAt = now
	return nil
}

func settle(r *round, rules Rules, now time.Time) {
	st := Settle(r.s.Player, r.s.Dealer, r.s.BetAmount, rules)
	r.s.Status = StatusSettled
	r.s.Result = st.Result
	r.s.Payout = st.Payout
	r.s.SettledAt = now
	r.emit(Event{Type: EventSettle, Bet: st.Bet, Result: st.Result, Payout: st.Payout})
}
