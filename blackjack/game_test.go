package blackjack

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"casino-lite/card"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// stacked deals in start order: player, dealer, player, dealer(hole), then draws.
func stacked(t *testing.T, raw ...string) Deck {
	t.Helper()
	top := make([]card.Card, 0, len(raw))
	for _, s := range raw {
		top = append(top, card.MustParse(s))
	}
	d, err := NewStackedDeck(top...)
	if err != nil {
		t.Fatalf("NewStackedDeck err: %v", err)
	}
	return d
}

func dealt(t *testing.T, bet int64, deck Deck) Session {
	t.Helper()
	step, err := Deal("s1", 42, bet, deck, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	return step.Session
}

func TestDeal_OrderAndConcealment(t *testing.T) {
	s := dealt(t, 100, stacked(t, "2S", "3S", "4S", "5S"))

	if s.Status != StatusPending || s.Phase() != PhasePlayerTurn {
		t.Fatalf("unexpected status=%s phase=%d", s.Status, s.Phase())
	}
	if s.Deck.Index != 4 {
		t.Fatalf("cursor=%d want 4", s.Deck.Index)
	}
	if s.Player[0].Card != card.CardSpade2 || s.Player[1].Card != card.CardSpade4 {
		t.Fatalf("player got %v", s.Player.Cards())
	}
	if s.Dealer[0].Card != card.CardSpade3 || s.Dealer[1].Card != card.CardSpade5 {
		t.Fatalf("dealer got %v", s.Dealer.Cards())
	}
	if s.Player[0].Seq != 0 || s.Dealer[0].Seq != 1 || s.Player[1].Seq != 2 || s.Dealer[1].Seq != 3 {
		t.Fatalf("unexpected sequence indices")
	}
	if !s.Dealer[0].FaceUp || s.Dealer[1].FaceUp {
		t.Fatalf("dealer second card must be the only face-down card")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("dealt session invalid: %v", err)
	}

	v := s.View()
	if !v.DealerCards[1].Hidden || v.DealerCards[1].Rank != "" || v.DealerCards[1].Suit != "" {
		t.Fatalf("hole card leaked in view: %+v", v.DealerCards[1])
	}
	if v.DealerScore != 3 {
		t.Fatalf("dealer score exposes hole card: %d", v.DealerScore)
	}
	if _, err := DealerSecondCard(s); !errors.Is(err, ErrCardConcealed) {
		t.Fatalf("expected ErrCardConcealed, got %v", err)
	}
	if _, err := DealerHand(s); !errors.Is(err, ErrCardConcealed) {
		t.Fatalf("expected ErrCardConcealed, got %v", err)
	}
	for _, ev := range dealtEvents(t, s) {
		if ev.Side == SideDealer && ev.Card != nil && ev.Card.Seq == 3 {
			t.Fatalf("deal event carries the hole card")
		}
	}
}

func dealtEvents(t *testing.T, s Session) []Event {
	t.Helper()
	step, err := Deal(s.ID, s.UserID, s.BetAmount, Deck{Cards: s.Deck.Cards}, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	return step.Events
}

func TestDeal_RejectsBadBet(t *testing.T) {
	deck := NewShuffledDeck(rand.New(rand.NewSource(1)))
	for _, bet := range []int64{0, -5} {
		if _, err := Deal("s1", 42, bet, deck, DefaultRules(), testNow); !errors.Is(err, ErrInvalidBet) {
			t.Fatalf("bet %d: expected ErrInvalidBet, got %v", bet, err)
		}
	}
	rules := DefaultRules()
	rules.MaxBet = 500
	if _, err := Deal("s1", 42, 501, deck, rules, testNow); !errors.Is(err, ErrInvalidBet) {
		t.Fatalf("expected ErrInvalidBet over max, got %v", err)
	}
}

func TestHit_BustSettlesAsLose(t *testing.T) {
	// player 10+10, dealer 5 + hole 9, next card K
	s := dealt(t, 100, stacked(t, "10S", "5H", "10H", "9C", "KD"))
	step, err := Hit(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Hit err: %v", err)
	}
	got := step.Session
	if !got.Settled() || got.Result != ResultLose || got.Payout != 0 {
		t.Fatalf("expected settled lose, got status=%s result=%s payout=%d", got.Status, got.Result, got.Payout)
	}
	if !got.Player.IsBust() {
		t.Fatalf("expected bust")
	}
	if len(got.Dealer) != 2 {
		t.Fatalf("dealer must not draw after player bust, has %d cards", len(got.Dealer))
	}
	if !got.Dealer[1].FaceUp {
		t.Fatalf("hole card should be turned over after bust")
	}
	if got.PointsChange() != -100 {
		t.Fatalf("pointsChange=%d want -100", got.PointsChange())
	}
	// original value untouched
	if len(s.Player) != 2 || s.Settled() {
		t.Fatalf("Hit mutated its input session")
	}
}

func TestHit_DrawsWithoutSettling(t *testing.T) {
	s := dealt(t, 100, stacked(t, "2S", "5H", "3H", "9C", "4D"))
	step, err := Hit(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Hit err: %v", err)
	}
	if step.Session.Settled() {
		t.Fatalf("9 must not settle")
	}
	if len(step.Session.Player) != 3 || step.Session.Player[2].Seq != 4 {
		t.Fatalf("unexpected player hand %+v", step.Session.Player)
	}
	if step.Session.Dealer[1].FaceUp {
		t.Fatalf("hole card revealed before stand")
	}
}

func TestStand_DealerStandsOnSoft17(t *testing.T) {
	// player 10+9, dealer 6 + hole A = soft 17
	s := dealt(t, 100, stacked(t, "10S", "6H", "9S", "AC", "2D"))
	step, err := Stand(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Stand err: %v", err)
	}
	got := step.Session
	if len(got.Dealer) != 2 {
		t.Fatalf("dealer drew on soft 17: %v", got.Dealer.Cards())
	}
	if got.Result != ResultWin || got.Payout != 200 {
		t.Fatalf("expected win/200, got %s/%d", got.Result, got.Payout)
	}
}

func TestStand_DealerDrawsBelow17(t *testing.T) {
	// dealer 10 + 2 = 12, draws 3 (15), 4 (19), stops
	s := dealt(t, 100, stacked(t, "10S", "10H", "8S", "2C", "3D", "4D", "5D"))
	step, err := Stand(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Stand err: %v", err)
	}
	got := step.Session
	if len(got.Dealer) != 4 || got.Dealer.Score() != 19 {
		t.Fatalf("dealer hand %v score %d", got.Dealer.Cards(), got.Dealer.Score())
	}
	if got.Result != ResultLose || got.Payout != 0 {
		t.Fatalf("expected lose, got %s/%d", got.Result, got.Payout)
	}
	draws := 0
	for _, ev := range step.Events {
		if ev.Type == EventDealerDraw {
			draws++
		}
	}
	if draws != 2 {
		t.Fatalf("expected 2 dealer_draw events, got %d", draws)
	}
}

func TestStand_DealerStoppingRuleHoldsForRandomDecks(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		step, err := Deal("s", 1, 10, NewShuffledDeck(rng), DefaultRules(), testNow)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Stand(step.Session, DefaultRules(), testNow)
		if err != nil {
			t.Fatal(err)
		}
		d := out.Session.Dealer
		if d.Score() < 17 {
			t.Fatalf("dealer stopped at %d", d.Score())
		}
		if len(d) > 2 && d[:len(d)-1].Score() >= 17 {
			t.Fatalf("dealer drew at %d", d[:len(d)-1].Score())
		}
		if err := out.Session.Validate(); err != nil {
			t.Fatalf("settled session invalid: %v", err)
		}
	}
}

func TestStand_PlayerBlackjackBeatsDealerThreeCard21(t *testing.T) {
	s := dealt(t, 100, stacked(t, "AS", "QH", "KS", "5C", "6D"))
	step, err := Stand(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Stand err: %v", err)
	}
	got := step.Session
	if got.Dealer.Score() != 21 || len(got.Dealer) != 3 {
		t.Fatalf("dealer %v", got.Dealer.Cards())
	}
	if got.Result != ResultBlackjack || got.Payout != 250 {
		t.Fatalf("expected blackjack/250, got %s/%d", got.Result, got.Payout)
	}
}

func TestDouble_DoublesBetDrawsOneAndSettles(t *testing.T) {
	// player 5+6, dealer 10 + hole 7, double card 10
	s := dealt(t, 100, stacked(t, "5S", "10H", "6S", "7C", "10D", "2C"))
	step, err := Double(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Double err: %v", err)
	}
	got := step.Session
	if got.BetAmount != 200 || !got.Doubled {
		t.Fatalf("bet=%d doubled=%v", got.BetAmount, got.Doubled)
	}
	if len(got.Player) != 3 {
		t.Fatalf("double must draw exactly one card, hand=%v", got.Player.Cards())
	}
	if !got.Settled() || got.Result != ResultWin || got.Payout != 400 {
		t.Fatalf("expected settled win/400, got %s %s/%d", got.Status, got.Result, got.Payout)
	}
	if got.PointsChange() != 200 {
		t.Fatalf("pointsChange=%d want 200", got.PointsChange())
	}
}

func TestDouble_BustSkipsDealer(t *testing.T) {
	s := dealt(t, 50, stacked(t, "10S", "6H", "8S", "5C", "KD"))
	step, err := Double(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Double err: %v", err)
	}
	got := step.Session
	if got.Result != ResultLose || got.BetAmount != 100 || len(got.Dealer) != 2 {
		t.Fatalf("unexpected outcome %s bet=%d dealer=%d", got.Result, got.BetAmount, len(got.Dealer))
	}
}

func TestSettledSessionIsImmutable(t *testing.T) {
	s := dealt(t, 100, stacked(t, "10S", "10H", "9S", "8C"))
	step, err := Stand(s, DefaultRules(), testNow)
	if err != nil {
		t.Fatalf("Stand err: %v", err)
	}
	settled := step.Session
	for name, fn := range map[string]func(Session) (Step, error){
		"hit":    func(s Session) (Step, error) { return Hit(s, DefaultRules(), testNow) },
		"stand":  func(s Session) (Step, error) { return Stand(s, DefaultRules(), testNow) },
		"double": func(s Session) (Step, error) { return Double(s, DefaultRules(), testNow) },
	} {
		if _, err := fn(settled); !errors.Is(err, ErrAlreadySettled) {
			t.Fatalf("%s: expected ErrAlreadySettled, got %v", name, err)
		}
	}

	hole, err := DealerSecondCard(settled)
	if err != nil {
		t.Fatalf("DealerSecondCard err: %v", err)
	}
	if hole.Card != card.CardClub8 || !hole.FaceUp || hole.Seq != 3 {
		t.Fatalf("unexpected hole card %+v", hole)
	}
	dh, err := DealerHand(settled)
	if err != nil {
		t.Fatalf("DealerHand err: %v", err)
	}
	if dh.Score() != 18 || dh.HasConcealed() {
		t.Fatalf("unexpected dealer hand %v", dh.Cards())
	}
}

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"start", "hit", "stand", "double", "getDealerSecondCard", "dealerHit"} {
		if _, err := ParseAction(raw); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
	}
	if _, err := ParseAction("insurance"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}
