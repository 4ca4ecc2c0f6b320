package blackjack

import "casino-lite/card"

const blackjackTotal = 21

// DealtCard is a card as it sits in a hand. Seq is the deck position the card
// was drawn from, stable for the life of the session.
type DealtCard struct {
	Card   card.Card
	Seq    int
	FaceUp bool
}

// Hand is an ordered, read-only sequence of dealt cards. Transitions build
// new hands instead of editing existing ones.
type Hand []DealtCard

// CardValue counts an Ace as 11; demotion to 1 happens in scoring.
func CardValue(c card.Card) int {
	r := c.Rank()
	switch {
	case r == card.Ace:
		return 11
	case r >= card.Ten:
		return 10
	default:
		return int(r)
	}
}

func scoreCards(cards []card.Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += CardValue(c)
		if c.IsAce() {
			aces++
		}
	}
	for total > blackjackTotal && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// Score is the authoritative total of the full hand, face state ignored.
func (h Hand) Score() int {
	total, _ := scoreCards(h.Cards())
	return total
}

// IsSoft reports whether an Ace is still counted as 11.
func (h Hand) IsSoft() bool {
	_, soft := scoreCards(h.Cards())
	return soft
}

func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Score() == blackjackTotal
}

func (h Hand) IsBust() bool {
	return h.Score() > blackjackTotal
}

// VisibleScore only counts face-up cards.
func (h Hand) VisibleScore() int {
	visible := make([]card.Card, 0, len(h))
	for _, dc := range h {
		if dc.FaceUp {
			visible = append(visible, dc.Card)
		}
	}
	total, _ := scoreCards(visible)
	return total
}

func (h Hand) HasConcealed() bool {
	for _, dc := range h {
		if !dc.FaceUp {
			return true
		}
	}
	return false
}

func (h Hand) Cards() card.CardList {
	out := make(card.CardList, 0, len(h))
	for _, dc := range h {
		out = append(out, dc.Card)
	}
	return out
}

func (h Hand) with(dc DealtCard) Hand {
	out := make(Hand, len(h), len(h)+1)
	copy(out, h)
	return append(out, dc)
}

func (h Hand) revealed() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	for i := range out {
		out[i].FaceUp = true
	}
	return out
}

func (h Hand) clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
