package blackjack

import (
	"fmt"
	"math/rand"

	"casino-lite/card"
)

const DeckSize = 52

// Deck is a shuffled 52-card sequence with a cursor at the next undealt
// position. The cursor only moves forward.
type Deck struct {
	Cards card.CardList
	Index int
}

// NewShuffledDeck builds the standard set and applies a Fisher-Yates shuffle.
func NewShuffledDeck(rng *rand.Rand) Deck {
	cards := card.StandardDeck()
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return Deck{Cards: cards}
}

// NewStackedDeck puts the given cards on top, in order, and fills the rest
// of the deck with the remaining cards in standard order.
func NewStackedDeck(top ...card.Card) (Deck, error) {
	cards := make(card.CardList, 0, DeckSize)
	cards = append(cards, top...)
	for _, c := range card.StandardDeck() {
		if !card.CardList(top).Contains(c) {
			cards = append(cards, c)
		}
	}
	d := Deck{Cards: cards}
	if err := d.Validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

// Draw returns the card under the cursor and a deck advanced by one.
// The receiver is left untouched.
func (d Deck) Draw() (card.Card, Deck, error) {
	if d.Index >= len(d.Cards) {
		return card.CardInvalid, d, ErrDeckExhausted
	}
	c := d.Cards[d.Index]
	return c, Deck{Cards: d.Cards, Index: d.Index + 1}, nil
}

func (d Deck) Remaining() int {
	return len(d.Cards) - d.Index
}

func (d Deck) Validate() error {
	if len(d.Cards) != DeckSize {
		return fmt.Errorf("%w: deck has %d cards", ErrCorruptSession, len(d.Cards))
	}
	if !d.Cards.Distinct() {
		return fmt.Errorf("%w: deck has duplicate or invalid cards", ErrCorruptSession)
	}
	if d.Index < 0 || d.Index > DeckSize {
		return fmt.Errorf("%w: deck index %d", ErrCorruptSession, d.Index)
	}
	return nil
}
