package card

import (
	"fmt"
	"strings"
)

// Card is an immutable playing card.
//
// Encoding:
// - high 4 bits: suit (0:Club, 1:Diamond, 2:Heart, 3:Spade)
// - low 4 bits: rank (1:A, 2..10, 11:J, 12:Q, 13:K)
type Card byte

func New(s Suit, r Rank) Card {
	return Card(byte(s)<<4 | byte(r))
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return c.Rank().String() + c.Suit().Letter()
}

// Rank returns the face value 1-13 (A=1, K=13), 0 for invalid cards.
func (c Card) Rank() Rank {
	if !c.Valid() {
		return 0
	}
	return Rank(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == Ace
}

func (c Card) Valid() bool {
	r := Rank(c & 0x0F)
	return c.Suit() <= Spade && r >= Ace && r <= King
}

// Parse converts strings such as "AS", "10h", "Td" or "kc" to a Card.
func Parse(raw string) (Card, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", raw)
	}

	suit, err := ParseSuit(raw[len(raw)-1:])
	if err != nil {
		return CardInvalid, err
	}
	rank, err := ParseRank(raw[:len(raw)-1])
	if err != nil {
		return CardInvalid, err
	}
	return New(suit, rank), nil
}

// MustParse is Parse for fixtures; it panics on malformed input.
func MustParse(raw string) Card {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}
