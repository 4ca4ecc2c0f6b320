package card

import (
	"fmt"
	"strings"
)

type Suit byte

const (
	Club Suit = iota
	Diamond
	Heart
	Spade
)

var Suits = []Suit{Club, Diamond, Heart, Spade}

func (s Suit) String() string {
	switch s {
	case Club:
		return "clubs"
	case Diamond:
		return "diamonds"
	case Heart:
		return "hearts"
	case Spade:
		return "spades"
	}
	return "?"
}

// Letter is the single-letter suit code used in compact card strings.
func (s Suit) Letter() string {
	switch s {
	case Club:
		return "C"
	case Diamond:
		return "D"
	case Heart:
		return "H"
	case Spade:
		return "S"
	}
	return "?"
}

// ParseSuit accepts both the full name ("hearts") and the letter ("h").
func ParseSuit(raw string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "c", "club", "clubs":
		return Club, nil
	case "d", "diamond", "diamonds":
		return Diamond, nil
	case "h", "heart", "hearts":
		return Heart, nil
	case "s", "spade", "spades":
		return Spade, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", raw)
}
