package card

import (
	"fmt"
	"strconv"
	"strings"
)

type Rank byte

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r >= Two && r <= Ten {
		return strconv.Itoa(int(r))
	}
	return "?"
}

func ParseRank(raw string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return Ace, nil
	case "T", "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < int(Two) || n > int(Nine) {
		return 0, fmt.Errorf("invalid rank: %q", raw)
	}
	return Rank(n), nil
}
