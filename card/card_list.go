package card

type CardList []Card

// StandardDeck returns the 52 distinct cards in suit-major order.
func StandardDeck() CardList {
	out := make(CardList, 0, len(Suits)*int(King))
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			out = append(out, New(s, r))
		}
	}
	return out
}

func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) Bytes() []byte {
	out := make([]byte, 0, len(ds))
	for _, c := range ds {
		out = append(out, byte(c))
	}
	return out
}

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

// Distinct reports whether every card is valid and appears at most once.
func (ds CardList) Distinct() bool {
	seen := make(map[Card]struct{}, len(ds))
	for _, c := range ds {
		if !c.Valid() {
			return false
		}
		if _, dup := seen[c]; dup {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}
