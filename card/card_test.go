package card

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := map[string]Card{
		"AS":  CardSpadeA,
		"10h": CardHeartT,
		"Td":  CardDiamondT,
		"kc":  CardClubK,
		"7D":  CardDiamond7,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", raw, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", raw, got, want)
		}
	}
	if CardHeartT.String() != "10H" {
		t.Fatalf("expected 10H, got %s", CardHeartT.String())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "A", "1S", "11S", "AX", "ZZ"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestStandardDeckIsDistinct(t *testing.T) {
	deck := StandardDeck()
	if deck.Count() != 52 {
		t.Fatalf("expected 52 cards, got %d", deck.Count())
	}
	if !deck.Distinct() {
		t.Fatalf("standard deck has duplicates or invalid cards")
	}
	if !deck.Contains(CardClubA) || !deck.Contains(CardSpadeK) {
		t.Fatalf("deck is missing boundary cards")
	}
}

func TestValid(t *testing.T) {
	if CardInvalid.Valid() {
		t.Fatalf("zero card must be invalid")
	}
	if Card(0x4E).Valid() {
		t.Fatalf("out-of-range card must be invalid")
	}
	if !New(Heart, Queen).Valid() {
		t.Fatalf("QH must be valid")
	}
	if New(Heart, Queen) != CardHeartQ {
		t.Fatalf("New(Heart, Queen) = %v", New(Heart, Queen))
	}
}
