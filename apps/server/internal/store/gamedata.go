package store

import (
	"encoding/json"
	"fmt"

	"casino-lite/blackjack"
	"casino-lite/card"
)

// gameData is the JSON kept in the game_data column. Cards are stored in
// their compact string form ("10H", "AS").
type gameData struct {
	Deck        []string    `json:"deck"`
	DeckIndex   int         `json:"deckIndex"`
	PlayerCards []dealtCard `json:"playerCards"`
	DealerCards []dealtCard `json:"dealerCards"`
	Doubled     bool        `json:"doubled"`
}

type dealtCard struct {
	Card   string `json:"card"`
	Seq    int    `json:"seq"`
	FaceUp bool   `json:"faceUp"`
}

func encodeGameData(s blackjack.Session) (string, error) {
	gd := gameData{
		Deck:        make([]string, 0, len(s.Deck.Cards)),
		DeckIndex:   s.Deck.Index,
		PlayerCards: encodeHand(s.Player),
		DealerCards: encodeHand(s.Dealer),
		Doubled:     s.Doubled,
	}
	for _, c := range s.Deck.Cards {
		gd.Deck = append(gd.Deck, c.String())
	}
	raw, err := json.Marshal(gd)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeGameData fills the card state of s from raw.
func decodeGameData(raw string, s *blackjack.Session) error {
	var gd gameData
	if err := json.Unmarshal([]byte(raw), &gd); err != nil {
		return fmt.Errorf("%w: game data: %v", blackjack.ErrCorruptSession, err)
	}
	cards := make(card.CardList, 0, len(gd.Deck))
	for _, c := range gd.Deck {
		parsed, err := card.Parse(c)
		if err != nil {
			return fmt.Errorf("%w: %v", blackjack.ErrCorruptSession, err)
		}
		cards = append(cards, parsed)
	}
	player, err := decodeHand(gd.PlayerCards)
	if err != nil {
		return err
	}
	dealer, err := decodeHand(gd.DealerCards)
	if err != nil {
		return err
	}
	s.Deck = blackjack.Deck{Cards: cards, Index: gd.DeckIndex}
	s.Player = player
	s.Dealer = dealer
	s.Doubled = gd.Doubled
	return nil
}

func encodeHand(h blackjack.Hand) []dealtCard {
	out := make([]dealtCard, 0, len(h))
	for _, dc := range h {
		out = append(out, dealtCard{Card: dc.Card.String(), Seq: dc.Seq, FaceUp: dc.FaceUp})
	}
	return out
}

func decodeHand(in []dealtCard) (blackjack.Hand, error) {
	out := make(blackjack.Hand, 0, len(in))
	for _, dc := range in {
		c, err := card.Parse(dc.Card)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", blackjack.ErrCorruptSession, err)
		}
		out = append(out, blackjack.DealtCard{Card: c, Seq: dc.Seq, FaceUp: dc.FaceUp})
	}
	return out, nil
}
