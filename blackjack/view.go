package blackjack

// CardView is the wire shape of one dealt card. A concealed card carries
// only its sequence index.
type CardView struct {
	Suit   string `json:"suit,omitempty"`
	Rank   string `json:"rank,omitempty"`
	Seq    int    `json:"seq"`
	Hidden bool   `json:"hidden,omitempty"`
}

// View is the player-facing projection of a session. Face-down cards never
// reach it, and scores of hands with concealed cards only count what is
// visible.
type View struct {
	SessionID    string     `json:"sessionId"`
	Status       Status     `json:"status"`
	Phase        string     `json:"phase"`
	BetAmount    int64      `json:"betAmount"`
	Doubled      bool       `json:"doubled"`
	PlayerCards  []CardView `json:"playerCards"`
	DealerCards  []CardView `json:"dealerCards"`
	PlayerScore  int        `json:"playerScore"`
	DealerScore  int        `json:"dealerScore"`
	Bust         bool       `json:"bust"`
	Result       Result     `json:"result,omitempty"`
	Payout       int64      `json:"payout"`
	PointsChange int64      `json:"pointsChange"`
}

func NewCardView(dc DealtCard) CardView {
	if !dc.FaceUp {
		return CardView{Seq: dc.Seq, Hidden: true}
	}
	return CardView{
		Suit: dc.Card.Suit().String(),
		Rank: dc.Card.Rank().String(),
		Seq:  dc.Seq,
	}
}

func HandView(h Hand) []CardView {
	out := make([]CardView, 0, len(h))
	for _, dc := range h {
		out = append(out, NewCardView(dc))
	}
	return out
}

// ExposedScore is the score a viewer is allowed to see.
func ExposedScore(h Hand) int {
	if h.HasConcealed() {
		return h.VisibleScore()
	}
	return h.Score()
}

func (s Session) View() View {
	return View{
		SessionID:    s.ID,
		Status:       s.Status,
		Phase:        PhaseDictionary[s.Phase()],
		BetAmount:    s.BetAmount,
		Doubled:      s.Doubled,
		PlayerCards:  HandView(s.Player),
		DealerCards:  HandView(s.Dealer),
		PlayerScore:  s.Player.Score(),
		DealerScore:  ExposedScore(s.Dealer),
		Bust:         s.Player.IsBust(),
		Result:       s.Result,
		Payout:       s.Payout,
		PointsChange: s.PointsChange(),
	}
}
