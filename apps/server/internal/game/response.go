package game

import "casino-lite/blackjack"

// Body shapes an outcome into the JSON body for its action. Every field
// comes from the redacted view, so no transport can leak the hole card.
func (o Outcome) Body() map[string]any {
	v := o.View
	switch o.Action {
	case blackjack.ActionStart:
		return map[string]any{
			"sessionId":   v.SessionID,
			"status":      v.Status,
			"betAmount":   v.BetAmount,
			"playerCards": v.PlayerCards,
			"dealerCards": v.DealerCards,
			"playerScore": v.PlayerScore,
			"dealerScore": v.DealerScore,
			"points":      o.Points,
		}
	case blackjack.ActionHit:
		body := map[string]any{
			"sessionId":   v.SessionID,
			"playerCards": v.PlayerCards,
			"playerScore": v.PlayerScore,
			"dealerCards": v.DealerCards,
			"dealerScore": v.DealerScore,
			"bust":        v.Bust,
			"result":      "pending",
			"points":      o.Points,
		}
		if v.Status == blackjack.StatusSettled {
			body["result"] = v.Result
			body["payout"] = v.Payout
			body["pointsChange"] = v.PointsChange
		}
		return body
	case blackjack.ActionDealerSecondCard:
		return map[string]any{
			"sessionId": v.SessionID,
			"card":      o.HoleCard,
		}
	case blackjack.ActionDealerHit:
		return map[string]any{
			"sessionId":   v.SessionID,
			"dealerCards": v.DealerCards,
			"dealerScore": v.DealerScore,
		}
	}
	// stand, double and plain session reads
	return map[string]any{
		"sessionId":    v.SessionID,
		"status":       v.Status,
		"phase":        v.Phase,
		"result":       v.Result,
		"payout":       v.Payout,
		"points":       o.Points,
		"pointsChange": v.PointsChange,
		"betAmount":    v.BetAmount,
		"doubled":      v.Doubled,
		"bust":         v.Bust,
		"playerCards":  v.PlayerCards,
		"dealerCards":  v.DealerCards,
		"playerScore":  v.PlayerScore,
		"dealerScore":  v.DealerScore,
	}
}
