package blackjack

// Settlement is the terminal outcome of one round.
type Settlement struct {
	Result Result
	Bet    int64
	Payout int64
	// PointsChange is Payout - Bet: negative on a loss, zero on a push.
	PointsChange int64
}

// Settle must be called with the final hands and the final (possibly doubled)
// bet. Rules are applied in order; the first match wins.
func Settle(player, dealer Hand, bet int64, rules Rules) Settlement {
	var (
		result Result
		payout int64
	)
	switch {
	case player.IsBust():
		result, payout = ResultLose, 0
	case dealer.IsBust():
		result, payout = ResultWin, 2*bet
	case player.IsBlackjack() && dealer.IsBlackjack():
		result, payout = ResultDraw, bet
	case player.IsBlackjack():
		result, payout = ResultBlackjack, bet*rules.BlackjackPayNum/rules.BlackjackPayDen
	default:
		ps, ds := player.Score(), dealer.Score()
		switch {
		case ps > ds:
			result, payout = ResultWin, 2*bet
		case ps < ds:
			result, payout = ResultLose, 0
		default:
			result, payout = ResultDraw, bet
		}
	}
	return Settlement{
		Result:       result,
		Bet:          bet,
		Payout:       payout,
		PointsChange: payout - bet,
	}
}
