package blackjack

import "fmt"

type Rules struct {
	// Dealer draws while the hand totals less than this, soft totals included.
	DealerStandsOn int

	// Natural blackjack pays BlackjackPayNum/BlackjackPayDen of the bet,
	// stake included, floored to whole points.
	BlackjackPayNum int64
	BlackjackPayDen int64

	// MaxBet caps a single wager (0 disables the cap).
	MaxBet int64
}

func DefaultRules() Rules {
	return Rules{
		DealerStandsOn:  17,
		BlackjackPayNum: 5,
		BlackjackPayDen: 2,
	}
}

func (r Rules) Validate() error {
	if r.DealerStandsOn < 2 || r.DealerStandsOn > 21 {
		return fmt.Errorf("DealerStandsOn must be within [2,21], got %d", r.DealerStandsOn)
	}
	if r.BlackjackPayNum <= 0 || r.BlackjackPayDen <= 0 {
		return fmt.Errorf("invalid blackjack payout ratio %d/%d", r.BlackjackPayNum, r.BlackjackPayDen)
	}
	if r.BlackjackPayNum < r.BlackjackPayDen {
		return fmt.Errorf("blackjack payout %d/%d returns less than the stake", r.BlackjackPayNum, r.BlackjackPayDen)
	}
	if r.MaxBet < 0 {
		return fmt.Errorf("MaxBet must be >= 0")
	}
	return nil
}

func (r Rules) checkBet(bet int64) error {
	if bet <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBet, bet)
	}
	if r.MaxBet > 0 && bet > r.MaxBet {
		return fmt.Errorf("%w: %d exceeds max %d", ErrInvalidBet, bet, r.MaxBet)
	}
	return nil
}
