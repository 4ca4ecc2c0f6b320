package blackjack

import "testing"

func TestSettle_PayoutLaw(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name   string
		player []string
		dealer []string
		bet    int64
		result Result
		payout int64
	}{
		{"player bust beats dealer bust", []string{"KS", "QS", "5S"}, []string{"KH", "QH", "5H"}, 100, ResultLose, 0},
		{"dealer bust", []string{"KS", "7S"}, []string{"KH", "6H", "9H"}, 100, ResultWin, 200},
		{"both blackjack", []string{"AS", "KS"}, []string{"AH", "QH"}, 100, ResultDraw, 100},
		{"player blackjack vs three-card 21", []string{"AS", "KS"}, []string{"QH", "5H", "6H"}, 100, ResultBlackjack, 250},
		{"blackjack payout floors", []string{"AS", "KS"}, []string{"QH", "8H"}, 25, ResultBlackjack, 62},
		{"three-card 21 pushes dealer blackjack", []string{"7S", "7H", "7C"}, []string{"AH", "QH"}, 100, ResultDraw, 100},
		{"higher score wins", []string{"KS", "9S"}, []string{"KH", "8H"}, 100, ResultWin, 200},
		{"lower score loses", []string{"KS", "7S"}, []string{"KH", "8H"}, 100, ResultLose, 0},
		{"push", []string{"KS", "8S"}, []string{"QH", "8H"}, 100, ResultDraw, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Settle(handOf(t, tc.player...), handOf(t, tc.dealer...), tc.bet, rules)
			if st.Result != tc.result {
				t.Fatalf("result=%s want %s", st.Result, tc.result)
			}
			if st.Payout != tc.payout {
				t.Fatalf("payout=%d want %d", st.Payout, tc.payout)
			}
			if st.PointsChange != tc.payout-tc.bet {
				t.Fatalf("pointsChange=%d want %d", st.PointsChange, tc.payout-tc.bet)
			}
		})
	}
}

func TestRulesValidate(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	bad := DefaultRules()
	bad.BlackjackPayDen = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero denominator")
	}
	bad = DefaultRules()
	bad.DealerStandsOn = 25
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for DealerStandsOn=25")
	}
}
