package blackjack

import "strings"

type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
)

type Result string

const (
	ResultNone      Result = ""
	ResultWin       Result = "win"
	ResultLose      Result = "lose"
	ResultDraw      Result = "draw"
	ResultBlackjack Result = "blackjack"
)

// Phase is the state-machine position of a session. Dealing and DealerTurn
// are transient: they only exist inside a single transition.
type Phase byte

const (
	PhaseDealing    Phase = 0
	PhasePlayerTurn Phase = 1
	PhaseDealerTurn Phase = 2
	PhaseSettled    Phase = 3
)

var PhaseDictionary = map[Phase]string{
	PhaseDealing:    "dealing",
	PhasePlayerTurn: "player_turn",
	PhaseDealerTurn: "dealer_turn",
	PhaseSettled:    "settled",
}

type Action string

const (
	ActionStart            Action = "start"
	ActionHit              Action = "hit"
	ActionStand            Action = "stand"
	ActionDouble           Action = "double"
	ActionDealerSecondCard Action = "getDealerSecondCard"
	ActionDealerHit        Action = "dealerHit"
)

var actions = []Action{
	ActionStart,
	ActionHit,
	ActionStand,
	ActionDouble,
	ActionDealerSecondCard,
	ActionDealerHit,
}

func ParseAction(raw string) (Action, error) {
	raw = strings.TrimSpace(raw)
	for _, a := range actions {
		if string(a) == raw {
			return a, nil
		}
	}
	return "", ErrInvalidAction
}

// Mutating reports whether the action changes session state.
func (a Action) Mutating() bool {
	switch a {
	case ActionStart, ActionHit, ActionStand, ActionDouble:
		return true
	}
	return false
}

type EventType string

const (
	EventDeal       EventType = "deal"
	EventHit        EventType = "hit"
	EventStand      EventType = "stand"
	EventDouble     EventType = "double"
	EventDealerDraw EventType = "dealer_draw"
	EventReveal     EventType = "reveal"
	EventSettle     EventType = "settle"
)

// Event records one observable step of a transition, in order.
type Event struct {
	Type   EventType
	Side   string
	Card   *DealtCard
	Bet    int64
	Result Result
	Payout int64
}

const (
	SidePlayer = "player"
	SideDealer = "dealer"
)
