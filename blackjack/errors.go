package blackjack

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBet        = errors.New("invalid bet amount")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInsufficientFunds = errors.New("insufficient points")
	ErrSessionNotFound   = errors.New("session not found")
	ErrAlreadySettled    = errors.New("session already settled")
	ErrAlreadyDoubled    = errors.New("session already doubled")
	ErrCardConcealed     = errors.New("dealer card is still concealed")
	ErrDeckExhausted     = errors.New("deck exhausted")
	ErrCorruptSession    = errors.New("corrupt session record")
)

// ErrForbidden is reported when a session belongs to another user. It matches
// ErrSessionNotFound so callers cannot probe for other users' sessions.
var ErrForbidden = fmt.Errorf("%w: not owned by caller", ErrSessionNotFound)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
