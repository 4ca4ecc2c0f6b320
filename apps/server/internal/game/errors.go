package game

import (
	"errors"

	"casino-lite/blackjack"
)

// Error kinds reported to clients and used as metric labels.
const (
	KindOK                = "ok"
	KindInvalidBet        = "invalid_bet"
	KindInvalidAction     = "invalid_action"
	KindInsufficientFunds = "insufficient_funds"
	KindNotFound          = "session_not_found"
	KindAlreadySettled    = "already_settled"
	KindAlreadyDoubled    = "already_doubled"
	KindConcealed         = "card_concealed"
	KindInternal          = "internal"
)

// ErrorKind maps an error from this package to a stable client-facing kind.
// Anything unrecognized is internal.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, blackjack.ErrInvalidBet):
		return KindInvalidBet
	case errors.Is(err, blackjack.ErrInvalidAction):
		return KindInvalidAction
	case errors.Is(err, blackjack.ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, blackjack.ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, blackjack.ErrAlreadySettled):
		return KindAlreadySettled
	case errors.Is(err, blackjack.ErrAlreadyDoubled):
		return KindAlreadyDoubled
	case errors.Is(err, blackjack.ErrCardConcealed):
		return KindConcealed
	}
	return KindInternal
}

// IsClientError reports whether err was caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	kind := ErrorKind(err)
	return kind != KindOK && kind != KindInternal
}

// PublicMessage is the innermost error text. Wrapping context is dropped so
// replies never say whether a session exists for someone else.
func PublicMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
