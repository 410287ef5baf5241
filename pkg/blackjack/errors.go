package blackjack

import "errors"

// Validation failures: rejected synchronously, no state touched.
var (
	ErrInvalidAmount   = errors.New("bet amount must be positive")
	ErrBetBelowMinimum = errors.New("bet below table minimum")
	ErrBetAboveMaximum = errors.New("bet above table maximum")
	ErrInvalidSeat     = errors.New("invalid seat index")
	ErrUnknownAction   = errors.New("unknown action kind")
)

// State conflicts: the command is valid but the table isn't in a state that
// accepts it. Table state is left unchanged.
var (
	ErrWrongPhase   = errors.New("operation not allowed in current phase")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotYourSeat  = errors.New("seat not owned by caller")
	ErrSeatEmpty    = errors.New("seat is empty")
	ErrNoSeat       = errors.New("caller holds no seat at this table")
	ErrTableFull    = errors.New("table is full")
	ErrTableClosing = errors.New("table is closing")
)

// ErrInsufficientFunds is the typed resource failure a wallet debit surfaces
// so the engine can decide per call whether to abort (DOUBLE) or to zero a bet
// (betting lock-in).
var ErrInsufficientFunds = errors.New("insufficient funds")
