package blackjack

import "time"

// EventType identifies an outbound table notification.
type EventType string

const (
	EventTableState       EventType = "TABLE_STATE"
	EventHandStart        EventType = "HAND_START"
	EventPlayerTurn       EventType = "PLAYER_TURN"
	EventActionResult     EventType = "ACTION_RESULT"
	EventBetUpdate        EventType = "BET_UPDATE"
	EventDealerTurnStart  EventType = "DEALER_TURN_START"
	EventDealerTurnUpdate EventType = "DEALER_TURN_UPDATE"
	EventDealerTurnEnd    EventType = "DEALER_TURN_END"
	EventPayouts          EventType = "PAYOUTS"
	EventTableClosed      EventType = "TABLE_CLOSED"
	EventError            EventType = "ERROR"
	EventLobbyUpdate      EventType = "LOBBY_UPDATE"
)

// Event represents a table event with type and payload.
type Event struct {
	Type    EventType
	TableID string
	Payload interface{}
}

// Wallet is the ledger collaborator the table debits and credits. Calls are
// atomic and thread-safe from the table's perspective; a failed debit reports
// ErrInsufficientFunds rather than a generic error.
type Wallet interface {
	Debit(email string, amount int64, description string) (int64, error)
	Credit(email string, amount int64, description string) (int64, error)
}

// Scheduler runs named, delayed, one-shot callbacks for a table. Scheduling
// under a (tableID, kind) pair already in flight cancels and replaces the
// previous timer; Cancel is idempotent. Fired callbacks must re-acquire the
// table lock and re-validate their precondition themselves.
type Scheduler interface {
	Schedule(tableID, kind string, delay time.Duration, fn func())
	Cancel(tableID, kind string)
	CancelTable(tableID string)
}

// Timer kinds used by the round engine. The disconnect-cleanup timer is keyed
// per identity so one seat's grace period never cancels another's.
const (
	TimerBetting    = "betting"
	TimerTurn       = "turn"
	TimerDealerDraw = "dealerDraw"
	TimerNextHand   = "nextHand"
)

// CleanupTimerKind returns the per-identity timer kind used for disconnect
// grace cleanup.
func CleanupTimerKind(email string) string {
	return "cleanup:" + email
}
