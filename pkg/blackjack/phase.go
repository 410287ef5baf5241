package blackjack

import "fmt"

// Phase is the table's current stage in the per-hand state machine. Tables
// only ever move WAITING_FOR_PLAYERS → BETTING → PLAYING → DEALER_TURN →
// PAYOUT → BETTING → …; WAITING_FOR_PLAYERS precedes the very first hand only.
type Phase int

const (
	PhaseWaitingForPlayers Phase = iota
	PhaseBetting
	PhasePlaying
	PhaseDealerTurn
	PhasePayout
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "WAITING_FOR_PLAYERS"
	case PhaseBetting:
		return "BETTING"
	case PhasePlaying:
		return "PLAYING"
	case PhaseDealerTurn:
		return "DEALER_TURN"
	case PhasePayout:
		return "PAYOUT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so phases serialize by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for clients decoding
// broadcast state.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "WAITING_FOR_PLAYERS":
		*p = PhaseWaitingForPlayers
	case "BETTING":
		*p = PhaseBetting
	case "PLAYING":
		*p = PhasePlaying
	case "DEALER_TURN":
		*p = PhaseDealerTurn
	case "PAYOUT":
		*p = PhasePayout
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}
