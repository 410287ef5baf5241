package blackjack

// HandState is the broadcast view of a single hand.
type HandState struct {
	Cards     []Card `json:"cards"`
	Total     int    `json:"total"`
	Bet       int64  `json:"bet"`
	Standing  bool   `json:"standing"`
	Busted    bool   `json:"busted"`
	Blackjack bool   `json:"blackjack"`
}

// SeatState is the broadcast view of one seat.
type SeatState struct {
	Index  int        `json:"index"`
	Email  string     `json:"email,omitempty"`
	Name   string     `json:"name,omitempty"`
	Status SeatStatus `json:"status"`
	Hand   HandState  `json:"hand"`
}

// TableState is the full table snapshot broadcast on every phase entry and
// exit. The dealer's hole card is withheld while seats are still acting.
type TableState struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Private     bool        `json:"private"`
	Creator     string      `json:"creator"`
	Phase       Phase       `json:"phase"`
	Deadline    int64       `json:"deadline,omitempty"` // unix milliseconds, 0 = none
	CurrentSeat int         `json:"current_seat"`       // -1 = no seat acting
	MaxSeats    int         `json:"max_seats"`
	MinBet      int64       `json:"min_bet"`
	MaxBet      int64       `json:"max_bet"`
	Seats       []SeatState `json:"seats"`
	Dealer      HandState   `json:"dealer"`
}

// HandStart announces a freshly dealt hand: the dealer's exposed card, the
// turn deadline, and every seat's two cards.
type HandStart struct {
	Upcard   Card        `json:"upcard"`
	Deadline int64       `json:"deadline"`
	Seats    []SeatState `json:"seats"`
}

// PlayerTurn announces whose seat acts next and until when.
type PlayerTurn struct {
	Seat     int   `json:"seat"`
	Deadline int64 `json:"deadline"`
}

// ActionResult reports a resolved turn action. Auto marks actions the engine
// took on the player's behalf (turn-timeout force stand).
type ActionResult struct {
	Seat   int       `json:"seat"`
	Action string    `json:"action"`
	Auto   bool      `json:"auto,omitempty"`
	Hand   HandState `json:"hand"`
}

// BetUpdate reports a seat's (re)placed bet during the betting window.
type BetUpdate struct {
	Seat   int    `json:"seat"`
	Email  string `json:"email"`
	Amount int64  `json:"amount"`
}

// DealerUpdate reports one dealer draw during DEALER_TURN.
type DealerUpdate struct {
	Card Card      `json:"card"`
	Hand HandState `json:"hand"`
}

// handState builds the broadcast view of a hand.
func handState(h *Hand) HandState {
	cards := make([]Card, len(h.Cards))
	copy(cards, h.Cards)
	return HandState{
		Cards:     cards,
		Total:     h.BestTotal(),
		Bet:       h.Bet,
		Standing:  h.Standing,
		Busted:    h.Busted,
		Blackjack: h.Blackjack,
	}
}
