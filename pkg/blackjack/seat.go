package blackjack

// SeatStatus describes whether a seat is vacant, occupied, or occupied by a
// player whose connection dropped.
type SeatStatus int

const (
	SeatEmpty SeatStatus = iota
	SeatSeated
	SeatDisconnected
)

// String returns the wire name of the seat status.
func (s SeatStatus) String() string {
	switch s {
	case SeatEmpty:
		return "EMPTY"
	case SeatSeated:
		return "SEATED"
	case SeatDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so statuses serialize by name.
func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Seat is one table slot. A hand may carry a nonzero bet only while the seat
// is occupied; releasing the seat replaces the hand with an empty one.
type Seat struct {
	Email  string
	Name   string
	Status SeatStatus
	Hand   *Hand
}

// newSeat creates an empty seat.
func newSeat() *Seat {
	return &Seat{Status: SeatEmpty, Hand: NewHand()}
}

// Occupied reports whether anyone holds the seat (connected or not).
func (s *Seat) Occupied() bool {
	return s.Status != SeatEmpty
}

// release empties the seat and returns the cards from the abandoned hand so
// the table can discard them into the shoe.
func (s *Seat) release() []Card {
	s.Email = ""
	s.Name = ""
	s.Status = SeatEmpty
	played := s.Hand.Reset()
	return played
}
