package blackjack

// Outcome labels a settled seat.
type Outcome string

const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLose      Outcome = "LOSE"
	OutcomePush      Outcome = "PUSH"
	OutcomeBlackjack Outcome = "BLACKJACK"
)

// SeatResult is one seat's settlement line.
type SeatResult struct {
	Seat    int     `json:"seat"`
	Email   string  `json:"email"`
	Bet     int64   `json:"bet"`
	Credit  int64   `json:"credit"`
	Total   int     `json:"total"`
	Outcome Outcome `json:"outcome"`
}

// Payouts is the per-seat settlement list broadcast at the end of a hand.
type Payouts struct {
	Results []SeatResult `json:"results"`
}

// settleHand compares one player hand against the dealer and returns the
// credit owed and the outcome label. Blackjack pays 3:2, rounded down.
func settleHand(hand *Hand, dealer *Hand) (int64, Outcome) {
	bet := hand.Bet

	switch {
	case hand.Busted:
		return 0, OutcomeLose
	case hand.Blackjack && dealer.Blackjack:
		return bet, OutcomePush
	case hand.Blackjack:
		return bet + bet*3/2, OutcomeBlackjack
	case dealer.Blackjack:
		return 0, OutcomeLose
	case dealer.Busted:
		return bet * 2, OutcomeWin
	}

	playerTotal := hand.BestTotal()
	dealerTotal := dealer.BestTotal()
	switch {
	case playerTotal > dealerTotal:
		return bet * 2, OutcomeWin
	case playerTotal == dealerTotal:
		return bet, OutcomePush
	default:
		return 0, OutcomeLose
	}
}
