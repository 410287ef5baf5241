package blackjack

// Hand is an ordered list of cards together with the bet riding on it and the
// per-hand flags the round engine acts on.
type Hand struct {
	Cards     []Card `json:"cards"`
	Bet       int64  `json:"bet"`
	Standing  bool   `json:"standing"`
	Busted    bool   `json:"busted"`
	Blackjack bool   `json:"blackjack"`
}

// NewHand creates an empty hand with no bet.
func NewHand() *Hand {
	return &Hand{Cards: make([]Card, 0, 8)}
}

// Add appends a card and updates the hand flags. Busted latches: once the best
// total exceeds 21 it stays set for the life of the hand. Blackjack is only set
// on a two-card 21.
func (h *Hand) Add(card Card) {
	h.Cards = append(h.Cards, card)

	total := h.BestTotal()
	if total > 21 {
		h.Busted = true
	}
	if len(h.Cards) == 2 && total == 21 {
		h.Blackjack = true
	}
}

// BestTotal returns the highest hand total not exceeding 21 when reducible,
// counting aces as 11 and dropping them to 1 one at a time as needed.
func (h *Hand) BestTotal() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.Points()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// Active reports whether the hand still takes turns this round: it carries a
// bet and is neither busted nor standing.
func (h *Hand) Active() bool {
	return h.Bet > 0 && !h.Busted && !h.Standing
}

// Reset clears cards, flags and bet, returning the previous cards so the
// caller can feed them back to the shoe's discard pile.
func (h *Hand) Reset() []Card {
	played := h.Cards
	h.Cards = make([]Card, 0, 8)
	h.Bet = 0
	h.Standing = false
	h.Busted = false
	h.Blackjack = false
	return played
}
