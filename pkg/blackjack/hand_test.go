package blackjack

import "testing"

func TestBestTotalAceReduction(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  int
	}{
		{"single ace", []Card{NewCard(Spades, Ace)}, 11},
		{"two aces", []Card{NewCard(Spades, Ace), NewCard(Hearts, Ace)}, 12},
		{"ace ace nine", []Card{NewCard(Spades, Ace), NewCard(Hearts, Ace), NewCard(Clubs, Nine)}, 21},
		{"soft seventeen", []Card{NewCard(Spades, Ace), NewCard(Hearts, Six)}, 17},
		{"hard after draw", []Card{NewCard(Spades, Ace), NewCard(Hearts, Six), NewCard(Clubs, Ten)}, 17},
		{"face cards", []Card{NewCard(Spades, King), NewCard(Hearts, Queen)}, 20},
		{"bust", []Card{NewCard(Spades, King), NewCard(Hearts, Queen), NewCard(Clubs, Five)}, 25},
	}

	for _, tt := range tests {
		h := NewHand()
		for _, c := range tt.cards {
			h.Add(c)
		}
		if got := h.BestTotal(); got != tt.want {
			t.Errorf("%s: BestTotal() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestBlackjackFlagOnlyOnTwoCards(t *testing.T) {
	h := NewHand()
	h.Add(NewCard(Spades, Ace))
	h.Add(NewCard(Hearts, King))
	if !h.Blackjack {
		t.Error("Expected two-card 21 to flag blackjack")
	}

	h = NewHand()
	h.Add(NewCard(Spades, Seven))
	h.Add(NewCard(Hearts, Seven))
	h.Add(NewCard(Clubs, Seven))
	if h.BestTotal() != 21 {
		t.Fatalf("Expected 21, got %d", h.BestTotal())
	}
	if h.Blackjack {
		t.Error("Three-card 21 must not flag blackjack")
	}
}

func TestBustedLatches(t *testing.T) {
	h := NewHand()
	h.Add(NewCard(Spades, King))
	h.Add(NewCard(Hearts, Queen))
	h.Add(NewCard(Clubs, Five))
	if !h.Busted {
		t.Fatal("Expected hand to bust at 25")
	}
	// An ace after busting cannot un-bust the hand.
	h.Add(NewCard(Diamonds, Ace))
	if !h.Busted {
		t.Error("Busted flag must latch")
	}
}

func TestActive(t *testing.T) {
	h := NewHand()
	h.Add(NewCard(Spades, Five))
	h.Add(NewCard(Hearts, Six))
	if h.Active() {
		t.Error("Hand with no bet must not be active")
	}
	h.Bet = 10
	if !h.Active() {
		t.Error("Betting hand should be active")
	}
	h.Standing = true
	if h.Active() {
		t.Error("Standing hand must not be active")
	}
}

func TestResetReturnsPlayedCards(t *testing.T) {
	h := NewHand()
	h.Add(NewCard(Spades, King))
	h.Add(NewCard(Hearts, Queen))
	h.Add(NewCard(Clubs, Five))
	h.Bet = 50

	played := h.Reset()
	if len(played) != 3 {
		t.Errorf("Expected 3 played cards back, got %d", len(played))
	}
	if len(h.Cards) != 0 || h.Bet != 0 || h.Busted || h.Standing || h.Blackjack {
		t.Error("Reset must clear cards, bet and flags")
	}
}
