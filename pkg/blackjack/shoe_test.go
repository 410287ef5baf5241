package blackjack

import (
	"math/rand"
	"testing"
)

func TestNewShoeSize(t *testing.T) {
	shoe := NewShoe(6, rand.New(rand.NewSource(42)))
	if shoe.Remaining() != 6*52 {
		t.Errorf("Expected %d cards, got %d", 6*52, shoe.Remaining())
	}
}

func TestShoeContainsEveryCardSixTimes(t *testing.T) {
	shoe := NewShoe(6, rand.New(rand.NewSource(42)))

	counts := make(map[string]int)
	for shoe.Remaining() > 0 {
		// Draining never reshuffles here, the discard pile stays empty.
		counts[shoe.Draw().String()]++
	}

	if len(counts) != 52 {
		t.Fatalf("Expected 52 distinct cards, got %d", len(counts))
	}
	for card, n := range counts {
		if n != 6 {
			t.Errorf("Card %s appeared %d times, want 6", card, n)
		}
	}
}

func TestShoeReshufflesDiscardsBelowThreshold(t *testing.T) {
	shoe := NewShoe(1, rand.New(rand.NewSource(42)))

	drawn := make([]Card, 0, 40)
	for i := 0; i < 40; i++ {
		drawn = append(drawn, shoe.Draw())
	}
	shoe.Discard(drawn)

	// 12 cards left, threshold 20: the next draw folds the discards back in.
	before := shoe.Remaining()
	if before >= DefaultReshuffleThreshold {
		t.Fatalf("Expected pile below threshold, have %d", before)
	}
	shoe.Draw()
	if shoe.Remaining() != before+40-1 {
		t.Errorf("Expected %d cards after reshuffle draw, got %d", before+40-1, shoe.Remaining())
	}
}

func TestShoeDeterministicWithSeed(t *testing.T) {
	a := NewShoe(2, rand.New(rand.NewSource(7)))
	b := NewShoe(2, rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		ca, cb := a.Draw(), b.Draw()
		if ca != cb {
			t.Fatalf("Draw %d differs: %s vs %s", i, ca, cb)
		}
	}
}
