package blackjack

import (
	"math/rand"
)

// DefaultShoeDecks is the number of decks a table shoe holds.
const DefaultShoeDecks = 6

// DefaultReshuffleThreshold is the remaining-card count below which the shoe
// folds its discards back in and reshuffles before the next draw.
const DefaultReshuffleThreshold = 20

// Shoe is a multi-deck draw pile. Cards leave the shoe via Draw, come back via
// Discard, and are only reused after a reshuffle.
type Shoe struct {
	cards     []Card
	discards  []Card
	rng       *rand.Rand
	decks     int
	threshold int
}

// NewShoe creates a shuffled shoe of the given number of decks using the
// provided random number generator.
func NewShoe(decks int, rng *rand.Rand) *Shoe {
	if decks < 1 {
		decks = DefaultShoeDecks
	}

	shoe := &Shoe{
		cards:     make([]Card, 0, decks*52),
		rng:       rng,
		decks:     decks,
		threshold: DefaultReshuffleThreshold,
	}

	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	ranks := []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	for d := 0; d < decks; d++ {
		for _, suit := range suits {
			for _, rank := range ranks {
				shoe.cards = append(shoe.cards, Card{suit: suit, rank: rank})
			}
		}
	}

	shoe.shuffle()

	return shoe
}

// shuffle randomizes the order of the remaining cards.
func (s *Shoe) shuffle() {
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// Draw removes and returns the top card, reshuffling discards back in first
// when the pile has run below the safety threshold.
func (s *Shoe) Draw() Card {
	if len(s.cards) < s.threshold && len(s.discards) > 0 {
		s.cards = append(s.cards, s.discards...)
		s.discards = s.discards[:0]
		s.shuffle()
	}

	card := s.cards[0]
	s.cards = s.cards[1:]
	return card
}

// Discard returns played cards to the shoe's discard pile.
func (s *Shoe) Discard(cards []Card) {
	s.discards = append(s.discards, cards...)
}

// Remaining returns the number of cards left in the draw pile.
func (s *Shoe) Remaining() int {
	return len(s.cards)
}
