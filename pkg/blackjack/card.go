package blackjack

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Card represents a playing card
type Card struct {
	suit Suit
	rank Rank
}

// NewCard creates a new Card with the given suit and rank
func NewCard(suit Suit, rank Rank) Card {
	return Card{suit: suit, rank: rank}
}

// String returns a string representation of the card
func (c Card) String() string {
	return string(c.rank) + string(c.suit)
}

// GetSuit returns the card's suit
func (c Card) GetSuit() string {
	return string(c.suit)
}

// GetRank returns the card's rank
func (c Card) GetRank() string {
	return string(c.rank)
}

// Points returns the blackjack value of the card. Aces count as 11 here;
// Hand.BestTotal reduces them to 1 as needed.
func (c Card) Points() int {
	switch c.rank {
	case Ace:
		return 11
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.rank == Ace
}

// CardJSON represents a card for JSON serialization
type CardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// MarshalJSON implements json.Marshaler interface for Card
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(CardJSON{
		Suit: string(c.suit),
		Rank: string(c.rank),
	})
}

// UnmarshalJSON implements json.Unmarshaler interface for Card
func (c *Card) UnmarshalJSON(data []byte) error {
	var cardJSON CardJSON
	if err := json.Unmarshal(data, &cardJSON); err != nil {
		return err
	}

	switch cardJSON.Suit {
	case "♠", "s", "S", "spades", "Spades":
		c.suit = Spades
	case "♥", "h", "H", "hearts", "Hearts":
		c.suit = Hearts
	case "♦", "d", "D", "diamonds", "Diamonds":
		c.suit = Diamonds
	case "♣", "c", "C", "clubs", "Clubs":
		c.suit = Clubs
	default:
		return fmt.Errorf("invalid suit: %s", cardJSON.Suit)
	}

	switch cardJSON.Rank {
	case "A", "a", "ace", "Ace":
		c.rank = Ace
	case "K", "k", "king", "King":
		c.rank = King
	case "Q", "q", "queen", "Queen":
		c.rank = Queen
	case "J", "j", "jack", "Jack":
		c.rank = Jack
	case "10", "T", "t", "ten", "Ten":
		c.rank = Ten
	case "9", "nine", "Nine":
		c.rank = Nine
	case "8", "eight", "Eight":
		c.rank = Eight
	case "7", "seven", "Seven":
		c.rank = Seven
	case "6", "six", "Six":
		c.rank = Six
	case "5", "five", "Five":
		c.rank = Five
	case "4", "four", "Four":
		c.rank = Four
	case "3", "three", "Three":
		c.rank = Three
	case "2", "two", "Two":
		c.rank = Two
	default:
		return fmt.Errorf("invalid rank: %s", cardJSON.Rank)
	}

	return nil
}
