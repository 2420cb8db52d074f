package poker

import (
	"fmt"
	"strings"
)

// Card represents a playing card with rank and suit.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// String returns a human-readable card representation like "♦2" or "♠A".
func (c Card) String() string {
	return c.Suit + c.Rank
}

// Suits in deck index order: ♦, ♥, ♠, ♣
var cardSuits = []string{"♦", "♥", "♠", "♣"}

// Ranks in order: 2-10, J, Q, K, A
var cardRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// SuitCodes maps suit symbols to single-character codes for compact encodings.
var SuitCodes = map[string]string{
	"♦": "D", "♥": "H", "♠": "S", "♣": "C",
}

// DeckSize is the number of cards in the standard deck.
const DeckSize = 52

// The full 52-card deck in index order: ♦2, ♥2, ♠2, ♣2, ♦3, ...
var cardDeck [DeckSize]Card

func init() {
	i := 0
	for _, rank := range cardRanks {
		for _, suit := range cardSuits {
			cardDeck[i] = Card{Rank: rank, Suit: suit}
			i++
		}
	}
}

// CardFromIndex returns the card at the given deck index in [0, 51].
func CardFromIndex(index int) (Card, error) {
	if index < 0 || index >= DeckSize {
		return Card{}, fmt.Errorf("card index %d out of range [0, %d]", index, DeckSize-1)
	}
	return cardDeck[index], nil
}

// Index returns the deck index of the card, or -1 if the card is malformed.
func (c Card) Index() int {
	rank := -1
	for i, r := range cardRanks {
		if r == c.Rank {
			rank = i
			break
		}
	}
	suit := -1
	for i, s := range cardSuits {
		if s == c.Suit {
			suit = i
			break
		}
	}
	if rank < 0 || suit < 0 {
		return -1
	}
	return rank*len(cardSuits) + suit
}

// cardRankValue returns the numeric value of a card rank for evaluator
// purposes. A=1, 2=2, ..., 10=10, J=11, Q=12, K=13.
func cardRankValue(rank string) int {
	switch rank {
	case "A":
		return 1
	case "J":
		return 11
	case "Q":
		return 12
	case "K":
		return 13
	case "10":
		return 10
	default:
		if len(rank) == 1 && rank[0] >= '2' && rank[0] <= '9' {
			return int(rank[0] - '0')
		}
		return 0
	}
}

// cardRankHigh returns the rank value with aces high: 2=2, ..., K=13, A=14.
// Used for exposed-card comparisons in stud games.
func cardRankHigh(rank string) int {
	if rank == "A" {
		return 14
	}
	return cardRankValue(rank)
}

// cardSuitOrder returns the bring-in tiebreak order of a suit: ♣ < ♦ < ♥ < ♠.
func cardSuitOrder(suit string) int {
	switch suit {
	case "♣":
		return 0
	case "♦":
		return 1
	case "♥":
		return 2
	case "♠":
		return 3
	default:
		return -1
	}
}

// CardMask is a 52-bit set of deck indices, used for discard selections.
type CardMask uint64

// MaskOf builds a mask from the given cards. Malformed cards are ignored.
func MaskOf(cards ...Card) CardMask {
	var m CardMask
	for _, c := range cards {
		if idx := c.Index(); idx >= 0 {
			m |= 1 << uint(idx)
		}
	}
	return m
}

// Has reports whether the deck index is in the mask.
func (m CardMask) Has(index int) bool {
	if index < 0 || index >= DeckSize {
		return false
	}
	return m&(1<<uint(index)) != 0
}

// Count returns the number of cards in the mask.
func (m CardMask) Count() int {
	n := 0
	for v := uint64(m); v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Cards expands the mask into its cards in deck index order.
func (m CardMask) Cards() []Card {
	var cards []Card
	for i := 0; i < DeckSize; i++ {
		if m.Has(i) {
			cards = append(cards, cardDeck[i])
		}
	}
	return cards
}

// String renders the mask like "[♦2 ♠A]".
func (m CardMask) String() string {
	cards := m.Cards()
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
