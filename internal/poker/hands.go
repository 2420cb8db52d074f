package poker

import (
	"fmt"

	handeval "github.com/paulhankin/poker"
)

// evaluator suit order: ♣=0, ♦=1, ♥=2, ♠=3
var evalSuits = map[string]int{
	"♣": 0, "♦": 1, "♥": 2, "♠": 3,
}

func toEvalCard(c Card) (handeval.Card, error) {
	suit, ok := evalSuits[c.Suit]
	if !ok {
		return 0, fmt.Errorf("invalid suit %q", c.Suit)
	}
	rank := cardRankValue(c.Rank)
	if rank == 0 {
		return 0, fmt.Errorf("invalid rank %q", c.Rank)
	}
	card, err := handeval.MakeCard(handeval.Suit(suit), handeval.Rank(rank))
	if err != nil {
		return 0, fmt.Errorf("card %s: %w", c, err)
	}
	return card, nil
}

// ScoreHigh scores the best five-card high hand makeable from 5, 6, or 7
// cards. Higher scores beat lower ones.
func ScoreHigh(cards []Card) (int16, error) {
	converted := make([]handeval.Card, len(cards))
	for i, c := range cards {
		card, err := toEvalCard(c)
		if err != nil {
			return 0, err
		}
		converted[i] = card
	}

	switch len(cards) {
	case 5:
		var hand [5]handeval.Card
		copy(hand[:], converted)
		return handeval.Eval5(&hand), nil
	case 7:
		var hand [7]handeval.Card
		copy(hand[:], converted)
		return handeval.Eval7(&hand), nil
	case 6:
		// Best of the six five-card subsets.
		var best int16
		var hand [5]handeval.Card
		for skip := 0; skip < 6; skip++ {
			k := 0
			for i, card := range converted {
				if i == skip {
					continue
				}
				hand[k] = card
				k++
			}
			if score := handeval.Eval5(&hand); skip == 0 || score > best {
				best = score
			}
		}
		return best, nil
	default:
		return 0, fmt.Errorf("cannot score %d cards", len(cards))
	}
}

// ScoreOmaha scores a four-card hole against a five-card board under the
// exactly-two-hole-cards rule.
func ScoreOmaha(hole, board []Card) (int16, error) {
	if len(hole) != 4 {
		return 0, fmt.Errorf("omaha requires 4 hole cards, got %d", len(hole))
	}
	if len(board) != 5 {
		return 0, fmt.Errorf("omaha requires 5 board cards, got %d", len(board))
	}

	holeCards := make([]handeval.Card, 4)
	for i, c := range hole {
		card, err := toEvalCard(c)
		if err != nil {
			return 0, err
		}
		holeCards[i] = card
	}
	boardCards := make([]handeval.Card, 5)
	for i, c := range board {
		card, err := toEvalCard(c)
		if err != nil {
			return 0, err
		}
		boardCards[i] = card
	}

	var best int16
	first := true
	var hand [5]handeval.Card
	for h1 := 0; h1 < 3; h1++ {
		for h2 := h1 + 1; h2 < 4; h2++ {
			for b1 := 0; b1 < 3; b1++ {
				for b2 := b1 + 1; b2 < 4; b2++ {
					for b3 := b2 + 1; b3 < 5; b3++ {
						hand[0] = holeCards[h1]
						hand[1] = holeCards[h2]
						hand[2] = boardCards[b1]
						hand[3] = boardCards[b2]
						hand[4] = boardCards[b3]
						score := handeval.Eval5(&hand)
						if first || score > best {
							best = score
							first = false
						}
					}
				}
			}
		}
	}
	return best, nil
}

// DescribeHand returns a human-readable description like "two pair" for a
// five- or seven-card hand.
func DescribeHand(cards []Card) (string, error) {
	converted := make([]handeval.Card, len(cards))
	for i, c := range cards {
		card, err := toEvalCard(c)
		if err != nil {
			return "", err
		}
		converted[i] = card
	}
	return handeval.Describe(converted)
}

// exposedStrength ranks a stud player's face-up cards: more of a kind beats
// fewer, then higher ranks beat lower. The packed value compares correctly
// for the pair/trips/high-card cases that decide who opens a street.
func exposedStrength(cards []Card) int64 {
	counts := make(map[int]int)
	for _, c := range cards {
		counts[cardRankHigh(c.Rank)]++
	}

	type group struct {
		count int
		rank  int
	}
	groups := make([]group, 0, len(counts))
	for rank, count := range counts {
		groups = append(groups, group{count: count, rank: rank})
	}
	// Sort by count desc, then rank desc (insertion sort; at most 4 groups).
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0; j-- {
			a, b := groups[j-1], groups[j]
			if b.count > a.count || (b.count == a.count && b.rank > a.rank) {
				groups[j-1], groups[j] = b, a
			} else {
				break
			}
		}
	}

	var packed int64
	for _, g := range groups {
		packed = packed<<8 | int64(g.count)<<4 | int64(g.rank-2)
	}
	// Left-align so shorter exposures do not outrank longer stronger ones.
	for i := len(groups); i < 5; i++ {
		packed <<= 8
	}
	return packed
}
