package engine

import "math"

// ShuffleDeck returns a Fisher-Yates permutation of [0, n) driven by the float
// stream for the given seeds and hand nonce. The nonce is the hand index, so
// consecutive hands at the same table draw distinct but replayable deals.
func ShuffleDeck(seeds Seeds, nonce uint64, n int) []int {
	floats := Floats(seeds.Server, seeds.Client, nonce, 0, n)

	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	shuffled := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if len(pool) == 0 {
			break
		}

		index := int(math.Floor(floats[i] * float64(len(pool))))
		if index >= len(pool) {
			index = len(pool) - 1
		}

		shuffled = append(shuffled, pool[index])
		pool = append(pool[:index], pool[index+1:]...)
	}

	return shuffled
}
