package brackets

import (
	"errors"
	"fmt"

	"github.com/aidosbek/swisscut/models"
)

var ErrNoQualifiers = errors.New("no qualifiers to seed a bracket")

// NextPowerOfTwo returns the smallest power of two >= n (minimum 2).
func NextPowerOfTwo(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// BalancedSeedingOrder builds the standard knockout seeding permutation of
// 1..size: start from [1 2] and at each doubling mirror every seed against
// its complement, so seeds 1 and 2 can only meet in the final. Size 4 gives
// [1 4 2 3], size 8 gives [1 8 4 5 2 7 3 6].
func BalancedSeedingOrder(size int) ([]int, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("seeding order size must be a power of two >= 2, got %d", size)
	}
	order := []int{1, 2}
	for len(order) < size {
		doubled := make([]int, len(order)*2)
		for i, seed := range order {
			doubled[2*i] = seed
			doubled[2*i+1] = len(order)*2 + 1 - seed
		}
		order = doubled
	}
	return order, nil
}

// SeedBracket places the ranked qualifiers (index 0 = rank 1) into bracket
// slots using the balanced seeding order. The returned slice has
// NextPowerOfTwo(len(qualifiers)) entries; slots whose seed exceeds the
// qualifier count stay nil and become byes.
func SeedBracket(qualifiers []*models.Participant) ([]*models.Participant, error) {
	if len(qualifiers) == 0 {
		return nil, ErrNoQualifiers
	}
	size := NextPowerOfTwo(len(qualifiers))
	order, err := BalancedSeedingOrder(size)
	if err != nil {
		return nil, err
	}
	slots := make([]*models.Participant, size)
	for i, seed := range order {
		if seed <= len(qualifiers) {
			slots[i] = qualifiers[seed-1]
		}
	}
	return slots, nil
}
