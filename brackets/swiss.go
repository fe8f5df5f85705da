package brackets

import (
	"errors"
	"math/rand"

	"github.com/aidosbek/swisscut/models"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to pair a swiss round (minimum 2)")

// Pairing is one table of a swiss round. B == nil means A receives a bye.
type Pairing struct {
	A *models.Participant
	B *models.Participant
}

// PairKey identifies an unordered participant pair.
type PairKey struct {
	Low, High int
}

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// SwissPairer produces swiss pairings. The random source is injected so
// round-1 shuffles are reproducible under test.
type SwissPairer struct {
	rng *rand.Rand
}

func NewSwissPairer(rng *rand.Rand) *SwissPairer {
	return &SwissPairer{rng: rng}
}

// PairFirstRound shuffles the participants uniformly and pairs them
// consecutively. An odd participant count leaves the last shuffled player
// with a bye.
func (p *SwissPairer) PairFirstRound(participants []*models.Participant) ([]Pairing, error) {
	if len(participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	shuffled := make([]*models.Participant, len(participants))
	copy(shuffled, participants)
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return pairConsecutive(shuffled), nil
}

// PairByStandings pairs a ranked participant list for rounds after the
// first. Each unpaired player takes the highest-ranked opponent they have
// not met before; when every remaining candidate is a rematch the nearest
// unpaired player is used instead (best-effort for small pools).
//
// With an odd count the bye goes to the lowest-ranked participant who has
// not yet had one this tournament, falling back to the lowest-ranked
// overall. The bye is removed before pairing so it never distorts the
// adjacent-rank pairs.
func (p *SwissPairer) PairByStandings(ranked []*models.Participant, played map[PairKey]bool, hadBye map[int]bool) ([]Pairing, error) {
	if len(ranked) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	pool := make([]*models.Participant, len(ranked))
	copy(pool, ranked)

	var bye *models.Participant
	if len(pool)%2 != 0 {
		byeIdx := len(pool) - 1
		for i := len(pool) - 1; i >= 0; i-- {
			if !hadBye[pool[i].ID] {
				byeIdx = i
				break
			}
		}
		bye = pool[byeIdx]
		pool = append(pool[:byeIdx], pool[byeIdx+1:]...)
	}

	used := make([]bool, len(pool))
	pairings := make([]Pairing, 0, len(pool)/2+1)

	for i := 0; i < len(pool); i++ {
		if used[i] {
			continue
		}
		used[i] = true

		partner := -1
		for j := i + 1; j < len(pool); j++ {
			if used[j] || played[NewPairKey(pool[i].ID, pool[j].ID)] {
				continue
			}
			partner = j
			break
		}
		if partner == -1 {
			// Every candidate is a rematch; take the nearest unpaired one.
			for j := i + 1; j < len(pool); j++ {
				if !used[j] {
					partner = j
					break
				}
			}
		}
		if partner == -1 {
			// Cannot happen with an even pool, guard anyway.
			return nil, ErrNotEnoughParticipants
		}
		used[partner] = true
		pairings = append(pairings, Pairing{A: pool[i], B: pool[partner]})
	}

	if bye != nil {
		pairings = append(pairings, Pairing{A: bye})
	}
	return pairings, nil
}

func pairConsecutive(ordered []*models.Participant) []Pairing {
	pairings := make([]Pairing, 0, (len(ordered)+1)/2)
	for i := 0; i+1 < len(ordered); i += 2 {
		pairings = append(pairings, Pairing{A: ordered[i], B: ordered[i+1]})
	}
	if len(ordered)%2 != 0 {
		pairings = append(pairings, Pairing{A: ordered[len(ordered)-1]})
	}
	return pairings
}
