package brackets

import (
	"math/rand"
	"testing"

	"github.com/aidosbek/swisscut/models"
)

func newTestPairer(seed int64) *SwissPairer {
	return NewSwissPairer(rand.New(rand.NewSource(seed)))
}

func TestPairFirstRoundRejectsTooFew(t *testing.T) {
	pairer := newTestPairer(1)

	if _, err := pairer.PairFirstRound(testParticipants(1)); err != ErrNotEnoughParticipants {
		t.Fatalf("expected ErrNotEnoughParticipants, got %v", err)
	}
	if _, err := pairer.PairFirstRound(nil); err != ErrNotEnoughParticipants {
		t.Fatalf("expected ErrNotEnoughParticipants for empty input, got %v", err)
	}
}

func TestPairFirstRoundEveryoneAppearsOnce(t *testing.T) {
	for _, count := range []int{2, 5, 8, 13} {
		ids := make([]int, count)
		for i := range ids {
			ids[i] = i + 1
		}
		pairer := newTestPairer(42)

		pairings, err := pairer.PairFirstRound(testParticipants(ids...))
		if err != nil {
			t.Fatalf("count %d: unexpected error: %v", count, err)
		}

		wantPairings := (count + 1) / 2
		if len(pairings) != wantPairings {
			t.Errorf("count %d: expected %d pairings, got %d", count, wantPairings, len(pairings))
		}

		seen := make(map[int]bool)
		byes := 0
		for _, pr := range pairings {
			if pr.A == nil {
				t.Fatalf("count %d: pairing without slot A", count)
			}
			if seen[pr.A.ID] {
				t.Errorf("count %d: participant %d paired twice", count, pr.A.ID)
			}
			seen[pr.A.ID] = true
			if pr.B == nil {
				byes++
				continue
			}
			if seen[pr.B.ID] {
				t.Errorf("count %d: participant %d paired twice", count, pr.B.ID)
			}
			seen[pr.B.ID] = true
		}

		wantByes := count % 2
		if byes != wantByes {
			t.Errorf("count %d: expected %d byes, got %d", count, wantByes, byes)
		}
		if len(seen) != count {
			t.Errorf("count %d: expected %d distinct participants, got %d", count, count, len(seen))
		}
	}
}

func TestPairFirstRoundDeterministicForSeed(t *testing.T) {
	participants := testParticipants(1, 2, 3, 4, 5, 6)

	first, err := newTestPairer(7).PairFirstRound(participants)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newTestPairer(7).PairFirstRound(participants)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i].A.ID != second[i].A.ID {
			t.Errorf("pairing %d: slot A differs between identical seeds", i)
		}
		bFirst, bSecond := 0, 0
		if first[i].B != nil {
			bFirst = first[i].B.ID
		}
		if second[i].B != nil {
			bSecond = second[i].B.ID
		}
		if bFirst != bSecond {
			t.Errorf("pairing %d: slot B differs between identical seeds", i)
		}
	}
}

func TestPairFirstRoundDoesNotMutateInput(t *testing.T) {
	participants := testParticipants(1, 2, 3, 4)

	if _, err := newTestPairer(99).PairFirstRound(participants); err != nil {
		t.Fatal(err)
	}

	for i, want := range []int{1, 2, 3, 4} {
		if participants[i].ID != want {
			t.Fatalf("input slice reordered: index %d has id %d", i, participants[i].ID)
		}
	}
}

func TestPairByStandingsAdjacentRanks(t *testing.T) {
	ranked := testParticipants(10, 20, 30, 40)

	pairings, err := newTestPairer(1).PairByStandings(ranked, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(pairings) != 2 {
		t.Fatalf("expected 2 pairings, got %d", len(pairings))
	}
	if pairings[0].A.ID != 10 || pairings[0].B.ID != 20 {
		t.Errorf("expected leaders paired together, got %d vs %d", pairings[0].A.ID, pairings[0].B.ID)
	}
	if pairings[1].A.ID != 30 || pairings[1].B.ID != 40 {
		t.Errorf("expected trailers paired together, got %d vs %d", pairings[1].A.ID, pairings[1].B.ID)
	}
}

func TestPairByStandingsAvoidsRematch(t *testing.T) {
	ranked := testParticipants(1, 2, 3, 4)
	played := map[PairKey]bool{
		NewPairKey(1, 2): true,
	}

	pairings, err := newTestPairer(1).PairByStandings(ranked, played, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, pr := range pairings {
		if pr.B == nil {
			continue
		}
		if played[NewPairKey(pr.A.ID, pr.B.ID)] {
			t.Errorf("rematch generated: %d vs %d", pr.A.ID, pr.B.ID)
		}
	}
}

func TestPairByStandingsAllowsRematchWhenUnavoidable(t *testing.T) {
	// Двое уже играли; кроме повтора, вариантов нет.
	ranked := testParticipants(1, 2)
	played := map[PairKey]bool{
		NewPairKey(1, 2): true,
	}

	pairings, err := newTestPairer(1).PairByStandings(ranked, played, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairings) != 1 || pairings[0].B == nil {
		t.Fatalf("expected one forced pairing, got %+v", pairings)
	}
}

func TestPairByStandingsByeGoesToLowestWithoutPriorBye(t *testing.T) {
	ranked := testParticipants(1, 2, 3, 4, 5)
	hadBye := map[int]bool{5: true}

	pairings, err := newTestPairer(1).PairByStandings(ranked, nil, hadBye)
	if err != nil {
		t.Fatal(err)
	}

	var bye *models.Participant
	for _, pr := range pairings {
		if pr.B == nil {
			bye = pr.A
		}
	}
	if bye == nil {
		t.Fatal("expected a bye with an odd participant count")
	}
	if bye.ID != 4 {
		t.Errorf("expected bye for participant 4 (lowest without a prior bye), got %d", bye.ID)
	}
}

func TestPairByStandingsByeFallbackWhenAllHadOne(t *testing.T) {
	ranked := testParticipants(1, 2, 3)
	hadBye := map[int]bool{1: true, 2: true, 3: true}

	pairings, err := newTestPairer(1).PairByStandings(ranked, nil, hadBye)
	if err != nil {
		t.Fatal(err)
	}

	var byeID int
	for _, pr := range pairings {
		if pr.B == nil {
			byeID = pr.A.ID
		}
	}
	if byeID != 3 {
		t.Errorf("expected the lowest-ranked participant to take the repeat bye, got %d", byeID)
	}
}

func TestNewPairKeyIsOrderInsensitive(t *testing.T) {
	if NewPairKey(5, 2) != NewPairKey(2, 5) {
		t.Error("pair key must not depend on argument order")
	}
}
