package brackets

import (
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{17, 32},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestBalancedSeedingOrder(t *testing.T) {
	tests := []struct {
		size int
		want []int
	}{
		{2, []int{1, 2}},
		{4, []int{1, 4, 2, 3}},
		{8, []int{1, 8, 4, 5, 2, 7, 3, 6}},
	}
	for _, tt := range tests {
		got, err := BalancedSeedingOrder(tt.size)
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", tt.size, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("size %d: expected %d entries, got %d", tt.size, len(tt.want), len(got))
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("size %d: position %d: expected %d, got %d", tt.size, i, tt.want[i], got[i])
			}
		}
	}
}

func TestBalancedSeedingOrderIsPermutation(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32} {
		order, err := BalancedSeedingOrder(size)
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[int]bool, size)
		for _, seed := range order {
			if seed < 1 || seed > size {
				t.Errorf("size %d: seed %d out of range", size, seed)
			}
			if seen[seed] {
				t.Errorf("size %d: seed %d appears twice", size, seed)
			}
			seen[seed] = true
		}
	}
}

func TestBalancedSeedingOrderTopSeedsInOppositeHalves(t *testing.T) {
	for _, size := range []int{4, 8, 16, 32} {
		order, err := BalancedSeedingOrder(size)
		if err != nil {
			t.Fatal(err)
		}
		half := size / 2
		var pos1, pos2 int
		for i, seed := range order {
			switch seed {
			case 1:
				pos1 = i
			case 2:
				pos2 = i
			}
		}
		if (pos1 < half) == (pos2 < half) {
			t.Errorf("size %d: seeds 1 and 2 landed in the same half", size)
		}
	}
}

func TestBalancedSeedingOrderRejectsBadSizes(t *testing.T) {
	for _, size := range []int{0, 1, 3, 6, 12} {
		if _, err := BalancedSeedingOrder(size); err == nil {
			t.Errorf("size %d: expected an error", size)
		}
	}
}

func TestSeedBracketFillsByesFromBottomSeeds(t *testing.T) {
	// Пять квалифицировавшихся: сетка на 8, три бая у сидов 1-3.
	qualifiers := testParticipants(1, 2, 3, 4, 5)

	slots, err := SeedBracket(qualifiers)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}

	// Порядок посева для 8: [1 8 4 5 2 7 3 6]; сиды 6-8 отсутствуют.
	wantIDs := []int{1, 0, 4, 5, 2, 0, 3, 0}
	for i, want := range wantIDs {
		if want == 0 {
			if slots[i] != nil {
				t.Errorf("slot %d: expected bye, got participant %d", i, slots[i].ID)
			}
			continue
		}
		if slots[i] == nil || slots[i].ID != want {
			t.Errorf("slot %d: expected participant %d, got %v", i, want, slots[i])
		}
	}

	// Каждая пара слотов — один матч: 1 реальный матч (4 против 5) и 3 бая.
	realMatches, byes := 0, 0
	for i := 0; i < len(slots); i += 2 {
		a, b := slots[i], slots[i+1]
		switch {
		case a != nil && b != nil:
			realMatches++
		case a != nil || b != nil:
			byes++
		default:
			t.Errorf("match %d: both slots empty", i/2+1)
		}
	}
	if realMatches != 1 || byes != 3 {
		t.Errorf("expected 1 real match and 3 byes, got %d and %d", realMatches, byes)
	}
}

func TestSeedBracketExactPowerOfTwoHasNoByes(t *testing.T) {
	qualifiers := testParticipants(1, 2, 3, 4, 5, 6, 7, 8)

	slots, err := SeedBracket(qualifiers)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range slots {
		if s == nil {
			t.Errorf("slot %d: unexpected bye in a full bracket", i)
		}
	}
}

func TestSeedBracketEmpty(t *testing.T) {
	if _, err := SeedBracket(nil); err != ErrNoQualifiers {
		t.Fatalf("expected ErrNoQualifiers, got %v", err)
	}
}
