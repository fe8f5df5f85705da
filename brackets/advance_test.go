package brackets

import "testing"

func TestNextSlot(t *testing.T) {
	tests := []struct {
		matchNumber int
		wantNext    int
		wantSlot    Slot
	}{
		{1, 1, SlotA},
		{2, 1, SlotB},
		{3, 2, SlotA},
		{4, 2, SlotB},
		{5, 3, SlotA},
		{8, 4, SlotB},
	}
	for _, tt := range tests {
		next, slot := NextSlot(tt.matchNumber)
		if next != tt.wantNext || slot != tt.wantSlot {
			t.Errorf("NextSlot(%d) = (%d, %s), want (%d, %s)",
				tt.matchNumber, next, slot, tt.wantNext, tt.wantSlot)
		}
	}
}

func TestNextSlotSiblingsFeedSameMatch(t *testing.T) {
	for n := 1; n <= 16; n += 2 {
		oddNext, oddSlot := NextSlot(n)
		evenNext, evenSlot := NextSlot(n + 1)
		if oddNext != evenNext {
			t.Errorf("matches %d and %d must feed the same match", n, n+1)
		}
		if oddSlot == evenSlot {
			t.Errorf("matches %d and %d must take opposite slots", n, n+1)
		}
	}
}
