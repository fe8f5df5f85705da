package brackets

// Slot names the side of a match a winner advances into.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// NextSlot maps a match number to its feeding position in the next round:
// matches 2k-1 and 2k feed match k, the odd one into slot A, the even one
// into slot B.
func NextSlot(matchNumber int) (nextMatchNumber int, slot Slot) {
	nextMatchNumber = (matchNumber + 1) / 2
	if matchNumber%2 == 1 {
		return nextMatchNumber, SlotA
	}
	return nextMatchNumber, SlotB
}
