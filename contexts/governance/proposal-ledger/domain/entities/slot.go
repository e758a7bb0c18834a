package entities

// SlotIndex is the position of a proposal inside one of a voter's proposal
// lists. The zero value is the empty slot, so a missing map entry and an
// explicit NoSlot() are the same thing.
type SlotIndex struct {
	n int
}

func NoSlot() SlotIndex {
	return SlotIndex{}
}

// SlotAt returns the slot for a zero-based list position.
func SlotAt(position int) SlotIndex {
	if position < 0 {
		return SlotIndex{}
	}
	return SlotIndex{n: position + 1}
}

func (s SlotIndex) IsSome() bool {
	return s.n > 0
}

// Get returns the zero-based position held by the slot.
func (s SlotIndex) Get() (int, bool) {
	if s.n <= 0 {
		return 0, false
	}
	return s.n - 1, true
}
