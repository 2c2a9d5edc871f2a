package policy

// Candidate is a runnable record snapshot
type Candidate struct {
	Slot           int
	Priority       int
	TimesScheduled int
	CreationTick   int
}

// SelectRoundRobin returns the first candidate slot at or after cursor, or -1 when the pass is over.
// Candidates are expected in slot order.
func SelectRoundRobin(candidates []Candidate, cursor int) int {
	for _, candidate := range candidates {
		if candidate.Slot >= cursor {
			return candidate.Slot
		}
	}
	return -1
}

// SelectFCFS returns the slot with the smallest creation tick, or -1.
// Equal creation ticks resolve to the lowest slot.
func SelectFCFS(candidates []Candidate) int {
	best := -1
	for i, candidate := range candidates {
		if best == -1 || candidate.CreationTick < candidates[best].CreationTick {
			best = i
		}
	}
	if best == -1 {
		return -1
	}
	return candidates[best].Slot
}

// SelectPriority returns the slot with the numerically smallest priority; ties go to the
// candidate dispatched fewer times, then to the earlier created one.
func SelectPriority(candidates []Candidate) int {
	best := -1
	for i := range candidates {
		if best == -1 || favors(&candidates[i], &candidates[best]) {
			best = i
		}
	}
	if best == -1 {
		return -1
	}
	return candidates[best].Slot
}

func favors(a, b *Candidate) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.TimesScheduled != b.TimesScheduled {
		return a.TimesScheduled < b.TimesScheduled
	}
	return a.CreationTick < b.CreationTick
}
