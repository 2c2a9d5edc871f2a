package proc

// PendingAction is the feedback-queue decision taken at the next reinsertion of a record
type PendingAction int

const (
	// PendingNone reinserts the record at its current level
	PendingNone PendingAction = iota
	// PendingDemote moves the record one level down (capped at the last level)
	PendingDemote
)

func (a PendingAction) String() string {
	if a == PendingDemote {
		return "demote"
	}
	return "none"
}
