package domain

// TimeSlot is one candidate meeting window in epoch milliseconds
type TimeSlot struct {
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
	IfNeedBe bool  `json:"ifNeedBe,omitempty"`
}

// SameWindow compares start and end only; IfNeedBe is a voter annotation
// and never part of slot identity.
func (s TimeSlot) SameWindow(other TimeSlot) bool {
	return s.Start == other.Start && s.End == other.End
}

// MatchesSlot reports whether candidate is one of the defined slots
func MatchesSlot(candidate TimeSlot, defined []TimeSlot) bool {
	for _, slot := range defined {
		if slot.SameWindow(candidate) {
			return true
		}
	}
	return false
}

// AllSlotsMatch reports whether every candidate is a defined slot.
// An empty candidate list never matches.
func AllSlotsMatch(candidates, defined []TimeSlot) bool {
	if len(candidates) == 0 {
		return false
	}
	for _, c := range candidates {
		if !MatchesSlot(c, defined) {
			return false
		}
	}
	return true
}
