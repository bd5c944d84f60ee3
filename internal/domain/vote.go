package domain

// Vote is one participant's declared availability on a poll
type Vote struct {
	Username string     `json:"username"`
	Times    []TimeSlot `json:"times"`
}

// VoteRequest is the body of a vote submission
type VoteRequest struct {
	Username string     `json:"username"`
	Times    []TimeSlot `json:"times"`
}

// ToVote converts the request into the vote that will be stored
func (r VoteRequest) ToVote() Vote {
	times := r.Times
	if times == nil {
		times = []TimeSlot{}
	}
	return Vote{Username: r.Username, Times: times}
}

// ValidateVote decides whether vote may be admitted into poll.
// It returns nil when the vote is accepted, otherwise the first failing
// rejection reason in this order: missing poll, anonymous requester on a
// protected poll, closed poll, bad slots, identity mismatch, empty username,
// duplicate voter. Usernames are compared exactly.
// Neither poll nor vote is modified.
func ValidateVote(poll *Poll, vote Vote, requester *Requester) error {
	if poll == nil {
		return ErrPollNotFound
	}

	protected := poll.Type == PollTypeProtected
	if protected && !requester.Authenticated() {
		return ErrUnauthenticated
	}

	if !poll.Open {
		return ErrPollClosed
	}

	if !AllSlotsMatch(vote.Times, poll.Times) {
		return ErrInvalidSlots
	}

	if protected && vote.Username != requester.Username {
		return ErrIdentityMismatch
	}

	if vote.Username == "" {
		return ErrInvalidVote
	}

	if poll.HasVoter(vote.Username) {
		return ErrDuplicateVoter
	}

	return nil
}

// MergeVote returns a new vote list with accepted appended after current.
// current is never modified or reordered.
func MergeVote(current []Vote, accepted Vote) []Vote {
	merged := make([]Vote, 0, len(current)+1)
	merged = append(merged, current...)
	merged = append(merged, Vote{
		Username: accepted.Username,
		Times:    append([]TimeSlot(nil), accepted.Times...),
	})
	return merged
}
