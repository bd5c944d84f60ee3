package domain

import "time"

// ClosePoll moves an open poll to its terminal state with final as the chosen slot.
// The returned poll is a copy; votes are carried over untouched.
func ClosePoll(poll Poll, final TimeSlot, now time.Time) (Poll, error) {
	if !MatchesSlot(final, poll.Times) {
		return Poll{}, ErrInvalidFinalTime
	}
	if !poll.Open {
		return Poll{}, ErrAlreadyClosed
	}

	closed := poll.Clone()
	closed.Open = false
	closed.FinalTime = &TimeSlot{Start: final.Start, End: final.End}
	closed.UpdatedAt = now
	return closed, nil
}

// AdmitVote validates vote against poll and returns the poll with the vote merged in.
func AdmitVote(poll *Poll, vote Vote, requester *Requester, now time.Time) (Poll, error) {
	if err := ValidateVote(poll, vote, requester); err != nil {
		return Poll{}, err
	}

	updated := poll.Clone()
	updated.Votes = MergeVote(poll.Votes, vote)
	updated.UpdatedAt = now
	return updated, nil
}
