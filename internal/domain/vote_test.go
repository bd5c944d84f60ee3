package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPoll(pollType PollType, times ...TimeSlot) *Poll {
	return &Poll{
		ID:    "poll-1",
		Title: "Team sync",
		Type:  pollType,
		Owner: "organizer",
		Times: times,
		Votes: []Vote{},
		Open:  true,
	}
}

func TestMatchesSlot(t *testing.T) {
	defined := []TimeSlot{{Start: 100, End: 200}, {Start: 300, End: 400}}

	tests := []struct {
		name      string
		candidate TimeSlot
		expected  bool
	}{
		{"exact match", TimeSlot{Start: 100, End: 200}, true},
		{"if need be is ignored", TimeSlot{Start: 300, End: 400, IfNeedBe: true}, true},
		{"same start different end", TimeSlot{Start: 100, End: 250}, false},
		{"same end different start", TimeSlot{Start: 150, End: 200}, false},
		{"unknown slot", TimeSlot{Start: 500, End: 600}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchesSlot(tt.candidate, defined))
		})
	}

	assert.False(t, MatchesSlot(TimeSlot{Start: 100, End: 200}, nil))
}

func TestAllSlotsMatch(t *testing.T) {
	defined := []TimeSlot{{Start: 100, End: 200}, {Start: 300, End: 400}}

	assert.True(t, AllSlotsMatch([]TimeSlot{{Start: 300, End: 400}, {Start: 100, End: 200}}, defined))
	assert.False(t, AllSlotsMatch([]TimeSlot{{Start: 100, End: 200}, {Start: 1, End: 2}}, defined), "partial validity is rejected")
	assert.False(t, AllSlotsMatch(nil, defined), "empty selection is rejected")
	assert.False(t, AllSlotsMatch([]TimeSlot{}, defined))
}

func TestValidateVote(t *testing.T) {
	slot := TimeSlot{Start: 1000, End: 2000}
	alice := &Requester{Username: "alice"}

	closed := openPoll(PollTypePublic, slot)
	closed.Open = false
	closed.FinalTime = &slot

	withCarol := openPoll(PollTypePublic, slot)
	withCarol.Votes = []Vote{{Username: "carol", Times: []TimeSlot{slot}}}

	tests := []struct {
		name      string
		poll      *Poll
		vote      Vote
		requester *Requester
		expected  error
	}{
		{
			name:     "missing poll",
			poll:     nil,
			vote:     Vote{Username: "carol", Times: []TimeSlot{slot}},
			expected: ErrPollNotFound,
		},
		{
			name:     "protected poll without session",
			poll:     openPoll(PollTypeProtected, slot),
			vote:     Vote{Username: "alice", Times: []TimeSlot{slot}},
			expected: ErrUnauthenticated,
		},
		{
			name:      "protected poll checks session before closed state",
			poll:      func() *Poll { p := openPoll(PollTypeProtected, slot); p.Open = false; return p }(),
			vote:      Vote{Username: "alice", Times: []TimeSlot{slot}},
			requester: nil,
			expected:  ErrUnauthenticated,
		},
		{
			name:     "empty username",
			poll:     openPoll(PollTypePublic, slot),
			vote:     Vote{Username: "", Times: []TimeSlot{slot}},
			expected: ErrInvalidVote,
		},
		{
			name:     "whitespace username is a name",
			poll:     openPoll(PollTypePublic, slot),
			vote:     Vote{Username: "  ", Times: []TimeSlot{slot}},
			expected: nil,
		},
		{
			name:     "closed poll wins over empty username",
			poll:     closed,
			vote:     Vote{Username: "", Times: []TimeSlot{slot}},
			expected: ErrPollClosed,
		},
		{
			name:     "bad slots win over empty username",
			poll:     openPoll(PollTypePublic, slot),
			vote:     Vote{Username: "", Times: []TimeSlot{{Start: 1, End: 2}}},
			expected: ErrInvalidSlots,
		},
		{
			name:      "protected identity mismatch wins over empty username",
			poll:      openPoll(PollTypeProtected, slot),
			vote:      Vote{Username: "", Times: []TimeSlot{slot}},
			requester: alice,
			expected:  ErrIdentityMismatch,
		},
		{
			name:     "closed poll",
			poll:     closed,
			vote:     Vote{Username: "dave", Times: []TimeSlot{slot}},
			expected: ErrPollClosed,
		},
		{
			name:     "closed poll wins over bad slots",
			poll:     closed,
			vote:     Vote{Username: "dave", Times: []TimeSlot{{Start: 1, End: 2}}},
			expected: ErrPollClosed,
		},
		{
			name:     "no slots",
			poll:     openPoll(PollTypePublic, slot),
			vote:     Vote{Username: "dave"},
			expected: ErrInvalidSlots,
		},
		{
			name:     "slot outside the poll",
			poll:     openPoll(PollTypePublic, TimeSlot{Start: 300, End: 400}),
			vote:     Vote{Username: "dave", Times: []TimeSlot{{Start: 100, End: 200}}},
			expected: ErrInvalidSlots,
		},
		{
			name:      "protected identity mismatch",
			poll:      openPoll(PollTypeProtected, slot),
			vote:      Vote{Username: "bob", Times: []TimeSlot{slot}},
			requester: alice,
			expected:  ErrIdentityMismatch,
		},
		{
			name:      "public poll ignores session identity",
			poll:      openPoll(PollTypePublic, slot),
			vote:      Vote{Username: "bob", Times: []TimeSlot{slot}},
			requester: alice,
			expected:  nil,
		},
		{
			name:     "duplicate voter",
			poll:     withCarol,
			vote:     Vote{Username: "carol", Times: []TimeSlot{slot}},
			expected: ErrDuplicateVoter,
		},
		{
			name:     "username comparison is case sensitive",
			poll:     withCarol,
			vote:     Vote{Username: "Carol", Times: []TimeSlot{slot}},
			expected: nil,
		},
		{
			name:      "protected poll accepts matching identity",
			poll:      openPoll(PollTypeProtected, slot),
			vote:      Vote{Username: "alice", Times: []TimeSlot{{Start: 1000, End: 2000, IfNeedBe: true}}},
			requester: alice,
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVote(tt.poll, tt.vote, tt.requester)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestValidateVote_DoesNotMutate(t *testing.T) {
	slot := TimeSlot{Start: 10, End: 20}
	poll := openPoll(PollTypePublic, slot)
	before := poll.Clone()

	require.NoError(t, ValidateVote(poll, Vote{Username: "carol", Times: []TimeSlot{slot}}, nil))
	assert.Equal(t, before, *poll)
}

func TestMergeVote(t *testing.T) {
	slot := TimeSlot{Start: 10, End: 20}
	current := []Vote{
		{Username: "carol", Times: []TimeSlot{slot}},
		{Username: "dave", Times: []TimeSlot{slot}},
	}

	merged := MergeVote(current, Vote{Username: "erin", Times: []TimeSlot{slot}})

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"carol", "dave", "erin"}, []string{merged[0].Username, merged[1].Username, merged[2].Username})
	assert.Len(t, current, 2, "input slice is left alone")

	merged[0].Username = "changed"
	assert.Equal(t, "carol", current[0].Username)
}

func TestMergeVote_EmptyCurrent(t *testing.T) {
	merged := MergeVote(nil, Vote{Username: "carol", Times: []TimeSlot{{Start: 1, End: 2}}})
	require.Len(t, merged, 1)
	assert.Equal(t, "carol", merged[0].Username)
}
