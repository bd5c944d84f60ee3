package domain

import (
	"strings"
	"time"
)

// PollType controls who may vote on a poll
type PollType string

const (
	// PollTypePublic allows anyone to vote under a declared name
	PollTypePublic PollType = "public"
	// PollTypeProtected requires an authenticated voter whose name matches the vote
	PollTypeProtected PollType = "protected"
)

// Valid reports whether t is a known poll type
func (t PollType) Valid() bool {
	return t == PollTypePublic || t == PollTypeProtected
}

// Poll is the persisted scheduling-poll document
type Poll struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Type        PollType   `json:"type"`
	Owner       string     `json:"username"`
	Times       []TimeSlot `json:"times"`
	Votes       []Vote     `json:"votes"`
	Open        bool       `json:"open"`
	FinalTime   *TimeSlot  `json:"finalTime"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt,omitempty"`

	// Version is the compare-and-swap token of the stored record.
	Version int64 `json:"-"`
}

// Clone returns a deep copy so callers can derive a new record without
// touching the snapshot they loaded.
func (p Poll) Clone() Poll {
	out := p
	out.Times = append([]TimeSlot(nil), p.Times...)
	if p.Votes != nil {
		out.Votes = make([]Vote, len(p.Votes))
		for i, v := range p.Votes {
			out.Votes[i] = Vote{Username: v.Username, Times: append([]TimeSlot(nil), v.Times...)}
		}
	}
	if p.FinalTime != nil {
		ft := *p.FinalTime
		out.FinalTime = &ft
	}
	return out
}

// HasVoter reports whether username already has a vote on the poll.
// The comparison is exact and case-sensitive.
func (p *Poll) HasVoter(username string) bool {
	for _, v := range p.Votes {
		if v.Username == username {
			return true
		}
	}
	return false
}

// CreatePollRequest is the body accepted when an organizer creates a poll
type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Type        PollType   `json:"type"`
	Times       []TimeSlot `json:"times"`
}

// Validate checks the proposal before a poll record is built from it
func (r *CreatePollRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return NewInvalidPollError("title is required")
	}
	if r.Type == "" {
		r.Type = PollTypePublic
	}
	if !r.Type.Valid() {
		return NewInvalidPollError("type must be public or protected")
	}
	if len(r.Times) == 0 {
		return NewInvalidPollError("at least one time slot is required")
	}
	for i, slot := range r.Times {
		if slot.End <= slot.Start {
			return NewInvalidPollError("time slot end must be after start")
		}
		if MatchesSlot(slot, r.Times[:i]) {
			return NewInvalidPollError("time slots must be unique")
		}
	}
	return nil
}

// NewPoll builds the initial open record for a validated request
func NewPoll(id, owner string, req CreatePollRequest, now time.Time) Poll {
	times := make([]TimeSlot, len(req.Times))
	for i, slot := range req.Times {
		times[i] = TimeSlot{Start: slot.Start, End: slot.End}
	}
	return Poll{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Type:        req.Type,
		Owner:       owner,
		Times:       times,
		Votes:       []Vote{},
		Open:        true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ClosePollRequest is the body accepted when the organizer picks the final time.
// The web client also sends "open": false; it carries no extra meaning.
type ClosePollRequest struct {
	FinalTime *TimeSlot `json:"finalTime"`
	Open      *bool     `json:"open,omitempty"`
}
