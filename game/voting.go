package game

import (
	"api/domain"
	"fmt"
)

type vote struct {
	voterId    string
	votedForId string
}

// ballot collects votes for a single voting window. Only one window is ever
// open per room at a time; the room actor opens and closes it.
type ballot struct {
	open  bool
	votes []vote
}

func (b *ballot) openWindow() {
	b.open = true
	b.votes = b.votes[:0]
}

func (b *ballot) closeWindow() {
	b.open = false
}

func (b *ballot) hasVoted(playerId string) bool {
	for _, v := range b.votes {
		if v.voterId == playerId {
			return true
		}
	}
	return false
}

// cast records a vote in submission order. Self-votes are forbidden;
// membership of the target is the caller's check since the ballot does not
// know the roster.
func (b *ballot) cast(voterId, votedForId string) error {
	if !b.open {
		return fmt.Errorf("%w: no voting window is open", domain.ErrInvalidState)
	}
	if voterId == votedForId {
		return fmt.Errorf("%w: you cannot vote for yourself", domain.ErrValidation)
	}
	if b.hasVoted(voterId) {
		return fmt.Errorf("%w: you already voted this round", domain.ErrInvalidState)
	}
	b.votes = append(b.votes, vote{voterId: voterId, votedForId: votedForId})
	return nil
}

// discard removes a departed player's already-cast vote from the tally.
func (b *ballot) discard(playerId string) {
	kept := b.votes[:0]
	for _, v := range b.votes {
		if v.voterId != playerId {
			kept = append(kept, v)
		}
	}
	b.votes = kept
}
