package game

import (
	"testing"

	"api/domain"

	"github.com/stretchr/testify/assert"
)

func TestBallot_CastRequiresOpenWindow(t *testing.T) {
	t.Parallel()
	var b ballot

	err := b.cast("a", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	b.openWindow()
	assert.NoError(t, b.cast("a", "b"))

	b.closeWindow()
	err = b.cast("c", "b")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBallot_RejectsSelfVote(t *testing.T) {
	t.Parallel()
	var b ballot
	b.openWindow()

	err := b.cast("a", "a")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, b.hasVoted("a"))
}

func TestBallot_RejectsDoubleVote(t *testing.T) {
	t.Parallel()
	var b ballot
	b.openWindow()

	assert.NoError(t, b.cast("a", "b"))
	err := b.cast("a", "c")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, b.votes, 1)
}

func TestBallot_PreservesSubmissionOrder(t *testing.T) {
	t.Parallel()
	var b ballot
	b.openWindow()

	b.cast("c", "a")
	b.cast("a", "b")
	b.cast("b", "a")

	assert.Equal(t, []vote{
		{voterId: "c", votedForId: "a"},
		{voterId: "a", votedForId: "b"},
		{voterId: "b", votedForId: "a"},
	}, b.votes)
}

func TestBallot_DiscardRemovesDepartedVoter(t *testing.T) {
	t.Parallel()
	var b ballot
	b.openWindow()
	b.cast("a", "b")
	b.cast("b", "c")

	b.discard("a")

	assert.False(t, b.hasVoted("a"))
	assert.True(t, b.hasVoted("b"))
	assert.Len(t, b.votes, 1)
}

func TestBallot_ReopenClearsVotes(t *testing.T) {
	t.Parallel()
	var b ballot
	b.openWindow()
	b.cast("a", "b")

	b.closeWindow()
	b.openWindow()

	assert.Empty(t, b.votes)
	assert.False(t, b.hasVoted("a"))
}
