package planning

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(n int) []Option {
	opts := make([]Option, 0, n)
	for i := 0; i < n; i++ {
		opts = append(opts, NewOption(fmt.Sprintf("Option %d", i+1), CategoryActivity, SourceRecord{Provider: "test"}))
	}
	return opts
}

func TestVotePoolToggle(t *testing.T) {
	opts := testOptions(3)
	pool := NewVotePool(opts)

	voted, err := pool.Toggle(opts[0].ID, "alice")
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, pool.Votes(opts[0].ID))

	voted, err = pool.Toggle(opts[0].ID, "bob")
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 2, pool.Votes(opts[0].ID))

	// Second toggle by the same participant removes the vote.
	voted, err = pool.Toggle(opts[0].ID, "alice")
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Equal(t, 1, pool.Votes(opts[0].ID))
}

func TestVotePoolToggleInvolution(t *testing.T) {
	opts := testOptions(4)
	pool := NewVotePool(opts)

	_, err := pool.Toggle(opts[1].ID, "alice")
	require.NoError(t, err)

	before := pool.Tallies()
	_, err = pool.Toggle(opts[2].ID, "bob")
	require.NoError(t, err)
	_, err = pool.Toggle(opts[2].ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, before, pool.Tallies())
}

func TestVotePoolToggleUnknownOption(t *testing.T) {
	opts := testOptions(2)
	pool := NewVotePool(opts)

	_, err := pool.Toggle("no-such-option", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOption))
	assert.Equal(t, 0, pool.VotedCount())
}

func TestVotePoolToggleOrderIrrelevant(t *testing.T) {
	opts := testOptions(5)
	type toggle struct{ option, participant string }
	toggles := []toggle{
		{opts[0].ID, "alice"},
		{opts[2].ID, "bob"},
		{opts[2].ID, "alice"},
		{opts[4].ID, "carol"},
		{opts[0].ID, "alice"}, // removes alice's first vote again
	}

	forward := NewVotePool(opts)
	for _, tg := range toggles {
		_, err := forward.Toggle(tg.option, tg.participant)
		require.NoError(t, err)
	}

	// Distinct (option, participant) pairs commute; only the repeated
	// pair needs its internal order preserved.
	reordered := NewVotePool(opts)
	for _, i := range []int{1, 0, 3, 2, 4} {
		_, err := reordered.Toggle(toggles[i].option, toggles[i].participant)
		require.NoError(t, err)
	}

	assert.Equal(t, forward.Tallies(), reordered.Tallies())
	assert.Equal(t, forward.RankedTop(forward.Len()), reordered.RankedTop(reordered.Len()))
}

func TestVotePoolRankedTop(t *testing.T) {
	// Two participants with a single overlapping pick: the shared option
	// ranks first, the rest keep presentation order.
	opts := testOptions(6)
	pool := NewVotePool(opts)

	for _, id := range []string{opts[0].ID, opts[1].ID, opts[2].ID} {
		_, err := pool.Toggle(id, "alice")
		require.NoError(t, err)
	}
	for _, id := range []string{opts[2].ID, opts[3].ID, opts[4].ID} {
		_, err := pool.Toggle(id, "bob")
		require.NoError(t, err)
	}

	require.Equal(t, 5, pool.VotedCount())
	top := pool.RankedTop(pool.VotedCount())
	require.Len(t, top, 5)
	assert.Equal(t, opts[2].ID, top[0].ID)
	assert.Equal(t, opts[0].ID, top[1].ID)
	assert.Equal(t, opts[1].ID, top[2].ID)
	assert.Equal(t, opts[3].ID, top[3].ID)
	assert.Equal(t, opts[4].ID, top[4].ID)
}

func TestVotePoolRankedTopNoVotes(t *testing.T) {
	opts := testOptions(4)
	pool := NewVotePool(opts)

	top := pool.RankedTop(2)
	require.Len(t, top, 2)
	assert.Equal(t, opts[0].ID, top[0].ID)
	assert.Equal(t, opts[1].ID, top[1].ID)
}

func TestVotePoolRankedTopBounds(t *testing.T) {
	opts := testOptions(3)
	pool := NewVotePool(opts)

	assert.Len(t, pool.RankedTop(10), 3)
	assert.Empty(t, pool.RankedTop(0))
	assert.Empty(t, pool.RankedTop(-1))
}

func TestVotePoolVotedCount(t *testing.T) {
	opts := testOptions(4)
	pool := NewVotePool(opts)
	assert.Equal(t, 0, pool.VotedCount())

	_, err := pool.Toggle(opts[1].ID, "alice")
	require.NoError(t, err)
	_, err = pool.Toggle(opts[1].ID, "bob")
	require.NoError(t, err)
	_, err = pool.Toggle(opts[3].ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, pool.VotedCount())
}

func TestVotePoolTallies(t *testing.T) {
	opts := testOptions(3)
	pool := NewVotePool(opts)

	_, err := pool.Toggle(opts[1].ID, "alice")
	require.NoError(t, err)

	tallies := pool.Tallies()
	require.Len(t, tallies, 3)
	assert.Equal(t, opts[0].ID, tallies[0].Option.ID)
	assert.Equal(t, 0, tallies[0].Votes)
	assert.Equal(t, 1, tallies[1].Votes)
	assert.Equal(t, 0, tallies[2].Votes)
}
