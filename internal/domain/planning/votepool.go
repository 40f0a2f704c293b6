package planning

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Tally pairs an option with its current vote count, for rendering.
type Tally struct {
	Option Option
	Votes  int
}

// VotePool accumulates per-option vote sets from multiple participants
// for one voting stage. Options keep their original presentation order,
// which breaks ranking ties deterministically.
//
// The pool is not synchronized; the owning session serializes access.
type VotePool struct {
	options []Option                       // presentation order
	index   map[string]int                 // option id -> presentation index
	votes   map[string]map[string]struct{} // option id -> participant ids
}

// NewVotePool creates a pool over the given options in presentation order.
func NewVotePool(options []Option) *VotePool {
	p := &VotePool{
		options: make([]Option, len(options)),
		index:   make(map[string]int, len(options)),
		votes:   make(map[string]map[string]struct{}, len(options)),
	}
	copy(p.options, options)
	for i, opt := range p.options {
		p.index[opt.ID] = i
		p.votes[opt.ID] = make(map[string]struct{})
	}
	return p
}

// Toggle flips a participant's vote on an option and reports whether the
// vote is present afterwards. An unknown option id (stale button after a
// reset, or an id from another pool) fails with ErrInvalidOption and
// mutates nothing.
func (p *VotePool) Toggle(optionID, participantID string) (bool, error) {
	voters, ok := p.votes[optionID]
	if !ok {
		return false, errors.Wrapf(ErrInvalidOption, "option %s", optionID)
	}
	if _, voted := voters[participantID]; voted {
		delete(voters, participantID)
		return false, nil
	}
	voters[participantID] = struct{}{}
	return true, nil
}

// Votes returns the vote count for an option, 0 for unknown ids.
func (p *VotePool) Votes(optionID string) int {
	return len(p.votes[optionID])
}

// Len returns the number of options in the pool.
func (p *VotePool) Len() int {
	return len(p.options)
}

// VotedCount returns the number of options holding at least one vote.
func (p *VotePool) VotedCount() int {
	n := 0
	for _, opt := range p.options {
		if len(p.votes[opt.ID]) > 0 {
			n++
		}
	}
	return n
}

// Options returns the options in presentation order.
func (p *VotePool) Options() []Option {
	out := make([]Option, len(p.options))
	copy(out, p.options)
	return out
}

// Tallies returns options with live vote counts in presentation order.
func (p *VotePool) Tallies() []Tally {
	out := make([]Tally, len(p.options))
	for i, opt := range p.options {
		out[i] = Tally{Option: opt, Votes: len(p.votes[opt.ID])}
	}
	return out
}

// RankedTop returns the n options with the highest vote counts. Ties
// resolve to presentation order (the sort is stable over the presentation
// slice, so all-zero pools return the first n options as presented).
// Fewer than n options returns all of them.
func (p *VotePool) RankedTop(n int) []Option {
	ranked := p.Options()
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(p.votes[ranked[i].ID]) > len(p.votes[ranked[j].ID])
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}
