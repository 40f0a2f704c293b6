package curate

import (
	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// Chain executes curation filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new curation chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Apply runs all filters in sequence and returns the surviving options.
// Input order is preserved; a filter only ever drops entries.
func (c *Chain) Apply(options []planning.Option) []planning.Option {
	for _, f := range c.filters {
		options = f.Apply(options)
		if len(options) == 0 {
			break
		}
	}
	return options
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
