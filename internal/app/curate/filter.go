// Package curate provides the curation chain that cleans up option
// candidates returned by search providers before they reach a vote pool.
package curate

import (
	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// Filter is the interface for option curation filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ValidateConfig validates and stores the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Apply returns the options that survive the filter, in input order.
	Apply(options []planning.Option) []planning.Option
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
