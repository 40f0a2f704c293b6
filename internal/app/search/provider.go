// Package search provides option discovery strategies for voting rounds.
package search

import (
	"context"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/llm"
)

// Query describes one option discovery request.
type Query struct {
	Place       string            // Destination the trip is planned for
	Category    planning.Category // Kind of options to discover
	Preferences []string          // Trip-wide preferences woven into queries
	Count       int               // Number of options the voting round needs
	HotelArea   string            // Resolved hotel area, empty or "Unknown" when unhelpful
	StartDate   string            // Trip start (YYYY-MM-DD), may be empty
	EndDate     string            // Trip end (YYYY-MM-DD), may be empty
}

// Provider is the interface for option providers.
// Different implementations discover candidate options through various
// strategies (e.g., web-search-based, model-knowledge-based, etc.).
type Provider interface {
	// GetCandidates retrieves candidate options for a voting round.
	GetCandidates(ctx context.Context, query Query) ([]planning.Option, error)

	// Name returns the provider name (used in config).
	Name() string
}

// Extractor defines the model operation that turns raw search results
// into structured suggestions.
type Extractor interface {
	ExtractOptions(ctx context.Context, req llm.ExtractRequest) ([]llm.Suggestion, error)
}

// Suggester defines the model operation that proposes options from its
// own knowledge, without search results.
type Suggester interface {
	SuggestOptions(ctx context.Context, req llm.SuggestRequest) ([]llm.Suggestion, error)
}

// ModelClient bundles the language model operations providers depend on.
type ModelClient interface {
	Extractor
	Suggester
}
