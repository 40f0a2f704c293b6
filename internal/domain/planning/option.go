package planning

import "github.com/google/uuid"

// Category distinguishes the two kinds of votable options.
type Category string

const (
	CategoryActivity Category = "activity"
	CategoryEatery   Category = "eatery"
)

// SourceRecord carries the provenance of an option as returned by a
// search provider. Display-only; never used for ranking.
type SourceRecord struct {
	Provider string // Provider name that produced the option
	Location string // Location or area description
	Detail   string // Short description snippet
	URL      string // Source URL (may be empty for suggested options)
	Cuisine  string // Cuisine type (eateries only)
}

// Option is a candidate activity or eatery surfaced for voting.
// Immutable once created; belongs to exactly one vote pool.
type Option struct {
	ID       string       // Unique id, fresh per pool (stale buttons never collide)
	Label    string       // Display label
	Category Category     // Activity or eatery
	Source   SourceRecord // Provenance
}

// NewOption creates an option with a fresh unique id.
func NewOption(label string, category Category, source SourceRecord) Option {
	return Option{
		ID:       uuid.New().String(),
		Label:    label,
		Category: category,
		Source:   source,
	}
}
