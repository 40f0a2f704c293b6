package curate

import (
	"regexp"
	"strings"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

var labelWhitespace = regexp.MustCompile(`\s+`)

// DuplicateLabelFilter drops options whose normalized label already
// appeared earlier in the batch. Providers frequently surface the same
// venue under slightly different titles; the first occurrence wins so
// presentation order is preserved.
type DuplicateLabelFilter struct{}

// NewDuplicateLabelFilter creates a new duplicate label filter.
func NewDuplicateLabelFilter() *DuplicateLabelFilter {
	return &DuplicateLabelFilter{}
}

// Name returns the filter name.
func (f *DuplicateLabelFilter) Name() string {
	return "duplicate_label_filter"
}

// Description returns the filter description.
func (f *DuplicateLabelFilter) Description() string {
	return "正規化したラベルが重複する候補を除外。最初の候補を残す"
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateLabelFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

// Apply drops repeated labels, keeping the first occurrence.
func (f *DuplicateLabelFilter) Apply(options []planning.Option) []planning.Option {
	seen := make(map[string]bool, len(options))
	result := make([]planning.Option, 0, len(options))

	for _, opt := range options {
		key := normalizeLabel(opt.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, opt)
	}
	return result
}

// normalizeLabel lowercases, collapses whitespace and strips trailing
// punctuation so "Warung Yeah!" and "warung yeah" collide.
func normalizeLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = labelWhitespace.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " .,!?-")
}

func init() {
	Register("duplicate_label_filter", func() Filter {
		return &DuplicateLabelFilter{}
	})
}
