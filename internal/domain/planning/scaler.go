package planning

import "github.com/cockroachdb/errors"

// Supported trip length range. Day counts outside it are rejected by the
// stage guard before they ever reach the scaler.
const (
	MinTripDays = 1
	MaxTripDays = 5
)

// OptionCounts is the number of options to present for each category.
type OptionCounts struct {
	Activities int
	Eateries   int
}

// Recommend returns how many options to present for a trip length.
// A day count outside the table fails loudly rather than clamping:
// the guard should have rejected it, so reaching the default case is a
// defect, not user input.
func Recommend(days int) (OptionCounts, error) {
	switch days {
	case 1:
		return OptionCounts{Activities: 4, Eateries: 4}, nil
	case 2:
		return OptionCounts{Activities: 6, Eateries: 6}, nil
	case 3:
		return OptionCounts{Activities: 6, Eateries: 8}, nil
	case 4:
		return OptionCounts{Activities: 8, Eateries: 10}, nil
	case 5:
		return OptionCounts{Activities: 10, Eateries: 10}, nil
	default:
		return OptionCounts{}, errors.Wrapf(ErrConfiguration, "no recommendation counts for %d days", days)
	}
}

// DefaultSelections returns how many options to auto-select when a pool
// closes with no votes cast. Scaled to trip length so short trips do not
// end up with more picks than schedule slots.
func DefaultSelections(days int, category Category) (int, error) {
	if days < MinTripDays || days > MaxTripDays {
		return 0, errors.Wrapf(ErrConfiguration, "no default selection count for %d days", days)
	}
	if category == CategoryActivity {
		return max(2, min(days, 4)), nil
	}
	return max(3, min(days*2, 6)), nil
}
