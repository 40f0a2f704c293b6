package planning

import "github.com/cockroachdb/errors"

var (
	// ErrConfiguration indicates a programming or configuration defect
	// (e.g. a gap in the recommendation table). Fatal, never handled inline.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidOption is returned for an option id unknown to the pool,
	// e.g. a stale button pressed after a reset. Callers ignore it.
	ErrInvalidOption = errors.New("unknown option")

	// ErrProviderUnavailable indicates a collaborator could not be reached
	// in time. The stage does not advance; the caller may retry.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGeneration indicates the narrator produced no usable text.
	// The itinerary degrades to a plain listing instead of failing.
	ErrGeneration = errors.New("narration failed")

	// ErrHotelNotFound indicates the resolver could not identify a hotel.
	ErrHotelNotFound = errors.New("hotel not found")

	// ErrWrongStage rejects an intent the current stage does not allow.
	ErrWrongStage = errors.New("not allowed in current stage")

	// ErrInvalidDays rejects a day count outside the supported range.
	ErrInvalidDays = errors.New("day count out of range")

	// ErrStale marks a collaborator result whose generation counter no
	// longer matches the session. The result is discarded, never applied.
	ErrStale = errors.New("stale generation result")

	// ErrCompleted rejects mutations on an accepted, read-only session.
	ErrCompleted = errors.New("plan already accepted")
)
