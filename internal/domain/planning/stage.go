// Package planning provides the trip planning domain: stages, vote pools,
// option scaling, and the per-chat session aggregate.
package planning

// Stage represents a chat's position in the planning conversation.
type Stage int

const (
	StageAwaitingHotel    Stage = iota // Waiting for hotel free text
	StageConfirmingHotel               // Resolved hotel awaiting confirmation
	StageAwaitingDays                  // Waiting for trip length
	StageVotingActivities              // Activity vote pool open
	StageVotingFood                    // Food vote pool open
	StageGenerating                    // Itinerary generation in flight
	StageReview                        // Generated plan under review
	StageComplete                      // Plan accepted, session read-only
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageAwaitingHotel:
		return "awaiting_hotel"
	case StageConfirmingHotel:
		return "confirming_hotel"
	case StageAwaitingDays:
		return "awaiting_days"
	case StageVotingActivities:
		return "voting_activities"
	case StageVotingFood:
		return "voting_food"
	case StageGenerating:
		return "generating"
	case StageReview:
		return "review"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Voting reports whether the stage has an open vote pool.
func (s Stage) Voting() bool {
	return s == StageVotingActivities || s == StageVotingFood
}

// Terminal reports whether only a reset can leave the stage.
func (s Stage) Terminal() bool {
	return s == StageComplete
}
