package session

// Intent is one participant action applied to a chat session. The concrete
// type selects the operation; ParticipantID attributes votes and log lines.
type Intent interface {
	isIntent()
}

// SubmitHotel submits free text describing where the group is staying.
type SubmitHotel struct {
	ParticipantID string
	Text          string
}

// ConfirmHotel accepts the resolved hotel match.
type ConfirmHotel struct {
	ParticipantID string
}

// RejectHotel discards the resolved hotel match and asks for new text.
type RejectHotel struct {
	ParticipantID string
}

// SetDays picks the trip length and opens activity voting.
type SetDays struct {
	ParticipantID string
	Days          int
}

// ToggleOption adds or removes the participant's vote on an option.
type ToggleOption struct {
	ParticipantID string
	OptionID      string
}

// MarkDone closes the current voting round.
type MarkDone struct {
	ParticipantID string
}

// Regenerate rebuilds the itinerary from the same frozen options.
type Regenerate struct {
	ParticipantID string
}

// Accept locks the plan and makes the session read-only.
type Accept struct {
	ParticipantID string
}

// Reset wipes the session back to hotel entry.
type Reset struct {
	ParticipantID string
}

func (SubmitHotel) isIntent()  {}
func (ConfirmHotel) isIntent() {}
func (RejectHotel) isIntent()  {}
func (SetDays) isIntent()      {}
func (ToggleOption) isIntent() {}
func (MarkDone) isIntent()     {}
func (Regenerate) isIntent()   {}
func (Accept) isIntent()       {}
func (Reset) isIntent()        {}
