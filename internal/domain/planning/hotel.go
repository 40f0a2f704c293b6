package planning

// Confidence grades how certain the resolver is about a hotel match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// HotelInfo is the resolved hotel for a session.
type HotelInfo struct {
	RawInput   string     // What the participant typed
	Name       string     // Resolved hotel name
	Area       string     // Area or neighborhood of the destination
	Confidence Confidence // Resolver certainty, surfaced in the confirm prompt
}

// Uncertain reports whether the confirm prompt should flag the match.
func (h HotelInfo) Uncertain() bool {
	return h.Confidence != ConfidenceHigh
}
