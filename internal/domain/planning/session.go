package planning

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// SystemParticipantID is the reserved voter id used when default
// selections are applied to a pool nobody voted in.
const SystemParticipantID = "system"

// SearchTicket snapshots the inputs for the option search that follows a
// day-count selection. The day count is not committed yet; it only lands
// on the session if CommitDays succeeds under the same generation.
type SearchTicket struct {
	Generation uint64
	Days       int
	Counts     OptionCounts
	Hotel      HotelInfo
}

// FreezeTicket snapshots a frozen activity selection plus everything the
// follow-up food search needs. Toggles landing after the freeze still
// mutate the pool but never change the frozen slice.
type FreezeTicket struct {
	Generation    uint64
	Frozen        []Option
	DefaultLabels []string
	EateryCount   int
	Hotel         HotelInfo
}

// AssembleTicket snapshots the frozen selections handed to the itinerary
// assembler while the session sits in the generating stage.
type AssembleTicket struct {
	Generation    uint64
	Hotel         HotelInfo
	Days          int
	Activities    []Option
	Eateries      []Option
	DefaultLabels []string
}

// Tally-bearing snapshot of a session for rendering. All slices are
// copies; mutating them never touches the session.
type View struct {
	ChatID           string
	Stage            Stage
	Hotel            *HotelInfo
	Days             int
	Options          []Tally
	FrozenActivities []Option
	FrozenFood       []Option
	Itinerary        *Itinerary
	Generation       uint64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session is the per-chat planning aggregate. Every exported operation
// takes the session's own mutex, so each guard-and-mutate sequence is
// atomic; collaborator I/O happens between a Begin call that snapshots
// inputs and bumps the generation counter, and a Commit call that applies
// the result only while that generation is still current. A reset or a
// competing Begin in between makes the commit fail with ErrStale instead
// of clobbering newer state.
type Session struct {
	mu sync.Mutex

	chatID string
	stage  Stage

	hotel *HotelInfo
	days  int

	activityPool *VotePool
	foodPool     *VotePool

	frozenActivities []Option
	frozenFood       []Option

	itinerary *Itinerary

	generation uint64

	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates a fresh session at the hotel-entry stage.
func NewSession(chatID string) *Session {
	now := time.Now()
	return &Session{
		chatID:    chatID,
		stage:     StageAwaitingHotel,
		createdAt: now,
		updatedAt: now,
	}
}

// ChatID returns the owning chat id.
func (s *Session) ChatID() string {
	return s.chatID
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Reset clears the session back to the hotel-entry stage in place,
// discarding hotel, day count, pools, selections and itinerary. The
// generation bump makes any in-flight commit fail stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stage = StageAwaitingHotel
	s.hotel = nil
	s.days = 0
	s.activityPool = nil
	s.foodPool = nil
	s.frozenActivities = nil
	s.frozenFood = nil
	s.itinerary = nil
	s.generation++
	s.updatedAt = time.Now()
}

// BeginHotelResolve guards the hotel-entry stage and reserves a
// generation for the resolver call. The stage does not change; a failed
// resolve simply leaves the session waiting for another attempt.
func (s *Session) BeginHotelResolve() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageAwaitingHotel); err != nil {
		return 0, err
	}
	s.generation++
	return s.generation, nil
}

// CommitHotel stores a resolved hotel and advances to confirmation.
// Fails ErrStale if the session moved on since BeginHotelResolve.
func (s *Session) CommitHotel(gen uint64, info HotelInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return errors.Wrapf(ErrStale, "generation %d, session at %d", gen, s.generation)
	}
	if s.stage != StageAwaitingHotel {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	s.hotel = &info
	s.stage = StageConfirmingHotel
	s.updatedAt = time.Now()
	return nil
}

// ConfirmHotel accepts the resolved hotel and advances to day selection.
func (s *Session) ConfirmHotel() (HotelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageConfirmingHotel); err != nil {
		return HotelInfo{}, err
	}
	s.stage = StageAwaitingDays
	s.updatedAt = time.Now()
	return *s.hotel, nil
}

// RejectHotel discards the resolved hotel and returns to hotel entry.
// This is one of the two permitted backward transitions (reset is the
// other).
func (s *Session) RejectHotel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageConfirmingHotel); err != nil {
		return err
	}
	s.hotel = nil
	s.stage = StageAwaitingHotel
	s.updatedAt = time.Now()
	return nil
}

// BeginDaysSelection validates the day count and snapshots the inputs for
// the activity search. The day count is not stored: if the search fails,
// the session still has no day count and the choice can be re-issued.
func (s *Session) BeginDaysSelection(days int) (SearchTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageAwaitingDays); err != nil {
		return SearchTicket{}, err
	}
	if days < MinTripDays || days > MaxTripDays {
		return SearchTicket{}, errors.Wrapf(ErrInvalidDays, "%d days", days)
	}
	counts, err := Recommend(days)
	if err != nil {
		return SearchTicket{}, err
	}
	s.generation++
	return SearchTicket{
		Generation: s.generation,
		Days:       days,
		Counts:     counts,
		Hotel:      *s.hotel,
	}, nil
}

// CommitDays stores the day count, installs the activity vote pool and
// advances to activity voting in one step. An empty option slice never
// commits: a voting stage always owns a non-empty pool.
func (s *Session) CommitDays(t SearchTicket, options []Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != t.Generation {
		return errors.Wrapf(ErrStale, "generation %d, session at %d", t.Generation, s.generation)
	}
	if s.stage != StageAwaitingDays {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	if len(options) == 0 {
		return errors.Wrap(ErrProviderUnavailable, "no activity options to vote on")
	}
	s.days = t.Days
	s.activityPool = NewVotePool(options)
	s.stage = StageVotingActivities
	s.updatedAt = time.Now()
	return nil
}

// Toggle flips a participant's vote on an option in the pool of the
// current voting stage. Toggling the same pair twice restores the prior
// vote set; unknown option ids fail ErrInvalidOption without mutation.
func (s *Session) Toggle(optionID, participantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.currentPoolLocked()
	if err != nil {
		return false, err
	}
	voted, err := pool.Toggle(optionID, participantID)
	if err != nil {
		return false, err
	}
	s.updatedAt = time.Now()
	return voted, nil
}

// BeginActivityFreeze closes activity voting: it applies day-scaled
// default selections when nobody voted, snapshots the ranked selection
// and reserves a generation for the food search. The stage stays at
// activity voting until CommitFoodVoting lands, so late toggles keep
// working (they affect the pool, never the frozen slice).
func (s *Session) BeginActivityFreeze() (FreezeTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageVotingActivities); err != nil {
		return FreezeTicket{}, err
	}
	defaults, err := s.applyDefaultsLocked(s.activityPool, CategoryActivity)
	if err != nil {
		return FreezeTicket{}, err
	}
	counts, err := Recommend(s.days)
	if err != nil {
		return FreezeTicket{}, err
	}
	s.generation++
	return FreezeTicket{
		Generation:    s.generation,
		Frozen:        s.activityPool.RankedTop(s.activityPool.VotedCount()),
		DefaultLabels: defaults,
		EateryCount:   counts.Eateries,
		Hotel:         *s.hotel,
	}, nil
}

// CommitFoodVoting stores the frozen activity selection, installs the
// food vote pool and advances to food voting.
func (s *Session) CommitFoodVoting(t FreezeTicket, options []Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != t.Generation {
		return errors.Wrapf(ErrStale, "generation %d, session at %d", t.Generation, s.generation)
	}
	if s.stage != StageVotingActivities {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	if len(options) == 0 {
		return errors.Wrap(ErrProviderUnavailable, "no food options to vote on")
	}
	s.frozenActivities = t.Frozen
	s.foodPool = NewVotePool(options)
	s.stage = StageVotingFood
	s.updatedAt = time.Now()
	return nil
}

// BeginGenerate closes food voting and enters the generating stage in one
// atomic step: defaults applied if needed, food selection frozen, inputs
// snapshotted for the assembler. Participants see the generating stage
// while the narration call is in flight.
func (s *Session) BeginGenerate() (AssembleTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageVotingFood); err != nil {
		return AssembleTicket{}, err
	}
	defaults, err := s.applyDefaultsLocked(s.foodPool, CategoryEatery)
	if err != nil {
		return AssembleTicket{}, err
	}
	s.frozenFood = s.foodPool.RankedTop(s.foodPool.VotedCount())
	s.stage = StageGenerating
	s.generation++
	s.updatedAt = time.Now()
	return AssembleTicket{
		Generation:    s.generation,
		Hotel:         *s.hotel,
		Days:          s.days,
		Activities:    s.frozenActivities,
		Eateries:      s.frozenFood,
		DefaultLabels: defaults,
	}, nil
}

// BeginRegenerate re-enters the generating stage from review, reusing the
// frozen selections under a fresh generation. A narration response still
// in flight from the previous attempt loses the commit race.
func (s *Session) BeginRegenerate() (AssembleTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageReview); err != nil {
		return AssembleTicket{}, err
	}
	s.stage = StageGenerating
	s.generation++
	s.updatedAt = time.Now()
	return AssembleTicket{
		Generation: s.generation,
		Hotel:      *s.hotel,
		Days:       s.days,
		Activities: s.frozenActivities,
		Eateries:   s.frozenFood,
	}, nil
}

// CommitItinerary stores the assembled itinerary and advances to review.
func (s *Session) CommitItinerary(gen uint64, it Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return errors.Wrapf(ErrStale, "generation %d, session at %d", gen, s.generation)
	}
	if s.stage != StageGenerating {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	s.itinerary = &it
	s.stage = StageReview
	s.updatedAt = time.Now()
	return nil
}

// RollbackGeneration returns a failed generation to food voting,
// discarding the frozen food selection so the next done re-freezes from
// the untouched pool. A previously reviewed itinerary stays in place.
func (s *Session) RollbackGeneration(gen uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return errors.Wrapf(ErrStale, "generation %d, session at %d", gen, s.generation)
	}
	if s.stage != StageGenerating {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	s.frozenFood = nil
	s.stage = StageVotingFood
	s.updatedAt = time.Now()
	return nil
}

// Accept marks the reviewed plan as final. The session becomes read-only;
// only a reset leaves the completed stage.
func (s *Session) Accept() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(StageReview); err != nil {
		return err
	}
	s.stage = StageComplete
	s.updatedAt = time.Now()
	return nil
}

// Snapshot returns a render-ready copy of the session state. Options
// carries live tallies for the pool of the current voting stage and is
// nil elsewhere.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ChatID:     s.chatID,
		Stage:      s.stage,
		Days:       s.days,
		Generation: s.generation,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if s.hotel != nil {
		hotel := *s.hotel
		v.Hotel = &hotel
	}
	switch s.stage {
	case StageVotingActivities:
		v.Options = s.activityPool.Tallies()
	case StageVotingFood:
		v.Options = s.foodPool.Tallies()
	}
	if len(s.frozenActivities) > 0 {
		v.FrozenActivities = append([]Option(nil), s.frozenActivities...)
	}
	if len(s.frozenFood) > 0 {
		v.FrozenFood = append([]Option(nil), s.frozenFood...)
	}
	if s.itinerary != nil {
		it := *s.itinerary
		v.Itinerary = &it
	}
	return v
}

// guardLocked rejects operations the current stage does not allow.
// Must be called with s.mu held.
func (s *Session) guardLocked(want Stage) error {
	if s.stage == StageComplete {
		return errors.Wrap(ErrCompleted, "session is read-only")
	}
	if s.stage != want {
		return errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
	return nil
}

// applyDefaultsLocked casts system votes for the first day-scaled N
// options when a pool closes with no votes at all, and returns the
// labels it picked. Must be called with s.mu held.
func (s *Session) applyDefaultsLocked(pool *VotePool, category Category) ([]string, error) {
	if pool.VotedCount() > 0 {
		return nil, nil
	}
	count, err := DefaultSelections(s.days, category)
	if err != nil {
		return nil, err
	}
	options := pool.Options()
	if count > len(options) {
		count = len(options)
	}
	labels := make([]string, 0, count)
	for _, opt := range options[:count] {
		if _, err := pool.Toggle(opt.ID, SystemParticipantID); err != nil {
			return nil, err
		}
		labels = append(labels, opt.Label)
	}
	return labels, nil
}

// currentPoolLocked returns the vote pool owned by the current voting
// stage. Must be called with s.mu held.
func (s *Session) currentPoolLocked() (*VotePool, error) {
	switch s.stage {
	case StageVotingActivities:
		return s.activityPool, nil
	case StageVotingFood:
		return s.foodPool, nil
	case StageComplete:
		return nil, errors.Wrap(ErrCompleted, "session is read-only")
	default:
		return nil, errors.Wrapf(ErrWrongStage, "stage %s", s.stage)
	}
}
