// Package session provides the engine that applies participant intents
// to chat sessions.
package session

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/app/itinerary"
	"github.com/tripquorum/tripquorum/internal/app/notification"
	"github.com/tripquorum/tripquorum/internal/app/search"
	"github.com/tripquorum/tripquorum/internal/app/session/registry"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// HotelResolver identifies a hotel from free text.
type HotelResolver interface {
	ResolveHotel(ctx context.Context, rawText string) (planning.HotelInfo, error)
}

// OptionSearcher discovers votable options for a voting round.
type OptionSearcher interface {
	SearchOptions(ctx context.Context, query search.Query) ([]planning.Option, error)
}

// Result is the outcome of applying an intent. Guard rejections come back
// as Success=false with a code; only real failures surface as errors.
type Result struct {
	Success  bool
	Code     string
	Defaults []string // Labels auto-selected because nobody voted
	View     planning.View
}

// Engine applies participant intents to chat sessions and publishes
// notification events for every state change.
type Engine struct {
	config    *config.Config
	store     *registry.SessionStore
	resolver  HotelResolver
	searcher  OptionSearcher
	assembler *itinerary.Assembler
	notifier  *notification.Manager
}

// NewEngine creates a new session engine.
func NewEngine(cfg *config.Config, resolver HotelResolver, searcher OptionSearcher, narrator itinerary.Narrator) *Engine {
	return &Engine{
		config:   cfg,
		store:    registry.NewSessionStore(),
		resolver: resolver,
		searcher: searcher,
		assembler: itinerary.NewAssembler(narrator, itinerary.Config{
			ArrivalDay: cfg.Itinerary.ArrivalDayEnabled(),
		}),
		notifier: notification.NewManager(),
	}
}

// Notifier returns the notification manager.
func (e *Engine) Notifier() *notification.Manager {
	return e.notifier
}

// Store returns the session store.
func (e *Engine) Store() *registry.SessionStore {
	return e.store
}

// View returns the current state of a chat session without creating one.
func (e *Engine) View(chatID string) (planning.View, error) {
	sess, err := e.store.Get(chatID)
	if err != nil {
		return planning.View{}, err
	}
	return sess.Snapshot(), nil
}

// Apply routes an intent to the chat's session, creating the session on
// first contact.
func (e *Engine) Apply(ctx context.Context, chatID string, intent Intent) (*Result, error) {
	sess := e.store.GetOrCreate(chatID)

	switch in := intent.(type) {
	case SubmitHotel:
		return e.submitHotel(ctx, sess, in)
	case ConfirmHotel:
		return e.confirmHotel(sess, in)
	case RejectHotel:
		return e.rejectHotel(sess, in)
	case SetDays:
		return e.setDays(ctx, sess, in)
	case ToggleOption:
		return e.toggleOption(sess, in)
	case MarkDone:
		return e.markDone(ctx, sess, in)
	case Regenerate:
		return e.regenerate(ctx, sess, in)
	case Accept:
		return e.accept(sess, in)
	case Reset:
		return e.reset(sess, in)
	default:
		return nil, errors.Newf("unsupported intent type: %T", intent)
	}
}

func (e *Engine) submitHotel(ctx context.Context, sess *planning.Session, in SubmitHotel) (*Result, error) {
	gen, err := sess.BeginHotelResolve()
	if err != nil {
		return e.reject(sess, "submit_hotel", err)
	}

	info, err := e.resolver.ResolveHotel(ctx, in.Text)
	if err != nil {
		return e.reject(sess, "submit_hotel", err)
	}

	if err := sess.CommitHotel(gen, info); err != nil {
		return e.reject(sess, "submit_hotel", err)
	}

	zlog.Info().Msgf("hotel resolved: chat_id=%s participant=%s hotel=%s area=%s",
		sess.ChatID(), in.ParticipantID, info.Name, info.Area)
	e.publish(sess, notification.EventStageChanged)
	return e.ok(sess, "hotel_found"), nil
}

func (e *Engine) confirmHotel(sess *planning.Session, in ConfirmHotel) (*Result, error) {
	info, err := sess.ConfirmHotel()
	if err != nil {
		return e.reject(sess, "confirm_hotel", err)
	}

	zlog.Info().Msgf("hotel confirmed: chat_id=%s participant=%s hotel=%s",
		sess.ChatID(), in.ParticipantID, info.Name)
	e.publish(sess, notification.EventStageChanged)
	return e.ok(sess, "hotel_confirmed"), nil
}

func (e *Engine) rejectHotel(sess *planning.Session, in RejectHotel) (*Result, error) {
	if err := sess.RejectHotel(); err != nil {
		return e.reject(sess, "reject_hotel", err)
	}

	zlog.Info().Msgf("hotel rejected, awaiting new input: chat_id=%s participant=%s",
		sess.ChatID(), in.ParticipantID)
	e.publish(sess, notification.EventStageChanged)
	return e.ok(sess, "hotel_rejected"), nil
}

func (e *Engine) setDays(ctx context.Context, sess *planning.Session, in SetDays) (*Result, error) {
	ticket, err := sess.BeginDaysSelection(in.Days)
	if err != nil {
		return e.reject(sess, "set_days", err)
	}

	options, err := e.searchOptions(ctx, planning.CategoryActivity, ticket.Counts.Activities, ticket.Hotel)
	if err != nil {
		return e.reject(sess, "set_days", err)
	}

	if err := sess.CommitDays(ticket, options); err != nil {
		return e.reject(sess, "set_days", err)
	}

	zlog.Info().Msgf("activity voting opened: chat_id=%s days=%d options=%d",
		sess.ChatID(), in.Days, len(options))
	e.publish(sess, notification.EventStageChanged)
	return e.ok(sess, "activity_voting"), nil
}

func (e *Engine) toggleOption(sess *planning.Session, in ToggleOption) (*Result, error) {
	added, err := sess.Toggle(in.OptionID, in.ParticipantID)
	if err != nil {
		return e.reject(sess, "toggle_option", err)
	}

	code := "vote_added"
	if !added {
		code = "vote_removed"
	}
	zlog.Debug().Msgf("vote toggled: chat_id=%s participant=%s option=%s added=%t",
		sess.ChatID(), in.ParticipantID, in.OptionID, added)
	e.publish(sess, notification.EventVotesChanged)
	return e.ok(sess, code), nil
}

// markDone closes whichever voting round the session is in. The stage
// read is advisory only; the Begin call re-checks under the lock.
func (e *Engine) markDone(ctx context.Context, sess *planning.Session, in MarkDone) (*Result, error) {
	switch sess.Stage() {
	case planning.StageVotingActivities:
		return e.finishActivityVoting(ctx, sess, in)
	case planning.StageVotingFood:
		return e.generate(ctx, sess, in)
	case planning.StageComplete:
		return e.reject(sess, "mark_done", errors.Wrap(planning.ErrCompleted, "session is read-only"))
	default:
		return e.reject(sess, "mark_done", errors.Wrapf(planning.ErrWrongStage, "stage %s", sess.Stage()))
	}
}

func (e *Engine) finishActivityVoting(ctx context.Context, sess *planning.Session, in MarkDone) (*Result, error) {
	ticket, err := sess.BeginActivityFreeze()
	if err != nil {
		return e.reject(sess, "mark_done", err)
	}

	options, err := e.searchOptions(ctx, planning.CategoryEatery, ticket.EateryCount, ticket.Hotel)
	if err != nil {
		return e.reject(sess, "mark_done", err)
	}

	if err := sess.CommitFoodVoting(ticket, options); err != nil {
		return e.reject(sess, "mark_done", err)
	}

	if len(ticket.DefaultLabels) > 0 {
		zlog.Info().Msgf("no activity votes, defaults applied: chat_id=%s labels=%v",
			sess.ChatID(), ticket.DefaultLabels)
	}
	zlog.Info().Msgf("food voting opened: chat_id=%s frozen_activities=%d options=%d",
		sess.ChatID(), len(ticket.Frozen), len(options))
	e.publish(sess, notification.EventStageChanged)

	result := e.ok(sess, "food_voting")
	result.Defaults = ticket.DefaultLabels
	return result, nil
}

func (e *Engine) generate(ctx context.Context, sess *planning.Session, in MarkDone) (*Result, error) {
	ticket, err := sess.BeginGenerate()
	if err != nil {
		return e.reject(sess, "mark_done", err)
	}

	zlog.Info().Msgf("generating itinerary: chat_id=%s participant=%s days=%d",
		sess.ChatID(), in.ParticipantID, ticket.Days)
	e.publish(sess, notification.EventStageChanged)
	return e.assemble(ctx, sess, ticket)
}

func (e *Engine) regenerate(ctx context.Context, sess *planning.Session, in Regenerate) (*Result, error) {
	ticket, err := sess.BeginRegenerate()
	if err != nil {
		return e.reject(sess, "regenerate", err)
	}

	zlog.Info().Msgf("regenerating itinerary: chat_id=%s participant=%s",
		sess.ChatID(), in.ParticipantID)
	e.publish(sess, notification.EventStageChanged)
	return e.assemble(ctx, sess, ticket)
}

// assemble runs the itinerary build for a generate or regenerate ticket.
// Assembly failure rolls the session back to food voting so the group
// can retry; the old itinerary, if any, is kept for a later regenerate.
func (e *Engine) assemble(ctx context.Context, sess *planning.Session, ticket planning.AssembleTicket) (*Result, error) {
	it, err := e.assembler.Assemble(ctx, ticket.Hotel, ticket.Days, ticket.Activities, ticket.Eateries)
	if err != nil {
		zlog.Error().Msgf("itinerary assembly failed: chat_id=%s error=%v", sess.ChatID(), err)
		if rbErr := sess.RollbackGeneration(ticket.Generation); rbErr != nil {
			return e.reject(sess, "generate", rbErr)
		}
		e.publish(sess, notification.EventStageChanged)
		return e.reject(sess, "generate", err)
	}

	if err := sess.CommitItinerary(ticket.Generation, it); err != nil {
		return e.reject(sess, "generate", err)
	}

	code := "plan_ready"
	if it.Narrative == "" {
		code = "plan_ready_plain"
	}
	zlog.Info().Msgf("itinerary ready: chat_id=%s days=%d narrated=%t",
		sess.ChatID(), ticket.Days, it.Narrative != "")
	e.publish(sess, notification.EventPlanReady)

	result := e.ok(sess, code)
	result.Defaults = ticket.DefaultLabels
	return result, nil
}

func (e *Engine) accept(sess *planning.Session, in Accept) (*Result, error) {
	if err := sess.Accept(); err != nil {
		return e.reject(sess, "accept", err)
	}

	zlog.Info().Msgf("plan accepted: chat_id=%s participant=%s", sess.ChatID(), in.ParticipantID)
	e.publish(sess, notification.EventStageChanged)
	return e.ok(sess, "accepted"), nil
}

func (e *Engine) reset(sess *planning.Session, in Reset) (*Result, error) {
	sess.Reset()
	zlog.Info().Msgf("session reset: chat_id=%s participant=%s", sess.ChatID(), in.ParticipantID)
	e.publish(sess, notification.EventSessionReset)
	return e.ok(sess, "reset_done"), nil
}

// searchOptions builds the provider query from trip config plus the
// resolved hotel and runs it through the search chain.
func (e *Engine) searchOptions(ctx context.Context, category planning.Category, count int, hotel planning.HotelInfo) ([]planning.Option, error) {
	return e.searcher.SearchOptions(ctx, search.Query{
		Place:       e.config.Trip.Place,
		Category:    category,
		Preferences: e.config.Trip.Preferences,
		Count:       count,
		HotelArea:   hotel.Area,
		StartDate:   e.config.Trip.StartDate,
		EndDate:     e.config.Trip.EndDate,
	})
}

func (e *Engine) ok(sess *planning.Session, code string) *Result {
	return &Result{Success: true, Code: code, View: sess.Snapshot()}
}

// reject translates session guard errors into result codes. Errors that
// are not guard rejections propagate to the caller unchanged.
func (e *Engine) reject(sess *planning.Session, intent string, err error) (*Result, error) {
	code := rejectionCode(err)
	if code == "" {
		return nil, err
	}

	zlog.Warn().Msgf("intent rejected: chat_id=%s intent=%s code=%s", sess.ChatID(), intent, code)
	return &Result{Success: false, Code: code, View: sess.Snapshot()}, nil
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, planning.ErrCompleted):
		return "already_completed"
	case errors.Is(err, planning.ErrWrongStage):
		return "wrong_stage"
	case errors.Is(err, planning.ErrInvalidDays):
		return "invalid_days"
	case errors.Is(err, planning.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, planning.ErrStale):
		return "stale_discarded"
	case errors.Is(err, planning.ErrHotelNotFound):
		return "hotel_not_found"
	case errors.Is(err, planning.ErrProviderUnavailable):
		return "provider_unavailable"
	default:
		return ""
	}
}

// publish broadcasts a session event. Broadcast failures are logged,
// never propagated; notifications are best effort.
func (e *Engine) publish(sess *planning.Session, eventType notification.EventType) {
	if err := e.notifier.Broadcast(notification.Event{
		ChatID:     sess.ChatID(),
		Type:       eventType,
		Stage:      sess.Stage(),
		Generation: sess.Generation(),
	}); err != nil {
		zlog.Error().Msgf("failed to broadcast event: chat_id=%s type=%s error=%v",
			sess.ChatID(), eventType, err)
	}
}
