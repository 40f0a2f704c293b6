// Package rest exposes the planning engine over a JSON HTTP surface so
// any chat dispatcher can drive it.
package rest

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/app/notification"
	"github.com/tripquorum/tripquorum/internal/app/session"
	"github.com/tripquorum/tripquorum/internal/app/session/registry"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// Response is the envelope every planning endpoint returns. Message is
// resolved from the config message catalog by outcome code, so the
// dispatcher can relay it to the chat verbatim.
type Response struct {
	Success  bool       `json:"success"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Defaults []string   `json:"defaults,omitempty"` // Labels auto-selected because nobody voted
	State    *StateView `json:"state,omitempty"`
}

// PlannerHandler serves the participant-facing planning endpoints.
type PlannerHandler struct {
	engine *session.Engine
	config *config.Config
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(engine *session.Engine, cfg *config.Config) *PlannerHandler {
	return &PlannerHandler{
		engine: engine,
		config: cfg,
	}
}

type hotelRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Text          string `json:"text" binding:"required"`
}

type daysRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Days          int    `json:"days" binding:"required"`
}

type voteRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	OptionID      string `json:"option_id" binding:"required"`
}

type participantRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

// SubmitHotel handles hotel text submissions.
func (h *PlannerHandler) SubmitHotel(c *gin.Context) {
	var req hotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.SubmitHotel{ParticipantID: req.ParticipantID, Text: req.Text})
}

// ConfirmHotel accepts the resolved hotel.
func (h *PlannerHandler) ConfirmHotel(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.ConfirmHotel{ParticipantID: req.ParticipantID})
}

// RejectHotel discards the resolved hotel.
func (h *PlannerHandler) RejectHotel(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.RejectHotel{ParticipantID: req.ParticipantID})
}

// SetDays sets the trip length and opens activity voting.
func (h *PlannerHandler) SetDays(c *gin.Context) {
	var req daysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.SetDays{ParticipantID: req.ParticipantID, Days: req.Days})
}

// ToggleVote flips a participant's vote on an option.
func (h *PlannerHandler) ToggleVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.ToggleOption{ParticipantID: req.ParticipantID, OptionID: req.OptionID})
}

// MarkDone closes the current voting round.
func (h *PlannerHandler) MarkDone(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.MarkDone{ParticipantID: req.ParticipantID})
}

// Regenerate rebuilds the itinerary from the frozen selections.
func (h *PlannerHandler) Regenerate(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.Regenerate{ParticipantID: req.ParticipantID})
}

// Accept locks the reviewed plan as final.
func (h *PlannerHandler) Accept(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.Accept{ParticipantID: req.ParticipantID})
}

// Reset clears the chat's session back to hotel entry.
func (h *PlannerHandler) Reset(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.apply(c, session.Reset{ParticipantID: req.ParticipantID})
}

// GetState returns the current session state for one chat.
func (h *PlannerHandler) GetState(c *gin.Context) {
	view, err := h.engine.View(c.Param("chat"))
	if err != nil {
		writeViewError(c, h.config, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Code:    "success",
		Message: h.config.GetMessage("success"),
		State:   toStateView(view),
	})
}

// StreamEvents streams session events for one chat as Server-Sent Events.
// The first event replays the current state, so a reconnecting client
// needs no separate state fetch. Events that land between subscription
// and the snapshot may arrive with a sequence number below the initial
// event's; clients drop those.
func (h *PlannerHandler) StreamEvents(c *gin.Context) {
	chatID := c.Param("chat")
	notifier := h.engine.Notifier()

	// Subscribe before the snapshot so nothing lands in the gap. A slow
	// consumer drops events; the state endpoint recovers the truth.
	events := make(chan notification.Event, 16)
	subscriptionID := notifier.Subscribe(chatID, notification.StreamFunc(func(ev notification.Event) error {
		select {
		case events <- ev:
		default:
		}
		return nil
	}))
	defer notifier.Unsubscribe(subscriptionID)

	sequenceNo := notifier.NextSequenceNo()
	view, err := h.engine.View(chatID)
	if err != nil {
		writeViewError(c, h.config, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	initial := toEventView(notification.Event{
		ChatID:     chatID,
		Type:       notification.EventInitialState,
		Stage:      view.Stage,
		Generation: view.Generation,
		SequenceNo: sequenceNo,
		OccurredAt: time.Now(),
	})
	initial.State = toStateView(view)
	c.SSEvent(initial.Type, initial)
	c.Writer.Flush()

	zlog.Debug().Msgf("event stream opened: chat_id=%s subscription=%s", chatID, subscriptionID)
	for {
		select {
		case ev := <-events:
			c.SSEvent(ev.Type.String(), toEventView(ev))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			zlog.Debug().Msgf("event stream closed: chat_id=%s subscription=%s", chatID, subscriptionID)
			return
		}
	}
}

// apply routes an intent to the engine and writes the outcome envelope.
func (h *PlannerHandler) apply(c *gin.Context, intent session.Intent) {
	chatID := c.Param("chat")
	result, err := h.engine.Apply(c.Request.Context(), chatID, intent)
	if err != nil {
		zlog.Error().Msgf("intent failed: chat_id=%s intent=%T error=%v", chatID, intent, err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Code:    "internal_error",
			Message: h.config.GetMessage("default_error"),
		})
		return
	}
	writeResult(c, h.config, result)
}

func (h *PlannerHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Code:    "invalid_request",
		Message: err.Error(),
	})
}

// writeResult maps an intent outcome to an HTTP status and writes the
// envelope. Guard rejections are normal flow for a group chat, so they
// keep the regular envelope instead of a bare error body.
func writeResult(c *gin.Context, cfg *config.Config, result *session.Result) {
	c.JSON(statusFor(result), Response{
		Success:  result.Success,
		Code:     result.Code,
		Message:  cfg.GetMessage(result.Code),
		Defaults: result.Defaults,
		State:    toStateView(result.View),
	})
}

func statusFor(result *session.Result) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Code {
	case "invalid_days":
		return http.StatusBadRequest
	case "invalid_option", "hotel_not_found":
		return http.StatusNotFound
	case "wrong_stage", "already_completed", "stale_discarded":
		return http.StatusConflict
	case "provider_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeViewError writes the envelope for a failed state lookup.
func writeViewError(c *gin.Context, cfg *config.Config, err error) {
	if errors.Is(err, registry.ErrUnknownChat) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Code:    "unknown_chat",
			Message: cfg.GetMessage("unknown_chat"),
		})
		return
	}
	zlog.Error().Msgf("state lookup failed: error=%v", err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Code:    "internal_error",
		Message: cfg.GetMessage("default_error"),
	})
}
