package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/app/session"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	engine *session.Engine
	config *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(engine *session.Engine, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		engine: engine,
		config: cfg,
	}
}

// ChatSummary is one row in the admin chat listing.
type ChatSummary struct {
	ChatID     string    `json:"chat_id"`
	Stage      string    `json:"stage"`
	Hotel      string    `json:"hotel,omitempty"`
	Days       int       `json:"days,omitempty"`
	Generation uint64    `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListChats lists all known chat sessions.
func (h *AdminHandler) ListChats(c *gin.Context) {
	sessions := h.engine.Store().All()
	summaries := make([]ChatSummary, len(sessions))
	for i, sess := range sessions {
		v := sess.Snapshot()
		summary := ChatSummary{
			ChatID:     v.ChatID,
			Stage:      v.Stage.String(),
			Days:       v.Days,
			Generation: v.Generation,
			CreatedAt:  v.CreatedAt,
			UpdatedAt:  v.UpdatedAt,
		}
		if v.Hotel != nil {
			summary.Hotel = v.Hotel.Name
		}
		summaries[i] = summary
	}

	c.JSON(http.StatusOK, gin.H{
		"chats": summaries,
		"count": len(summaries),
	})
}

// ResetChat clears one chat's session back to hotel entry. Unknown chats
// fail; a reset must never create a session as a side effect.
func (h *AdminHandler) ResetChat(c *gin.Context) {
	chatID := c.Param("chat")
	if _, err := h.engine.Store().Get(chatID); err != nil {
		writeViewError(c, h.config, err)
		return
	}

	result, err := h.engine.Apply(c.Request.Context(), chatID, session.Reset{ParticipantID: "admin"})
	if err != nil {
		zlog.Error().Msgf("admin reset failed: chat_id=%s error=%v", chatID, err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Code:    "internal_error",
			Message: h.config.GetMessage("default_error"),
		})
		return
	}

	zlog.Info().Msgf("admin reset: chat_id=%s", chatID)
	writeResult(c, h.config, result)
}
