package rest

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tripquorum/tripquorum/internal/app/session"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

// NewRouter builds the HTTP surface: participant routes under /api/v1
// behind the bearer token, operator routes under /api/v1/admin behind the
// admin token, and an unauthenticated health check.
func NewRouter(cfg *config.Config, engine *session.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", AdminTokenHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"chats":       engine.Store().Count(),
			"subscribers": engine.Notifier().SubscriberCount(),
		})
	})

	planner := NewPlannerHandler(engine, cfg)
	admin := NewAdminHandler(engine, cfg)

	api := router.Group("/api/v1")
	api.Use(BearerAuth(cfg.Server.APIToken))
	{
		chats := api.Group("/chats/:chat")
		chats.POST("/hotel", planner.SubmitHotel)
		chats.POST("/hotel/confirm", planner.ConfirmHotel)
		chats.POST("/hotel/reject", planner.RejectHotel)
		chats.POST("/days", planner.SetDays)
		chats.POST("/votes", planner.ToggleVote)
		chats.POST("/done", planner.MarkDone)
		chats.POST("/regenerate", planner.Regenerate)
		chats.POST("/accept", planner.Accept)
		chats.POST("/reset", planner.Reset)
		chats.GET("", planner.GetState)
		chats.GET("/events", planner.StreamEvents)
	}

	adminGroup := router.Group("/api/v1/admin")
	adminGroup.Use(AdminAuth(cfg.Admin.Token))
	{
		adminGroup.GET("/chats", admin.ListChats)
		adminGroup.POST("/chats/:chat/reset", admin.ResetChat)
	}

	return router
}
