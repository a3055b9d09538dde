package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prashantforsure/BeFriend/internal/calls"
	"github.com/prashantforsure/BeFriend/internal/config"
	"github.com/prashantforsure/BeFriend/internal/turns"
	"github.com/prashantforsure/BeFriend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg         config.Config
	db          *sql.DB
	authMW      gin.HandlerFunc
	callHandler calls.Handler
	turnHandler turns.Handler
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Synthesized audio referenced by message audio_url values.
	r.Static("/audio", deps.cfg.App.AudioDir)

	// Provider webhooks (public, signature-validated in the handlers).
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/whatsapp", deps.callHandler.WhatsAppWebhook)
		webhooks.POST("/twilio/status", deps.callHandler.StatusCallback)
		webhooks.POST("/twilio/voice", deps.callHandler.VoiceWebhook)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(deps.authMW)
	{
		callGroup := v1.Group("/calls")
		{
			callGroup.POST("", deps.callHandler.InitiateCall)
			callGroup.GET("/:id", deps.callHandler.GetCall)
			callGroup.DELETE("/:id", deps.callHandler.EndCall)
		}

		turnGroup := v1.Group("/turns")
		{
			turnGroup.POST("/chat", deps.turnHandler.Chat)
			turnGroup.POST("/transcribe", deps.turnHandler.Transcribe)
			turnGroup.POST("/synthesize", deps.turnHandler.Synthesize)
		}
	}
}
