package calls

import (
	"errors"
	"net/http"

	"github.com/prashantforsure/BeFriend/internal/auth"
	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/telephony"
	"github.com/prashantforsure/BeFriend/internal/users"
	"github.com/prashantforsure/BeFriend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the call lifecycle over HTTP: the authenticated /v1/calls
// surface plus the public, signature-validated provider webhooks.
//
// No business logic here; everything delegates to the Manager.
type Handler struct {
	Manager  *Manager
	Personas personas.Repository

	// TwilioAuthToken signs webhook requests.
	TwilioAuthToken string

	// Webhook URLs as the provider sees them, reconstructed from config
	// because proxies rewrite Host and scheme.
	WhatsAppWebhookURL string
	StatusCallbackURL  string
	VoiceURL           string
}

type initiateCallBody struct {
	PhoneNumber    string `json:"phoneNumber"`
	PersonaID      string `json:"personaId"`
	ConversationID string `json:"conversationId"`
}

// InitiateCall handles POST /v1/calls for an authenticated user.
func (h Handler) InitiateCall(c *gin.Context) {
	log := logger.FromGin(c)

	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body initiateCallBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	call, err := h.Manager.InitiateCall(c.Request.Context(), InitiateCallRequest{
		UserID:         userID,
		PersonaID:      body.PersonaID,
		ConversationID: body.ConversationID,
	})
	if err != nil {
		status, msg := initiateErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Error("initiate call failed", "user_id", userID, "error", err)
		} else {
			log.Warn("initiate call rejected", "user_id", userID, "reason", msg)
		}
		c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "call initiated",
		"sid":     call.ProviderCallID,
		"status":  call.Status,
		"call_id": call.ID,
	})
}

func initiateErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, personas.ErrNotFound), errors.Is(err, ErrPersonaInactive):
		return http.StatusNotFound, "persona not available"
	case errors.Is(err, conversations.ErrNotFound):
		return http.StatusNotFound, "conversation not found"
	case errors.Is(err, credits.ErrInsufficientCredits):
		return http.StatusForbidden, "no call credits remaining"
	case errors.Is(err, credits.ErrSubscriptionRequired):
		return http.StatusForbidden, "premium subscription required"
	case errors.Is(err, ErrTooManyCalls):
		return http.StatusForbidden, "a call is already in progress"
	}
	return http.StatusInternalServerError, "call could not be placed"
}

// GetCall handles GET /v1/calls/:id.
func (h Handler) GetCall(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	call, err := h.Manager.Get(c.Request.Context(), c.Param("id"), userID)
	if errors.Is(err, ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("get call failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, call)
}

// EndCall handles DELETE /v1/calls/:id, requesting a provider-side hangup.
func (h Handler) EndCall(c *gin.Context) {
	log := logger.FromGin(c)

	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	err = h.Manager.EndCall(c.Request.Context(), c.Param("id"), userID)
	if errors.Is(err, ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		log.Error("end call failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "hangup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "hangup requested"})
}

// WhatsAppWebhook handles POST /webhooks/whatsapp. A body matching the
// trigger phrase places a call for the sender; everything else is an ack.
func (h Handler) WhatsAppWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseWhatsAppInbound(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if !telephony.ValidateSignature(h.TwilioAuthToken, h.WhatsAppWebhookURL, c.Request) {
		log.Warn("whatsapp webhook signature rejected", "from", form.From)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	call, triggered, err := h.Manager.HandleTrigger(c.Request.Context(), form.From, form.Body, c.Query("personaId"))
	if !triggered {
		c.JSON(http.StatusOK, gin.H{"triggered": false})
		return
	}
	if err != nil {
		// Webhook responses stay 200: the provider should not retry a
		// business rejection like exhausted credits.
		_, msg := initiateErrorStatus(err)
		log.Warn("trigger call not placed", "from", form.From, "reason", msg, "error", err)
		c.JSON(http.StatusOK, gin.H{"triggered": true, "placed": false, "message": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"triggered": true, "placed": true, "call_id": call.ID})
}

// StatusCallback handles POST /webhooks/twilio/status. Unknown calls and
// statuses are acked so the provider stops retrying.
func (h Handler) StatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseTwilioStatusCallback(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if !telephony.ValidateSignature(h.TwilioAuthToken, h.StatusCallbackURL, c.Request) {
		log.Warn("status callback signature rejected", "provider_call_id", form.CallSid)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.Manager.OnStatusCallback(c.Request.Context(), form); err != nil {
		log.Error("status callback processing failed",
			"provider_call_id", form.CallSid, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.String(http.StatusOK, "received")
}

// VoiceWebhook handles POST /webhooks/twilio/voice, answering the connected
// call with a persona greeting. Call context arrives as query parameters set
// at call creation.
func (h Handler) VoiceWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	// Twilio signs the URL including our context query parameters.
	fullURL := h.VoiceURL
	if raw := c.Request.URL.RawQuery; raw != "" {
		fullURL += "?" + raw
	}
	if !telephony.ValidateSignature(h.TwilioAuthToken, fullURL, c.Request) {
		log.Warn("voice webhook signature rejected")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	greeting := "Hello! It's good to hear from you."
	if personaID := c.Query("personaId"); personaID != "" && h.Personas != nil {
		if p, err := h.Personas.GetByID(c.Request.Context(), personaID); err == nil {
			greeting = "Hello! This is " + p.Name + ". It's good to hear from you."
		}
	}

	var v telephony.VoiceResponse
	twiml, err := v.Say(greeting).Pause(1).Render()
	if err != nil {
		log.Error("twiml render failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
