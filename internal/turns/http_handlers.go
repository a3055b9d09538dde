package turns

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prashantforsure/BeFriend/internal/ai"
	"github.com/prashantforsure/BeFriend/internal/auth"
	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/users"
	"github.com/prashantforsure/BeFriend/internal/voices"
	"github.com/prashantforsure/BeFriend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxAudioUploadBytes bounds transcription uploads (25 MB, the Whisper cap).
const maxAudioUploadBytes = 25 << 20

// Handler exposes the turn pipeline under /v1/turns.
type Handler struct {
	Pipeline *Pipeline
}

type chatBody struct {
	Message        string `json:"message"`
	PersonaID      string `json:"personaId"`
	ConversationID string `json:"conversationId"`
	Synthesize     bool   `json:"synthesize"`
	VoiceID        string `json:"voiceId"`
}

// Chat handles POST /v1/turns/chat: one text turn.
func (h Handler) Chat(c *gin.Context) {
	log := logger.FromGin(c)

	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Message == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	res, err := h.Pipeline.Turn(c.Request.Context(), TurnRequest{
		UserID:         userID,
		PersonaID:      body.PersonaID,
		ConversationID: body.ConversationID,
		Text:           body.Message,
		Synthesize:     body.Synthesize,
		VoiceID:        body.VoiceID,
	})
	if err != nil {
		h.writeTurnError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Transcribe handles POST /v1/turns/transcribe: multipart audio in, text out.
func (h Handler) Transcribe(c *gin.Context) {
	log := logger.FromGin(c)

	if _, err := auth.UserID(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioUploadBytes)
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer file.Close()

	tr := h.Pipeline.Transcribe(c.Request.Context(), file, header.Filename)
	if tr.Fault != nil {
		log.Warn("transcription failed", "provider", tr.Fault.Provider, "error", tr.Fault.Message)
		c.JSON(http.StatusBadGateway, gin.H{"error": tr.Fault})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": tr.Text})
}

type synthesizeBody struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// Synthesize handles POST /v1/turns/synthesize: text in, audio bytes out.
func (h Handler) Synthesize(c *gin.Context) {
	log := logger.FromGin(c)

	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body synthesizeBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Text == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	sr, err := h.Pipeline.Synthesize(c.Request.Context(), SynthesizeRequest{
		UserID:  userID,
		Text:    body.Text,
		VoiceID: body.VoiceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, voices.ErrNoVoiceAvailable):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no voice available"})
		case errors.Is(err, credits.ErrSubscriptionRequired):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "premium subscription required"})
		default:
			log.Error("synthesis setup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "synthesis failed"})
		}
		return
	}
	if sr.Fault != nil {
		log.Warn("synthesis failed", "provider", sr.Fault.Provider, "error", sr.Fault.Message)
		c.JSON(http.StatusBadGateway, gin.H{"error": sr.Fault})
		return
	}

	c.Header("Content-Type", sr.MIMEType)
	c.Data(http.StatusOK, sr.MIMEType, sr.Audio)
}

func (h Handler) writeTurnError(c *gin.Context, log *slog.Logger, err error) {
	var stage *StageError
	switch {
	case errors.Is(err, ErrEmptyInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "empty input"})
	case errors.Is(err, users.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, personas.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "persona not found"})
	case errors.Is(err, conversations.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.As(err, &stage):
		log.Warn("turn stage failed", "stage", stage.Stage, "error", stage.Err)
		var pf *ai.ProviderFault
		if errors.As(stage.Err, &pf) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"stage": stage.Stage, "error": pf})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"stage": stage.Stage, "error": "turn failed"})
	default:
		log.Error("turn failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "turn failed"})
	}
}
