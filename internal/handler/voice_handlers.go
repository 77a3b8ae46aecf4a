package handler

import (
	"net/http"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/voice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *QuizHandler) voices(c *gin.Context) {
	c.JSON(http.StatusOK, voicesResponse{
		Voices:     voice.Voices(),
		Default:    h.voice.DefaultVoice(),
		Configured: h.voice.Configured(),
	})
}

// speak returns an audio clip. The cooldown is per session when one is
// given and per client IP otherwise.
func (h *QuizHandler) speak(c *gin.Context) {
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data: "+err.Error())
		return
	}

	key := "ip:" + c.ClientIP()
	var sess *flow.Session
	if req.SessionID != "" {
		s, err := h.sessions.Get(req.SessionID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		sess = s
		key = "session:" + s.Handle()
	}

	audio, err := h.voice.Speak(c.Request.Context(), key, req.Text, req.VoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if sess != nil {
		for _, u := range sess.TrackVoiceUse() {
			h.logger.Debug("Achievement unlocked by voice", zap.String("achievement", string(u.ID)))
		}
	}
	voiceClipsTotal.Inc()

	contentType := audio.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Data(http.StatusOK, contentType, audio.Data)
}
