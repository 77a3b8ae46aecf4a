package handler

import (
	"net/http"

	"mbti-quest/internal/insight"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gemini is the stateless narrative proxy: {personality_type, age} in,
// [{Personality_info, age_info, careers}] out.
func (h *QuizHandler) gemini(c *gin.Context) {
	// ключ проверяется до разбора тела
	if err := h.insight.ConfigErr(); err != nil {
		handleServiceError(c, err)
		return
	}

	var req geminiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data: "+err.Error())
		return
	}
	code, err := insight.ValidateRequest(req.PersonalityType, req.Age)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items, err := h.insight.Generate(c.Request.Context(), code, req.Age)
	if err != nil {
		h.logger.Warn("Narrative request failed", zap.String("type", string(code)), zap.Int("age", req.Age), zap.Error(err))
		handleServiceError(c, err)
		return
	}
	insightRequestsTotal.WithLabelValues(string(code)).Inc()
	c.JSON(http.StatusOK, items)
}
