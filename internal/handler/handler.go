package handler

import (
	"context"
	"net/http"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/results"
	"mbti-quest/internal/voice"
	"mbti-quest/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultTickInterval is the WebSocket simulation step.
const DefaultTickInterval = 50 * time.Millisecond

// InsightService produces the narrative for /api/gemini.
type InsightService interface {
	ConfigErr() error
	Generate(ctx context.Context, t mbti.Type, age int) ([]insight.Insight, error)
}

// QuizHandler serves the quiz, narrative and voice endpoints.
type QuizHandler struct {
	sessions     *flow.Manager
	insight      InsightService
	voice        *voice.Service
	presenter    *results.Presenter
	tickInterval time.Duration
	validate     *validator.Validate
	logger       *zap.Logger
}

// Deps are the collaborators of QuizHandler.
type Deps struct {
	Sessions     *flow.Manager
	Insight      InsightService
	Voice        *voice.Service
	Presenter    *results.Presenter
	TickInterval time.Duration
}

func NewQuizHandler(deps Deps, logger *zap.Logger) *QuizHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = DefaultTickInterval
	}
	return &QuizHandler{
		sessions:     deps.Sessions,
		insight:      deps.Insight,
		voice:        deps.Voice,
		presenter:    deps.Presenter,
		tickInterval: deps.TickInterval,
		validate:     validator.New(),
		logger:       logger.Named("handler"),
	}
}

// RegisterRoutes mounts every endpoint. rateLimit guards the endpoints that
// call paid upstream APIs; it may be nil.
func (h *QuizHandler) RegisterRoutes(router *gin.Engine, rateLimit gin.HandlerFunc) {
	limited := []gin.HandlerFunc{}
	if rateLimit != nil {
		limited = append(limited, rateLimit)
	}

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
	})

	router.OPTIONS("/api/gemini", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/gemini", append(limited, h.gemini)...)

	quiz := router.Group("/api/quiz/sessions")
	{
		quiz.POST("", h.createSession)
		quiz.GET("/:id", h.getSession)
		quiz.DELETE("/:id", h.deleteSession)
		quiz.POST("/:id/start", h.start)
		quiz.POST("/:id/tick", h.tick)
		quiz.POST("/:id/interact", h.interact)
		quiz.POST("/:id/choose", h.choose)
		quiz.POST("/:id/close", h.closePanel)
		quiz.POST("/:id/restart", h.restart)
		quiz.GET("/:id/results", h.results)
		quiz.POST("/:id/insight", h.requestInsight)
	}

	voiceGroup := router.Group("/api/voice")
	{
		voiceGroup.GET("/voices", h.voices)
		voiceGroup.POST("/speak", append(limited, h.speak)...)
	}

	router.GET("/ws/quiz/:id", h.serveWS)
}
