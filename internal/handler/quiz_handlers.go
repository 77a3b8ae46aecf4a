package handler

import (
	"fmt"
	"net/http"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/questions"
	"mbti-quest/shared/models"

	"github.com/gin-gonic/gin"
)

func (h *QuizHandler) session(c *gin.Context) (*flow.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *QuizHandler) createSession(c *gin.Context) {
	sess, err := h.sessions.Create()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.State())
}

func (h *QuizHandler) getSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *QuizHandler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// withSession runs action and replies with the new state.
func (h *QuizHandler) withSession(action func(*flow.Session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := h.session(c)
		if !ok {
			return
		}
		if err := action(sess); err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.State())
	}
}

func (h *QuizHandler) start(c *gin.Context) {
	h.withSession(func(s *flow.Session) error { return s.Start() })(c)
}

func (h *QuizHandler) interact(c *gin.Context) {
	h.withSession(func(s *flow.Session) error { return s.Interact() })(c)
}

func (h *QuizHandler) closePanel(c *gin.Context) {
	h.withSession(func(s *flow.Session) error {
		s.Close()
		return nil
	})(c)
}

func (h *QuizHandler) restart(c *gin.Context) {
	h.withSession(func(s *flow.Session) error {
		s.Restart()
		return nil
	})(c)
}

func (h *QuizHandler) tick(c *gin.Context) {
	var req tickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data: "+err.Error())
		return
	}
	h.withSession(func(s *flow.Session) error {
		s.Tick(req.Input, time.Duration(req.DtMs)*time.Millisecond)
		return nil
	})(c)
}

func (h *QuizHandler) choose(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data: "+err.Error())
		return
	}
	key, err := questions.ParseOptionKey(req.Option)
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	h.withSession(func(s *flow.Session) error { return s.Choose(key) })(c)
}

func (h *QuizHandler) requestInsight(c *gin.Context) {
	var req insightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data: "+err.Error())
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.RequestInsight(req.Age); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, sess.Narrative())
}

func (h *QuizHandler) results(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	outcome, done := sess.Controller().Outcome()
	if !done {
		handleServiceError(c, fmt.Errorf("%w: the quiz is not finished", models.ErrInvalidTransition))
		return
	}
	state := sess.State()
	c.JSON(http.StatusOK, h.presenter.Present(outcome, state.Narrative, state.Achievements))
}
