package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mbti-quest/internal/achievements"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/questions"
	"mbti-quest/internal/scene"
	"mbti-quest/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the screen the quiz is on.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseQuestion Phase = "question"
	PhaseLoading  Phase = "loading"
	PhaseResults  Phase = "results"
)

// DefaultLoadingDelay is the pause between two questions.
const DefaultLoadingDelay = 2 * time.Second

// Timer is a scheduled callback that can be canceled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Tests replace it with a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler is backed by time.AfterFunc.
func RealScheduler() Scheduler { return realScheduler{} }

// Outcome is what a finished quiz hands to persistence.
type Outcome struct {
	SessionID   string           `json:"session_id"`
	Type        mbti.Type        `json:"personality_type"`
	Scores      mbti.Scores      `json:"scores"`
	Percentages mbti.Percentages `json:"percentages"`
	Answers     int              `json:"answers"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Duration is how long the attempt took.
func (o Outcome) Duration() time.Duration { return o.CompletedAt.Sub(o.StartedAt) }

// ResultSink receives finished quizzes. Errors are logged by the caller and
// never affect the quiz.
type ResultSink interface {
	Record(ctx context.Context, outcome Outcome) error
}

// Config tunes the controller.
type Config struct {
	LoadingDelay   time.Duration
	HandoffTimeout time.Duration
	Machine        scene.MachineConfig
}

// Controller sequences start, questions, loading pauses and results for one
// player. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	bank      *questions.Bank
	registry  *scene.Registry
	cfg       Config
	scheduler Scheduler
	sink      ResultSink
	logger    *zap.Logger
	now       func() time.Time
	onEvent   func(achievements.Event)

	phase      Phase
	index      int
	scores     mbti.Scores
	sessionID  string
	result     mbti.Type
	outcome    *Outcome
	machine    *scene.Machine
	timer      Timer
	generation uint64
	startedAt  time.Time

	handoffs sync.WaitGroup
}

// ControllerOption customizes a controller.
type ControllerOption func(*Controller)

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) { c.scheduler = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithEventHandler receives gameplay events, e.g. for achievements. The
// handler must not call back into the controller.
func WithEventHandler(fn func(achievements.Event)) ControllerOption {
	return func(c *Controller) { c.onEvent = fn }
}

// NewController creates a controller on the start screen. Every scene the
// bank references must exist in registry.
func NewController(bank *questions.Bank, registry *scene.Registry, sink ResultSink, cfg Config, logger *zap.Logger, opts ...ControllerOption) (*Controller, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, fmt.Errorf("%w: question bank is empty", models.ErrInvalidInput)
	}
	if err := registry.ValidateAgainst(bank.SceneIDs()); err != nil {
		return nil, err
	}
	if cfg.LoadingDelay <= 0 {
		cfg.LoadingDelay = DefaultLoadingDelay
	}
	if cfg.HandoffTimeout <= 0 {
		cfg.HandoffTimeout = 10 * time.Second
	}
	if cfg.Machine.Canvas.Width <= 0 {
		cfg.Machine.Canvas = registry.Canvas()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		bank:      bank,
		registry:  registry,
		cfg:       cfg,
		scheduler: RealScheduler(),
		sink:      sink,
		logger:    logger,
		now:       time.Now,
		phase:     PhaseStart,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) emit(ev achievements.Event) {
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}

// SessionID is the correlation id of the current attempt.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Scores returns a copy of the accumulated scores.
func (c *Controller) Scores() mbti.Scores {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scores
}

// Outcome returns the finished attempt, only available on the results screen.
func (c *Controller) Outcome() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseResults || c.outcome == nil {
		return Outcome{}, false
	}
	return *c.outcome, true
}

// Start leaves the start screen: scores are zeroed, a new session id is
// generated and the first question's scene is built.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseStart {
		return fmt.Errorf("%w: start from %s", models.ErrInvalidTransition, c.phase)
	}
	c.scores = mbti.Scores{}
	c.result = ""
	c.outcome = nil
	c.sessionID = uuid.NewString()
	c.startedAt = c.now()
	c.generation++
	quizStartedTotal.Inc()
	c.logger.Debug("Quiz started", zap.String("session_id", c.sessionID))
	c.emit(achievements.Event{Kind: achievements.EventQuizStarted})
	c.enterQuestion(0)
	return nil
}

// enterQuestion must be called with c.mu held.
func (c *Controller) enterQuestion(i int) {
	q, _ := c.bank.At(i)
	sc, _ := c.registry.Get(q.SceneID) // проверено в NewController
	c.index = i
	c.phase = PhaseQuestion
	c.machine = scene.NewMachine(sc, q, c.cfg.Machine)

	names := make([]string, 0, len(sc.Objects))
	for _, o := range sc.Objects {
		names = append(names, o.Name)
	}
	c.emit(achievements.Event{Kind: achievements.EventSceneEntered, SceneID: sc.ID, Objects: names})
}

// Tick forwards movement to the current scene. Outside a question it does nothing.
func (c *Controller) Tick(in scene.Input, dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseQuestion || c.machine == nil {
		return
	}
	c.machine.Tick(in, dt)
}

// Interact presses the interact key in the current scene.
func (c *Controller) Interact() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseQuestion || c.machine == nil {
		return fmt.Errorf("%w: interact during %s", models.ErrInvalidTransition, c.phase)
	}
	ev, opened := c.machine.Interact()
	if !opened {
		return nil
	}
	switch ev.Kind {
	case scene.EventTalkedToNPC:
		c.emit(achievements.Event{Kind: achievements.EventNPCTalk, SceneID: ev.SceneID, Name: ev.Name})
	case scene.EventExaminedObject:
		secret := false
		if sc, ok := c.registry.Get(ev.SceneID); ok {
			if obj, ok := sc.Object(ev.Name); ok && obj.Alpha != nil && *obj.Alpha == 0 {
				secret = true
			}
		}
		c.emit(achievements.Event{Kind: achievements.EventObjectExamined, SceneID: ev.SceneID, Name: ev.Name, Secret: secret})
	}
	return nil
}

// Close dismisses the open panel without answering.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseQuestion && c.machine != nil {
		c.machine.Close()
	}
}

// Choose answers the current question from the open dialogue.
func (c *Controller) Choose(key questions.OptionKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseQuestion || c.machine == nil {
		return fmt.Errorf("%w: choose during %s", models.ErrInvalidTransition, c.phase)
	}
	dim, err := c.machine.Choose(key)
	if err != nil {
		return err
	}
	c.answer(dim)
	return nil
}

// answer applies the scoring model and moves on. Must be called with c.mu held.
func (c *Controller) answer(dim mbti.Dimension) {
	c.scores = mbti.RecordAnswer(c.scores, dim)
	quizAnswersTotal.WithLabelValues(string(dim)).Inc()
	c.emit(achievements.Event{Kind: achievements.EventQuestionAnswered})
	c.machine = nil

	if c.index < c.bank.Len()-1 {
		c.phase = PhaseLoading
		gen := c.generation
		next := c.index + 1
		c.timer = c.scheduler.AfterFunc(c.cfg.LoadingDelay, func() { c.finishLoading(gen, next) })
		return
	}
	c.enterResults()
}

func (c *Controller) finishLoading(gen uint64, next int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// таймер от прошлой попытки
	if gen != c.generation || c.phase != PhaseLoading {
		return
	}
	c.timer = nil
	c.enterQuestion(next)
}

// enterResults must be called with c.mu held.
func (c *Controller) enterResults() {
	c.phase = PhaseResults
	c.result = mbti.ComputeType(c.scores)
	outcome := Outcome{
		SessionID:   c.sessionID,
		Type:        c.result,
		Scores:      c.scores,
		Percentages: mbti.ComputePercentages(c.scores),
		Answers:     c.scores.Total(),
		StartedAt:   c.startedAt,
		CompletedAt: c.now(),
	}
	c.outcome = &outcome
	quizCompletedTotal.WithLabelValues(string(outcome.Type)).Inc()
	quizDuration.Observe(outcome.Duration().Seconds())
	c.logger.Info("Quiz completed",
		zap.String("session_id", outcome.SessionID),
		zap.String("type", string(outcome.Type)),
		zap.Int("answers", outcome.Answers),
	)
	c.emit(achievements.Event{Kind: achievements.EventQuizCompleted})
	c.handoff(outcome)
}

// handoff passes the outcome to the sink without waiting for it.
func (c *Controller) handoff(outcome Outcome) {
	if c.sink == nil {
		return
	}
	c.handoffs.Add(1)
	go func() {
		defer c.handoffs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandoffTimeout)
		defer cancel()
		if err := c.sink.Record(ctx, outcome); err != nil {
			c.logger.Error("Failed to record quiz result",
				zap.String("session_id", outcome.SessionID),
				zap.Error(err),
			)
		}
	}()
}

// Restart returns to the start screen from any phase. A pending loading
// pause is canceled and its callback becomes a no-op.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimer()
	c.generation++
	c.phase = PhaseStart
	c.index = 0
	c.scores = mbti.Scores{}
	c.result = ""
	c.outcome = nil
	c.machine = nil
	c.sessionID = uuid.NewString()
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Shutdown cancels pending timers and waits for running result handoffs.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.cancelTimer()
	c.generation++
	c.mu.Unlock()
	c.handoffs.Wait()
}

// Snapshot is the serializable view of the controller.
type Snapshot struct {
	Phase     Phase               `json:"phase"`
	SessionID string              `json:"sessionId"`
	Index     int                 `json:"questionIndex"`
	Total     int                 `json:"totalQuestions"`
	Question  *questions.Question `json:"question,omitempty"`
	Scene     *scene.Snapshot     `json:"scene,omitempty"`
	Scores    mbti.Scores         `json:"scores"`
	Type      mbti.Type           `json:"type,omitempty"`
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Phase:     c.phase,
		SessionID: c.sessionID,
		Index:     c.index,
		Total:     c.bank.Len(),
		Scores:    c.scores,
		Type:      c.result,
	}
	if c.phase == PhaseQuestion || c.phase == PhaseLoading {
		if q, ok := c.bank.At(c.index); ok {
			snap.Question = &q
		}
	}
	if c.machine != nil {
		s := c.machine.Snapshot()
		snap.Scene = &s
	}
	return snap
}
