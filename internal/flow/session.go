package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mbti-quest/internal/achievements"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/questions"
	"mbti-quest/internal/scene"
	"mbti-quest/shared/models"

	"go.uber.org/zap"
)

// MaxTickStep caps a single movement step so a stalled client cannot teleport.
const MaxTickStep = 250 * time.Millisecond

// DefaultNarrativeTimeout bounds one narrative request.
const DefaultNarrativeTimeout = 60 * time.Second

// NarrativeSource produces the age-aware narrative for a personality type.
type NarrativeSource interface {
	Generate(ctx context.Context, t mbti.Type, age int) ([]insight.Insight, error)
}

// NarrativeStatus is the lifecycle of the results narrative.
type NarrativeStatus string

const (
	NarrativeNone        NarrativeStatus = "none"
	NarrativePending     NarrativeStatus = "pending"
	NarrativeReady       NarrativeStatus = "ready"
	NarrativeUnavailable NarrativeStatus = "unavailable"
)

// NarrativeView is what the results screen shows in the narrative slot.
type NarrativeView struct {
	Status NarrativeStatus   `json:"status"`
	Age    int               `json:"age,omitempty"`
	Items  []insight.Insight `json:"items,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Session is one player's quiz together with everything that lives next to
// it: achievements, the narrative request and change subscribers.
type Session struct {
	handle    string
	ctrl      *Controller
	tracker   *achievements.Tracker
	narrative NarrativeSource
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastSeen  time.Time
	view      NarrativeView
	requestID uint64
	cancel    context.CancelFunc
	closed    bool
	pending   sync.WaitGroup

	subMu       sync.Mutex
	subscribers map[uint64]chan struct{}
	nextSub     uint64
}

// SessionDeps are shared by every session a manager creates.
type SessionDeps struct {
	Bank             *questions.Bank
	Registry         *scene.Registry
	Sink             ResultSink
	Narrative        NarrativeSource
	Controller       Config
	NarrativeTimeout time.Duration
	Scheduler        Scheduler
	Clock            func() time.Time
}

// notifyingScheduler tells subscribers when a scheduled step ran.
type notifyingScheduler struct {
	inner  Scheduler
	notify func()
}

func (s notifyingScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.inner.AfterFunc(d, func() {
		f()
		s.notify()
	})
}

// NewSession builds a session on the start screen.
func NewSession(handle string, deps SessionDeps, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	sched := deps.Scheduler
	if sched == nil {
		sched = RealScheduler()
	}
	timeout := deps.NarrativeTimeout
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}

	s := &Session{
		handle:      handle,
		tracker:     achievements.NewTracker(now),
		narrative:   deps.Narrative,
		timeout:     timeout,
		logger:      logger.With(zap.String("handle", handle)),
		now:         now,
		lastSeen:    now(),
		view:        NarrativeView{Status: NarrativeNone},
		subscribers: make(map[uint64]chan struct{}),
	}
	ctrl, err := NewController(deps.Bank, deps.Registry, deps.Sink, deps.Controller, s.logger,
		WithScheduler(notifyingScheduler{inner: sched, notify: s.notify}),
		WithClock(now),
		WithEventHandler(s.onEvent),
	)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

// Handle is the stable key of the session. It does not change on restart,
// unlike the quiz session id.
func (s *Session) Handle() string { return s.handle }

// Controller exposes the underlying quiz flow.
func (s *Session) Controller() *Controller { return s.ctrl }

func (s *Session) onEvent(ev achievements.Event) {
	for _, u := range s.tracker.Track(ev) {
		s.logger.Debug("Achievement unlocked", zap.String("achievement", string(u.ID)))
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// LastSeen is the time of the last player action.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Start leaves the start screen.
func (s *Session) Start() error {
	s.touch()
	if err := s.ctrl.Start(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Tick advances movement by dt, capped at MaxTickStep.
func (s *Session) Tick(in scene.Input, dt time.Duration) {
	s.touch()
	if dt > MaxTickStep {
		dt = MaxTickStep
	}
	if dt <= 0 {
		return
	}
	s.ctrl.Tick(in, dt)
}

// Interact presses the interact key.
func (s *Session) Interact() error {
	s.touch()
	if err := s.ctrl.Interact(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Close dismisses the open panel.
func (s *Session) Close() {
	s.touch()
	s.ctrl.Close()
	s.notify()
}

// Choose answers the current question.
func (s *Session) Choose(key questions.OptionKey) error {
	s.touch()
	if err := s.ctrl.Choose(key); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Restart returns to the start screen and drops any narrative in flight.
func (s *Session) Restart() {
	s.touch()
	s.ctrl.Restart()
	s.mu.Lock()
	s.resetNarrativeLocked()
	s.mu.Unlock()
	s.notify()
}

// resetNarrativeLocked must be called with s.mu held.
func (s *Session) resetNarrativeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.requestID++
	s.view = NarrativeView{Status: NarrativeNone}
}

// TrackVoiceUse counts a text-to-speech playback for achievements.
func (s *Session) TrackVoiceUse() []achievements.Unlocked {
	s.touch()
	unlocked := s.tracker.Track(achievements.Event{Kind: achievements.EventVoiceUsed})
	if len(unlocked) > 0 {
		s.notify()
	}
	return unlocked
}

// RequestInsight asks the narrative source for the finished type at the
// given age. A newer request, a restart or a new quiz makes the reply stale;
// stale replies are dropped.
func (s *Session) RequestInsight(age int) error {
	s.touch()
	if err := insight.ValidateAge(age); err != nil {
		return err
	}
	outcome, ok := s.ctrl.Outcome()
	if !ok {
		return fmt.Errorf("%w: narrative is only available on the results screen", models.ErrInvalidTransition)
	}
	if s.narrative == nil {
		return &models.ConfigError{Key: "GEMINI_API_KEY"}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: session closed", models.ErrSessionNotFound)
	}
	s.resetNarrativeLocked()
	reqID := s.requestID
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	s.view = NarrativeView{Status: NarrativePending, Age: age}
	s.pending.Add(1)
	s.mu.Unlock()

	s.notify()

	go func() {
		defer s.pending.Done()
		defer cancel()
		items, err := s.narrative.Generate(ctx, outcome.Type, age)
		s.completeNarrative(reqID, outcome.SessionID, age, items, err)
	}()
	return nil
}

func (s *Session) completeNarrative(reqID uint64, sessionID string, age int, items []insight.Insight, err error) {
	s.mu.Lock()
	if reqID != s.requestID || sessionID != s.ctrl.SessionID() {
		s.mu.Unlock()
		narrativeRequestsTotal.WithLabelValues("discarded").Inc()
		s.logger.Debug("Discarding stale narrative", zap.String("session_id", sessionID))
		return
	}
	s.cancel = nil
	if err != nil {
		s.view = NarrativeView{Status: NarrativeUnavailable, Age: age, Error: err.Error()}
		narrativeRequestsTotal.WithLabelValues("unavailable").Inc()
		s.logger.Warn("Narrative unavailable", zap.String("session_id", sessionID), zap.Error(err))
	} else {
		s.view = NarrativeView{Status: NarrativeReady, Age: age, Items: items}
		narrativeRequestsTotal.WithLabelValues("ready").Inc()
	}
	s.mu.Unlock()
	s.notify()
}

// Narrative returns the current narrative slot.
func (s *Session) Narrative() NarrativeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Items = append([]insight.Insight(nil), v.Items...)
	return v
}

// State is the full serializable view of a session.
type State struct {
	Handle       string                  `json:"id"`
	Quiz         Snapshot                `json:"quiz"`
	Narrative    NarrativeView           `json:"narrative"`
	Achievements []achievements.Unlocked `json:"achievements"`
	Stats        achievements.Stats      `json:"stats"`
}

// State copies everything the client renders.
func (s *Session) State() State {
	return State{
		Handle:       s.handle,
		Quiz:         s.ctrl.Snapshot(),
		Narrative:    s.Narrative(),
		Achievements: s.tracker.Unlocked(),
		Stats:        s.tracker.Stats(),
	}
}

// Subscribe returns a channel that receives a signal after state changes
// made outside the subscriber's own calls, e.g. the end of a loading pause.
// Signals are coalesced.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Shutdown cancels timers and narrative requests and waits for background
// work of this session.
func (s *Session) Shutdown() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.requestID++
	s.mu.Unlock()
	s.ctrl.Shutdown()
	s.pending.Wait()
}
