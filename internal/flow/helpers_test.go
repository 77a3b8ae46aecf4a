package flow_test

import (
	"sync"
	"testing"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/questions"
	"mbti-quest/internal/scene"

	"github.com/stretchr/testify/require"
)

// manualScheduler fires callbacks only when the test says so.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) flow.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Pending counts timers that are neither stopped nor fired.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Delays lists the delay of every timer ever scheduled.
func (s *manualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.timers))
	for _, t := range s.timers {
		out = append(out, t.delay)
	}
	return out
}

// FireAll runs pending callbacks outside the scheduler lock.
func (s *manualScheduler) FireAll() int {
	s.mu.Lock()
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// FireStopped runs callbacks of already stopped timers, as a late time.AfterFunc would.
func (s *manualScheduler) FireStopped() int {
	s.mu.Lock()
	var due []*manualTimer
	for _, t := range s.timers {
		if t.stopped {
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// The NPC stands on the player's start point so a fresh scene is already prompting it.
const testScenes = `
canvas: { width: 1400, height: 800, margin: 50 }
scenes:
  - id: room
    name: Test Room
    background: /scenes/room.png
    npc: { x: 150, y: 450 }
    objects:
      - name: Hidden Note
        x: 150
        y: 520
        alpha: 0
        interaction: A note nobody was meant to find.
      - name: Lamp
        x: 1000
        y: 600
        interaction: A lamp.
  - id: hall
    name: Test Hall
    background: /scenes/hall.png
    npc: { x: 150, y: 450 }
    objects:
      - name: Clock
        x: 900
        y: 300
`

func testContent(t *testing.T) (*questions.Bank, *scene.Registry) {
	t.Helper()
	bank, err := questions.New([]questions.Question{
		{
			ID:       1,
			Scenario: "You're at a party...",
			OptionA:  questions.Option{Text: "Jump in", Dimension: mbti.E},
			OptionB:  questions.Option{Text: "Listen", Dimension: mbti.I},
			SceneID:  "room",
		},
		{
			ID:       2,
			Scenario: "Plan the retreat?",
			OptionA:  questions.Option{Text: "Schedule", Dimension: mbti.J},
			OptionB:  questions.Option{Text: "Flexible", Dimension: mbti.P},
			SceneID:  "hall",
		},
	})
	require.NoError(t, err)
	reg, err := scene.ParseRegistry([]byte(testScenes))
	require.NoError(t, err)
	return bank, reg
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
