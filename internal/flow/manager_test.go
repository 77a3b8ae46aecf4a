package flow_test

import (
	"context"
	"testing"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/scene"
	"mbti-quest/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, cfg flow.ManagerConfig) (*flow.Manager, *clock) {
	t.Helper()
	bank, reg := testContent(t)
	c := newClock()
	m, err := flow.NewManager(flow.SessionDeps{
		Bank:      bank,
		Registry:  reg,
		Scheduler: &manualScheduler{},
		Clock:     c.Now,
	}, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m, c
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := newTestManager(t, flow.ManagerConfig{})

	sess, err := m.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Handle())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(sess.Handle())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	other, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, sess.Handle(), other.Handle())

	require.NoError(t, m.Delete(sess.Handle()))
	_, err = m.Get(sess.Handle())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(sess.Handle()), models.ErrSessionNotFound)
	assert.Equal(t, 1, m.Len())
}

func TestManager_UnknownHandle(t *testing.T) {
	m, _ := newTestManager(t, flow.ManagerConfig{})
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	m, c := newTestManager(t, flow.ManagerConfig{IdleTTL: 30 * time.Minute})

	idle, err := m.Create()
	require.NoError(t, err)
	active, err := m.Create()
	require.NoError(t, err)

	c.Advance(20 * time.Minute)
	require.NoError(t, active.Start())
	assert.Equal(t, 0, m.Sweep())

	c.Advance(11 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, err = m.Get(idle.Handle())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	_, err = m.Get(active.Handle())
	assert.NoError(t, err)
}

func TestManager_MaxSessions(t *testing.T) {
	m, _ := newTestManager(t, flow.ManagerConfig{MaxSessions: 1})

	_, err := m.Create()
	require.NoError(t, err)
	_, err = m.Create()
	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m, _ := newTestManager(t, flow.ManagerConfig{JanitorInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestNewManager_RejectsMismatchedContent(t *testing.T) {
	bank, _ := testContent(t)
	reg, err := scene.ParseRegistry([]byte(`
canvas: { width: 1400, height: 800, margin: 50 }
scenes:
  - id: room
    name: Test Room
    npc: { x: 150, y: 450 }
`))
	require.NoError(t, err)

	_, err = flow.NewManager(flow.SessionDeps{Bank: bank, Registry: reg}, flow.ManagerConfig{}, nil)
	assert.Error(t, err)

	_, err = flow.NewManager(flow.SessionDeps{Registry: reg}, flow.ManagerConfig{}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
