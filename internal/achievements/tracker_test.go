package achievements

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func ids(list []Unlocked) []ID {
	out := make([]ID, 0, len(list))
	for _, u := range list {
		out = append(out, u.ID)
	}
	return out
}

func TestTracker_FirstStepsAndCompletion(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(clock.Now)

	tr.Track(Event{Kind: EventQuizStarted})
	assert.Equal(t, []ID{FirstSteps}, ids(tr.Track(Event{Kind: EventQuestionAnswered})))
	assert.Empty(t, tr.Track(Event{Kind: EventQuestionAnswered}), "unlocks only once")

	clock.Advance(90 * time.Second)
	got := ids(tr.Track(Event{Kind: EventQuizCompleted}))
	assert.Equal(t, []ID{Completionist, SpeedRunner}, got)
	assert.Equal(t, 90*time.Second, tr.Stats().TimeSpent)
}

func TestTracker_SlowRunIsNotSpeedRun(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(clock.Now)
	tr.Track(Event{Kind: EventQuizStarted})
	clock.Advance(3 * time.Minute)
	assert.NotContains(t, ids(tr.Track(Event{Kind: EventQuizCompleted})), SpeedRunner)
}

func TestTracker_SocialButterflyCountsDistinctCharacters(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < 10; i++ {
		tr.Track(Event{Kind: EventNPCTalk, SceneID: "party", Name: "Party Scene"})
	}
	assert.NotContains(t, ids(tr.Unlocked()), SocialButterfly)

	for i := 0; i < 4; i++ {
		tr.Track(Event{Kind: EventNPCTalk, SceneID: fmt.Sprintf("s%d", i), Name: "npc"})
	}
	assert.Contains(t, ids(tr.Unlocked()), SocialButterfly)
	assert.Equal(t, 14, tr.Stats().NPCInteractions)
}

func TestTracker_DetectiveSecretAndExplorer(t *testing.T) {
	tr := NewTracker(nil)
	tr.Track(Event{Kind: EventSceneEntered, SceneID: "party", Objects: []string{"Snack Table", "Siwoon"}})

	got := tr.Track(Event{Kind: EventObjectExamined, SceneID: "party", Name: "Snack Table", Secret: true})
	assert.Equal(t, []ID{SecretFinder}, ids(got))
	for i := 0; i < 9; i++ {
		tr.Track(Event{Kind: EventObjectExamined, SceneID: "party", Name: "Siwoon"})
	}
	assert.Contains(t, ids(tr.Unlocked()), Detective)

	done := ids(tr.Track(Event{Kind: EventQuizCompleted}))
	assert.Contains(t, done, Explorer)

	stats := tr.Stats()
	assert.Equal(t, 10, stats.ObjectsExamined)
	assert.Equal(t, 1, stats.SecretsFound)
}

func TestTracker_ExplorerNeedsEveryObject(t *testing.T) {
	tr := NewTracker(nil)
	tr.Track(Event{Kind: EventSceneEntered, SceneID: "a", Objects: []string{"x", "y"}})
	tr.Track(Event{Kind: EventObjectExamined, SceneID: "a", Name: "x"})
	assert.NotContains(t, ids(tr.Track(Event{Kind: EventQuizCompleted})), Explorer)
}

func TestTracker_Chatter(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < 19; i++ {
		tr.Track(Event{Kind: EventVoiceUsed})
	}
	require.NotContains(t, ids(tr.Unlocked()), Chatter)
	assert.Equal(t, []ID{Chatter}, ids(tr.Track(Event{Kind: EventVoiceUsed})))
}

func TestTracker_IsolatedPerInstance(t *testing.T) {
	a, b := NewTracker(nil), NewTracker(nil)
	a.Track(Event{Kind: EventQuestionAnswered})
	assert.Len(t, a.Unlocked(), 1)
	assert.Empty(t, b.Unlocked())
}
