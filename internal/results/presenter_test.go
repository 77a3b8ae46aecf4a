package results

import (
	"testing"
	"time"

	"mbti-quest/internal/achievements"
	"mbti-quest/internal/flow"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutcome(t *testing.T, typ mbti.Type, counts map[mbti.Dimension]int) flow.Outcome {
	t.Helper()
	scores, err := mbti.NewScores(counts)
	require.NoError(t, err)
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return flow.Outcome{
		SessionID:   "s-1",
		Type:        typ,
		Scores:      scores,
		Percentages: mbti.ComputePercentages(scores),
		Answers:     scores.Total(),
		StartedAt:   start,
		CompletedAt: start.Add(3 * time.Minute),
	}
}

func newTestPresenter(t *testing.T) *Presenter {
	t.Helper()
	catalog, err := mbti.LoadCatalog()
	require.NoError(t, err)
	return NewPresenter(catalog)
}

func TestPresent_KnownType(t *testing.T) {
	p := newTestPresenter(t)
	outcome := testOutcome(t, "INTJ", map[mbti.Dimension]int{
		mbti.E: 1, mbti.I: 2, mbti.S: 0, mbti.N: 3, mbti.T: 2, mbti.F: 1, mbti.J: 3, mbti.P: 0,
	})

	v := p.Present(outcome, flow.NarrativeView{Status: flow.NarrativeNone}, nil)
	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, "The Mastermind", v.Title)
	assert.NotEmpty(t, v.Description)
	assert.Len(t, v.Strengths, 5)
	assert.NotEmpty(t, v.Careers)
	assert.NotNil(t, v.Achievements)

	require.Len(t, v.Axes, 4)
	ei := v.Axes[0]
	assert.Equal(t, "EI", ei.Axis)
	assert.Equal(t, "Extraversion", ei.Left.Label)
	assert.Equal(t, 33, ei.Left.Percent)
	assert.Equal(t, 67, ei.Right.Percent)
	assert.Equal(t, 2, ei.Right.Count)
	for _, a := range v.Axes {
		assert.Equal(t, 100, a.Left.Percent+a.Right.Percent, a.Axis)
	}

	assert.Contains(t, v.Greeting, "INTJ - The Mastermind")
	assert.Contains(t, v.SpeechText, "You are The Mastermind.")
	assert.Equal(t, "I'm an INTJ - The Mastermind! Take the MBTI personality test and discover your type!", v.ShareText)
}

func TestPresent_UnknownTypeFallsBack(t *testing.T) {
	p := newTestPresenter(t)
	outcome := testOutcome(t, "XXXX", nil)
	outcome.Percentages = nil

	v := p.Present(outcome, flow.NarrativeView{}, nil)
	assert.Equal(t, "Unknown Personality", v.Title)
	assert.Empty(t, v.Strengths)
	assert.NotNil(t, v.Strengths)
	for _, a := range v.Axes {
		assert.Equal(t, 50, a.Left.Percent)
	}
}

func TestPresent_NarrativePlaceholders(t *testing.T) {
	p := newTestPresenter(t)
	outcome := testOutcome(t, "ENFJ", map[mbti.Dimension]int{mbti.E: 1, mbti.J: 1})
	items := []insight.Insight{{PersonalityInfo: "Warm."}}

	for _, tc := range []struct {
		name        string
		view        flow.NarrativeView
		status      flow.NarrativeStatus
		placeholder string
		items       int
	}{
		{"none", flow.NarrativeView{Status: flow.NarrativeNone}, flow.NarrativeNone, NarrativeAskAge, 0},
		{"zero value", flow.NarrativeView{}, flow.NarrativeNone, NarrativeAskAge, 0},
		{"pending", flow.NarrativeView{Status: flow.NarrativePending, Age: 30}, flow.NarrativePending, NarrativeGenerating, 0},
		{"unavailable", flow.NarrativeView{Status: flow.NarrativeUnavailable, Error: "boom"}, flow.NarrativeUnavailable, NarrativeUnavailable, 0},
		{"ready", flow.NarrativeView{Status: flow.NarrativeReady, Age: 30, Items: items}, flow.NarrativeReady, "", 1},
		{"ready but empty", flow.NarrativeView{Status: flow.NarrativeReady}, flow.NarrativeUnavailable, NarrativeUnavailable, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v := p.Present(outcome, tc.view, nil)
			assert.Equal(t, tc.status, v.Narrative.Status)
			assert.Equal(t, tc.placeholder, v.Narrative.Placeholder)
			assert.Len(t, v.Narrative.Items, tc.items)
		})
	}
}

func TestPresent_PassesAchievements(t *testing.T) {
	p := newTestPresenter(t)
	outcome := testOutcome(t, "ENFJ", map[mbti.Dimension]int{mbti.E: 1})
	unlocked := []achievements.Unlocked{{Achievement: achievements.Achievement{ID: achievements.Completionist}}}

	v := p.Present(outcome, flow.NarrativeView{}, unlocked)
	require.Len(t, v.Achievements, 1)
	assert.Equal(t, achievements.Completionist, v.Achievements[0].ID)
}
