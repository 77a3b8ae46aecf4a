package results

import (
	"fmt"

	"mbti-quest/internal/achievements"
	"mbti-quest/internal/flow"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"
)

// Placeholder texts of the narrative section.
const (
	NarrativeAskAge      = "Tell us your age to get a personalized analysis."
	NarrativeGenerating  = "Generating your personalized analysis..."
	NarrativeUnavailable = "Personalized analysis is unavailable right now. Your results above are complete."
	unknownTitle         = "Unknown Personality"
)

var poleLabels = map[mbti.Dimension]string{
	mbti.E: "Extraversion",
	mbti.I: "Introversion",
	mbti.S: "Sensing",
	mbti.N: "Intuition",
	mbti.T: "Thinking",
	mbti.F: "Feeling",
	mbti.J: "Judging",
	mbti.P: "Perceiving",
}

// Pole is one side of an axis bar.
type Pole struct {
	Letter  mbti.Dimension `json:"letter"`
	Label   string         `json:"label"`
	Percent int            `json:"percent"`
	Count   int            `json:"count"`
}

// AxisView is one of the four bars.
type AxisView struct {
	Axis  string `json:"axis"`
	Left  Pole   `json:"left"`
	Right Pole   `json:"right"`
}

// NarrativeSection is the AI part of the page. It always has either items
// or a placeholder.
type NarrativeSection struct {
	Status      flow.NarrativeStatus `json:"status"`
	Age         int                  `json:"age,omitempty"`
	Placeholder string               `json:"placeholder,omitempty"`
	Items       []insight.Insight    `json:"items,omitempty"`
}

// View is everything the results screen renders.
type View struct {
	SessionID    string                  `json:"sessionId"`
	Type         mbti.Type               `json:"type"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Strengths    []string                `json:"strengths"`
	Careers      []string                `json:"careers"`
	Axes         []AxisView              `json:"axes"`
	Scores       mbti.Scores             `json:"scores"`
	Narrative    NarrativeSection        `json:"narrative"`
	Achievements []achievements.Unlocked `json:"achievements"`
	Greeting     string                  `json:"greeting"`
	SpeechText   string                  `json:"speechText"`
	ShareText    string                  `json:"shareText"`
}

// Presenter builds result views from the personality table.
type Presenter struct {
	catalog *mbti.Catalog
}

func NewPresenter(catalog *mbti.Catalog) *Presenter {
	return &Presenter{catalog: catalog}
}

// Present never fails: an unknown type still yields a view with a
// placeholder title.
func (p *Presenter) Present(outcome flow.Outcome, narrative flow.NarrativeView, unlocked []achievements.Unlocked) View {
	personality, ok := p.catalog.Lookup(outcome.Type)
	if !ok {
		personality = mbti.Personality{Type: outcome.Type, Title: unknownTitle}
	}
	percentages := outcome.Percentages
	if percentages == nil {
		percentages = mbti.ComputePercentages(outcome.Scores)
	}

	axes := make([]AxisView, 0, len(mbti.Axes))
	for _, a := range mbti.Axes {
		axes = append(axes, AxisView{
			Axis:  a.Name(),
			Left:  Pole{Letter: a.Left, Label: poleLabels[a.Left], Percent: percentages[a.Left], Count: outcome.Scores.Get(a.Left)},
			Right: Pole{Letter: a.Right, Label: poleLabels[a.Right], Percent: percentages[a.Right], Count: outcome.Scores.Get(a.Right)},
		})
	}
	if unlocked == nil {
		unlocked = []achievements.Unlocked{}
	}

	return View{
		SessionID:    outcome.SessionID,
		Type:         outcome.Type,
		Title:        personality.Title,
		Description:  personality.Description,
		Strengths:    nonNil(personality.Strengths),
		Careers:      nonNil(personality.Careers),
		Axes:         axes,
		Scores:       outcome.Scores,
		Narrative:    narrativeSection(narrative),
		Achievements: unlocked,
		Greeting:     Greeting(outcome.Type, personality.Title),
		SpeechText:   fmt.Sprintf("You are %s. %s", personality.Title, personality.Description),
		ShareText:    fmt.Sprintf("I'm an %s - %s! Take the MBTI personality test and discover your type!", outcome.Type, personality.Title),
	}
}

func narrativeSection(v flow.NarrativeView) NarrativeSection {
	section := NarrativeSection{Status: v.Status, Age: v.Age}
	switch v.Status {
	case flow.NarrativeReady:
		if len(v.Items) > 0 {
			section.Items = v.Items
			return section
		}
		section.Status = flow.NarrativeUnavailable
		section.Placeholder = NarrativeUnavailable
	case flow.NarrativePending:
		section.Placeholder = NarrativeGenerating
	case flow.NarrativeUnavailable:
		section.Placeholder = NarrativeUnavailable
	default:
		section.Status = flow.NarrativeNone
		section.Placeholder = NarrativeAskAge
	}
	return section
}

// Greeting is the counselor's opening line.
func Greeting(t mbti.Type, title string) string {
	return fmt.Sprintf("Congratulations on completing your MBTI assessment! I can see you're a %s - %s. "+
		"I'm here to help you explore how your unique personality strengths can guide your career path. "+
		"What aspect of your career would you like to discuss first?", t, title)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
