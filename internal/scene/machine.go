package scene

import (
	"fmt"
	"time"

	"mbti-quest/internal/mbti"
	"mbti-quest/internal/questions"
	"mbti-quest/shared/models"
)

// DefaultInteractionRadius is the distance under which an entity can be targeted.
const DefaultInteractionRadius = 80.0

// State of the interaction machine.
type State string

const (
	StateIdle         State = "idle"
	StatePrompting    State = "prompting"
	StateDialogueOpen State = "dialogue_open"
)

// TargetKind tells the NPC apart from examinable objects.
type TargetKind string

const (
	TargetNPC    TargetKind = "npc"
	TargetObject TargetKind = "object"
)

// Target is the entity the player would interact with right now.
type Target struct {
	Kind     TargetKind `json:"kind"`
	Name     string     `json:"name"`
	Position Vec        `json:"position"`
	Distance float64    `json:"distance"`
}

// PanelKind is what an open panel shows.
type PanelKind string

const (
	// PanelDialogue is the NPC's two-choice question.
	PanelDialogue PanelKind = "dialogue"
	// PanelInteraction is the read-only text of an object.
	PanelInteraction PanelKind = "interaction"
)

// Panel is the content of the open overlay.
type Panel struct {
	Kind     PanelKind           `json:"kind"`
	Title    string              `json:"title"`
	Text     string              `json:"text"`
	Question *questions.Question `json:"question,omitempty"`
}

// EventKind classifies what an interaction did, for achievement tracking.
type EventKind string

const (
	EventTalkedToNPC    EventKind = "npc"
	EventExaminedObject EventKind = "object"
)

// Event is emitted when a panel opens.
type Event struct {
	Kind    EventKind
	SceneID string
	Name    string
}

// MachineConfig tunes one machine instance.
type MachineConfig struct {
	Radius float64
	Player PlayerConfig
	Canvas Canvas
}

// Machine drives one question's scene: movement, proximity, panels and
// the single answer. It is not safe for concurrent use; the flow
// controller serializes access.
type Machine struct {
	scene    *Scene
	question questions.Question
	cfg      MachineConfig

	player   Player
	state    State
	target   *Target
	panel    *Panel
	answered bool
	answer   mbti.Dimension
}

// NewMachine builds a fresh instance for question q played in s.
func NewMachine(s *Scene, q questions.Question, cfg MachineConfig) *Machine {
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultInteractionRadius
	}
	if cfg.Player.Speed <= 0 {
		cfg.Player = DefaultPlayerConfig()
	}
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		cfg.Canvas = DefaultCanvas()
	}
	m := &Machine{
		scene:    s,
		question: q,
		cfg:      cfg,
		player:   newPlayer(cfg.Player),
		state:    StateIdle,
	}
	m.reevaluate()
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Answered reports whether the single answer of this instance was given.
func (m *Machine) Answered() bool { return m.answered }

// Player returns a copy of the avatar state.
func (m *Machine) Player() Player { return m.player }

// Target returns the current target, if any.
func (m *Machine) Target() (Target, bool) {
	if m.target == nil {
		return Target{}, false
	}
	return *m.target, true
}

// Tick advances movement by dt and re-runs target selection. While a panel
// is open the player does not move.
func (m *Machine) Tick(in Input, dt time.Duration) {
	if m.answered {
		return
	}
	if m.state == StateDialogueOpen {
		m.player.freeze()
		return
	}
	m.player.step(in, dt, m.cfg.Player.Speed, m.cfg.Canvas)
	m.reevaluate()
}

// nearest checks the NPC first, then objects in registry order. Only a
// strictly smaller distance replaces the candidate, so on equal distance
// the earlier entity keeps the target.
func (m *Machine) nearest() *Target {
	pos := m.player.Position
	best := m.cfg.Radius
	var target *Target

	if d := Distance(pos, m.scene.NPC); d < best {
		best = d
		target = &Target{Kind: TargetNPC, Name: NPCKey, Position: m.scene.NPC, Distance: d}
	}
	for _, obj := range m.scene.Objects {
		if d := Distance(pos, obj.Position); d < best {
			best = d
			target = &Target{Kind: TargetObject, Name: obj.Name, Position: obj.Position, Distance: d}
		}
	}
	return target
}

func (m *Machine) reevaluate() {
	m.target = m.nearest()
	if m.target != nil {
		m.state = StatePrompting
	} else {
		m.state = StateIdle
	}
}

// Interact opens the panel of the current target. Pressed again while a
// panel is open it closes it. Returns the event for a freshly opened panel.
// After the answer every trigger is ignored.
func (m *Machine) Interact() (Event, bool) {
	if m.answered {
		return Event{}, false
	}
	if m.state == StateDialogueOpen {
		m.Close()
		return Event{}, false
	}
	if m.target == nil {
		return Event{}, false
	}

	m.player.freeze()
	m.state = StateDialogueOpen
	if m.target.Kind == TargetNPC {
		q := m.question
		m.panel = &Panel{Kind: PanelDialogue, Title: m.scene.Name, Text: q.Scenario, Question: &q}
		return Event{Kind: EventTalkedToNPC, SceneID: m.scene.ID, Name: m.scene.Name}, true
	}

	obj, _ := m.scene.Object(m.target.Name)
	m.panel = &Panel{Kind: PanelInteraction, Title: obj.Name, Text: obj.Interaction}
	return Event{Kind: EventExaminedObject, SceneID: m.scene.ID, Name: obj.Name}, true
}

// Choose answers the question from the open NPC dialogue. It succeeds once
// per instance.
func (m *Machine) Choose(key questions.OptionKey) (mbti.Dimension, error) {
	if m.answered {
		return "", models.ErrAlreadyAnswered
	}
	if m.state != StateDialogueOpen || m.panel == nil || m.panel.Kind != PanelDialogue {
		return "", fmt.Errorf("%w: no dialogue is open", models.ErrInvalidTransition)
	}
	opt, ok := m.question.Option(key)
	if !ok {
		return "", fmt.Errorf("%w: unknown option %q", models.ErrInvalidInput, key)
	}
	m.answered = true
	m.answer = opt.Dimension
	m.panel = nil
	m.state = StateIdle
	return opt.Dimension, nil
}

// Close dismisses the open panel without answering. The target stays until
// the next Tick re-evaluates it.
func (m *Machine) Close() bool {
	if m.state != StateDialogueOpen {
		return false
	}
	m.panel = nil
	m.state = StateIdle
	return true
}

// Snapshot is the serializable view of the machine.
type Snapshot struct {
	SceneID  string  `json:"sceneId"`
	State    State   `json:"state"`
	Player   Player  `json:"player"`
	Target   *Target `json:"target,omitempty"`
	Prompt   string  `json:"prompt,omitempty"`
	Panel    *Panel  `json:"panel,omitempty"`
	Answered bool    `json:"answered"`
}

// Snapshot copies the current state.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		SceneID:  m.scene.ID,
		State:    m.state,
		Player:   m.player,
		Answered: m.answered,
	}
	if m.target != nil {
		t := *m.target
		snap.Target = &t
		if m.state == StatePrompting {
			snap.Prompt = fmt.Sprintf("Press E or SPACE to interact with %s", t.Name)
		}
	}
	if m.panel != nil {
		p := *m.panel
		snap.Panel = &p
	}
	return snap
}
