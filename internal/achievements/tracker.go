package achievements

import (
	"sync"
	"time"
)

// ID identifies an achievement.
type ID string

const (
	FirstSteps      ID = "first_steps"
	SocialButterfly ID = "social_butterfly"
	Detective       ID = "detective"
	SecretFinder    ID = "secret_finder"
	SpeedRunner     ID = "speed_runner"
	Explorer        ID = "explorer"
	Chatter         ID = "chatter"
	Completionist   ID = "completionist"
)

// Thresholds
const (
	socialButterflyTalks = 5
	detectiveObjects     = 10
	chatterVoiceUses     = 20
	speedRunLimit        = 2 * time.Minute
)

// Achievement describes one unlockable.
type Achievement struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// Catalog lists every achievement in display order.
var Catalog = []Achievement{
	{ID: FirstSteps, Name: "First Steps", Description: "Started your personality journey", Icon: "👣"},
	{ID: SocialButterfly, Name: "Social Butterfly", Description: "Talked to 5 different characters", Icon: "🦋"},
	{ID: Detective, Name: "Detective", Description: "Examined 10 objects", Icon: "🕵️"},
	{ID: SecretFinder, Name: "Secret Finder", Description: "Found a hidden easter egg", Icon: "🥚", Hidden: true},
	{ID: SpeedRunner, Name: "Speed Runner", Description: "Completed the test in under 2 minutes", Icon: "⚡"},
	{ID: Explorer, Name: "Explorer", Description: "Visited every corner of all scenes", Icon: "🗺️"},
	{ID: Chatter, Name: "Chatterbox", Description: "Used text-to-speech 20 times", Icon: "💬"},
	{ID: Completionist, Name: "Completionist", Description: "Finished the personality test", Icon: "🏆"},
}

func lookup(id ID) Achievement {
	for _, a := range Catalog {
		if a.ID == id {
			return a
		}
	}
	return Achievement{ID: id}
}

// EventKind is something the player did.
type EventKind string

const (
	EventQuizStarted      EventKind = "quiz_started"
	EventSceneEntered     EventKind = "scene_entered"
	EventQuestionAnswered EventKind = "question_answered"
	EventNPCTalk          EventKind = "npc"
	EventObjectExamined   EventKind = "object"
	EventVoiceUsed        EventKind = "tts"
	EventQuizCompleted    EventKind = "quiz_completed"
)

// Event carries the details the rules need.
type Event struct {
	Kind    EventKind
	SceneID string
	Name    string
	// Objects lists all object names of the scene, set on EventSceneEntered.
	Objects []string
	// Secret marks an examined object that is not visible on screen.
	Secret bool
}

// Stats are the running counters of one player.
type Stats struct {
	QuestionsAnswered int           `json:"questionsAnswered"`
	NPCInteractions   int           `json:"npcInteractions"`
	ObjectsExamined   int           `json:"objectsExamined"`
	SecretsFound      int           `json:"secretsFound"`
	VoiceUses         int           `json:"voiceUses"`
	TimeSpent         time.Duration `json:"timeSpent"`
}

// Unlocked is an achievement with its unlock time.
type Unlocked struct {
	Achievement
	At time.Time `json:"unlockedAt"`
}

// Tracker keeps achievements of a single player. Each session owns its own
// tracker; safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	now      func() time.Time
	started  time.Time
	stats    Stats
	talked   map[string]struct{}
	visited  map[string]map[string]bool // scene -> object -> examined
	unlocked map[ID]time.Time
	order    []ID
}

// NewTracker creates a tracker. now may be nil, time.Now is used then.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:      now,
		started:  now(),
		talked:   make(map[string]struct{}),
		visited:  make(map[string]map[string]bool),
		unlocked: make(map[ID]time.Time),
	}
}

// Track applies ev and returns achievements unlocked by it.
func (t *Tracker) Track(ev Event) []Unlocked {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []Unlocked
	unlock := func(id ID, cond bool) {
		if !cond {
			return
		}
		if _, done := t.unlocked[id]; done {
			return
		}
		at := t.now()
		t.unlocked[id] = at
		t.order = append(t.order, id)
		fresh = append(fresh, Unlocked{Achievement: lookup(id), At: at})
	}

	switch ev.Kind {
	case EventQuizStarted:
		t.started = t.now()
	case EventSceneEntered:
		if _, ok := t.visited[ev.SceneID]; !ok {
			objects := make(map[string]bool, len(ev.Objects))
			for _, name := range ev.Objects {
				objects[name] = false
			}
			t.visited[ev.SceneID] = objects
		}
	case EventQuestionAnswered:
		t.stats.QuestionsAnswered++
		unlock(FirstSteps, t.stats.QuestionsAnswered >= 1)
	case EventNPCTalk:
		t.stats.NPCInteractions++
		// разные персонажи считаются по сцене
		t.talked[ev.SceneID+"/"+ev.Name] = struct{}{}
		unlock(SocialButterfly, len(t.talked) >= socialButterflyTalks)
	case EventObjectExamined:
		t.stats.ObjectsExamined++
		if objects, ok := t.visited[ev.SceneID]; ok {
			objects[ev.Name] = true
		}
		unlock(Detective, t.stats.ObjectsExamined >= detectiveObjects)
		if ev.Secret {
			t.stats.SecretsFound++
			unlock(SecretFinder, true)
		}
	case EventVoiceUsed:
		t.stats.VoiceUses++
		unlock(Chatter, t.stats.VoiceUses >= chatterVoiceUses)
	case EventQuizCompleted:
		unlock(Completionist, true)
		unlock(SpeedRunner, t.now().Sub(t.started) < speedRunLimit)
		unlock(Explorer, t.exploredAll())
	}
	return fresh
}

func (t *Tracker) exploredAll() bool {
	if len(t.visited) == 0 {
		return false
	}
	for _, objects := range t.visited {
		for _, examined := range objects {
			if !examined {
				return false
			}
		}
	}
	return true
}

// Stats returns a copy of the counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.TimeSpent = t.now().Sub(t.started)
	return s
}

// Unlocked returns unlocked achievements in unlock order.
func (t *Tracker) Unlocked() []Unlocked {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Unlocked, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, Unlocked{Achievement: lookup(id), At: t.unlocked[id]})
	}
	return out
}
