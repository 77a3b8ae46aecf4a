package scene

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultInteractionText is shown for objects configured without text.
const DefaultInteractionText = "Nothing special here."

// NPCKey is the interaction key of the scene's NPC. Object names must not use it.
const NPCKey = "NPC"

// Vec is a point or a velocity on the scene plane. Y grows downwards.
type Vec struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Distance is the euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Canvas is the playable area.
type Canvas struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Margin float64 `yaml:"margin" json:"margin"`
}

// DefaultCanvas is 1400x800 with a 50 unit wall margin.
func DefaultCanvas() Canvas {
	return Canvas{Width: 1400, Height: 800, Margin: 50}
}

// Contains reports whether p lies on the canvas.
func (c Canvas) Contains(p Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= c.Width && p.Y <= c.Height
}

// Clamp keeps p inside the canvas minus the margin.
func (c Canvas) Clamp(p Vec) Vec {
	return Vec{
		X: math.Min(math.Max(p.X, c.Margin), c.Width-c.Margin),
		Y: math.Min(math.Max(p.Y, c.Margin), c.Height-c.Margin),
	}
}

// Object is an examinable thing in a scene.
type Object struct {
	Name        string   `yaml:"name" json:"name"`
	Position    Vec      `yaml:",inline" json:"position"`
	Image       string   `yaml:"image" json:"image,omitempty"`
	Interaction string   `yaml:"interaction" json:"interaction"`
	Scale       *float64 `yaml:"scale" json:"scale,omitempty"`
	Alpha       *float64 `yaml:"alpha" json:"alpha,omitempty"`
}

// Scene is the static descriptor of one question's location.
type Scene struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Background string   `yaml:"background" json:"background"`
	NPC        Vec      `yaml:"npc" json:"npc"`
	NPCImage   string   `yaml:"npc_image" json:"npcImage,omitempty"`
	Objects    []Object `yaml:"objects" json:"objects"`
}

// Object finds an object by its interaction key.
func (s *Scene) Object(name string) (Object, bool) {
	for _, o := range s.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return Object{}, false
}

//go:embed scenes.yaml
var scenesYAML []byte

// Registry maps scene ids to descriptors.
type Registry struct {
	canvas Canvas
	order  []string
	scenes map[string]*Scene
}

// LoadRegistry parses the embedded scene table.
func LoadRegistry() (*Registry, error) {
	return ParseRegistry(scenesYAML)
}

// ParseRegistry parses and validates a scene table.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Canvas Canvas   `yaml:"canvas"`
		Scenes []*Scene `yaml:"scenes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scene registry: %w", err)
	}
	if doc.Canvas.Width <= 0 || doc.Canvas.Height <= 0 {
		return nil, fmt.Errorf("scene registry: canvas size must be positive")
	}

	var problems []string
	reg := &Registry{canvas: doc.Canvas, scenes: make(map[string]*Scene, len(doc.Scenes))}
	for i, s := range doc.Scenes {
		prefix := fmt.Sprintf("scenes[%d]", i)
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			problems = append(problems, prefix+": id is required")
			continue
		}
		if _, dup := reg.scenes[s.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate scene id %q", prefix, s.ID))
			continue
		}
		if s.Name == "" {
			problems = append(problems, fmt.Sprintf("scene %q: name is required", s.ID))
		}
		if !doc.Canvas.Contains(s.NPC) {
			problems = append(problems, fmt.Sprintf("scene %q: npc is outside the canvas", s.ID))
		}

		names := make(map[string]struct{}, len(s.Objects))
		for j := range s.Objects {
			obj := &s.Objects[j]
			obj.Name = strings.TrimSpace(obj.Name)
			switch _, dup := names[obj.Name]; {
			case obj.Name == "":
				problems = append(problems, fmt.Sprintf("scene %q: objects[%d] name is required", s.ID, j))
			case obj.Name == NPCKey:
				problems = append(problems, fmt.Sprintf("scene %q: object name %q is reserved", s.ID, NPCKey))
			case dup:
				problems = append(problems, fmt.Sprintf("scene %q: duplicate object name %q", s.ID, obj.Name))
			}
			names[obj.Name] = struct{}{}
			if !doc.Canvas.Contains(obj.Position) {
				problems = append(problems, fmt.Sprintf("scene %q: object %q is outside the canvas", s.ID, obj.Name))
			}
			if strings.TrimSpace(obj.Interaction) == "" {
				obj.Interaction = DefaultInteractionText
			}
		}
		reg.scenes[s.ID] = s
		reg.order = append(reg.order, s.ID)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid scene registry: %s", strings.Join(problems, "; "))
	}
	return reg, nil
}

// Canvas returns the playable area shared by all scenes.
func (r *Registry) Canvas() Canvas { return r.canvas }

// Get returns the scene for id.
func (r *Registry) Get(id string) (*Scene, bool) {
	s, ok := r.scenes[id]
	return s, ok
}

// IDs lists scene ids in registry order.
func (r *Registry) IDs() []string { return append([]string(nil), r.order...) }

// ValidateAgainst fails if any of ids has no scene. There is no fallback
// scene: a question pointing at an unknown location is a startup error.
func (r *Registry) ValidateAgainst(ids []string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := r.scenes[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("scene registry has no entry for %s (known: %s)",
			strings.Join(missing, ", "), strings.Join(r.order, ", "))
	}
	return nil
}
