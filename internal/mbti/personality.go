package mbti

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is a four-letter personality code such as "INTJ".
type Type string

// ParseType validates a code: four letters, one pole from each axis in order.
func ParseType(raw string) (Type, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != len(Axes) {
		return "", fmt.Errorf("personality type %q must have %d letters", raw, len(Axes))
	}
	for i, a := range Axes {
		d := Dimension(code[i : i+1])
		if d != a.Left && d != a.Right {
			return "", fmt.Errorf("personality type %q: letter %d must be %s or %s", raw, i+1, a.Left, a.Right)
		}
	}
	return Type(code), nil
}

// AllTypes returns the 16 valid codes in a stable order.
func AllTypes() []Type {
	types := []Type{""}
	for _, a := range Axes {
		next := make([]Type, 0, len(types)*2)
		for _, prefix := range types {
			next = append(next, prefix+Type(a.Left), prefix+Type(a.Right))
		}
		types = next
	}
	return types
}

// Personality is the static description of one type.
type Personality struct {
	Type        Type     `yaml:"type" json:"type"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Strengths   []string `yaml:"strengths" json:"strengths"`
	Careers     []string `yaml:"careers" json:"careers"`
}

//go:embed personalities.yaml
var personalitiesYAML []byte

// Catalog is the read-only table of the 16 personalities.
type Catalog struct {
	byType map[Type]Personality
}

// LoadCatalog parses the embedded table and checks it covers every code.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(personalitiesYAML)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Personalities []Personality `yaml:"personalities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse personalities: %w", err)
	}

	var problems []string
	byType := make(map[Type]Personality, len(doc.Personalities))
	for i, p := range doc.Personalities {
		code, err := ParseType(string(p.Type))
		if err != nil {
			problems = append(problems, fmt.Sprintf("personalities[%d]: %v", i, err))
			continue
		}
		p.Type = code
		if _, dup := byType[code]; dup {
			problems = append(problems, fmt.Sprintf("personalities[%d]: duplicate type %s", i, code))
			continue
		}
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
			problems = append(problems, fmt.Sprintf("personalities[%d]: title and description are required", i))
		}
		if len(p.Strengths) == 0 || len(p.Careers) == 0 {
			problems = append(problems, fmt.Sprintf("personalities[%d]: strengths and careers are required", i))
		}
		byType[code] = p
	}
	for _, code := range AllTypes() {
		if _, ok := byType[code]; !ok {
			problems = append(problems, fmt.Sprintf("missing type %s", code))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("invalid personality table: %s", strings.Join(problems, "; "))
	}
	return &Catalog{byType: byType}, nil
}

// Lookup returns the description of code.
func (c *Catalog) Lookup(code Type) (Personality, bool) {
	p, ok := c.byType[code]
	return p, ok
}

// Len is the number of entries, always 16 for a loaded catalog.
func (c *Catalog) Len() int { return len(c.byType) }
