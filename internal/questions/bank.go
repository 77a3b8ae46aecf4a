package questions

import (
	_ "embed"
	"fmt"
	"strings"

	"mbti-quest/internal/mbti"

	"gopkg.in/yaml.v3"
)

// OptionKey selects one of the two answers of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
)

// ParseOptionKey accepts "A"/"B" in any case.
func ParseOptionKey(raw string) (OptionKey, error) {
	switch OptionKey(strings.ToUpper(strings.TrimSpace(raw))) {
	case OptionA:
		return OptionA, nil
	case OptionB:
		return OptionB, nil
	}
	return "", fmt.Errorf("unknown option %q, expected A or B", raw)
}

// Option is one answer with the pole it scores.
type Option struct {
	Text      string         `yaml:"text" json:"text"`
	Dimension mbti.Dimension `yaml:"dimension" json:"dimension"`
}

// Question is immutable once loaded.
type Question struct {
	ID       int    `yaml:"id" json:"id"`
	Scenario string `yaml:"scenario" json:"scenario"`
	OptionA  Option `yaml:"option_a" json:"optionA"`
	OptionB  Option `yaml:"option_b" json:"optionB"`
	SceneID  string `yaml:"scene" json:"scene"`
}

// Option returns the answer behind key.
func (q Question) Option(key OptionKey) (Option, bool) {
	switch key {
	case OptionA:
		return q.OptionA, true
	case OptionB:
		return q.OptionB, true
	}
	return Option{}, false
}

// Axis is the axis both options belong to.
func (q Question) Axis() mbti.Axis { return q.OptionA.Dimension.Axis() }

type document struct {
	Version   int        `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

//go:embed questions.yaml
var questionsYAML []byte

// Bank is the ordered, read-only list of questions.
type Bank struct {
	questions []Question
}

// Load parses and validates the embedded question bank.
func Load() (*Bank, error) {
	return Parse(questionsYAML)
}

// Parse parses a YAML document and validates it.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	return &Bank{questions: normalized.Questions}, nil
}

// New builds a bank from already constructed questions. Used by tests and tools.
func New(qs []Question) (*Bank, error) {
	normalized, err := normalize(document{Version: 1, Questions: append([]Question(nil), qs...)})
	if err != nil {
		return nil, err
	}
	return &Bank{questions: normalized.Questions}, nil
}

// All returns a copy of the questions in quiz order.
func (b *Bank) All() []Question {
	return append([]Question(nil), b.questions...)
}

// Len is the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// At returns the i-th question.
func (b *Bank) At(i int) (Question, bool) {
	if i < 0 || i >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[i], true
}

// SceneIDs returns every referenced scene id in question order, without duplicates.
func (b *Bank) SceneIDs() []string {
	seen := make(map[string]struct{}, len(b.questions))
	ids := make([]string, 0, len(b.questions))
	for _, q := range b.questions {
		if _, ok := seen[q.SceneID]; ok {
			continue
		}
		seen[q.SceneID] = struct{}{}
		ids = append(ids, q.SceneID)
	}
	return ids
}

// Limit returns a bank with only the first n questions. n <= 0 or n >= Len
// returns b itself.
func (b *Bank) Limit(n int) *Bank {
	if n <= 0 || n >= len(b.questions) {
		return b
	}
	return &Bank{questions: append([]Question(nil), b.questions[:n]...)}
}
