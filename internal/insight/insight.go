package insight

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"mbti-quest/internal/mbti"
	"mbti-quest/shared/models"
)

// Accepted age range for narrative requests.
const (
	MinAge = 1
	MaxAge = 120
)

// Insight is one element of the narrative reply. Field names follow the
// public JSON contract of POST /api/gemini.
type Insight struct {
	PersonalityInfo string   `json:"Personality_info"`
	AgeInfo         []string `json:"age_info"`
	Careers         []string `json:"careers"`
}

// ValidateRequest checks the personality code and the age.
func ValidateRequest(rawType string, age int) (mbti.Type, error) {
	code, err := mbti.ParseType(rawType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := ValidateAge(age); err != nil {
		return "", err
	}
	return code, nil
}

// ValidateAge rejects ages outside [MinAge, MaxAge].
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", models.ErrInvalidInput, MinAge, MaxAge)
	}
	return nil
}

// BuildPrompt asks for a single-element JSON array matching Insight.
func BuildPrompt(t mbti.Type, age int) string {
	return fmt.Sprintf(`You are an MBTI personality expert. Provide detailed information in JSON format.

Personality Type: %[1]s
Age: %[2]d

Provide a response in this exact JSON format:
[{
  "Personality_info": "Detailed explanation of the %[1]s personality type",
  "age_info": ["Point 1 about how %[1]s manifests at age %[2]d", "Point 2", "Point 3"],
  "careers": ["Career 1", "Career 2", "Career 3", "Career 4", "Career 5", "Career 6", "Career 7", "Career 8", "Career 9", "Career 10"]
}]

Make sure to:
1. Give a detailed personality explanation (2-3 paragraphs)
2. Provide 3-5 specific points about age %[2]d
3. List exactly 10 suitable careers
4. Return valid JSON only, no markdown or extra text`, t, age)
}

var (
	jsonFence  = regexp.MustCompile("```json\\n?")
	plainFence = regexp.MustCompile("```\\n?")
)

// StripFences removes markdown code fences the model sometimes adds.
func StripFences(text string) string {
	text = jsonFence.ReplaceAllString(text, "")
	text = plainFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseResponse turns the raw model text into the single-element reply.
// Anything that is not the expected shape is ErrMalformedResponse.
func ParseResponse(text string) ([]Insight, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", models.ErrMalformedResponse)
	}

	var items []Insight
	if strings.HasPrefix(cleaned, "{") {
		var single Insight
		if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
		}
		items = []Insight{single}
	} else if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty array", models.ErrMalformedResponse)
	}
	first := items[0]
	if strings.TrimSpace(first.PersonalityInfo) == "" {
		return nil, fmt.Errorf("%w: Personality_info is missing", models.ErrMalformedResponse)
	}
	if first.AgeInfo == nil {
		first.AgeInfo = []string{}
	}
	if first.Careers == nil {
		first.Careers = []string{}
	}
	return []Insight{first}, nil
}
