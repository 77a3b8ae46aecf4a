package questions

import (
	"fmt"
	"strings"

	"mbti-quest/internal/mbti"
)

// Issue is one problem found in the question bank.
type Issue struct {
	Field   string
	Message string
}

// ValidationError collects every issue found in one pass.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question bank validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

func normalize(doc document) (document, error) {
	collector := &issueCollector{}
	if doc.Version != 1 {
		collector.add("version", fmt.Sprintf("unsupported version %d", doc.Version))
	}
	if len(doc.Questions) == 0 {
		collector.add("questions", "must include at least one entry")
	}

	seenIDs := map[int]struct{}{}
	for i, q := range doc.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if q.ID <= 0 {
			collector.add(prefix+".id", "must be positive")
		} else if _, dup := seenIDs[q.ID]; dup {
			collector.add(prefix+".id", fmt.Sprintf("duplicate id %d", q.ID))
		} else {
			seenIDs[q.ID] = struct{}{}
		}

		q.Scenario = strings.TrimSpace(q.Scenario)
		if q.Scenario == "" {
			collector.add(prefix+".scenario", "is required")
		}
		q.SceneID = strings.TrimSpace(q.SceneID)
		if q.SceneID == "" {
			collector.add(prefix+".scene", "is required")
		}

		q.OptionA = normalizeOption(collector, prefix+".option_a", q.OptionA)
		q.OptionB = normalizeOption(collector, prefix+".option_b", q.OptionB)
		if q.OptionA.Dimension.Valid() && q.OptionB.Dimension.Valid() &&
			q.OptionA.Dimension.Opposite() != q.OptionB.Dimension {
			collector.add(prefix, fmt.Sprintf("options must be opposite poles of one axis, got %s and %s",
				q.OptionA.Dimension, q.OptionB.Dimension))
		}
		doc.Questions[i] = q
	}

	if err := collector.result(); err != nil {
		return document{}, err
	}
	return doc, nil
}

func normalizeOption(collector *issueCollector, field string, opt Option) Option {
	opt.Text = strings.TrimSpace(opt.Text)
	if opt.Text == "" {
		collector.add(field+".text", "is required")
	}
	dim, err := mbti.ParseDimension(string(opt.Dimension))
	if err != nil {
		collector.add(field+".dimension", err.Error())
		return opt
	}
	opt.Dimension = dim
	return opt
}
