package triage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

// Rule maps keyword substrings to a fixed response playbook entry.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Advice   string   `yaml:"advice"`
}

// defaultRules is ordered by priority, not alphabetically: an item mentioning
// both a bug and a refund gets the technical-issue advisory.
var defaultRules = []Rule{
	{
		Keywords: []string{"bug", "error", "crash"},
		Advice:   "Technical Issue: Acknowledge the bug, provide workaround if available, and escalate to engineering team.",
	},
	{
		Keywords: []string{"refund", "money back", "cancel"},
		Advice:   "Billing Concern: Review account, offer resolution options, escalate to billing department if needed.",
	},
	{
		Keywords: []string{"slow", "down", "not working"},
		Advice:   "Performance Issue: Check system status, provide troubleshooting steps, escalate if widespread.",
	},
	{
		Keywords: []string{"support", "help", "customer service"},
		Advice:   "Support Request: Respond promptly with helpful resources, offer direct assistance.",
	},
	{
		Keywords: []string{"hate", "terrible", "worst"},
		Advice:   "Strong Negative: Respond empathetically, offer to discuss privately, involve senior support.",
	},
}

const (
	negativeFallback = "General Negative Feedback: Thank for feedback, apologize for experience, offer to help resolve."
	monitorFallback  = "Monitor: No immediate action required, but track for trends."
)

// Recommender matches item text against an ordered rule list to suggest a
// response strategy.
type Recommender struct {
	rules []Rule
}

// NewRecommender returns a Recommender with the built-in rule set.
func NewRecommender() *Recommender {
	return &Recommender{rules: defaultRules}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRecommender reads an ordered rule list from a YAML file, replacing the
// built-in rules. An empty path returns the built-in set.
func LoadRecommender(path string) (*Recommender, error) {
	if path == "" {
		return NewRecommender(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}
	for i, r := range rf.Rules {
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d has no keywords", i)
		}
		if strings.TrimSpace(r.Advice) == "" {
			return nil, fmt.Errorf("rule %d has no advice", i)
		}
	}

	return &Recommender{rules: rf.Rules}, nil
}

// Recommend returns the advisory for the first rule whose keywords appear in
// the text (case-insensitive substring match). When no rule matches, the
// fallback is keyed on the sentiment label alone.
func (r *Recommender) Recommend(text string, label sentiment.Label) string {
	lower := strings.ToLower(text)

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Advice
			}
		}
	}

	if label == sentiment.LabelNegative {
		return negativeFallback
	}
	return monitorFallback
}
