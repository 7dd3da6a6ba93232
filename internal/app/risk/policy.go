package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds the free-text heuristics. Matching is a case-insensitive
// substring test against the fact set's free text.
type Policy struct {
	DerivativeKeywords []string `yaml:"derivative_keywords"`
	TrademarkKeywords  []string `yaml:"trademark_keywords"`
}

// DefaultPolicy returns the built-in keyword lists, in English and Hebrew.
// Generic words such as "company" are not matched.
func DefaultPolicy() Policy {
	return Policy{
		DerivativeKeywords: []string{
			"inspired by",
			"resembles",
			"reminiscent of",
			"similar to",
			"בהשראת",
			"מזכיר",
			"דומה ל",
		},
		TrademarkKeywords: []string{
			"logo",
			"brand",
			"trademark",
			"trade name",
			"לוגו",
			"מותג",
			"סימן מסחר",
			"שם מסחרי",
		},
	}
}

// LoadPolicy reads a YAML policy file. Lists missing from the file keep
// their default value; an empty path returns DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read risk policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document over the defaults.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse risk policy: %w", err)
	}

	p.DerivativeKeywords = normalizeKeywords(p.DerivativeKeywords)
	p.TrademarkKeywords = normalizeKeywords(p.TrademarkKeywords)
	if len(p.DerivativeKeywords) == 0 && len(p.TrademarkKeywords) == 0 {
		return Policy{}, fmt.Errorf("parse risk policy: no keywords")
	}
	return p, nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
