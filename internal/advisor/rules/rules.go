// Package rules loads the keyword tables that drive intent classification,
// category matching and entity extraction. The tables are data: a default set
// is embedded in the binary and a YAML file can replace it at startup.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Scoring holds the confidence constants. They are heuristics kept for
// compatibility with the mobile client, not derived values.
type Scoring struct {
	IntentBase         float64 `yaml:"intent_base"`
	IntentStep         float64 `yaml:"intent_step"`
	CategoryStep       float64 `yaml:"category_step"`
	MaxConfidence      float64 `yaml:"max_confidence"`
	FallbackConfidence float64 `yaml:"fallback_confidence"`
}

// IntentRule maps an intent to the substrings that trigger it.
type IntentRule struct {
	Label    string   `yaml:"intent"`
	Patterns []string `yaml:"patterns"`

	Intent domain.Intent `yaml:"-"`
}

// CategoryRule describes one product category.
type CategoryRule struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	ProductIDs []int    `yaml:"products"`
	FollowUps  []string `yaml:"follow_ups"`
}

// PriceRule maps a price bucket to its trigger keywords.
type PriceRule struct {
	Range    domain.PriceRange `yaml:"range"`
	Keywords []string          `yaml:"keywords"`
}

// RuleSet is the complete, validated table set. Slice order is significant
// everywhere: intents by priority, categories and products by tie-break order,
// price ranges by precedence.
type RuleSet struct {
	Version     int            `yaml:"version"`
	Scoring     Scoring        `yaml:"scoring"`
	Intents     []IntentRule   `yaml:"intents"`
	Categories  []CategoryRule `yaml:"categories"`
	Products    []string       `yaml:"products"`
	PriceRanges []PriceRule    `yaml:"price_ranges"`
}

// Default returns the embedded rule set.
func Default() *RuleSet {
	rs, err := Parse(defaultRules)
	if err != nil {
		panic("advisor: embedded rules are invalid: " + err.Error())
	}
	return rs
}

// Load reads a rule set from a YAML file. An empty path returns Default().
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes and validates a YAML rule set.
func Parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate resolves intent labels and checks the tables for mistakes that
// would silently change classification.
func (rs *RuleSet) Validate() error {
	s := rs.Scoring
	if s.MaxConfidence <= 0 || s.MaxConfidence > 1 {
		return fmt.Errorf("scoring.max_confidence must be in (0, 1], got %v", s.MaxConfidence)
	}
	if s.IntentStep <= 0 || s.CategoryStep <= 0 {
		return fmt.Errorf("scoring steps must be positive")
	}

	if len(rs.Intents) == 0 {
		return fmt.Errorf("no intents defined")
	}
	seenIntents := make(map[domain.Intent]bool, len(rs.Intents))
	for i := range rs.Intents {
		rule := &rs.Intents[i]
		intent, err := domain.ParseIntent(rule.Label)
		if err != nil {
			return fmt.Errorf("intents[%d]: %w", i, err)
		}
		if seenIntents[intent] {
			return fmt.Errorf("intents[%d]: duplicate intent %q", i, rule.Label)
		}
		seenIntents[intent] = true
		rule.Intent = intent
		if err := checkPatterns(rule.Patterns); err != nil {
			return fmt.Errorf("intent %q: %w", rule.Label, err)
		}
	}

	seenCategories := make(map[string]bool, len(rs.Categories))
	for i, c := range rs.Categories {
		if c.Name == "" {
			return fmt.Errorf("categories[%d]: missing name", i)
		}
		if seenCategories[c.Name] {
			return fmt.Errorf("categories[%d]: duplicate category %q", i, c.Name)
		}
		seenCategories[c.Name] = true
		if err := checkPatterns(c.Keywords); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
	}

	for i, p := range rs.Products {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("products[%d]: empty product name", i)
		}
	}

	for i, pr := range rs.PriceRanges {
		switch pr.Range {
		case domain.PriceRangeFree, domain.PriceRangeBudget, domain.PriceRangePremium:
		default:
			return fmt.Errorf("price_ranges[%d]: unknown range %q", i, pr.Range)
		}
		if err := checkPatterns(pr.Keywords); err != nil {
			return fmt.Errorf("price range %q: %w", pr.Range, err)
		}
	}
	return nil
}

// Category looks up a category rule by name.
func (rs *RuleSet) Category(name string) (CategoryRule, bool) {
	for _, c := range rs.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryRule{}, false
}

// CategoryNames returns the category names in table order.
func (rs *RuleSet) CategoryNames() []string {
	names := make([]string, 0, len(rs.Categories))
	for _, c := range rs.Categories {
		names = append(names, c.Name)
	}
	return names
}

func checkPatterns(patterns []string) error {
	if len(patterns) == 0 {
		return fmt.Errorf("no patterns")
	}
	for _, p := range patterns {
		if p == "" {
			return fmt.Errorf("empty pattern")
		}
		if p != strings.ToLower(p) {
			return fmt.Errorf("pattern %q must be lower case", p)
		}
	}
	return nil
}
