// Package analyzer classifies a normalized utterance: one intent, any number
// of product categories, and the product/price entities it mentions.
//
// Everything here is pure and deterministic. The tables come from a
// rules.RuleSet so the matching code never changes when keywords do.
package analyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/rules"
)

var pricePattern = regexp.MustCompile(`\$\d+`)

// Analyzer applies a rule set to normalized text.
type Analyzer struct {
	rules *rules.RuleSet
}

// New creates an Analyzer over rs. A nil rs uses the embedded defaults.
func New(rs *rules.RuleSet) *Analyzer {
	if rs == nil {
		rs = rules.Default()
	}
	return &Analyzer{rules: rs}
}

// Analyze runs every stage over text, which must already be normalized.
func (a *Analyzer) Analyze(text string) *domain.Analysis {
	intent, confidence := a.ClassifyIntent(text)
	return &domain.Analysis{
		Text:       text,
		Intent:     intent,
		Confidence: confidence,
		Categories: a.MatchCategories(text),
		Entities:   a.ExtractEntities(text),
	}
}

// ClassifyIntent returns the first intent, in rule priority order, with at
// least one pattern in text. Its confidence grows with the number of patterns
// hit. No hit yields IntentInformation at the fallback confidence.
func (a *Analyzer) ClassifyIntent(text string) (domain.Intent, float64) {
	s := a.rules.Scoring
	for _, rule := range a.rules.Intents {
		if n := countHits(text, rule.Patterns); n > 0 {
			return rule.Intent, math.Min(s.MaxConfidence, s.IntentBase+s.IntentStep*float64(n))
		}
	}
	return domain.IntentInformation, s.FallbackConfidence
}

// MatchCategories scores every category independently and returns those with
// at least one keyword in text, highest confidence first. Equal confidences
// keep table order.
func (a *Analyzer) MatchCategories(text string) []domain.CategoryMatch {
	s := a.rules.Scoring
	matches := make([]domain.CategoryMatch, 0, 2)
	for _, c := range a.rules.Categories {
		hit := matchedPatterns(text, c.Keywords)
		if len(hit) == 0 {
			continue
		}
		matches = append(matches, domain.CategoryMatch{
			Category:        c.Name,
			Confidence:      math.Min(s.MaxConfidence, s.CategoryStep*float64(len(hit))),
			MatchedKeywords: hit,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// ExtractEntities collects known product names (table order), the first price
// bucket with a keyword in text, and literal "$<digits>" amounts.
func (a *Analyzer) ExtractEntities(text string) domain.Entities {
	lower := strings.ToLower(text)
	ents := domain.Entities{
		MentionedProducts: matchedPatterns(lower, a.rules.Products),
	}
	for _, pr := range a.rules.PriceRanges {
		if countHits(lower, pr.Keywords) > 0 {
			ents.PriceRange = pr.Range
			break
		}
	}
	ents.MentionedPrices = pricePattern.FindAllString(text, -1)
	return ents
}

// Topics returns the categories with any keyword in text, in table order.
func (a *Analyzer) Topics(text string) []string {
	var topics []string
	for _, c := range a.rules.Categories {
		if countHits(text, c.Keywords) > 0 {
			topics = append(topics, c.Name)
		}
	}
	return topics
}

func countHits(text string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

func matchedPatterns(text string, patterns []string) []string {
	hit := make([]string, 0)
	for _, p := range patterns {
		if strings.Contains(text, strings.ToLower(p)) {
			hit = append(hit, p)
		}
	}
	return hit
}
