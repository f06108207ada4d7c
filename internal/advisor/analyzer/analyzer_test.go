package analyzer_test

import (
	"testing"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, raw string) *domain.Analysis {
	t.Helper()
	return analyzer.New(nil).Analyze(analyzer.Normalize(raw))
}

func categoryNames(matches []domain.CategoryMatch) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Category)
	}
	return names
}

func TestClassifyIntent_RecommendationBeatsPricing(t *testing.T) {
	a := analyzer.New(nil)

	intent, conf := a.ClassifyIntent(analyzer.Normalize("Can you recommend something with a low price?"))
	assert.Equal(t, domain.IntentRecommendation, intent)
	assert.InDelta(t, 0.7, conf, 1e-9)
}

func TestClassifyIntent_PriorityOrder(t *testing.T) {
	a := analyzer.New(nil)

	cases := []struct {
		text string
		want domain.Intent
	}{
		{"recommend a tool vs another", domain.IntentRecommendation},
		{"compare the price", domain.IntentComparison},
		{"what is the price of notion", domain.IntentInformation},
		{"how much does it cost", domain.IntentPricing},
		{"what are its capabilities", domain.IntentFeatures},
		{"tell me the features", domain.IntentInformation},
		{"please stop", domain.IntentRecommendation}, // "stop" contains "top"
	}
	for _, tc := range cases {
		got, _ := a.ClassifyIntent(analyzer.Normalize(tc.text))
		assert.Equal(t, tc.want, got, "text %q", tc.text)
	}
}

func TestClassifyIntent_ConfidenceCapped(t *testing.T) {
	a := analyzer.New(nil)

	_, conf := a.ClassifyIntent("recommend suggest best top")
	assert.InDelta(t, 0.9, conf, 1e-9)

	_, conf = a.ClassifyIntent("compare chatgpt vs claude")
	assert.InDelta(t, 0.9, conf, 1e-9)
}

func TestClassifyIntent_EmptyFallsBackToInformation(t *testing.T) {
	a := analyzer.New(nil)

	intent, conf := a.ClassifyIntent(analyzer.Normalize("   "))
	assert.Equal(t, domain.IntentInformation, intent)
	assert.InDelta(t, 0.5, conf, 1e-9)
	assert.Empty(t, a.MatchCategories(""))
}

func TestAnalyze_BestWritingTool(t *testing.T) {
	got := analyze(t, "What's the best AI writing tool?")

	assert.Equal(t, domain.IntentRecommendation, got.Intent)
	require.NotEmpty(t, got.Categories)
	assert.Equal(t, "Writing", got.Categories[0].Category)
	assert.Greater(t, got.Categories[0].Confidence, 0.0)
	assert.Equal(t, []string{"writing"}, got.Categories[0].MatchedKeywords)
}

func TestAnalyze_ImageGeneration(t *testing.T) {
	got := analyze(t, "I need help with image generation")

	assert.Equal(t, domain.IntentRecommendation, got.Intent)
	assert.Equal(t, []string{"AI Art", "AI Assistants"}, categoryNames(got.Categories))
	assert.InDelta(t, 0.6, got.Categories[0].Confidence, 1e-9)
	assert.Equal(t, []string{"image", "generation"}, got.Categories[0].MatchedKeywords)
	assert.InDelta(t, 0.3, got.Categories[1].Confidence, 1e-9)
}

func TestAnalyze_CompareProducts(t *testing.T) {
	got := analyze(t, "Compare ChatGPT vs Claude")

	assert.Equal(t, domain.IntentComparison, got.Intent)
	assert.Equal(t, []string{"chatgpt", "claude"}, got.Entities.MentionedProducts)
	require.NotEmpty(t, got.Categories)
	assert.Equal(t, "AI Assistants", got.Categories[0].Category)
	assert.InDelta(t, 0.9, got.Categories[0].Confidence, 1e-9)
}

func TestMatchCategories_SortedAndStable(t *testing.T) {
	a := analyzer.New(nil)

	// one keyword each for Development and Writing: ties keep table order
	got := a.MatchCategories("python blog")
	assert.Equal(t, []string{"Development", "Writing"}, categoryNames(got))

	got = a.MatchCategories("blog content python")
	assert.Equal(t, []string{"Writing", "Development"}, categoryNames(got))
}

func TestExtractEntities_PriceRange(t *testing.T) {
	a := analyzer.New(nil)

	cases := map[string]domain.PriceRange{
		"anything free or cheap":     domain.PriceRangeFree,
		"something affordable":       domain.PriceRangeBudget,
		"enterprise plans":           domain.PriceRangePremium,
		"a premium but low cost one": domain.PriceRangeBudget,
		"no money words here":        domain.PriceRangeNone,
	}
	for text, want := range cases {
		assert.Equal(t, want, a.ExtractEntities(text).PriceRange, "text %q", text)
	}
}

func TestExtractEntities_LiteralPrices(t *testing.T) {
	a := analyzer.New(nil)

	got := a.ExtractEntities("anything between $20 and $100, not $ 5")
	assert.Equal(t, []string{"$20", "$100"}, got.MentionedPrices)

	// normalization strips "$" before classification
	got = a.ExtractEntities(analyzer.Normalize("under $20"))
	assert.Empty(t, got.MentionedPrices)
}

func TestExtractEntities_Products(t *testing.T) {
	a := analyzer.New(nil)

	got := a.ExtractEntities("is github copilot better than jasper or canva")
	assert.Equal(t, []string{"github copilot", "jasper", "canva"}, got.MentionedProducts)

	got = a.ExtractEntities("nothing known")
	assert.NotNil(t, got.MentionedProducts)
	assert.Empty(t, got.MentionedProducts)
}

func TestTopics(t *testing.T) {
	a := analyzer.New(nil)

	assert.Equal(t, []string{"AI Art", "Development"}, a.Topics("python image"))
	assert.Empty(t, a.Topics("hello there"))
}
