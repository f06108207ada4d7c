package rules_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/rules"
)

const minimalRules = `
version: 1
scoring:
  intent_base: 0.5
  intent_step: 0.2
  category_step: 0.3
  max_confidence: 0.9
  fallback_confidence: 0.5
intents:
  - intent: pricing
    patterns: [price]
  - intent: recommendation
    patterns: [recommend]
categories:
  - name: Audio
    keywords: [podcast, music]
    products: [7]
    follow_ups: ["Do you edit or generate audio?"]
`

func TestDefault_TablesInPriorityOrder(t *testing.T) {
	rs := rules.Default()

	var order []domain.Intent
	for _, r := range rs.Intents {
		order = append(order, r.Intent)
	}
	assert.Equal(t, []domain.Intent{
		domain.IntentRecommendation,
		domain.IntentComparison,
		domain.IntentInformation,
		domain.IntentPricing,
		domain.IntentFeatures,
	}, order)

	assert.Equal(t, []string{"AI Assistants", "AI Art", "Productivity", "Development", "Writing", "Analytics"}, rs.CategoryNames())

	art, ok := rs.Category("AI Art")
	require.True(t, ok)
	assert.Equal(t, []int{3, 6}, art.ProductIDs)
	assert.Len(t, art.FollowUps, 3)

	writing, ok := rs.Category("Writing")
	require.True(t, ok)
	assert.Empty(t, writing.ProductIDs)

	_, ok = rs.Category("Gaming")
	assert.False(t, ok)

	assert.Contains(t, rs.Products, "github copilot")
	assert.Equal(t, domain.PriceRangeFree, rs.PriceRanges[0].Range)
}

func TestParse_Minimal(t *testing.T) {
	rs, err := rules.Parse([]byte(minimalRules))
	require.NoError(t, err)

	assert.Equal(t, domain.IntentPricing, rs.Intents[0].Intent)
	assert.Equal(t, 0.9, rs.Scoring.MaxConfidence)
	assert.Equal(t, []string{"Audio"}, rs.CategoryNames())
}

func TestParse_RejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "unknown intent",
			mutate:  func(s string) string { return strings.Replace(s, "intent: pricing", "intent: haggling", 1) },
			wantErr: "unknown intent",
		},
		{
			name:    "duplicate intent",
			mutate:  func(s string) string { return strings.Replace(s, "intent: recommendation", "intent: pricing", 1) },
			wantErr: "duplicate intent",
		},
		{
			name:    "upper case pattern",
			mutate:  func(s string) string { return strings.Replace(s, "[podcast, music]", "[Podcast]", 1) },
			wantErr: "lower case",
		},
		{
			name:    "max confidence above one",
			mutate:  func(s string) string { return strings.Replace(s, "max_confidence: 0.9", "max_confidence: 1.5", 1) },
			wantErr: "max_confidence",
		},
		{
			name:    "empty keywords",
			mutate:  func(s string) string { return strings.Replace(s, "[podcast, music]", "[]", 1) },
			wantErr: "no patterns",
		},
		{
			name:    "not yaml",
			mutate:  func(string) string { return "intents: [" },
			wantErr: "unmarshal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Parse([]byte(tt.mutate(minimalRules)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	rs, err := rules.Load("")
	require.NoError(t, err)
	assert.Len(t, rs.Categories, 6)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalRules), 0o600))
	rs, err = rules.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audio"}, rs.CategoryNames())

	_, err = rules.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
