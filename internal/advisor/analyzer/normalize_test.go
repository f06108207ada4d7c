package analyzer_test

import (
	"regexp"
	"testing"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

var normalizedShape = regexp.MustCompile(`^([a-z0-9]+( [a-z0-9]+)*)?$`)

func TestNormalize_Examples(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"   \t\n ":                         "",
		"What's the best AI writing tool?": "what s the best ai writing tool",
		"Compare ChatGPT vs. Claude!!":     "compare chatgpt vs claude",
		"  HELLO   world  ":                "hello world",
		"price: $20/month":                 "price 20 month",
		"snake_case-and.dots":              "snake case and dots",
		"café über naïve":                  "caf ber na ve",
	}
	for in, want := range cases {
		assert.Equal(t, want, analyzer.Normalize(in), "input %q", in)
	}
}

func TestNormalize_IdempotentAndWellFormed(t *testing.T) {
	faker := gofakeit.New(42)
	inputs := []string{" non-breaking spaces ", "tabs\tand\nnewlines", "ÄÖÜ ß 日本語 😀"}
	for i := 0; i < 200; i++ {
		inputs = append(inputs,
			faker.Sentence(8),
			faker.Question(),
			faker.HackerPhrase(),
			faker.LetterN(12)+faker.Emoji()+faker.Numerify("$###"),
		)
	}

	for _, in := range inputs {
		once := analyzer.Normalize(in)
		assert.Equal(t, once, analyzer.Normalize(once), "not idempotent for %q", in)
		assert.Regexp(t, normalizedShape, once, "bad shape for %q", in)
	}
}
