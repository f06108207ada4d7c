// Package composer turns an analysis into the advisor's reply: canned text,
// product-ID recommendations and follow-up questions, then applies the
// per-user personalization.
package composer

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/rules"
)

const (
	// DefaultMaxRecommendations caps the recommendation list.
	DefaultMaxRecommendations = 5
	maxFollowUps              = 3
	recommendationConfidence  = 0.9
)

var greetingPrefix = regexp.MustCompile(`^(Hi|Hello)!?`)

// Options tunes a Composer. Zero values take the defaults.
type Options struct {
	MaxRecommendations int
	// Pick returns an index in [0, n). It selects among equivalent canned
	// texts; tests pin it to get stable output.
	Pick func(n int) int
}

// Composer builds replies from static templates and rule tables.
type Composer struct {
	rules   *rules.RuleSet
	maxRecs int
	pick    func(n int) int
}

// New creates a Composer over rs. A nil rs uses the embedded defaults.
func New(rs *rules.RuleSet, opts Options) *Composer {
	if rs == nil {
		rs = rules.Default()
	}
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = DefaultMaxRecommendations
	}
	if opts.Pick == nil {
		opts.Pick = rand.Intn
	}
	return &Composer{rules: rs, maxRecs: opts.MaxRecommendations, pick: opts.Pick}
}

// Compose selects the reply for a by intent and personalizes it for uc.
// It only fails for an intent outside the declared set.
func (c *Composer) Compose(a *domain.Analysis, uc *domain.UserContext) (*domain.Reply, error) {
	if a == nil {
		return nil, fmt.Errorf("compose: nil analysis")
	}

	reply := &domain.Reply{
		Recommendations:   []domain.Recommendation{},
		FollowUpQuestions: []string{},
		Confidence:        a.Confidence,
	}

	switch a.Intent {
	case domain.IntentRecommendation:
		reply.Text = c.recommendationText(a)
		reply.Recommendations = c.recommendations(a)
		reply.FollowUpQuestions = c.followUps(a)
	case domain.IntentComparison:
		reply.Text = comparisonText(a)
	case domain.IntentPricing:
		reply.Text = pricingText(a)
	case domain.IntentFeatures, domain.IntentInformation:
		// No dedicated template exists for either; both answer with the
		// fallback family.
		reply.Text = c.Fallback()
	default:
		return nil, fmt.Errorf("compose: unsupported intent %s", a.Intent)
	}

	reply.Text = c.Personalize(reply.Text, a.Intent, uc)
	return reply, nil
}

// Personalize applies, in order, the named greeting and the favorites note.
// It never touches the rest of the text.
func (c *Composer) Personalize(text string, intent domain.Intent, uc *domain.UserContext) string {
	if name := uc.DisplayName(); name != "" {
		text = greetingPrefix.ReplaceAllLiteralString(text, "Hi "+name+"!")
	}
	if intent == domain.IntentRecommendation && uc != nil && len(uc.Favorites) > 0 {
		text += favoritesNote
	}
	return text
}

// Greeting returns an opening line for a new conversation, personalized when
// the user's name is known.
func (c *Composer) Greeting(uc *domain.UserContext) string {
	return c.Personalize(greetings[c.pick(len(greetings))], domain.IntentUnknown, uc)
}

// Fallback returns one of the generic "tell me more" replies.
func (c *Composer) Fallback() string {
	return fallbacks[c.pick(len(fallbacks))]
}

// Apology is the reply used when a turn fails.
func Apology() string {
	return apologyText
}

// Fallbacks lists every text Fallback can return.
func Fallbacks() []string {
	return append([]string(nil), fallbacks...)
}

// Greetings lists every unpersonalized text Greeting can return.
func Greetings() []string {
	return append([]string(nil), greetings...)
}

func (c *Composer) recommendationText(a *domain.Analysis) string {
	category, ok := a.PrimaryCategory()
	if !ok {
		return clarifyRecommendationText
	}
	if text, ok := categoryTemplates[category]; ok {
		return text
	}
	return genericRecommendationText
}

func (c *Composer) recommendations(a *domain.Analysis) []domain.Recommendation {
	recs := []domain.Recommendation{}
	category, ok := a.PrimaryCategory()
	if !ok {
		return recs
	}
	rule, ok := c.rules.Category(category)
	if !ok {
		return recs
	}
	reason := "Perfect match for " + strings.ToLower(category)
	for _, id := range rule.ProductIDs {
		if len(recs) == c.maxRecs {
			break
		}
		recs = append(recs, domain.Recommendation{
			ProductID:  id,
			Reason:     reason,
			Confidence: recommendationConfidence,
		})
	}
	return recs
}

func (c *Composer) followUps(a *domain.Analysis) []string {
	category, ok := a.PrimaryCategory()
	if !ok {
		return append([]string(nil), genericFollowUps...)
	}
	rule, _ := c.rules.Category(category)
	questions := rule.FollowUps
	if len(questions) > maxFollowUps {
		questions = questions[:maxFollowUps]
	}
	return append([]string{}, questions...)
}

func comparisonText(a *domain.Analysis) string {
	products := a.Entities.MentionedProducts
	if len(products) >= 2 {
		return fmt.Sprintf(comparisonTemplate, products[0], products[1])
	}
	return clarifyComparisonText
}

func pricingText(a *domain.Analysis) string {
	switch a.Entities.PriceRange {
	case domain.PriceRangeFree:
		return freePricingText
	case domain.PriceRangeBudget:
		return budgetPricingText
	default:
		return generalPricingText
	}
}
