// Package domain holds the types exchanged by the advisor: intents, category
// matches, extracted entities, conversation turns, user context and turn results.
package domain

import "fmt"

// Intent is the coarse purpose assigned to one user utterance.
// The set is closed; every switch over Intent in this module is exhaustive.
type Intent int

const (
	// IntentUnknown is the zero value; it is never produced by the classifier.
	IntentUnknown Intent = iota
	IntentRecommendation
	IntentComparison
	IntentPricing
	IntentFeatures
	IntentInformation
)

var intentNames = [...]string{
	IntentUnknown:        "unknown",
	IntentRecommendation: "recommendation",
	IntentComparison:     "comparison",
	IntentPricing:        "pricing",
	IntentFeatures:       "features",
	IntentInformation:    "information",
}

// Intents lists every intent in declaration order.
func Intents() []Intent {
	return []Intent{IntentRecommendation, IntentComparison, IntentPricing, IntentFeatures, IntentInformation}
}

// Valid reports whether i is one of the declared intents.
func (i Intent) Valid() bool {
	return i >= IntentRecommendation && i <= IntentInformation
}

func (i Intent) String() string {
	if i < IntentUnknown || i > IntentInformation {
		return fmt.Sprintf("intent(%d)", int(i))
	}
	return intentNames[i]
}

// ParseIntent maps a label such as "pricing" back to its Intent.
func ParseIntent(s string) (Intent, error) {
	for _, i := range Intents() {
		if intentNames[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}

// MarshalText encodes the intent as its label.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes an intent label.
func (i *Intent) UnmarshalText(b []byte) error {
	if string(b) == intentNames[IntentUnknown] {
		*i = IntentUnknown
		return nil
	}
	parsed, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// PriceRange is the budget bucket extracted from an utterance. The zero value
// means no bucket matched.
type PriceRange string

const (
	PriceRangeNone    PriceRange = ""
	PriceRangeFree    PriceRange = "free"
	PriceRangeBudget  PriceRange = "budget"
	PriceRangePremium PriceRange = "premium"
)
