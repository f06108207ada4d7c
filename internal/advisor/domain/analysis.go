package domain

// CategoryMatch records one product category whose keywords occur in an utterance.
type CategoryMatch struct {
	Category        string   `json:"category"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matchedKeywords"`
}

// Entities is the structured data pulled out of one utterance.
type Entities struct {
	MentionedProducts []string   `json:"mentionedProducts"`
	PriceRange        PriceRange `json:"priceRange,omitempty"`
	MentionedPrices   []string   `json:"mentionedPrices,omitempty"`
}

// Analysis is the full classification of one normalized utterance.
type Analysis struct {
	Text       string          `json:"text"`
	Intent     Intent          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Categories []CategoryMatch `json:"categories"`
	Entities   Entities        `json:"entities"`
}

// PrimaryCategory returns the highest-confidence category, if any matched.
func (a *Analysis) PrimaryCategory() (string, bool) {
	if len(a.Categories) == 0 {
		return "", false
	}
	return a.Categories[0].Category, true
}
