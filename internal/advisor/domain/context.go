package domain

import "time"

// Profile is what the caller knows about the user.
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// ComparisonRecord is one saved side-by-side comparison.
type ComparisonRecord struct {
	ID         string    `json:"id"`
	ProductIDs []int     `json:"productIds"`
	Title      string    `json:"title,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserContext accumulates what the advisor knows about the user for the
// lifetime of one session. Stored data is read once at initialization;
// Interests grows every turn.
type UserContext struct {
	Profile           *Profile           `json:"profile,omitempty"`
	Preferences       map[string]any     `json:"preferences"`
	Favorites         []int              `json:"favorites"`
	RecentSearches    []string           `json:"recentSearches"`
	ComparisonHistory []ComparisonRecord `json:"comparisonHistory"`
	Interests         map[string]float64 `json:"interests"`
}

// NewUserContext returns an empty context with every collection allocated.
func NewUserContext(profile *Profile) *UserContext {
	return &UserContext{
		Profile:           profile,
		Preferences:       map[string]any{},
		Favorites:         []int{},
		RecentSearches:    []string{},
		ComparisonHistory: []ComparisonRecord{},
		Interests:         map[string]float64{},
	}
}

// DisplayName returns the profile name, or "" when unknown.
func (c *UserContext) DisplayName() string {
	if c == nil || c.Profile == nil {
		return ""
	}
	return c.Profile.Name
}

// Clone returns a deep copy safe to hand outside the session.
func (c *UserContext) Clone() *UserContext {
	if c == nil {
		return nil
	}
	out := &UserContext{
		Preferences:       make(map[string]any, len(c.Preferences)),
		Favorites:         append([]int{}, c.Favorites...),
		RecentSearches:    append([]string{}, c.RecentSearches...),
		ComparisonHistory: make([]ComparisonRecord, len(c.ComparisonHistory)),
		Interests:         make(map[string]float64, len(c.Interests)),
	}
	if c.Profile != nil {
		p := *c.Profile
		out.Profile = &p
	}
	for k, v := range c.Preferences {
		out.Preferences[k] = v
	}
	for i, rec := range c.ComparisonHistory {
		rec.ProductIDs = append([]int(nil), rec.ProductIDs...)
		out.ComparisonHistory[i] = rec
	}
	for k, v := range c.Interests {
		out.Interests[k] = v
	}
	return out
}

// Merge overlays the non-empty fields of patch onto c. Preferences and
// interests are merged key by key; slices are replaced when non-nil.
func (c *UserContext) Merge(patch *UserContext) {
	if patch == nil {
		return
	}
	if patch.Profile != nil {
		p := *patch.Profile
		c.Profile = &p
	}
	for k, v := range patch.Preferences {
		c.Preferences[k] = v
	}
	if patch.Favorites != nil {
		c.Favorites = append([]int(nil), patch.Favorites...)
	}
	if patch.RecentSearches != nil {
		c.RecentSearches = append([]string(nil), patch.RecentSearches...)
	}
	if patch.ComparisonHistory != nil {
		c.ComparisonHistory = append([]ComparisonRecord(nil), patch.ComparisonHistory...)
	}
	for k, v := range patch.Interests {
		c.Interests[k] = v
	}
}
