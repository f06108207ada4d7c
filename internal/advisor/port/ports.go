// Package port defines what the advisor needs from the outside world.
// Following the hexagonal layout used across the service, the session depends
// on these interfaces and never on a concrete store.
package port

import (
	"context"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
)

// PreferenceStore reads the user's saved data. The advisor only calls it
// while initializing a session.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (map[string]any, error)
	GetFavorites(ctx context.Context, userID string) ([]int, error)
	GetRecentSearches(ctx context.Context, userID string) ([]string, error)
	GetComparisonHistory(ctx context.Context, userID string) ([]domain.ComparisonRecord, error)
}

// InteractionLog receives one record per successful turn. Implementations keep
// a bounded history and may drop records; callers ignore failures.
type InteractionLog interface {
	Append(ctx context.Context, rec *domain.InteractionRecord) error
}

// UserDataStore is the full read/write surface over a user's saved data,
// used by the profile endpoints.
type UserDataStore interface {
	PreferenceStore

	SetPreferences(ctx context.Context, userID string, updates map[string]any) (map[string]any, error)

	AddFavorite(ctx context.Context, userID string, productID int) (bool, error)
	RemoveFavorite(ctx context.Context, userID string, productID int) error
	ToggleFavorite(ctx context.Context, userID string, productID int) (bool, error)
	IsFavorite(ctx context.Context, userID string, productID int) (bool, error)

	AddRecentSearch(ctx context.Context, userID, term string) (bool, error)
	ClearRecentSearches(ctx context.Context, userID string) error

	AddComparison(ctx context.Context, userID string, rec domain.ComparisonRecord) (*domain.ComparisonRecord, error)
	ClearComparisonHistory(ctx context.Context, userID string) error

	ListInteractions(ctx context.Context, userID string) ([]domain.InteractionRecord, error)

	ClearUserData(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}
