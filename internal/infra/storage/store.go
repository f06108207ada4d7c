// Package storage persists per-user advisor data: preferences, favorites,
// recent searches, comparison history and the interaction log.
//
// Keys are namespaced as <prefix><userID>:<key> and values are wrapped in a
// {data, timestamp, version} envelope. The same Store logic runs over an
// in-memory map (local dev, tests) or Redis.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	advisordomain "github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Storage keys, shared with the mobile client.
const (
	KeyPreferences       = "userPreferences"
	KeyFavorites         = "favorites"
	KeyRecentSearches    = "recentSearches"
	KeyComparisonHistory = "comparisonHistory"
	KeyInteractions      = "aiInteractions"
)

const (
	DefaultPrefix           = "@AIProductAdvisor:"
	DefaultInteractionLimit = 100
	maxRecentSearches       = 20
	maxComparisonHistory    = 50
	anonymousUserID         = "anonymous"
)

// DefaultPreferences are merged under whatever the user saved.
func DefaultPreferences() map[string]any {
	return map[string]any{
		"notifications":  true,
		"darkMode":       false,
		"emailUpdates":   true,
		"language":       "en",
		"autoSync":       true,
		"analytics":      true,
		"crashReporting": true,
	}
}

// Options configures a Store.
type Options struct {
	Prefix           string
	InteractionLimit int
	Now              func() time.Time
}

// Store implements port.UserDataStore and port.InteractionLog.
type Store struct {
	backend          backend
	prefix           string
	interactionLimit int
	now              func() time.Time
	logger           *zap.Logger

	// serializes read-modify-write updates made through this process
	mu sync.Mutex
}

// NewMemory creates a Store kept entirely in process memory.
func NewMemory(opts Options, logger *zap.Logger) *Store {
	return newStore(newMemoryBackend(), opts, logger)
}

// NewRedis creates a Store over rdb, guarded by cb and retried per cfg.
func NewRedis(rdb *redis.Client, cb *gobreaker.CircuitBreaker, cfg resilience.Config, opts Options, logger *zap.Logger) *Store {
	return newStore(&redisBackend{rdb: rdb, cb: cb, cfg: cfg}, opts, logger)
}

func newStore(b backend, opts Options, logger *zap.Logger) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.InteractionLimit <= 0 {
		opts.InteractionLimit = DefaultInteractionLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend:          b,
		prefix:           opts.Prefix,
		interactionLimit: opts.InteractionLimit,
		now:              opts.Now,
		logger:           logger,
	}
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) key(userID, key string) string {
	if userID == "" {
		userID = anonymousUserID
	}
	return s.prefix + userID + ":" + key
}

// getItem decodes the value at key into dst and reports whether it existed.
// A corrupt value is logged and treated as missing.
func (s *Store) getItem(ctx context.Context, userID, key string, dst any) (bool, error) {
	raw, ok, err := s.backend.Get(ctx, s.key(userID, key))
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := decodeValue(raw, dst); err != nil {
		s.logger.Warn("discarding unreadable stored value",
			zap.String("user_id", userID),
			zap.String("key", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

func (s *Store) setItem(ctx context.Context, userID, key string, v any) error {
	raw, err := encodeValue(v, s.now())
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.key(userID, key), raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// ============================================================
// Preferences
// ============================================================

// GetPreferences returns the saved preferences merged over the defaults.
func (s *Store) GetPreferences(ctx context.Context, userID string) (map[string]any, error) {
	prefs := DefaultPreferences()
	var saved map[string]any
	if _, err := s.getItem(ctx, userID, KeyPreferences, &saved); err != nil {
		return nil, err
	}
	for k, v := range saved {
		prefs[k] = v
	}
	return prefs, nil
}

// SetPreferences merges updates into the current preferences and returns the result.
func (s *Store) SetPreferences(ctx context.Context, userID string, updates map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	for k, v := range updates {
		prefs[k] = v
	}
	if err := s.setItem(ctx, userID, KeyPreferences, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// ============================================================
// Favorites
// ============================================================

// GetFavorites returns the favorite product IDs in insertion order.
func (s *Store) GetFavorites(ctx context.Context, userID string) ([]int, error) {
	favorites := []int{}
	if _, err := s.getItem(ctx, userID, KeyFavorites, &favorites); err != nil {
		return nil, err
	}
	if favorites == nil {
		favorites = []int{}
	}
	return favorites, nil
}

// AddFavorite appends productID unless it is already a favorite.
func (s *Store) AddFavorite(ctx context.Context, userID string, productID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addFavorite(ctx, userID, productID)
}

func (s *Store) addFavorite(ctx context.Context, userID string, productID int) (bool, error) {
	favorites, err := s.GetFavorites(ctx, userID)
	if err != nil {
		return false, err
	}
	if slices.Contains(favorites, productID) {
		return false, nil
	}
	favorites = append(favorites, productID)
	if err := s.setItem(ctx, userID, KeyFavorites, favorites); err != nil {
		return false, err
	}
	s.logger.Debug("favorite added", zap.String("user_id", userID), zap.Int("product_id", productID))
	return true, nil
}

// RemoveFavorite drops productID from the favorites; missing IDs are fine.
func (s *Store) RemoveFavorite(ctx context.Context, userID string, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeFavorite(ctx, userID, productID)
}

func (s *Store) removeFavorite(ctx context.Context, userID string, productID int) error {
	favorites, err := s.GetFavorites(ctx, userID)
	if err != nil {
		return err
	}
	favorites = slices.DeleteFunc(favorites, func(id int) bool { return id == productID })
	return s.setItem(ctx, userID, KeyFavorites, favorites)
}

// IsFavorite reports whether productID is a favorite.
func (s *Store) IsFavorite(ctx context.Context, userID string, productID int) (bool, error) {
	favorites, err := s.GetFavorites(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(favorites, productID), nil
}

// ToggleFavorite flips productID and returns whether it is now a favorite.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, productID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.GetFavorites(ctx, userID)
	if err != nil {
		return false, err
	}
	if slices.Contains(favorites, productID) {
		return false, s.removeFavorite(ctx, userID, productID)
	}
	if _, err := s.addFavorite(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// ============================================================
// Recent searches
// ============================================================

// GetRecentSearches returns searches newest first.
func (s *Store) GetRecentSearches(ctx context.Context, userID string) ([]string, error) {
	searches := []string{}
	if _, err := s.getItem(ctx, userID, KeyRecentSearches, &searches); err != nil {
		return nil, err
	}
	if searches == nil {
		searches = []string{}
	}
	return searches, nil
}

// AddRecentSearch moves term to the front, removing case-insensitive
// duplicates and keeping the newest 20. Blank terms are ignored.
func (s *Store) AddRecentSearch(ctx context.Context, userID, term string) (bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.GetRecentSearches(ctx, userID)
	if err != nil {
		return false, err
	}
	lowered := strings.ToLower(term)
	searches = slices.DeleteFunc(searches, func(existing string) bool {
		return strings.ToLower(existing) == lowered
	})
	searches = append([]string{term}, searches...)
	if len(searches) > maxRecentSearches {
		searches = searches[:maxRecentSearches]
	}
	if err := s.setItem(ctx, userID, KeyRecentSearches, searches); err != nil {
		return false, err
	}
	return true, nil
}

// ClearRecentSearches empties the search history.
func (s *Store) ClearRecentSearches(ctx context.Context, userID string) error {
	return s.setItem(ctx, userID, KeyRecentSearches, []string{})
}

// ============================================================
// Comparison history
// ============================================================

// GetComparisonHistory returns comparisons newest first.
func (s *Store) GetComparisonHistory(ctx context.Context, userID string) ([]advisordomain.ComparisonRecord, error) {
	history := []advisordomain.ComparisonRecord{}
	if _, err := s.getItem(ctx, userID, KeyComparisonHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []advisordomain.ComparisonRecord{}
	}
	return history, nil
}

// AddComparison stamps rec with an ID and time, puts it first and keeps the
// newest 50.
func (s *Store) AddComparison(ctx context.Context, userID string, rec advisordomain.ComparisonRecord) (*advisordomain.ComparisonRecord, error) {
	if len(rec.ProductIDs) < 2 {
		return nil, &domain.ErrValidation{Field: "productIds", Message: "a comparison needs at least two products"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.GetComparisonHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec.ID = uuid.NewString()
	rec.Timestamp = s.now().UTC()
	history = append([]advisordomain.ComparisonRecord{rec}, history...)
	if len(history) > maxComparisonHistory {
		history = history[:maxComparisonHistory]
	}
	if err := s.setItem(ctx, userID, KeyComparisonHistory, history); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClearComparisonHistory empties the comparison history.
func (s *Store) ClearComparisonHistory(ctx context.Context, userID string) error {
	return s.setItem(ctx, userID, KeyComparisonHistory, []advisordomain.ComparisonRecord{})
}

// ============================================================
// Interaction log
// ============================================================

// Append stores rec under its user, keeping only the newest records.
func (s *Store) Append(ctx context.Context, rec *advisordomain.InteractionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	if err := s.backend.AppendCapped(ctx, s.key(rec.UserID, KeyInteractions), raw, s.interactionLimit); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// ListInteractions returns the retained interactions, oldest first.
func (s *Store) ListInteractions(ctx context.Context, userID string) ([]advisordomain.InteractionRecord, error) {
	raws, err := s.backend.List(ctx, s.key(userID, KeyInteractions))
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	out := make([]advisordomain.InteractionRecord, 0, len(raws))
	for _, raw := range raws {
		var rec advisordomain.InteractionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("skipping unreadable interaction", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ClearUserData removes every key stored for userID.
func (s *Store) ClearUserData(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{KeyPreferences, KeyFavorites, KeyRecentSearches, KeyComparisonHistory, KeyInteractions} {
		if err := s.backend.Delete(ctx, s.key(userID, key)); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	s.logger.Info("user data cleared", zap.String("user_id", userID))
	return nil
}
