package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/port"
	shared "github.com/boddenberg/product-advisor-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Saved user data: /v1/users/me
// ============================================================

type favoriteRequest struct {
	ProductID *int `json:"productId"`
}

type favoriteResponse struct {
	ProductID int  `json:"productId"`
	Favorite  bool `json:"favorite"`
}

type recentSearchRequest struct {
	Term string `json:"term"`
}

type comparisonRequest struct {
	ProductIDs []int  `json:"productIds"`
	Title      string `json:"title,omitempty"`
}

func getPreferencesHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/preferences")
		defer span.End()

		prefs, err := store.GetPreferences(ctx, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

func updatePreferencesHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/me/preferences")
		defer span.End()

		var updates map[string]any
		if !decodeBody(w, r, &updates, false) {
			return
		}

		prefs, err := store.SetPreferences(ctx, IdentityFromContext(ctx).UserID, updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

// --- Favorites ---

func listFavoritesHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/favorites")
		defer span.End()

		favs, err := store.GetFavorites(ctx, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, shared.ListResponse[int]{Data: favs, Total: len(favs)})
	}
}

func addFavoriteHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/me/favorites")
		defer span.End()

		var req favoriteRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		if req.ProductID == nil {
			writeError(w, http.StatusBadRequest, "productId is required")
			return
		}

		added, err := store.AddFavorite(ctx, IdentityFromContext(ctx).UserID, *req.ProductID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		writeJSON(w, status, favoriteResponse{ProductID: *req.ProductID, Favorite: true})
	}
}

func getFavoriteHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/favorites/{productId}")
		defer span.End()

		productID, ok := productIDParam(w, r)
		if !ok {
			return
		}

		is, err := store.IsFavorite(ctx, IdentityFromContext(ctx).UserID, productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, favoriteResponse{ProductID: productID, Favorite: is})
	}
}

func toggleFavoriteHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/me/favorites/{productId}/toggle")
		defer span.End()

		productID, ok := productIDParam(w, r)
		if !ok {
			return
		}

		is, err := store.ToggleFavorite(ctx, IdentityFromContext(ctx).UserID, productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, favoriteResponse{ProductID: productID, Favorite: is})
	}
}

func removeFavoriteHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/me/favorites/{productId}")
		defer span.End()

		productID, ok := productIDParam(w, r)
		if !ok {
			return
		}

		if err := store.RemoveFavorite(ctx, IdentityFromContext(ctx).UserID, productID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Recent searches ---

func listRecentSearchesHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/recent-searches")
		defer span.End()

		searches, err := store.GetRecentSearches(ctx, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, shared.ListResponse[string]{Data: searches, Total: len(searches)})
	}
}

func addRecentSearchHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/me/recent-searches")
		defer span.End()

		var req recentSearchRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		if strings.TrimSpace(req.Term) == "" {
			writeError(w, http.StatusBadRequest, "term is required")
			return
		}

		userID := IdentityFromContext(ctx).UserID
		if _, err := store.AddRecentSearch(ctx, userID, req.Term); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		searches, err := store.GetRecentSearches(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, shared.ListResponse[string]{Data: searches, Total: len(searches)})
	}
}

func clearRecentSearchesHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/me/recent-searches")
		defer span.End()

		if err := store.ClearRecentSearches(ctx, IdentityFromContext(ctx).UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Comparison history ---

func listComparisonsHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/comparisons")
		defer span.End()

		history, err := store.GetComparisonHistory(ctx, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, shared.ListResponse[domain.ComparisonRecord]{Data: history, Total: len(history)})
	}
}

func addComparisonHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/me/comparisons")
		defer span.End()

		var req comparisonRequest
		if !decodeBody(w, r, &req, false) {
			return
		}

		rec, err := store.AddComparison(ctx, IdentityFromContext(ctx).UserID, domain.ComparisonRecord{
			ProductIDs: req.ProductIDs,
			Title:      req.Title,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func clearComparisonsHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/me/comparisons")
		defer span.End()

		if err := store.ClearComparisonHistory(ctx, IdentityFromContext(ctx).UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Interactions & erasure ---

func listInteractionsHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/me/interactions")
		defer span.End()

		recs, err := store.ListInteractions(ctx, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, shared.ListResponse[domain.InteractionRecord]{Data: recs, Total: len(recs)})
	}
}

func clearUserDataHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/me")
		defer span.End()

		if err := store.ClearUserData(ctx, IdentityFromContext(ctx).UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
