package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/service"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Advisor sessions: /v1/advisor/sessions
// ============================================================

type createSessionRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type sessionResponse struct {
	SessionID   string                   `json:"sessionId"`
	Greeting    string                   `json:"greeting"`
	State       domain.ConversationState `json:"state"`
	UserContext *domain.UserContext      `json:"userContext"`
}

type messageRequest struct {
	Message *string `json:"message"`
}

type messageResponse struct {
	SessionID string `json:"sessionId"`
	*domain.Result
}

type historyResponse struct {
	SessionID       string                   `json:"sessionId"`
	State           domain.ConversationState `json:"state"`
	Expired         bool                     `json:"expired"`
	LastInteraction *time.Time               `json:"lastInteraction,omitempty"`
	History         []domain.Turn            `json:"history"`
}

type contextResponse struct {
	SessionID    string              `json:"sessionId"`
	UserContext  *domain.UserContext `json:"userContext"`
	RecentTopics []string            `json:"recentTopics"`
}

func createSessionHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/advisor/sessions")
		defer span.End()

		var req createSessionRequest
		if !decodeBody(w, r, &req, true) {
			return
		}

		id := IdentityFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", id.UserID))

		profile := &domain.Profile{UserID: id.UserID, Name: id.Name, Email: req.Email}
		if req.Name != "" {
			profile.Name = req.Name
		}

		s, err := mgr.Create(ctx, profile)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, sessionResponse{
			SessionID:   s.ID(),
			Greeting:    s.Greeting(),
			State:       s.State(),
			UserContext: s.UserContext(),
		})
	}
}

func sendMessageHandler(mgr *service.Manager, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/advisor/sessions/{sessionId}/messages")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))

		var req messageRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		if req.Message == nil {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		s, err := mgr.Get(sessionID, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		start := time.Now()
		res := s.GetResponse(ctx, *req.Message)
		metrics.RecordRequestDuration("advisor_message", time.Since(start))

		writeJSON(w, http.StatusOK, messageResponse{SessionID: sessionID, Result: res})
	}
}

func historyHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/advisor/sessions/{sessionId}/history")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		s, err := mgr.Get(sessionID, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := historyResponse{
			SessionID: sessionID,
			State:     s.State(),
			Expired:   s.IsConversationExpired(),
			History:   s.ConversationHistory(),
		}
		if last := s.LastInteraction(); !last.IsZero() {
			resp.LastInteraction = &last
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func clearHistoryHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/advisor/sessions/{sessionId}/history")
		defer span.End()

		s, err := mgr.Get(chi.URLParam(r, "sessionId"), IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		s.ClearConversation()
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionContextHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/advisor/sessions/{sessionId}/context")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		s, err := mgr.Get(sessionID, IdentityFromContext(ctx).UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, contextResponse{
			SessionID:    sessionID,
			UserContext:  s.UserContext(),
			RecentTopics: s.RecentTopics(),
		})
	}
}

// updateSessionContextHandler merges a partial user context into the
// session. The profile's user ID always stays the caller's.
func updateSessionContextHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/advisor/sessions/{sessionId}/context")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		userID := IdentityFromContext(ctx).UserID
		s, err := mgr.Get(sessionID, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var patch domain.UserContext
		if !decodeBody(w, r, &patch, false) {
			return
		}
		if patch.Profile != nil {
			patch.Profile.UserID = userID
		}
		s.SetUserContext(&patch)

		writeJSON(w, http.StatusOK, contextResponse{
			SessionID:    sessionID,
			UserContext:  s.UserContext(),
			RecentTopics: s.RecentTopics(),
		})
	}
}

func deleteSessionHandler(mgr *service.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/advisor/sessions/{sessionId}")
		defer span.End()

		if err := mgr.Delete(chi.URLParam(r, "sessionId"), IdentityFromContext(ctx).UserID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
