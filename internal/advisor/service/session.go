package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/composer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session is one conversation: its history, its user context and its
// identity. Turns are serialized by the session's own lock, so callers may
// share a *Session across goroutines; independent sessions never contend.
type Session struct {
	advisor *Advisor

	mu              sync.Mutex
	id              string
	userID          string
	history         []domain.Turn
	lastInteraction time.Time
	userCtx         *domain.UserContext
}

// ============================================================
// Lifecycle
// ============================================================

// Initialize replaces the user context with profile plus the user's saved
// preferences, favorites, recent searches and comparison history. A store
// failure is logged and leaves the context at its defaults.
func (s *Session) Initialize(ctx context.Context, profile *domain.Profile) {
	ctx, span := tracer.Start(ctx, "Session.Initialize")
	defer span.End()

	uc := domain.NewUserContext(profile)
	userID := ""
	if profile != nil {
		userID = profile.UserID
	}
	span.SetAttributes(attribute.String("user.id", userID))

	if prefs := s.advisor.prefs; prefs != nil {
		if err := s.loadUserData(ctx, userID, uc); err != nil {
			span.RecordError(err)
			s.advisor.logger.Warn("preference store unavailable, using default user context",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			uc = domain.NewUserContext(profile)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.userCtx = uc
	s.advisor.logger.Debug("advisor session initialized",
		zap.String("session_id", s.sessionID()),
		zap.String("user_id", userID),
		zap.Int("favorites", len(uc.Favorites)),
	)
}

func (s *Session) loadUserData(ctx context.Context, userID string, uc *domain.UserContext) error {
	var (
		preferences map[string]any
		favorites   []int
		searches    []string
		comparisons []domain.ComparisonRecord
	)
	prefs := s.advisor.prefs

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		preferences, err = prefs.GetPreferences(gCtx, userID)
		return s.storeErr("preferences", err)
	})
	g.Go(func() (err error) {
		favorites, err = prefs.GetFavorites(gCtx, userID)
		return s.storeErr("favorites", err)
	})
	g.Go(func() (err error) {
		searches, err = prefs.GetRecentSearches(gCtx, userID)
		return s.storeErr("recent_searches", err)
	})
	g.Go(func() (err error) {
		comparisons, err = prefs.GetComparisonHistory(gCtx, userID)
		return s.storeErr("comparison_history", err)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if preferences != nil {
		uc.Preferences = preferences
	}
	if favorites != nil {
		uc.Favorites = favorites
	}
	if searches != nil {
		uc.RecentSearches = searches
	}
	if comparisons != nil {
		uc.ComparisonHistory = comparisons
	}
	return nil
}

func (s *Session) storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	s.advisor.metrics.IncrStoreError(op)
	return fmt.Errorf("%s fetch: %w", op, err)
}

// ID returns the session identifier, generating it on first use.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionID()
}

func (s *Session) sessionID() string {
	if s.id == "" {
		if id, err := uuid.NewV7(); err == nil {
			s.id = id.String()
		} else {
			s.id = uuid.NewString()
		}
	}
	return s.id
}

// UserID is the user the session was initialized for, "" when anonymous.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

// ============================================================
// Turns
// ============================================================

// GetResponse answers one utterance. It never fails: an internal error or
// panic yields a Result with Success=false and the apology text, and leaves
// history and user context untouched.
func (s *Session) GetResponse(ctx context.Context, message string) *domain.Result {
	ctx, span := tracer.Start(ctx, "Session.GetResponse")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.advisor
	start := a.cfg.Now()
	span.SetAttributes(attribute.String("session.id", s.sessionID()))

	res, rec, err := s.turn(message, start)
	if err != nil {
		a.metrics.IncrFailedTurn()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("advisor turn failed",
			zap.String("session_id", s.sessionID()),
			zap.Error(err),
		)
		return &domain.Result{
			Success:           false,
			Response:          composer.Apology(),
			Categories:        []domain.CategoryMatch{},
			Recommendations:   []domain.Recommendation{},
			FollowUpQuestions: []string{},
			Error:             err.Error(),
		}
	}

	span.SetAttributes(
		attribute.String("advisor.intent", res.Intent.String()),
		attribute.Int("advisor.categories", len(res.Categories)),
	)
	a.metrics.RecordTurn(res.Intent, res.Categories, res.Metadata.LowConfidence, res.Metadata.ResponseTime)
	s.track(ctx, rec)
	return res
}

// turn runs classification and composition, then commits the two turns. The
// commit happens only after everything that can fail has succeeded.
func (s *Session) turn(message string, start time.Time) (res *domain.Result, rec *domain.InteractionRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.advisor.logger.Error("recovered advisor panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res, rec, err = nil, nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	a := s.advisor
	text := analyzer.Normalize(message)
	analysis := a.classifier.Analyze(text)

	reply, err := a.responder.Compose(analysis, s.userCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("compose reply: %w", err)
	}

	now := a.cfg.Now()
	s.appendTurns(
		domain.Turn{Role: domain.RoleUser, Content: text, Timestamp: start},
		domain.Turn{Role: domain.RoleAssistant, Content: reply.Text, Timestamp: now},
	)
	s.lastInteraction = now
	for _, c := range analysis.Categories {
		s.userCtx.Interests[c.Category] += c.Confidence
	}

	confidence := reply.Confidence
	if confidence == 0 {
		confidence = defaultReplyConfidence
	}
	elapsed := now.Sub(start)

	res = &domain.Result{
		Success:           true,
		Response:          reply.Text,
		Intent:            analysis.Intent,
		Categories:        nonNilMatches(analysis.Categories),
		Recommendations:   reply.Recommendations,
		FollowUpQuestions: reply.FollowUpQuestions,
		Metadata: domain.ResultMetadata{
			Confidence:    confidence,
			LowConfidence: analysis.Confidence < a.cfg.ConfidenceThreshold,
			ResponseTime:  elapsed,
		},
	}
	rec = &domain.InteractionRecord{
		SessionID:    s.sessionID(),
		UserID:       s.userID,
		UserMessage:  text,
		AIResponse:   reply.Text,
		Intent:       analysis.Intent,
		Categories:   res.Categories,
		ResponseTime: elapsed,
		Timestamp:    now,
	}
	return res, rec, nil
}

func (s *Session) appendTurns(turns ...domain.Turn) {
	s.history = append(s.history, turns...)
	if limit := s.advisor.cfg.MaxConversationHistory; len(s.history) > limit {
		s.history = append(s.history[:0:0], s.history[len(s.history)-limit:]...)
	}
}

// track hands the record to the interaction log. Failures are logged only.
func (s *Session) track(ctx context.Context, rec *domain.InteractionRecord) {
	log := s.advisor.interactions
	if log == nil {
		return
	}
	if err := log.Append(ctx, rec); err != nil {
		s.advisor.logger.Warn("failed to track interaction",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
	}
}

func nonNilMatches(m []domain.CategoryMatch) []domain.CategoryMatch {
	if m == nil {
		return []domain.CategoryMatch{}
	}
	return m
}

// ============================================================
// Conversation state
// ============================================================

// ClearConversation empties the history and returns the session to idle.
// The user context is kept.
func (s *Session) ClearConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = s.history[:0:0]
	s.lastInteraction = time.Time{}
	s.advisor.logger.Debug("conversation cleared", zap.String("session_id", s.sessionID()))
}

// ConversationHistory returns a copy of the history, oldest turn first.
func (s *Session) ConversationHistory() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Turn{}, s.history...)
}

// IsConversationExpired reports whether the last turn is older than the
// conversation timeout. A session with no turns is never expired.
func (s *Session) IsConversationExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expired()
}

func (s *Session) expired() bool {
	if s.lastInteraction.IsZero() {
		return false
	}
	return s.advisor.cfg.Now().Sub(s.lastInteraction) > s.advisor.cfg.ConversationTimeout
}

// State reports where the conversation is in its lifecycle.
func (s *Session) State() domain.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.lastInteraction.IsZero():
		return domain.StateIdle
	case s.expired():
		return domain.StateExpired
	default:
		return domain.StateActive
	}
}

// LastInteraction is the time of the last successful turn, zero when idle.
func (s *Session) LastInteraction() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastInteraction
}

// ============================================================
// User context
// ============================================================

// Greeting returns an opening line, personalized with the user's name.
func (s *Session) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.advisor.responder.Greeting(s.userCtx)
}

// RecentTopics lists the categories mentioned by the user among the last ten
// history entries, in first-mention order.
func (s *Session) RecentTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.history
	if len(recent) > recentTopicsWindow {
		recent = recent[len(recent)-recentTopicsWindow:]
	}

	topics := []string{}
	seen := make(map[string]bool)
	for _, t := range recent {
		if t.Role != domain.RoleUser {
			continue
		}
		for _, topic := range s.advisor.classifier.Topics(t.Content) {
			if !seen[topic] {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}
	return topics
}

// UserContext returns a copy of the session's user context.
func (s *Session) UserContext() *domain.UserContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userCtx.Clone()
}

// SetUserContext merges patch into the session's user context.
func (s *Session) SetUserContext(patch *domain.UserContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userCtx.Merge(patch)
	if patch != nil && patch.Profile != nil && patch.Profile.UserID != "" {
		s.userID = patch.Profile.UserID
	}
}
