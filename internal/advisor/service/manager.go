package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	shared "github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/cache"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// Manager owns the live sessions of the HTTP host. Sessions idle for longer
// than the TTL are evicted; every access refreshes it. The TTL should exceed
// the conversation timeout so an expired conversation can still resume.
type Manager struct {
	advisor  *Advisor
	sessions *cache.InMemory[*Session]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewManager creates a Manager. bulkhead caps how many sessions may load user
// data from the preference store at the same time.
func NewManager(advisor *Advisor, ttl time.Duration, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *Manager {
	m := &Manager{
		advisor:  advisor,
		sessions: cache.New[*Session](ttl),
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
	m.sessions.OnEvict(func(id string, s *Session) {
		m.metrics.SessionClosed()
		m.logger.Debug("advisor session closed",
			zap.String("session_id", id),
			zap.String("user_id", s.UserID()),
		)
	})
	return m
}

// Create starts and initializes a session for profile.
func (m *Manager) Create(ctx context.Context, profile *domain.Profile) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Manager.Create")
	defer span.End()

	if err := m.bulkhead.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("session init slot: %w", err)
	}
	s := m.advisor.NewSession()
	s.Initialize(ctx, profile)
	m.bulkhead.Release()

	id := s.ID()
	m.sessions.Set(id, s)
	m.metrics.SessionOpened()
	m.logger.Info("advisor session created",
		zap.String("session_id", id),
		zap.String("user_id", s.UserID()),
	)
	return s, nil
}

// Get returns the session with id if it belongs to userID. Sessions of other
// users are reported as not found.
func (m *Manager) Get(id, userID string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok || s.UserID() != userID {
		return nil, &shared.ErrNotFound{Resource: "session", ID: id}
	}
	m.sessions.Touch(id)
	return s, nil
}

// Delete disposes of the session with id.
func (m *Manager) Delete(id, userID string) error {
	if _, err := m.Get(id, userID); err != nil {
		return err
	}
	m.sessions.Delete(id)
	return nil
}

// Len counts sessions currently held, including expired ones awaiting cleanup.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Close stops the background eviction.
func (m *Manager) Close() {
	m.sessions.Close()
}
