// Package service runs advisor conversations. An Advisor holds the shared,
// read-only machinery (rules, analyzer, composer, stores); each conversation
// gets its own Session built from it.
package service

import (
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/port"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("advisor/service")

// Defaults for Config fields left at zero.
const (
	DefaultMaxConversationHistory = 50
	DefaultConversationTimeout    = 30 * time.Minute
	DefaultConfidenceThreshold    = 0.7
	defaultReplyConfidence        = 0.8
	recentTopicsWindow            = 10
)

// Config tunes every session created by an Advisor.
type Config struct {
	MaxConversationHistory int
	ConversationTimeout    time.Duration
	ConfidenceThreshold    float64
	// Now is the clock; tests pin it.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxConversationHistory <= 0 {
		c.MaxConversationHistory = DefaultMaxConversationHistory
	}
	if c.ConversationTimeout <= 0 {
		c.ConversationTimeout = DefaultConversationTimeout
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Classifier analyzes normalized utterances.
type Classifier interface {
	Analyze(text string) *domain.Analysis
	Topics(text string) []string
}

// Responder composes replies for analyses.
type Responder interface {
	Compose(a *domain.Analysis, uc *domain.UserContext) (*domain.Reply, error)
	Greeting(uc *domain.UserContext) string
}

// Advisor creates sessions that share one rule set and one set of stores.
type Advisor struct {
	cfg          Config
	classifier   Classifier
	responder    Responder
	prefs        port.PreferenceStore
	interactions port.InteractionLog
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewAdvisor wires the advisor. prefs and interactions may be nil, in which
// case sessions start with default context and skip interaction logging.
func NewAdvisor(
	cfg Config,
	classifier Classifier,
	responder Responder,
	prefs port.PreferenceStore,
	interactions port.InteractionLog,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Advisor {
	return &Advisor{
		cfg:          cfg.withDefaults(),
		classifier:   classifier,
		responder:    responder,
		prefs:        prefs,
		interactions: interactions,
		metrics:      metrics,
		logger:       logger,
	}
}

// NewSession returns an idle session with an empty user context. Call
// Initialize to load the user's saved data.
func (a *Advisor) NewSession() *Session {
	return &Session{
		advisor: a,
		userCtx: domain.NewUserContext(nil),
		history: make([]domain.Turn, 0, a.cfg.MaxConversationHistory),
	}
}
