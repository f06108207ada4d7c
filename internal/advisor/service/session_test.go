package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/composer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/port"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/service"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"
)

// --- Mocks ---

type mockPrefs struct {
	favorites []int
	searches  []string
	err       error
}

func (m *mockPrefs) GetPreferences(context.Context, string) (map[string]any, error) {
	if m.err != nil {
		return nil, m.err
	}
	return map[string]any{"language": "en"}, nil
}

func (m *mockPrefs) GetFavorites(context.Context, string) ([]int, error) {
	return m.favorites, m.err
}

func (m *mockPrefs) GetRecentSearches(context.Context, string) ([]string, error) {
	return m.searches, nil
}

func (m *mockPrefs) GetComparisonHistory(context.Context, string) ([]domain.ComparisonRecord, error) {
	return []domain.ComparisonRecord{}, nil
}

type mockLog struct {
	mu      sync.Mutex
	records []*domain.InteractionRecord
	err     error
}

func (m *mockLog) Append(_ context.Context, rec *domain.InteractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

type brokenResponder struct {
	panics bool
}

func (b *brokenResponder) Compose(*domain.Analysis, *domain.UserContext) (*domain.Reply, error) {
	if b.panics {
		panic("template table corrupted")
	}
	return nil, errors.New("no template")
}

func (b *brokenResponder) Greeting(*domain.UserContext) string { return "" }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Helpers ---

func first(int) int { return 0 }

type fixture struct {
	advisor *service.Advisor
	log     *mockLog
	clock   *clock
	metrics *observability.Metrics
}

func newFixture(t *testing.T, cfg service.Config, prefs port.PreferenceStore, responder service.Responder) *fixture {
	t.Helper()
	f := &fixture{
		log:     &mockLog{},
		clock:   &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		metrics: observability.NewMetrics(),
	}
	cfg.Now = f.clock.Now
	if responder == nil {
		responder = composer.New(nil, composer.Options{Pick: first})
	}
	f.advisor = service.NewAdvisor(cfg, analyzer.New(nil), responder, prefs, f.log, f.metrics, zap.NewNop())
	return f
}

// --- Tests ---

func TestGetResponse_Recommendation(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()
	s.Initialize(context.Background(), &domain.Profile{UserID: "u1", Name: "Ana"})

	res := s.GetResponse(context.Background(), "Which chat assistant do you recommend?")

	require.True(t, res.Success)
	assert.Equal(t, domain.IntentRecommendation, res.Intent)
	require.NotEmpty(t, res.Categories)
	assert.Equal(t, "AI Assistants", res.Categories[0].Category)
	assert.Len(t, res.Recommendations, 2)
	assert.Len(t, res.FollowUpQuestions, 3)
	assert.False(t, res.Metadata.LowConfidence)
	assert.Empty(t, res.Error)

	history := s.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "which chat assistant do you recommend", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, res.Response, history[1].Content)
	assert.Equal(t, domain.StateActive, s.State())

	uc := s.UserContext()
	assert.InDelta(t, res.Categories[0].Confidence, uc.Interests["AI Assistants"], 1e-9)
}

func TestGetResponse_InterestsAccumulate(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	s.GetResponse(context.Background(), "image generation")
	s.GetResponse(context.Background(), "art from an image")

	uc := s.UserContext()
	assert.InDelta(t, 0.6+0.6, uc.Interests["AI Art"], 1e-9)
}

func TestGetResponse_LowConfidenceAndDefaultMetadata(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	res := s.GetResponse(context.Background(), "hello there")

	require.True(t, res.Success)
	assert.Equal(t, domain.IntentInformation, res.Intent)
	assert.True(t, res.Metadata.LowConfidence)
	assert.InDelta(t, 0.5, res.Metadata.Confidence, 1e-9)
	assert.Contains(t, composer.Fallbacks(), res.Response)
	assert.NotNil(t, res.Categories)
	assert.NotNil(t, res.Recommendations)
}

func TestGetResponse_HistoryKeepsNewestTurns(t *testing.T) {
	f := newFixture(t, service.Config{MaxConversationHistory: 4}, nil, nil)
	s := f.advisor.NewSession()

	s.GetResponse(context.Background(), "first")
	s.GetResponse(context.Background(), "second")
	s.GetResponse(context.Background(), "third")

	history := s.ConversationHistory()
	require.Len(t, history, 4)
	assert.Equal(t, "second", history[0].Content)
	assert.Equal(t, "third", history[2].Content)
}

func TestGetResponse_DefaultHistoryLimit(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	for i := 0; i < 30; i++ {
		s.GetResponse(context.Background(), "pricing plans")
	}

	assert.Len(t, s.ConversationHistory(), service.DefaultMaxConversationHistory)
}

func TestGetResponse_ComposeErrorKeepsState(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, &brokenResponder{})
	s := f.advisor.NewSession()

	res := s.GetResponse(context.Background(), "recommend an image tool")

	assert.False(t, res.Success)
	assert.Equal(t, composer.Apology(), res.Response)
	assert.Contains(t, res.Error, "no template")
	assert.Empty(t, s.ConversationHistory())
	assert.Empty(t, s.UserContext().Interests)
	assert.Equal(t, domain.StateIdle, s.State())
	assert.Empty(t, f.log.records)
	assert.EqualValues(t, 1, f.metrics.GetAdvisorSnapshot().FailedTurns)
}

func TestGetResponse_PanicIsRecovered(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, &brokenResponder{panics: true})
	s := f.advisor.NewSession()

	var res *domain.Result
	require.NotPanics(t, func() {
		res = s.GetResponse(context.Background(), "anything")
	})

	assert.False(t, res.Success)
	assert.Equal(t, composer.Apology(), res.Response)
	assert.Contains(t, res.Error, "template table corrupted")
	assert.Empty(t, s.ConversationHistory())
}

func TestGetResponse_TracksInteraction(t *testing.T) {
	f := newFixture(t, service.Config{}, &mockPrefs{}, nil)
	s := f.advisor.NewSession()
	s.Initialize(context.Background(), &domain.Profile{UserID: "u1"})

	res := s.GetResponse(context.Background(), "How much does it cost?")

	require.Len(t, f.log.records, 1)
	rec := f.log.records[0]
	assert.Equal(t, s.ID(), rec.SessionID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "how much does it cost", rec.UserMessage)
	assert.Equal(t, res.Response, rec.AIResponse)
	assert.Equal(t, domain.IntentPricing, rec.Intent)
	assert.Equal(t, f.clock.Now(), rec.Timestamp)
}

func TestGetResponse_InteractionLogFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	f.log.err = errors.New("disk full")
	s := f.advisor.NewSession()

	res := s.GetResponse(context.Background(), "compare chatgpt vs claude")

	assert.True(t, res.Success)
	assert.Equal(t, domain.IntentComparison, res.Intent)
	assert.Len(t, s.ConversationHistory(), 2)
}

func TestSession_IDIsStable(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	id := s.ID()
	assert.Len(t, id, 36)
	assert.Equal(t, id, s.ID())
	assert.NotEqual(t, id, f.advisor.NewSession().ID())
}

func TestSession_ClearConversation(t *testing.T) {
	f := newFixture(t, service.Config{}, &mockPrefs{favorites: []int{1}}, nil)
	s := f.advisor.NewSession()
	s.Initialize(context.Background(), &domain.Profile{UserID: "u1"})
	s.GetResponse(context.Background(), "recommend an image tool")

	s.ClearConversation()

	assert.Empty(t, s.ConversationHistory())
	assert.Equal(t, domain.StateIdle, s.State())
	assert.False(t, s.IsConversationExpired())
	assert.True(t, s.LastInteraction().IsZero())
	assert.Equal(t, []int{1}, s.UserContext().Favorites)
}

func TestSession_Expiry(t *testing.T) {
	f := newFixture(t, service.Config{ConversationTimeout: 30 * time.Minute}, nil, nil)
	s := f.advisor.NewSession()

	assert.False(t, s.IsConversationExpired())

	s.GetResponse(context.Background(), "hello")
	f.clock.Advance(30 * time.Minute)
	assert.False(t, s.IsConversationExpired())

	f.clock.Advance(time.Second)
	assert.True(t, s.IsConversationExpired())
	assert.Equal(t, domain.StateExpired, s.State())

	// expiry is advisory: the next turn is answered and reactivates the session
	res := s.GetResponse(context.Background(), "hello again")
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateActive, s.State())
	assert.Len(t, s.ConversationHistory(), 4)
}

func TestInitialize_LoadsUserData(t *testing.T) {
	f := newFixture(t, service.Config{}, &mockPrefs{favorites: []int{3, 6}, searches: []string{"midjourney"}}, nil)
	s := f.advisor.NewSession()
	s.Initialize(context.Background(), &domain.Profile{UserID: "u1", Name: "Ana"})

	uc := s.UserContext()
	assert.Equal(t, []int{3, 6}, uc.Favorites)
	assert.Equal(t, []string{"midjourney"}, uc.RecentSearches)
	assert.Equal(t, "en", uc.Preferences["language"])
	assert.Equal(t, "u1", s.UserID())

	res := s.GetResponse(context.Background(), "recommend an image tool")
	assert.True(t, strings.HasSuffix(res.Response, "similar tools.*"))
}

func TestInitialize_StoreFailureUsesDefaults(t *testing.T) {
	f := newFixture(t, service.Config{}, &mockPrefs{favorites: []int{1}, err: errors.New("redis down")}, nil)
	s := f.advisor.NewSession()

	require.NotPanics(t, func() {
		s.Initialize(context.Background(), &domain.Profile{UserID: "u1", Name: "Ana"})
	})

	uc := s.UserContext()
	assert.Empty(t, uc.Favorites)
	assert.Empty(t, uc.Preferences)
	assert.Equal(t, "Ana", uc.DisplayName())

	res := s.GetResponse(context.Background(), "recommend an image tool")
	assert.True(t, res.Success)
}

func TestSession_Greeting(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	assert.Equal(t, composer.Greetings()[0], s.Greeting())

	s.Initialize(context.Background(), &domain.Profile{UserID: "u1", Name: "Ana"})
	assert.True(t, strings.HasPrefix(s.Greeting(), "Hi Ana! I'm your AI product advisor."))
}

func TestSession_RecentTopics(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	assert.Empty(t, s.RecentTopics())

	s.GetResponse(context.Background(), "python code")
	s.GetResponse(context.Background(), "and image generation")
	s.GetResponse(context.Background(), "more code please")

	assert.Equal(t, []string{"Development", "AI Art"}, s.RecentTopics())

	// only the last ten entries count
	for i := 0; i < 5; i++ {
		s.GetResponse(context.Background(), "pricing")
	}
	assert.Empty(t, s.RecentTopics())
}

func TestSession_SetUserContext(t *testing.T) {
	f := newFixture(t, service.Config{}, nil, nil)
	s := f.advisor.NewSession()

	s.SetUserContext(&domain.UserContext{
		Profile:   &domain.Profile{UserID: "u9", Name: "Bo"},
		Favorites: []int{4},
	})

	uc := s.UserContext()
	assert.Equal(t, "Bo", uc.DisplayName())
	assert.Equal(t, []int{4}, uc.Favorites)
	assert.Equal(t, "u9", s.UserID())

	// the copy is detached from the session
	uc.Favorites[0] = 99
	assert.Equal(t, []int{4}, s.UserContext().Favorites)
}

func TestSession_ConcurrentTurnsAreSerialized(t *testing.T) {
	f := newFixture(t, service.Config{MaxConversationHistory: 1000}, nil, nil)
	s := f.advisor.NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.GetResponse(context.Background(), "recommend a writing tool")
		}()
	}
	wg.Wait()

	history := s.ConversationHistory()
	require.Len(t, history, 40)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, domain.RoleUser, history[i].Role)
		assert.Equal(t, domain.RoleAssistant, history[i+1].Role)
	}
}
