package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizsim/internal/estimator"
)

const testHostKey = "letmein"

// stubEstimator answers demand calls from a fixed table keyed by product name
// and optionally blocks inside EstimateDemand to exercise the single-flight
// guard.
type stubEstimator struct {
	mu        sync.Mutex
	estimates map[string]estimator.DemandEstimate
	errFor    map[string]error
	articles  []estimator.Article
	newsErr   error

	started chan struct{}
	release chan struct{}

	demandCalls []string
	newsCalls   []estimator.RoundContext
}

func (s *stubEstimator) EstimateDemand(ctx context.Context, mc estimator.MarketContext) (estimator.DemandEstimate, error) {
	s.mu.Lock()
	s.demandCalls = append(s.demandCalls, mc.ProductName)
	started := s.started
	release := s.release
	s.mu.Unlock()

	if started != nil {
		close(started)
		s.mu.Lock()
		s.started = nil
		s.mu.Unlock()
	}
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errFor[mc.ProductName]; ok {
		return estimator.DemandEstimate{}, err
	}
	est, ok := s.estimates[mc.ProductName]
	if !ok {
		return estimator.DemandEstimate{}, errors.New("no scripted estimate for " + mc.ProductName)
	}
	return est, nil
}

func (s *stubEstimator) GenerateNews(ctx context.Context, rc estimator.RoundContext) ([]estimator.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newsCalls = append(s.newsCalls, rc)
	if s.newsErr != nil {
		return nil, s.newsErr
	}
	return s.articles, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, est estimator.Estimator) (*Service, *Store) {
	t.Helper()
	store := NewStore()
	return NewService(store, est, nil, testHostKey, testLogger()), store
}

// seedLobby creates a started lobby with the named companies joined.
func seedLobby(t *testing.T, svc *Service, companies ...string) string {
	t.Helper()
	code, err := svc.CreateLobby("host", testHostKey)
	require.NoError(t, err)
	for _, name := range companies {
		require.NoError(t, svc.JoinLobby(code, name))
	}
	require.NoError(t, svc.StartGame(code))
	return code
}

func confirmPlan(t *testing.T, svc *Service, code, company string, quantity int64, price float64) {
	t.Helper()
	require.NoError(t, svc.SubmitProduct(code, company, ProductRequest{
		ProductName: company + " Widget",
		Description: "a widget",
		Placement:   "online",
	}))
	require.NoError(t, svc.ApproveProduct(code, company))
	require.NoError(t, svc.ConfirmProduction(code, company, ProductionPlan{
		ProductName:  company + " Widget",
		Quantity:     quantity,
		PricePerUnit: price,
		Region:       "RegionA",
	}))
}

func TestEndRoundResolvesConfirmedPlan(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Acme Widget": {
				AbsoluteDemand:      150,
				SatisfactionDelta:   5,
				SustainabilityScore: 42,
				Summary:             "solid campaign",
				Reviews: []estimator.ReviewResult{
					{Sentiment: 1, Text: "love it"},
					{Sentiment: -0.5, Text: "meh"},
				},
			},
		},
		articles: []estimator.Article{{Title: "Round wrap", Text: "...", Type: "top"}},
	}
	svc, store := newTestService(t, est)
	code := seedLobby(t, svc, "Acme")
	confirmPlan(t, svc, code, "Acme", 100, 20)

	result, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)
	assert.False(t, result.Ignored)
	require.Len(t, result.Players, 1)

	p := result.Players[0]
	assert.Equal(t, int64(100), p.UnitsSold, "demand above supply sells out")
	assert.Equal(t, int64(150), p.Demand)
	assert.Equal(t, 2000.0, p.Revenue)
	assert.InDelta(t, 800.0, p.Profit, 1e-9, "profit = revenue - unitsSold*price*0.6")
	assert.Equal(t, 20.0, p.RevenuePerUnit)
	assert.InDelta(t, StartingBudget+800, p.Budget, 1e-9)
	assert.Equal(t, 55.0, p.Satisfaction)
	assert.Equal(t, 42.0, p.SustainabilityScore)
	assert.Equal(t, "solid campaign", p.Feedback)

	require.Len(t, p.RoundHistory, 1)
	assert.Equal(t, RoundOutcome{Round: 1, Revenue: 2000, Profit: 800, UnitsSold: 100}, p.RoundHistory[0])
	assert.Equal(t, int64(100), p.TotalUnitsSold)
	assert.Equal(t, 2000.0, p.TotalRevenue)

	reviews := p.ReviewsByRound[1]
	require.Len(t, reviews, 2)
	assert.Equal(t, Review{ID: 0, Sentiment: 1, Text: "love it", Company: "Acme", Round: 1}, reviews[0])

	// Confirmed production is consumed.
	assert.Nil(t, p.ProductionConfirmed)
	lobby, _ := store.Get(code)
	assert.NotContains(t, lobby.Production, "Acme")
}

func TestEndRoundAppliesDemandEvents(t *testing.T) {
	tests := []struct {
		name          string
		demandImpact  float64
		wantUnitsSold int64
		wantDemand    int64
	}{
		{"half demand", -50, 75, 75},
		{"full wipeout", -100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &stubEstimator{
				estimates: map[string]estimator.DemandEstimate{
					"Acme Widget": {AbsoluteDemand: 150},
				},
			}
			svc, _ := newTestService(t, est)
			code := seedLobby(t, svc, "Acme")
			confirmPlan(t, svc, code, "Acme", 100, 20)
			require.NoError(t, svc.ApplyLaunchEvents(code, []LaunchEvent{
				{ID: "evt-1", Title: "Market shock", InNews: true, EffectRound: 1,
					Effects: EventEffects{DemandImpact: fptr(tt.demandImpact)}},
			}))

			result, err := svc.EndRound(context.Background(), code)
			require.NoError(t, err)
			p := result.Players[0]
			assert.Equal(t, tt.wantUnitsSold, p.UnitsSold)
			assert.Equal(t, tt.wantDemand, p.Demand)
			assert.Equal(t, float64(tt.wantUnitsSold)*20, p.Revenue)
		})
	}
}

func TestEndRoundSkipsPlayersWithoutPlan(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Acme Widget": {AbsoluteDemand: 50},
		},
	}
	svc, _ := newTestService(t, est)
	code := seedLobby(t, svc, "Acme", "Idle")
	confirmPlan(t, svc, code, "Acme", 100, 10)

	result, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)

	var idle *Player
	for _, p := range result.Players {
		if p.Name == "Idle" {
			idle = p
		}
	}
	require.NotNil(t, idle)
	assert.Zero(t, idle.UnitsSold)
	assert.Equal(t, StartingBudget, idle.Budget)
	assert.Empty(t, idle.RoundHistory)
	assert.Equal(t, []string{"Acme Widget"}, est.demandCalls, "idle player never reaches the estimator")
}

func TestEndRoundIsolatesPlayerFailures(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Beta Widget": {AbsoluteDemand: 30},
		},
		errFor: map[string]error{"Acme Widget": errors.New("model unavailable")},
	}
	svc, store := newTestService(t, est)
	code := seedLobby(t, svc, "Acme", "Beta")
	confirmPlan(t, svc, code, "Acme", 100, 10)
	confirmPlan(t, svc, code, "Beta", 100, 10)

	result, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err, "one failing player must not fail the round")
	assert.False(t, result.Ignored)

	lobby, _ := store.Get(code)
	acme := lobby.player("Acme")
	beta := lobby.player("Beta")
	assert.Empty(t, acme.RoundHistory, "failed player keeps prior state")
	assert.NotNil(t, acme.ProductionConfirmed, "failed player's plan is not consumed")
	require.Len(t, beta.RoundHistory, 1)
	assert.Equal(t, int64(30), beta.UnitsSold)
	assert.True(t, lobby.RoundEnded, "round still ends after partial failure")
}

func TestEndRoundSingleFlight(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Acme Widget": {AbsoluteDemand: 10},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, store := newTestService(t, est)
	code := seedLobby(t, svc, "Acme")
	confirmPlan(t, svc, code, "Acme", 100, 20)

	done := make(chan EndRoundResult, 1)
	go func() {
		result, err := svc.EndRound(context.Background(), code)
		assert.NoError(t, err)
		done <- result
	}()

	<-est.started

	second, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, second.Ignored, "concurrent end-round is acknowledged, not re-run")

	close(est.release)
	first := <-done
	assert.False(t, first.Ignored)
	require.Len(t, first.Players, 1)
	assert.Equal(t, int64(10), first.Players[0].UnitsSold)

	lobby, _ := store.Get(code)
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	assert.False(t, lobby.Resolving)
	assert.False(t, lobby.Calculating)
	assert.True(t, lobby.RoundEnded)
	assert.False(t, lobby.RoundStarted)
	assert.Equal(t, []string{"Acme Widget"}, est.demandCalls, "player resolved exactly once")
}

func TestEndRoundUnknownLobby(t *testing.T) {
	svc, _ := newTestService(t, &stubEstimator{})
	_, err := svc.EndRound(context.Background(), "XXXXX")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestGenerateRoundNews(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Acme Widget": {AbsoluteDemand: 100},
			"Beta Widget": {AbsoluteDemand: 10},
		},
		articles: []estimator.Article{
			{Title: "Top of the round", Text: "Acme sweeps", Type: "top"},
			{Title: "Flop of the round", Text: "Beta stumbles", Type: "flop"},
		},
	}
	svc, _ := newTestService(t, est)
	code := seedLobby(t, svc, "Acme", "Beta")
	confirmPlan(t, svc, code, "Acme", 100, 20)
	confirmPlan(t, svc, code, "Beta", 100, 20)

	_, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)

	require.Len(t, est.newsCalls, 1)
	rc := est.newsCalls[0]
	assert.Equal(t, 1, rc.Round)
	assert.Equal(t, "Acme", rc.Top.Name)
	assert.Equal(t, "Beta", rc.Flop.Name)

	feed, err := svc.NewsFeed(code)
	require.NoError(t, err)
	require.Len(t, feed.News, 2)
	assert.Equal(t, "Top of the round", feed.News[0].Title)
	assert.Equal(t, 1, feed.News[0].Round)
	assert.NotEqual(t, feed.News[0].ID, feed.News[1].ID, "article IDs are unique")
}

func TestGenerateRoundNewsFailureIsNonFatal(t *testing.T) {
	est := &stubEstimator{
		estimates: map[string]estimator.DemandEstimate{
			"Acme Widget": {AbsoluteDemand: 40},
		},
		newsErr: errors.New("model unavailable"),
	}
	svc, _ := newTestService(t, est)
	code := seedLobby(t, svc, "Acme")
	confirmPlan(t, svc, code, "Acme", 100, 20)

	result, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, int64(40), result.Players[0].UnitsSold)

	feed, err := svc.NewsFeed(code)
	require.NoError(t, err)
	assert.Empty(t, feed.News)
}

func TestStartNextRound(t *testing.T) {
	svc, store := newTestService(t, &stubEstimator{})
	code := seedLobby(t, svc, "Acme")

	lobby, _ := store.Get(code)
	lobby.mu.Lock()
	lobby.RoundEnded = true
	lobby.RoundStarted = false
	lobby.player("Acme").RequestEndRound = true
	lobby.player("Acme").ActiveCampaigns = []string{"teaser"}
	lobby.mu.Unlock()

	require.NoError(t, svc.StartNextRound(code))

	lobby.mu.Lock()
	assert.Equal(t, 2, lobby.CurrentRound)
	assert.True(t, lobby.RoundStarted)
	assert.False(t, lobby.RoundEnded)
	p := lobby.player("Acme")
	assert.False(t, p.RequestEndRound)
	assert.Empty(t, p.ActiveCampaigns)
	lobby.mu.Unlock()

	require.NoError(t, svc.StartNextRound(code))

	lobby.mu.Lock()
	assert.Equal(t, 3, lobby.CurrentRound, "counter advances by exactly one per call")
	lobby.mu.Unlock()
}

func TestEndRoundWithNoPlayersSkipsNews(t *testing.T) {
	est := &stubEstimator{articles: []estimator.Article{{Title: "ghost town"}}}
	svc, _ := newTestService(t, est)
	code := seedLobby(t, svc)

	result, err := svc.EndRound(context.Background(), code)
	require.NoError(t, err)
	assert.Empty(t, result.Players)
	assert.Empty(t, est.newsCalls)

	feed, err := svc.NewsFeed(code)
	require.NoError(t, err)
	assert.Empty(t, feed.News)
}
