package game

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"bizsim/internal/estimator"
)

// EndRound runs the round resolution for every eligible player, then the
// narrative news pass, then flips the lobby to round-ended. Only one
// resolution runs per lobby at a time: a concurrent call observes the
// in-progress flag and returns an ignored acknowledgement instead of
// double-processing. Per-player failures are logged and isolated; the
// operation itself always completes.
func (s *Service) EndRound(ctx context.Context, code string) (EndRoundResult, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return EndRoundResult{}, ErrLobbyNotFound
	}

	lobby.mu.Lock()
	if lobby.Resolving {
		lobby.mu.Unlock()
		s.log.Warn("round resolution already running", "lobby", code)
		return EndRoundResult{Ignored: true}, nil
	}
	lobby.Resolving = true
	lobby.RoundStarted = true
	lobby.RoundEnded = false
	lobby.Calculating = true
	players := append([]*Player(nil), lobby.Players...)
	round := lobby.CurrentRound
	lobby.mu.Unlock()

	// The flag must be released and the lobby flipped to round-ended on
	// every exit path, including partial per-player failure.
	defer func() {
		lobby.mu.Lock()
		lobby.RoundEnded = true
		lobby.RoundStarted = false
		lobby.Calculating = false
		lobby.Resolving = false
		lobby.mu.Unlock()
	}()

	for _, player := range players {
		if err := s.resolvePlayer(ctx, lobby, player); err != nil {
			s.log.Warn("player resolution failed", "lobby", code, "round", round,
				"company", player.Name, "err", err)
		}
	}

	s.generateRoundNews(ctx, lobby)

	s.log.Info("round resolved", "lobby", code, "round", round, "players", len(players))
	return EndRoundResult{Players: players}, nil
}

// resolvePlayer converts one player's confirmed production plan plus the
// estimator's raw demand into units sold, revenue, profit, and history.
// Players without both a confirmed plan and a product request are skipped
// untouched. The estimator call is a suspension point and runs outside the
// lobby lock.
func (s *Service) resolvePlayer(ctx context.Context, lobby *Lobby, player *Player) error {
	lobby.mu.Lock()
	plan := player.ProductionConfirmed
	request := player.ProductRequest
	if plan == nil || request == nil {
		lobby.mu.Unlock()
		return nil
	}

	var lastUnitsSold int64
	if n := len(player.RoundHistory); n > 0 {
		lastUnitsSold = player.RoundHistory[n-1].UnitsSold
	}
	mc := estimator.MarketContext{
		ProductName:         request.ProductName,
		ProductDescription:  request.Description,
		Placement:           request.Placement,
		PricePerUnit:        plan.PricePerUnit,
		UnitsAvailable:      plan.Quantity,
		UnitsSoldLastRound:  lastUnitsSold,
		ScarcityLevel:       string(ClassifyScarcity(plan.Quantity, lastUnitsSold)),
		SustainabilityClaim: plan.Sustainability,
		RegionCostLevel:     RegionCostLevel(plan.Region),
		MarketingPressure:   MarketingPressure(player.MarketingStrategy.Budget()),
		MarketingStrategy:   sanitizeStrategy(player.MarketingStrategy),
	}
	lobby.mu.Unlock()

	estimate, err := s.estimator.EstimateDemand(ctx, mc)
	if err != nil {
		return fmt.Errorf("estimate demand: %w", err)
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	round := lobby.CurrentRound

	reviews := make([]Review, 0, len(estimate.Reviews))
	for i, r := range estimate.Reviews {
		reviews = append(reviews, Review{
			ID:        i,
			Sentiment: float64(r.Sentiment),
			Text:      r.Text,
			Company:   player.Name,
			Round:     round,
		})
	}
	if player.ReviewsByRound == nil {
		player.ReviewsByRound = make(map[int][]Review)
	}
	player.ReviewsByRound[round] = reviews

	production := lobby.Production[player.Name]
	if production == nil {
		s.log.Warn("no stored production", "lobby", lobby.Code, "company", player.Name)
		return nil
	}

	rawDemand := math.Max(0, float64(estimate.AbsoluteDemand))
	demandModifier, costModifier := computeEventModifiers(player, lobby)

	modifiedDemand := int64(math.Floor(math.Max(0, rawDemand*demandModifier)))
	unitCost := production.PricePerUnit * BaseCostFactor * costModifier
	unitsSold := min(modifiedDemand, production.Quantity)
	revenue := float64(unitsSold) * production.PricePerUnit
	profit := revenue - float64(unitsSold)*unitCost

	player.UnitsSold = unitsSold
	player.Demand = modifiedDemand
	player.Revenue = revenue
	player.Profit = profit
	player.RevenuePerUnit = production.PricePerUnit
	player.RoundHistory = append(player.RoundHistory, RoundOutcome{
		Round:     round,
		Revenue:   revenue,
		Profit:    profit,
		UnitsSold: unitsSold,
	})
	player.TotalUnitsSold += unitsSold
	player.TotalRevenue += revenue
	player.TotalProfit += profit
	player.Budget += profit
	player.Satisfaction = clamp(player.Satisfaction+float64(estimate.SatisfactionDelta), 0, 100)
	if estimate.SustainabilityScore != 0 {
		player.SustainabilityScore = float64(estimate.SustainabilityScore)
	}
	player.Feedback = estimate.Summary

	// Confirmed production is single-use.
	player.ProductionConfirmed = nil
	delete(lobby.Production, player.Name)
	return nil
}

// generateRoundNews runs the narrative pass once per lobby per round and
// appends its articles to the feed. Failures are logged and skipped; they
// never affect player outcomes or the round state.
func (s *Service) generateRoundNews(ctx context.Context, lobby *Lobby) {
	lobby.mu.Lock()
	if len(lobby.Players) == 0 {
		lobby.mu.Unlock()
		return
	}
	round := lobby.CurrentRound
	code := lobby.Code

	lines := make([]estimator.PlayerLine, 0, len(lobby.Players))
	for _, p := range lobby.Players {
		lines = append(lines, estimator.PlayerLine{Name: p.Name, UnitsSold: p.UnitsSold, Profit: p.Profit})
	}
	lobby.mu.Unlock()

	byUnits := append([]estimator.PlayerLine(nil), lines...)
	sort.SliceStable(byUnits, func(i, j int) bool { return byUnits[i].UnitsSold > byUnits[j].UnitsSold })

	articles, err := s.estimator.GenerateNews(ctx, estimator.RoundContext{
		Round:   round,
		Players: lines,
		Top:     byUnits[0],
		Flop:    byUnits[len(byUnits)-1],
	})
	if err != nil {
		s.log.Warn("round news generation failed", "lobby", code, "round", round, "err", err)
		return
	}

	out := make([]NewsArticle, 0, len(articles))
	for i, a := range articles {
		out = append(out, NewsArticle{
			// Globally unique even if a round's narrative pass ever runs twice.
			ID:    fmt.Sprintf("round-%d-%d-%s", round, i, uuid.NewString()),
			Title: a.Title,
			Text:  a.Text,
			Type:  a.Type,
			Round: round,
		})
	}
	s.store.AppendNews(code, out...)
	s.log.Info("round news generated", "lobby", code, "round", round, "articles", len(out))
}

// StartNextRound advances the round counter by exactly one and resets the
// per-round transient player flags. This is the only transition that moves
// the counter.
func (s *Service) StartNextRound(code string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	lobby.RoundStarted = true
	lobby.RoundEnded = false
	lobby.CurrentRound++
	for _, p := range lobby.Players {
		p.RequestEndRound = false
		p.ActiveCampaigns = nil
	}
	s.log.Info("next round started", "lobby", code, "round", lobby.CurrentRound)
	return nil
}
