package game

import "math"

// computeEventModifiers folds the lobby's active launch events into a demand
// multiplier and a cost multiplier for one player. Events apply when flagged
// for news, scoped to the current round, and targeting the player (or
// everyone). Folding is multiplicative and order-sensitive; an event that
// drives demand to exactly zero short-circuits with the cost accumulated so
// far. Callers must hold the lobby mutex.
func computeEventModifiers(player *Player, lobby *Lobby) (demandModifier, costModifier float64) {
	demandModifier, costModifier = 1, 1

	for _, event := range lobby.LaunchEvents {
		if !event.InNews || event.EffectRound != lobby.CurrentRound || !event.Targets(player.Name) {
			continue
		}

		if event.Effects.DemandImpact != nil {
			demandModifier *= math.Max(0, 1+*event.Effects.DemandImpact/100)
		}
		if demandModifier == 0 {
			return 0, costModifier
		}
		if event.Effects.CostImpact != nil {
			costModifier *= 1 + *event.Effects.CostImpact/100
		}
	}
	return demandModifier, costModifier
}

// syncLaunchEventsToNews mirrors news-flagged launch events into the lobby's
// feed under their host-provided IDs. The feed's ID dedupe makes repeated
// syncs idempotent.
func (s *Service) syncLaunchEventsToNews(lobby *Lobby) {
	lobby.mu.Lock()
	events := make([]LaunchEvent, len(lobby.LaunchEvents))
	copy(events, lobby.LaunchEvents)
	code := lobby.Code
	lobby.mu.Unlock()

	articles := make([]NewsArticle, 0, len(events))
	for _, evt := range events {
		if !evt.InNews {
			continue
		}
		articles = append(articles, NewsArticle{
			ID:    evt.ID,
			Title: evt.Title,
			Text:  evt.Text,
			Round: evt.EffectRound,
		})
	}
	s.store.AppendNews(code, articles...)
}
