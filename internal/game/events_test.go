package game

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeEventModifiers(t *testing.T) {
	player := &Player{Name: "Acme"}

	tests := []struct {
		name       string
		events     []LaunchEvent
		round      int
		wantDemand float64
		wantCost   float64
	}{
		{
			name:       "no events",
			round:      1,
			wantDemand: 1,
			wantCost:   1,
		},
		{
			name: "single demand boost",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1, Effects: EventEffects{DemandImpact: fptr(50)}},
			},
			round:      1,
			wantDemand: 1.5,
			wantCost:   1,
		},
		{
			name: "demand and cost compound multiplicatively",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 2, Effects: EventEffects{DemandImpact: fptr(-50), CostImpact: fptr(20)}},
				{ID: "e2", InNews: true, EffectRound: 2, Effects: EventEffects{DemandImpact: fptr(-50), CostImpact: fptr(50)}},
			},
			round:      2,
			wantDemand: 0.25,
			wantCost:   1.8,
		},
		{
			name: "zero demand short-circuits before own cost impact",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1, Effects: EventEffects{CostImpact: fptr(10)}},
				{ID: "e2", InNews: true, EffectRound: 1, Effects: EventEffects{DemandImpact: fptr(-100), CostImpact: fptr(500)}},
				{ID: "e3", InNews: true, EffectRound: 1, Effects: EventEffects{CostImpact: fptr(900)}},
			},
			round:      1,
			wantDemand: 0,
			wantCost:   1.1,
		},
		{
			name: "impact below -100 clamps to zero",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1, Effects: EventEffects{DemandImpact: fptr(-250)}},
			},
			round:      1,
			wantDemand: 0,
			wantCost:   1,
		},
		{
			name: "not in news is skipped",
			events: []LaunchEvent{
				{ID: "e1", InNews: false, EffectRound: 1, Effects: EventEffects{DemandImpact: fptr(100)}},
			},
			round:      1,
			wantDemand: 1,
			wantCost:   1,
		},
		{
			name: "wrong round is skipped",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 3, Effects: EventEffects{DemandImpact: fptr(100)}},
			},
			round:      1,
			wantDemand: 1,
			wantCost:   1,
		},
		{
			name: "targeting another company is skipped",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1, TargetCompanies: []string{"Rival"},
					Effects: EventEffects{DemandImpact: fptr(100)}},
			},
			round:      1,
			wantDemand: 1,
			wantCost:   1,
		},
		{
			name: "targeting the player applies",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1, TargetCompanies: []string{"Rival", "Acme"},
					Effects: EventEffects{DemandImpact: fptr(100)}},
			},
			round:      1,
			wantDemand: 2,
			wantCost:   1,
		},
		{
			name: "nil effects are a no-op",
			events: []LaunchEvent{
				{ID: "e1", InNews: true, EffectRound: 1},
			},
			round:      1,
			wantDemand: 1,
			wantCost:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lobby := &Lobby{CurrentRound: tt.round, LaunchEvents: tt.events}
			demand, cost := computeEventModifiers(player, lobby)
			if !approx(demand, tt.wantDemand) {
				t.Errorf("demand modifier = %v, want %v", demand, tt.wantDemand)
			}
			if !approx(cost, tt.wantCost) {
				t.Errorf("cost modifier = %v, want %v", cost, tt.wantCost)
			}
		})
	}
}

func TestLaunchEventTargets(t *testing.T) {
	everyone := LaunchEvent{}
	if !everyone.Targets("anyone") {
		t.Error("event without a target filter should affect everyone")
	}
	scoped := LaunchEvent{TargetCompanies: []string{"Acme"}}
	if !scoped.Targets("Acme") || scoped.Targets("Rival") {
		t.Error("scoped event should affect only listed companies")
	}
}
