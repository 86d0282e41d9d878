// Package estimator abstracts the external text-generation collaborator that
// supplies raw demand figures, market reactions, and round narrative. The
// production implementation calls a chat-completion model; tests swap in
// deterministic stubs.
package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// MarketContext is the structured per-player context handed to the demand
// call. Everything here is advisory input for the model, not game state.
type MarketContext struct {
	ProductName         string
	ProductDescription  string
	Placement           string
	PricePerUnit        float64
	UnitsAvailable      int64
	UnitsSoldLastRound  int64
	ScarcityLevel       string
	SustainabilityClaim string
	RegionCostLevel     string
	MarketingPressure   float64
	MarketingStrategy   string
}

// ReviewResult is one market reaction in a demand estimate.
type ReviewResult struct {
	Sentiment FlexFloat `json:"sentiment"`
	Text      string    `json:"text"`
}

// DemandEstimate is the strict JSON payload expected from the per-player
// call. Numeric fields tolerate string encodings; anything non-numeric
// parses as zero.
type DemandEstimate struct {
	AbsoluteDemand      FlexFloat      `json:"absoluteDemand"`
	SatisfactionDelta   FlexFloat      `json:"satisfactionDelta"`
	SustainabilityScore FlexFloat      `json:"sustainabilityScore"`
	Summary             string         `json:"summary"`
	Reviews             []ReviewResult `json:"reviews"`
}

// Article is one generated news piece.
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// PlayerLine summarizes one player's round for the narrative call.
type PlayerLine struct {
	Name      string
	UnitsSold int64
	Profit    float64
}

// RoundContext is the per-lobby context for the narrative call.
type RoundContext struct {
	Round   int
	Players []PlayerLine
	Top     PlayerLine
	Flop    PlayerLine
}

// Estimator is the capability interface for the external collaborator.
type Estimator interface {
	EstimateDemand(ctx context.Context, mc MarketContext) (DemandEstimate, error)
	GenerateNews(ctx context.Context, rc RoundContext) ([]Article, error)
}

// FlexFloat decodes JSON numbers that models occasionally emit as strings.
// Untrusted or malformed values decode to 0 instead of failing the payload.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// StripCodeFences removes markdown code-fence markers a model may wrap
// around its JSON payload.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
