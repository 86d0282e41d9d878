package game

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	StartingBudget       = 10_000_000.0
	StartingSatisfaction = 50.0

	// BaseCostFactor is the share of the unit price treated as base
	// production cost before event modifiers apply.
	BaseCostFactor = 0.6

	// MarketingPressureScale dampens the log-scaled marketing budget before
	// it is handed to the estimator.
	MarketingPressureScale = 0.85
)

var (
	ErrInvalidHostKey   = errors.New("invalid host password")
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrCompanyExists    = errors.New("company name already taken")
	ErrNoPendingProduct = errors.New("no pending product")
	ErrInvalidPlan      = errors.New("invalid production plan")
)

// RegionCosts holds the fixed per-region cost coefficients.
type RegionCosts struct {
	Wage          float64 `json:"wage"`
	FactoryRent   float64 `json:"factoryRent"`
	WarehouseRent float64 `json:"warehouseRent"`
	Energy        float64 `json:"energy"`
}

var regionCosts = map[string]RegionCosts{
	"RegionA": {Wage: 25, FactoryRent: 12, WarehouseRent: 8, Energy: 0.25},
	"RegionB": {Wage: 18, FactoryRent: 8, WarehouseRent: 5, Energy: 0.18},
	"RegionC": {Wage: 30, FactoryRent: 15, WarehouseRent: 10, Energy: 0.3},
}

// Event-authored region names and shorthand codes map onto the three
// canonical cost regions.
var regionAliases = map[string]string{
	"A": "RegionA",
	"B": "RegionB",
	"C": "RegionC",

	"Western Europe": "RegionA",
	"Nordics":        "RegionA",
	"Anglosphere":    "RegionA",

	"Southern Europe": "RegionB",
	"Eastern Europe":  "RegionB",
	"Latin America":   "RegionB",

	"East Asia":              "RegionC",
	"China":                  "RegionC",
	"South & Southeast Asia": "RegionC",
	"Middle East":            "RegionC",
}

// NormalizeRegion resolves an alias or canonical region name. ok is false
// when the input maps to no known cost region.
func NormalizeRegion(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if canonical, ok := regionAliases[raw]; ok {
		raw = canonical
	}
	_, ok := regionCosts[raw]
	return raw, ok
}

// RegionCostsFor returns the cost coefficients of a canonical region.
func RegionCostsFor(region string) (RegionCosts, bool) {
	costs, ok := regionCosts[region]
	return costs, ok
}

// RegionCostLevel classifies a raw region string into a qualitative cost
// tier for the estimator context. Unknown regions degrade to "expensive"
// rather than failing the round.
func RegionCostLevel(raw string) string {
	region, ok := NormalizeRegion(raw)
	if !ok {
		return "expensive"
	}
	costs := regionCosts[region]
	switch {
	case costs.Wage < 20:
		return "cheap"
	case costs.Wage < 28:
		return "average"
	default:
		return "expensive"
	}
}

// Scarcity labels last round's sell-through ratio. It feeds the estimator's
// context only, never the deterministic math.
type Scarcity string

const (
	ScarcityUnavailable  Scarcity = "unavailable"
	ScarcityScarce       Scarcity = "scarce"
	ScarcityOversupplied Scarcity = "oversupplied"
	ScarcityBalanced     Scarcity = "balanced"
)

// ClassifyScarcity maps produced/sold units onto a scarcity label. Both 0.9
// and 0.4 are exclusive bounds.
func ClassifyScarcity(unitsProduced, unitsSold int64) Scarcity {
	if unitsProduced <= 0 {
		return ScarcityUnavailable
	}
	ratio := float64(unitsSold) / float64(unitsProduced)
	switch {
	case ratio > 0.9:
		return ScarcityScarce
	case ratio < 0.4:
		return ScarcityOversupplied
	default:
		return ScarcityBalanced
	}
}

// MarketingPressure converts a raw marketing budget into the log-scaled
// pressure figure the estimator sees, rounded to two decimals.
func MarketingPressure(budget float64) float64 {
	p := math.Log10(math.Max(1, budget)) * MarketingPressureScale
	return math.Round(p*100) / 100
}

const lobbyCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateLobbyCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = lobbyCodeLetters[int(buf[i])%len(lobbyCodeLetters)]
	}
	return string(buf), nil
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// sanitizeStrategy flattens the marketing blob into a single prompt-safe
// line: no newlines, double quotes swapped for single.
func sanitizeStrategy(strategy MarketingStrategy) string {
	raw, err := json.Marshal(strategy)
	if err != nil {
		return "{}"
	}
	s := strings.NewReplacer("\n", " ", "\r", " ", `"`, "'").Replace(string(raw))
	return s
}
