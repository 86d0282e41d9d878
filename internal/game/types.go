package game

import "sync"

// ProductStatus tracks where a player's product request sits in the host
// approval queue.
type ProductStatus string

const (
	ProductWaiting  ProductStatus = "waiting"
	ProductApproved ProductStatus = "approved"
	ProductRefused  ProductStatus = "refused"
)

// ProductRequest is a player-submitted product pitch. CompanyName is only set
// on entries queued for host review.
type ProductRequest struct {
	CompanyName string `json:"companyName,omitempty"`
	ProductName string `json:"productName"`
	Description string `json:"description"`
	Placement   string `json:"placement"`
}

// MarketingStrategy is an opaque, host-client-defined blob. The engine only
// ever reads its numeric budget field.
type MarketingStrategy map[string]any

// Budget coerces the strategy's budget field to a float. Missing or
// non-numeric budgets yield 0.
func (m MarketingStrategy) Budget() float64 {
	switch v := m["budget"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return parseFloatOrZero(v)
	default:
		return 0
	}
}

// ProductionPlan is a player's committed manufacturing decision for one round.
// It exists only between confirmation and the next successful resolution.
type ProductionPlan struct {
	ProductName    string  `json:"productName"`
	Quantity       int64   `json:"quantity"`
	PricePerUnit   float64 `json:"pricePerUnit"`
	Sustainability string  `json:"sustainability"`
	Region         string  `json:"region"`
}

// RoundOutcome is one resolved round in a player's append-only history.
type RoundOutcome struct {
	Round     int     `json:"round"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	UnitsSold int64   `json:"unitsSold"`
}

// Review is a single market reaction produced by the estimator, indexed
// within its round and tagged with the company it belongs to.
type Review struct {
	ID        int     `json:"id"`
	Sentiment float64 `json:"sentiment"`
	Text      string  `json:"text"`
	Company   string  `json:"company"`
	Round     int     `json:"round"`
}

// Player is one company inside a lobby. Names are unique per lobby.
type Player struct {
	Name                string            `json:"name"`
	ProductRequest      *ProductRequest   `json:"productRequest"`
	Products            []ProductRequest  `json:"products"`
	ProductStatus       ProductStatus     `json:"productStatus,omitempty"`
	RejectionReason     string            `json:"rejectionReason"`
	RequestEndRound     bool              `json:"requestEndRound"`
	MarketingStrategy   MarketingStrategy `json:"marketingStrategy"`
	ActiveCampaigns     []string          `json:"activeCampaigns,omitempty"`
	Budget              float64           `json:"budget"`
	Satisfaction        float64           `json:"satisfaction"`
	Revenue             float64           `json:"revenue"`
	Profit              float64           `json:"profit"`
	RevenuePerUnit      float64           `json:"revenuePerUnit"`
	UnitsSold           int64             `json:"unitsSold"`
	Demand              int64             `json:"demand"`
	Feedback            string            `json:"aiFeedback"`
	SustainabilityScore float64           `json:"sustainabilityScore"`
	TotalRevenue        float64           `json:"totalRevenue"`
	TotalProfit         float64           `json:"totalProfit"`
	TotalUnitsSold      int64             `json:"totalUnitsSold"`
	ProductionDraft     *ProductionPlan   `json:"productionDraft"`
	ProductionConfirmed *ProductionPlan   `json:"productionConfirmed"`
	RoundHistory        []RoundOutcome    `json:"roundHistory,omitempty"`
	ReviewsByRound      map[int][]Review  `json:"reviewsByRound,omitempty"`
}

// EventEffects carries the optional percentage impacts of a launch event.
// A nil impact is an explicit no-op, never an error.
type EventEffects struct {
	DemandImpact *float64 `json:"demandImpact,omitempty"`
	CostImpact   *float64 `json:"costImpact,omitempty"`
}

// LaunchEvent is a host-authored, round-scoped market perturbation. Stored
// verbatim and read-only to the resolver.
type LaunchEvent struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Text            string       `json:"text"`
	EffectRound     int          `json:"effectRound"`
	InNews          bool         `json:"inNews"`
	TargetCompanies []string     `json:"targetCompanies,omitempty"`
	Effects         EventEffects `json:"effects"`
}

// Targets reports whether the event applies to the named company. An empty
// filter affects everyone.
func (e LaunchEvent) Targets(company string) bool {
	if len(e.TargetCompanies) == 0 {
		return true
	}
	for _, name := range e.TargetCompanies {
		if name == company {
			return true
		}
	}
	return false
}

// NewsArticle is one entry in a lobby's append-only news feed, deduplicated
// by ID.
type NewsArticle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Type  string `json:"type,omitempty"`
	Round int    `json:"round"`
}

// Lobby is one independent game session. All mutation goes through its mutex;
// Resolving implements the single-flight guarantee for round resolution.
type Lobby struct {
	mu sync.Mutex

	Code            string
	Host            string
	Players         []*Player
	PendingProducts []ProductRequest
	GameStarted     bool
	RoundStarted    bool
	RoundEnded      bool
	Calculating     bool
	Resolving       bool
	CurrentRound    int
	LaunchEvents    []LaunchEvent
	Production      map[string]*ProductionPlan
}

func (l *Lobby) player(name string) *Player {
	for _, p := range l.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// LobbyState is the lightweight polling view used by waiting clients.
type LobbyState struct {
	CurrentRound *int          `json:"currentRound"`
	Players      []LobbyPlayer `json:"players"`
	GameStarted  bool          `json:"gameStarted"`
	RoundStarted bool          `json:"roundStarted"`
	RoundEnded   bool          `json:"roundEnded"`
}

type LobbyPlayer struct {
	CompanyName string `json:"companyName"`
}

// RoundState is the minimal round-phase view.
type RoundState struct {
	RoundEnded   bool `json:"roundEnded"`
	RoundStarted bool `json:"roundStarted"`
}

// LeadingCompany is one row of the top-revenue shortlist.
type LeadingCompany struct {
	Name      string  `json:"name"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	UnitsSold int64   `json:"unitsSold"`
}

// LeaderboardRow combines a player's round values, lifetime totals, and meta
// for the host dashboard.
type LeaderboardRow struct {
	Name                string  `json:"name"`
	Revenue             float64 `json:"revenue"`
	Profit              float64 `json:"profit"`
	UnitsSold           int64   `json:"units_sold"`
	RevenuePerUnit      float64 `json:"revenue_per_unit"`
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalProfit         float64 `json:"totalProfit"`
	TotalUnitsSold      int64   `json:"totalUnitsSold"`
	Satisfaction        float64 `json:"satisfaction"`
	Demand              int64   `json:"demand"`
	SustainabilityScore float64 `json:"sustainability_score"`
	Feedback            string  `json:"aiFeedback"`
	ProductName         *string `json:"productName"`
	ProductDescription  *string `json:"productDescription"`
}

// LobbyInfo is the full host/UI view of a lobby.
type LobbyInfo struct {
	Players          []*Player        `json:"players"`
	GameStarted      bool             `json:"gameStarted"`
	PendingProducts  []ProductRequest `json:"pendingProducts"`
	RoundEnded       bool             `json:"roundEnded"`
	RoundStarted     bool             `json:"roundStarted"`
	LeadingCompanies []LeadingCompany `json:"leadingCompanies"`
	Leaderboard      []LeaderboardRow `json:"leaderboard"`
}

// NewsFeed is a lobby's chronological article list plus the round cursor.
type NewsFeed struct {
	CurrentRound int           `json:"currentRound"`
	News         []NewsArticle `json:"news"`
}

// CompanyReviews groups one company's market reactions by round.
type CompanyReviews struct {
	CurrentRound   int              `json:"currentRound"`
	ReviewsByRound map[int][]Review `json:"reviewsByRound"`
}

// EndRoundResult reports a finished resolution, or Ignored when another
// resolution was already in flight for the lobby.
type EndRoundResult struct {
	Ignored bool      `json:"ignored,omitempty"`
	Players []*Player `json:"players,omitempty"`
}
