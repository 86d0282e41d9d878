package game

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"bizsim/internal/estimator"
	"bizsim/internal/marketstats"
)

// Service owns all lobby and round operations. Lobby state lives in the
// injected Store; the estimator and marketing stats are external
// collaborators.
type Service struct {
	store     *Store
	estimator estimator.Estimator
	stats     *marketstats.Stats
	hostKey   string
	log       *slog.Logger
}

func NewService(store *Store, est estimator.Estimator, stats *marketstats.Stats, hostKey string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = marketstats.Defaults()
	}
	return &Service{
		store:     store,
		estimator: est,
		stats:     stats,
		hostKey:   hostKey,
		log:       logger,
	}
}

// CreateLobby registers a new lobby for the host and returns its join code.
// The host credential is the single shared secret.
func (s *Service) CreateLobby(username, password string) (string, error) {
	if password != s.hostKey {
		return "", ErrInvalidHostKey
	}

	for {
		code, err := generateLobbyCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.store.Get(code); taken {
			continue
		}
		s.store.Create(&Lobby{
			Code:            code,
			Host:            username,
			Players:         []*Player{},
			PendingProducts: []ProductRequest{},
			Production:      make(map[string]*ProductionPlan),
		})
		s.log.Info("lobby created", "lobby", code, "host", username)
		return code, nil
	}
}

// JoinLobby adds a company to the lobby. Company names are unique per lobby.
func (s *Service) JoinLobby(code, companyName string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return fmt.Errorf("%w: empty company name", ErrPlayerNotFound)
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	if lobby.player(companyName) != nil {
		return ErrCompanyExists
	}
	lobby.Players = append(lobby.Players, &Player{
		Name:              companyName,
		Products:          []ProductRequest{},
		MarketingStrategy: MarketingStrategy{},
		Budget:            StartingBudget,
		Satisfaction:      StartingSatisfaction,
	})
	s.log.Info("company joined", "lobby", code, "company", companyName)
	return nil
}

// StartGame flips the lobby into its first active round.
func (s *Service) StartGame(code string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	lobby.GameStarted = true
	lobby.RoundStarted = true
	lobby.RoundEnded = false
	lobby.Calculating = false
	lobby.CurrentRound = 1
	for _, p := range lobby.Players {
		p.RequestEndRound = false
	}
	s.log.Info("game started", "lobby", code, "players", len(lobby.Players))
	return nil
}

// CheckLobby reports whether a lobby code exists.
func (s *Service) CheckLobby(code string) error {
	if _, ok := s.store.Get(code); !ok {
		return ErrLobbyNotFound
	}
	return nil
}

// SubmitProduct files a product pitch for host review. The pitch becomes the
// player's pending request with waiting status.
func (s *Service) SubmitProduct(code, companyName string, product ProductRequest) error {
	lobby, player, err := s.lookup(code, companyName)
	if err != nil {
		return err
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	pitch := ProductRequest{
		ProductName: product.ProductName,
		Description: product.Description,
		Placement:   product.Placement,
	}
	player.Products = append(player.Products, pitch)
	player.ProductRequest = &pitch
	player.ProductStatus = ProductWaiting
	player.RejectionReason = ""

	queued := pitch
	queued.CompanyName = companyName
	lobby.PendingProducts = append(lobby.PendingProducts, queued)
	return nil
}

// ApproveProduct moves a company's pending pitch out of the review queue.
func (s *Service) ApproveProduct(code, companyName string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	idx := -1
	for i, pending := range lobby.PendingProducts {
		if pending.CompanyName == companyName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNoPendingProduct
	}
	approved := lobby.PendingProducts[idx]
	lobby.PendingProducts = append(lobby.PendingProducts[:idx], lobby.PendingProducts[idx+1:]...)

	if player := lobby.player(companyName); player != nil {
		player.ProductStatus = ProductApproved
		player.ProductRequest = &approved
		player.RejectionReason = ""
	}
	return nil
}

// RefuseProduct drops a company's pending pitches and records the reason.
func (s *Service) RefuseProduct(code, companyName, reason string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	kept := lobby.PendingProducts[:0]
	for _, pending := range lobby.PendingProducts {
		if pending.CompanyName != companyName {
			kept = append(kept, pending)
		}
	}
	lobby.PendingProducts = kept

	if player := lobby.player(companyName); player != nil {
		player.ProductStatus = ProductRefused
		if strings.TrimSpace(reason) == "" {
			reason = "No reason provided"
		}
		player.RejectionReason = reason
	}
	return nil
}

// ClearPending empties the host review queue.
func (s *Service) ClearPending(code string) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	lobby.PendingProducts = []ProductRequest{}
	return nil
}

// SubmitMarketing stores the company's opaque strategy blob.
func (s *Service) SubmitMarketing(code, companyName string, strategy MarketingStrategy) error {
	lobby, player, err := s.lookup(code, companyName)
	if err != nil {
		return err
	}
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	if strategy == nil {
		strategy = MarketingStrategy{}
	}
	player.MarketingStrategy = strategy
	return nil
}

// ConfirmProduction commits a production plan for the current round. The
// plan is consumed by the next successful resolution.
func (s *Service) ConfirmProduction(code, companyName string, plan ProductionPlan) error {
	if plan.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidPlan)
	}
	if plan.PricePerUnit < 0 {
		return fmt.Errorf("%w: price per unit must be >= 0", ErrInvalidPlan)
	}

	lobby, player, err := s.lookup(code, companyName)
	if err != nil {
		return err
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	confirmed := plan
	player.ProductionConfirmed = &confirmed
	stored := plan
	lobby.Production[companyName] = &stored
	s.log.Info("production confirmed", "lobby", code, "company", companyName,
		"quantity", plan.Quantity, "pricePerUnit", plan.PricePerUnit)
	return nil
}

// ApplyLaunchEvents replaces the lobby's launch events wholesale and mirrors
// news-flagged ones into the feed.
func (s *Service) ApplyLaunchEvents(code string, events []LaunchEvent) error {
	lobby, ok := s.store.Get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lobby.mu.Lock()
	if events == nil {
		events = []LaunchEvent{}
	}
	lobby.LaunchEvents = events
	lobby.mu.Unlock()

	s.syncLaunchEventsToNews(lobby)
	return nil
}

// LobbyState returns the lightweight polling view. CurrentRound is nil until
// the game starts.
func (s *Service) LobbyState(code string) (LobbyState, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return LobbyState{}, ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	out := LobbyState{
		Players:      make([]LobbyPlayer, 0, len(lobby.Players)),
		GameStarted:  lobby.GameStarted,
		RoundStarted: lobby.RoundStarted,
		RoundEnded:   lobby.RoundEnded,
	}
	if lobby.CurrentRound > 0 {
		round := lobby.CurrentRound
		out.CurrentRound = &round
	}
	for _, p := range lobby.Players {
		out.Players = append(out.Players, LobbyPlayer{CompanyName: p.Name})
	}
	return out, nil
}

// RoundState returns the minimal round-phase view.
func (s *Service) RoundState(code string) (RoundState, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return RoundState{}, ErrLobbyNotFound
	}
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	return RoundState{RoundEnded: lobby.RoundEnded, RoundStarted: lobby.RoundStarted}, nil
}

// LobbyInfo builds the full host/UI view: players, review queue, the top-5
// revenue shortlist, and the per-company leaderboard.
func (s *Service) LobbyInfo(code string) (LobbyInfo, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return LobbyInfo{}, ErrLobbyNotFound
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()

	leading := make([]*Player, len(lobby.Players))
	copy(leading, lobby.Players)
	sort.SliceStable(leading, func(i, j int) bool {
		return leading[i].Revenue > leading[j].Revenue
	})
	if len(leading) > 5 {
		leading = leading[:5]
	}

	out := LobbyInfo{
		Players:          append([]*Player(nil), lobby.Players...),
		GameStarted:      lobby.GameStarted,
		PendingProducts:  append([]ProductRequest(nil), lobby.PendingProducts...),
		RoundEnded:       lobby.RoundEnded,
		RoundStarted:     lobby.RoundStarted,
		LeadingCompanies: make([]LeadingCompany, 0, len(leading)),
		Leaderboard:      make([]LeaderboardRow, 0, len(lobby.Players)),
	}
	for _, p := range leading {
		out.LeadingCompanies = append(out.LeadingCompanies, LeadingCompany{
			Name:      p.Name,
			Revenue:   p.Revenue,
			Profit:    p.Profit,
			UnitsSold: p.UnitsSold,
		})
	}
	for _, p := range lobby.Players {
		row := LeaderboardRow{
			Name:                p.Name,
			Revenue:             p.Revenue,
			Profit:              p.Profit,
			UnitsSold:           p.UnitsSold,
			RevenuePerUnit:      p.RevenuePerUnit,
			TotalRevenue:        p.TotalRevenue,
			TotalProfit:         p.TotalProfit,
			TotalUnitsSold:      p.TotalUnitsSold,
			Satisfaction:        p.Satisfaction,
			Demand:              p.Demand,
			SustainabilityScore: p.SustainabilityScore,
			Feedback:            p.Feedback,
		}
		if last := latestProduct(p); last != nil {
			row.ProductName = &last.ProductName
			row.ProductDescription = &last.Description
		}
		out.Leaderboard = append(out.Leaderboard, row)
	}
	return out, nil
}

// NewsFeed returns the lobby's article feed with the round cursor.
func (s *Service) NewsFeed(code string) (NewsFeed, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return NewsFeed{}, ErrLobbyNotFound
	}
	lobby.mu.Lock()
	round := lobby.CurrentRound
	lobby.mu.Unlock()
	return NewsFeed{CurrentRound: round, News: s.store.News(code)}, nil
}

// Reviews returns one company's market reactions grouped by round.
func (s *Service) Reviews(code, companyName string) (CompanyReviews, error) {
	lobby, player, err := s.lookup(code, companyName)
	if err != nil {
		return CompanyReviews{}, err
	}

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	out := CompanyReviews{
		CurrentRound:   lobby.CurrentRound,
		ReviewsByRound: make(map[int][]Review, len(player.ReviewsByRound)),
	}
	for round, reviews := range player.ReviewsByRound {
		out.ReviewsByRound[round] = append([]Review(nil), reviews...)
	}
	return out, nil
}

func (s *Service) lookup(code, companyName string) (*Lobby, *Player, error) {
	lobby, ok := s.store.Get(code)
	if !ok {
		return nil, nil, ErrLobbyNotFound
	}
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	player := lobby.player(companyName)
	if player == nil {
		return nil, nil, ErrPlayerNotFound
	}
	return lobby, player, nil
}

func latestProduct(p *Player) *ProductRequest {
	if p.ProductRequest != nil {
		return p.ProductRequest
	}
	if n := len(p.Products); n > 0 {
		return &p.Products[n-1]
	}
	return nil
}
