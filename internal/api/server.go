package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bizsim/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

type Server struct {
	log      *slog.Logger
	game     *game.Service
	mux      *chi.Mux
	validate *validator.Validate
}

func New(logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:      logger,
		game:     gameSvc,
		mux:      chi.NewRouter(),
		validate: validator.New(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Business Simulation Backend Running"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/create-lobby", s.handleCreateLobby)
	r.Post("/join-lobby", s.handleJoinLobby)
	r.Post("/start-game", s.handleStartGame)
	r.Post("/check-lobby", s.handleCheckLobby)

	r.Post("/submit-product", s.handleSubmitProduct)
	r.Post("/approve-product", s.handleApproveProduct)
	r.Post("/refuse-product", s.handleRefuseProduct)
	r.Post("/clear-pending", s.handleClearPending)

	r.Post("/submit-marketing", s.handleSubmitMarketing)
	r.Post("/confirm-production", s.handleConfirmProduction)
	r.Post("/apply-launch-events", s.handleApplyLaunchEvents)

	r.Post("/end-round", s.handleEndRound)
	r.Post("/start-next-round", s.handleStartNextRound)

	r.Get("/lobby-state/{code}", s.handleLobbyState)
	r.Get("/lobby/{code}", s.handleLobbyInfo)
	r.Get("/round-state/{code}", s.handleRoundState)
	r.Get("/news-events/{lobbyCode}", s.handleNewsEvents)
	r.Get("/reviews/{lobbyCode}/{companyName}", s.handleReviews)
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, err := s.game.CreateLobby(in.Username, in.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lobbyCode": code})
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string `json:"lobbyCode" validate:"required"`
		CompanyName string `json:"companyName" validate:"required"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.JoinLobby(in.LobbyCode, in.CompanyName); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	code, err := s.decodeLobbyCode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.StartGame(code); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleCheckLobby(w http.ResponseWriter, r *http.Request) {
	code, err := s.decodeLobbyCode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.CheckLobby(code); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleSubmitProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string `json:"lobbyCode" validate:"required"`
		CompanyName string `json:"companyName" validate:"required"`
		ProductName string `json:"productName" validate:"required"`
		Description string `json:"description"`
		Placement   string `json:"placement"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.game.SubmitProduct(in.LobbyCode, in.CompanyName, game.ProductRequest{
		ProductName: in.ProductName,
		Description: in.Description,
		Placement:   in.Placement,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleApproveProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string `json:"lobbyCode" validate:"required"`
		CompanyName string `json:"companyName" validate:"required"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.ApproveProduct(in.LobbyCode, in.CompanyName); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleRefuseProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string `json:"lobbyCode" validate:"required"`
		CompanyName string `json:"companyName" validate:"required"`
		Reason      string `json:"reason"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.RefuseProduct(in.LobbyCode, in.CompanyName, in.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleClearPending(w http.ResponseWriter, r *http.Request) {
	code, err := s.decodeLobbyCode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.ClearPending(code); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleSubmitMarketing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string                 `json:"lobbyCode" validate:"required"`
		CompanyName string                 `json:"companyName" validate:"required"`
		Strategy    game.MarketingStrategy `json:"strategy"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.SubmitMarketing(in.LobbyCode, in.CompanyName, in.Strategy); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleConfirmProduction(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode   string              `json:"lobbyCode" validate:"required"`
		CompanyName string              `json:"companyName" validate:"required"`
		Production  game.ProductionPlan `json:"production"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.ConfirmProduction(in.LobbyCode, in.CompanyName, in.Production); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleApplyLaunchEvents(w http.ResponseWriter, r *http.Request) {
	var in struct {
		LobbyCode string             `json:"lobbyCode" validate:"required"`
		Events    []game.LaunchEvent `json:"events"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.ApplyLaunchEvents(in.LobbyCode, in.Events); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	code, err := s.decodeLobbyCode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.game.EndRound(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Ignored {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "players": result.Players})
}

func (s *Server) handleStartNextRound(w http.ResponseWriter, r *http.Request) {
	code, err := s.decodeLobbyCode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.StartNextRound(code); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleLobbyState(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.LobbyState(chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLobbyInfo(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.LobbyInfo(chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRoundState(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.RoundState(chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNewsEvents(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.NewsFeed(chi.URLParam(r, "lobbyCode"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.Reviews(chi.URLParam(r, "lobbyCode"), chi.URLParam(r, "companyName"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decodeLobbyCode(r *http.Request) (string, error) {
	var in struct {
		LobbyCode string `json:"lobbyCode" validate:"required"`
	}
	if err := s.decodeValid(r, &in); err != nil {
		return "", err
	}
	return in.LobbyCode, nil
}

func (s *Server) decodeValid(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return err
	}
	return s.validate.Struct(out)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidHostKey):
		writeError(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, game.ErrLobbyNotFound):
		writeError(w, http.StatusNotFound, "Lobby not found")
	case errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Player not found")
	case errors.Is(err, game.ErrCompanyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNoPendingProduct), errors.Is(err, game.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
