package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bizsim/internal/game"
)

// Client is a thin JSON client for the lobby session API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			// End-round waits on the estimator; give it room.
			Timeout: 10 * time.Minute,
		},
	}
}

func (c *Client) CreateLobby(ctx context.Context, username, password string) (string, error) {
	var out struct {
		LobbyCode string `json:"lobbyCode"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/create-lobby", map[string]any{
		"username": username,
		"password": password,
	}, &out)
	return out.LobbyCode, err
}

func (c *Client) JoinLobby(ctx context.Context, lobbyCode, companyName string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/join-lobby", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
	}, nil)
}

func (c *Client) StartGame(ctx context.Context, lobbyCode string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/start-game", map[string]any{
		"lobbyCode": lobbyCode,
	}, nil)
}

func (c *Client) CheckLobby(ctx context.Context, lobbyCode string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/check-lobby", map[string]any{
		"lobbyCode": lobbyCode,
	}, nil)
}

func (c *Client) SubmitProduct(ctx context.Context, lobbyCode, companyName, productName, description, placement string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/submit-product", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
		"productName": productName,
		"description": description,
		"placement":   placement,
	}, nil)
}

func (c *Client) ApproveProduct(ctx context.Context, lobbyCode, companyName string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/approve-product", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
	}, nil)
}

func (c *Client) RefuseProduct(ctx context.Context, lobbyCode, companyName, reason string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/refuse-product", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
		"reason":      reason,
	}, nil)
}

func (c *Client) ClearPending(ctx context.Context, lobbyCode string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/clear-pending", map[string]any{
		"lobbyCode": lobbyCode,
	}, nil)
}

func (c *Client) SubmitMarketing(ctx context.Context, lobbyCode, companyName string, strategy map[string]any) error {
	return c.jsonRequest(ctx, http.MethodPost, "/submit-marketing", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
		"strategy":    strategy,
	}, nil)
}

func (c *Client) ConfirmProduction(ctx context.Context, lobbyCode, companyName string, plan game.ProductionPlan) error {
	return c.jsonRequest(ctx, http.MethodPost, "/confirm-production", map[string]any{
		"lobbyCode":   lobbyCode,
		"companyName": companyName,
		"production":  plan,
	}, nil)
}

func (c *Client) ApplyLaunchEvents(ctx context.Context, lobbyCode string, events []game.LaunchEvent) error {
	return c.jsonRequest(ctx, http.MethodPost, "/apply-launch-events", map[string]any{
		"lobbyCode": lobbyCode,
		"events":    events,
	}, nil)
}

func (c *Client) EndRound(ctx context.Context, lobbyCode string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/end-round", map[string]any{
		"lobbyCode": lobbyCode,
	}, &out)
	return out, err
}

func (c *Client) StartNextRound(ctx context.Context, lobbyCode string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/start-next-round", map[string]any{
		"lobbyCode": lobbyCode,
	}, nil)
}

func (c *Client) LobbyState(ctx context.Context, lobbyCode string) (game.LobbyState, error) {
	var out game.LobbyState
	err := c.jsonRequest(ctx, http.MethodGet, "/lobby-state/"+url.PathEscape(lobbyCode), nil, &out)
	return out, err
}

func (c *Client) LobbyInfo(ctx context.Context, lobbyCode string) (game.LobbyInfo, error) {
	var out game.LobbyInfo
	err := c.jsonRequest(ctx, http.MethodGet, "/lobby/"+url.PathEscape(lobbyCode), nil, &out)
	return out, err
}

func (c *Client) RoundState(ctx context.Context, lobbyCode string) (game.RoundState, error) {
	var out game.RoundState
	err := c.jsonRequest(ctx, http.MethodGet, "/round-state/"+url.PathEscape(lobbyCode), nil, &out)
	return out, err
}

func (c *Client) News(ctx context.Context, lobbyCode string) (game.NewsFeed, error) {
	var out game.NewsFeed
	err := c.jsonRequest(ctx, http.MethodGet, "/news-events/"+url.PathEscape(lobbyCode), nil, &out)
	return out, err
}

func (c *Client) Reviews(ctx context.Context, lobbyCode, companyName string) (game.CompanyReviews, error) {
	var out game.CompanyReviews
	err := c.jsonRequest(ctx, http.MethodGet, "/reviews/"+url.PathEscape(lobbyCode)+"/"+url.PathEscape(companyName), nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
