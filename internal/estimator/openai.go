package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"bizsim/internal/marketstats"
)

// OpenAIEstimator backs the Estimator interface with a chat-completion model.
type OpenAIEstimator struct {
	client *openai.Client
	model  string
	stats  *marketstats.Stats
	log    *slog.Logger
}

func NewOpenAI(apiKey, model string, stats *marketstats.Stats, logger *slog.Logger) *OpenAIEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = marketstats.Defaults()
	}
	return &OpenAIEstimator{
		client: openai.NewClient(apiKey),
		model:  model,
		stats:  stats,
		log:    logger,
	}
}

func (e *OpenAIEstimator) EstimateDemand(ctx context.Context, mc MarketContext) (DemandEstimate, error) {
	raw, err := e.complete(ctx, demandPrompt(mc, e.stats))
	if err != nil {
		return DemandEstimate{}, err
	}
	var out DemandEstimate
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &out); err != nil {
		return DemandEstimate{}, fmt.Errorf("parse demand estimate: %w", err)
	}
	return out, nil
}

func (e *OpenAIEstimator) GenerateNews(ctx context.Context, rc RoundContext) ([]Article, error) {
	raw, err := e.complete(ctx, newsPrompt(rc))
	if err != nil {
		return nil, err
	}
	var articles []Article
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &articles); err != nil {
		return nil, fmt.Errorf("parse round news: %w", err)
	}
	return articles, nil
}

func (e *OpenAIEstimator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
