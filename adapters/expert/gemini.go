// Package expert answers free-text pet-care questions with Gemini.
package expert

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultMaxTokens      = 512
	defaultTemperature    = 0.7
	defaultTimeoutSeconds = 30

	systemPrompt = "You are a friendly veterinary-adjacent pet behavior expert. " +
		"Answer questions about cat and dog behavior, vocalizations, and care " +
		"in plain language. For anything that sounds like a medical emergency, " +
		"tell the owner to contact a veterinarian instead of guessing."
)

// GeminiConfig holds configuration for the Gemini expert adapter.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: model name (default: "gemini-2.0-flash")
// - TimeoutSeconds: per-question timeout (default: 30)
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// NewGeminiConfigFromEnv builds a GeminiConfig from environment variables.
func NewGeminiConfigFromEnv() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
}

// GeminiExpert implements the ExpertModel interface using Google's Gemini API
type GeminiExpert struct {
	client  *genai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

var _ repositories.ExpertModel = (*GeminiExpert)(nil)

// NewGeminiExpert creates a new Gemini expert instance
func NewGeminiExpert(config GeminiConfig, logger *zap.Logger) (*GeminiExpert, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default expert model", zap.String("model", model))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiExpert{
		client:  client,
		logger:  logger,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Ask sends a single-turn question and returns the model's answer.
func (g *GeminiExpert) Ask(ctx context.Context, query repositories.ExpertQuery) (repositories.ExpertAnswer, error) {
	if query.Question == "" {
		return repositories.ExpertAnswer{}, fmt.Errorf("question cannot be empty")
	}

	maxTokens := query.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := query.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	contents := []*genai.Content{
		genai.NewContentFromText(systemPrompt, genai.RoleUser),
		genai.NewContentFromText(query.Question, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Expert query failed", zap.Error(err))
		return repositories.ExpertAnswer{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return repositories.ExpertAnswer{}, fmt.Errorf("no answer generated")
	}

	var answer string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			answer += part.Text
		}
	}
	if answer == "" {
		return repositories.ExpertAnswer{}, fmt.Errorf("empty answer generated")
	}

	g.logger.Info("Expert question answered",
		zap.Int("questionLength", len(query.Question)),
		zap.Int("answerLength", len(answer)))

	return repositories.ExpertAnswer{
		Answer: answer,
		Model:  g.model,
	}, nil
}
