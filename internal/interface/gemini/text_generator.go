package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/metrics"
	"itinerary-service/pkg/retry"
	"itinerary-service/templates"

	"google.golang.org/genai"
)

const opGenerate = "gemini.generate"

// contentGenerator is the slice of genai.Models the generator needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// TextGenerator asks a Gemini model for an itinerary and returns the decoded JSON
type TextGenerator struct {
	models      contentGenerator
	model       string
	temperature float32
	retryCfg    retry.Config
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewTextGenerator creates a Gemini API client for the given model
func NewTextGenerator(ctx context.Context, apiKey, model string, temperature float32, retryCfg retry.Config, m *metrics.Metrics, logger logger.Logger) (repository.TextGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newTextGenerator(client.Models, model, temperature, retryCfg, m, logger), nil
}

func newTextGenerator(models contentGenerator, model string, temperature float32, retryCfg retry.Config, m *metrics.Metrics, logger logger.Logger) *TextGenerator {
	return &TextGenerator{
		models:      models,
		model:       model,
		temperature: temperature,
		retryCfg:    retryCfg,
		metrics:     m,
		logger:      logger,
	}
}

// Complete renders the prompt, calls the model with transport retries and parses the answer
func (g *TextGenerator) Complete(ctx context.Context, destination string, durationDays int) (any, error) {
	prompt, err := templates.BuildItineraryPrompt(destination, durationDays)
	if err != nil {
		return nil, err
	}

	cfg := g.retryCfg
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		g.logger.Warn("Model call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		if g.metrics != nil {
			g.metrics.RetryAttempts.WithLabelValues(opGenerate).Inc()
		}
	}

	text, err := retry.Execute(ctx, cfg, retry.DefaultIsRetryable, func(ctx context.Context) (string, error) {
		return g.generate(ctx, prompt)
	})
	if err != nil {
		if g.metrics != nil {
			g.metrics.ErrorsCount.WithLabelValues(opGenerate).Inc()
		}
		return nil, err
	}

	return ParseItineraryResponse(text)
}

func (g *TextGenerator) generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyAPIError(err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("Model responded", "model", g.model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}

func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &entity.DependencyError{Op: opGenerate, StatusCode: apiErr.Code, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &entity.DependencyError{Op: opGenerate, Err: err}
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &entity.ContentError{Reason: "no candidates returned"}
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", &entity.ContentError{Reason: fmt.Sprintf("empty candidate (finish reason %q)", cand.FinishReason)}
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &entity.ContentError{Reason: "empty model response"}
	}
	return sb.String(), nil
}
