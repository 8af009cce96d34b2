// Package llm wraps the language-model service used for the analysis stages
// and for structuring browser-rendered pages.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"property-agent/utils"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Config controls the Gemini client.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration // per call; zero means no extra deadline
	BaseURL string        // optional API endpoint override
}

// Gemini runs single-prompt completions against the Gemini API.
type Gemini struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	logger  *utils.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg Config, logger *utils.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: Google AI API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create GenAI client: %w", err)
	}

	return &Gemini{
		models:  client.Models,
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Model returns the configured model ID.
func (g *Gemini) Model() string { return g.model }

// Complete sends one prompt under the given system instruction and returns
// the text of the answer.
func (g *Gemini) Complete(ctx context.Context, instruction, prompt string) (string, error) {
	return g.generate(ctx, instruction, prompt, &genai.GenerateContentConfig{})
}

// CompleteJSON is Complete with the response constrained to JSON.
func (g *Gemini) CompleteJSON(ctx context.Context, instruction, prompt string) (string, error) {
	return g.generate(ctx, instruction, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
}

func (g *Gemini) generate(ctx context.Context, instruction, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("llm: generate with %s: %w", g.model, err)
	}

	text := strings.TrimSpace(resp.Text())
	g.logger.Debug("[gemini] %s answered %d chars in %v", g.model, len(text), time.Since(start).Round(time.Millisecond))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
