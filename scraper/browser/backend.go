// Package browser is the self-hosted extraction backend: pages are rendered
// in headless Chrome, reduced to text and structured by a language model
// against the listing schema.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"property-agent/models"
	"property-agent/scraper"
	"property-agent/utils"
)

const defaultMaxPageChars = 30000

const structureInstruction = "You convert the text of real-estate web pages into JSON. " +
	"Return only JSON that matches the given schema. Never invent listings that are not on the page."

// Structurer turns page text into JSON. llm.Gemini satisfies it.
type Structurer interface {
	CompleteJSON(ctx context.Context, instruction, prompt string) (string, error)
}

// Options controls the browser backend.
type Options struct {
	RateLimitMs  int // minimum spacing between page loads
	MaxPageChars int // page text sent to the model is cut to this many runes
}

// Backend implements scraper.Service on top of a Renderer and a Structurer.
type Backend struct {
	renderer   Renderer
	structurer Structurer
	limiter    *utils.RateLimiter
	maxChars   int
	logger     *utils.Logger
}

// NewBackend creates a browser extraction backend.
func NewBackend(renderer Renderer, structurer Structurer, opts Options, logger *utils.Logger) *Backend {
	maxChars := opts.MaxPageChars
	if maxChars <= 0 {
		maxChars = defaultMaxPageChars
	}
	return &Backend{
		renderer:   renderer,
		structurer: structurer,
		limiter:    utils.NewRateLimiter(opts.RateLimitMs),
		maxChars:   maxChars,
		logger:     logger,
	}
}

// Name implements scraper.Service.
func (b *Backend) Name() string { return "Browser" }

type pageResult struct {
	Properties    []models.Listing `json:"properties"`
	TotalCount    int              `json:"total_count"`
	SourceWebsite string           `json:"source_website"`
}

// Extract implements scraper.Service. Pages are processed one at a time; a
// page that fails is logged and skipped. It fails only when every page
// failed or ctx ended.
func (b *Backend) Extract(ctx context.Context, req scraper.Request) ([]byte, error) {
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("browser: encode schema: %w", err)
	}

	var (
		merged  pageResult
		sources []string
		errs    []error
	)
	for i, url := range req.URLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.limiter.Wait()

		b.logger.Info("[browser] Page %d/%d: %s", i+1, len(req.URLs), url)
		listings, err := b.extractPage(ctx, url, req.Prompt, schema)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("[browser] Page %s failed: %v", url, err)
			errs = append(errs, err)
			continue
		}

		b.logger.Info("[browser] Page %s gave %d listings", url, len(listings))
		merged.Properties = append(merged.Properties, listings...)
		sources = append(sources, hostOf(url))
	}

	if len(errs) == len(req.URLs) && len(errs) > 0 {
		return nil, fmt.Errorf("browser: all %d page(s) failed: %w", len(errs), errors.Join(errs...))
	}

	merged.TotalCount = len(merged.Properties)
	merged.SourceWebsite = strings.Join(sources, ", ")
	if merged.Properties == nil {
		merged.Properties = []models.Listing{}
	}
	return json.Marshal(merged)
}

func (b *Backend) extractPage(ctx context.Context, url, prompt string, schema []byte) ([]models.Listing, error) {
	document, err := b.renderer.Render(ctx, url)
	if err != nil {
		return nil, err
	}

	text, err := PageText(document, b.maxChars)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("page %s has no text", url)
	}

	var p strings.Builder
	p.WriteString(prompt)
	p.WriteString("\n\nJSON schema:\n")
	p.Write(schema)
	p.WriteString("\n\nPage URL: ")
	p.WriteString(url)
	p.WriteString("\n\nPage text:\n")
	p.WriteString(text)

	answer, err := b.structurer.CompleteJSON(ctx, structureInstruction, p.String())
	if err != nil {
		return nil, fmt.Errorf("structure page: %w", err)
	}

	listings, _, err := scraper.NormalizeResponse([]byte(stripFence(answer)))
	if err != nil {
		return nil, fmt.Errorf("decode structured page: %w", err)
	}
	return listings, nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func hostOf(url string) string {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
