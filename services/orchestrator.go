package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"property-agent/models"
	"property-agent/scraper"
	"property-agent/utils"
)

// Analyst runs one language-model completion under an instruction profile.
// llm.Gemini satisfies it.
type Analyst interface {
	Complete(ctx context.Context, instruction, prompt string) (string, error)
}

// Extractor produces the listings of a run. scraper.Client satisfies it.
type Extractor interface {
	Extract(ctx context.Context, criteria models.SearchCriteria, selected []string) (*scraper.Extraction, error)
}

// Progress points reported during a run.
const (
	ProgressExtracting = 0.2
	ProgressListings   = 0.4
	ProgressMarket     = 0.7
	ProgressValuation  = 0.9
	ProgressDone       = 1.0
)

// Orchestrator runs the four stages of an analysis in order: extraction,
// market analysis, per-listing valuation and synthesis.
//
// An extraction failure ends the run. A failing analysis call is recorded as
// a warning and replaced by placeholder text so the run still reaches
// synthesis. Cancelling ctx ends the run at any stage.
type Orchestrator struct {
	extractor Extractor
	analyst   Analyst
	logger    *utils.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(extractor Extractor, analyst Analyst, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{extractor: extractor, analyst: analyst, logger: logger}
}

// Run executes one analysis. On failure the result is nil and the error is a
// *RunError whose message is meant for the user.
func (o *Orchestrator) Run(ctx context.Context, criteria models.SearchCriteria, selected []string, progress models.ProgressFunc) (*models.AnalysisResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := o.logger.With("run", runID)
	report := func(fraction float64, status string) {
		log.Debug("[orchestrator] %.0f%% %s", fraction*100, status)
		if progress != nil {
			progress(fraction, status)
		}
	}

	log.Info("[orchestrator] Starting analysis for %s (sites: %v)", scraper.NormalizeLocation(criteria.City, criteria.Area), selected)

	// Stage 1: extraction
	report(ProgressExtracting, "Searching for properties...")
	extraction, err := o.extractor.Extract(ctx, criteria, selected)
	if err != nil {
		log.Error("[orchestrator] Extraction failed: %v", err)
		return nil, newRunError(StageExtraction, err, "Property search failed: %s", err.Error())
	}
	if extraction == nil || len(extraction.Listings) == 0 {
		log.Warn("[orchestrator] Extraction returned no listings")
		return nil, newRunError(StageExtraction, nil, "No properties found matching your criteria.")
	}

	listings := extraction.Listings
	result := &models.AnalysisResult{
		RunID:           runID,
		Criteria:        criteria,
		Sources:         selected,
		Properties:      listings,
		TotalProperties: len(listings),
		StartedAt:       started,
	}
	report(ProgressListings, fmt.Sprintf("Found %d properties", len(listings)))

	// Stage 2: market analysis
	market, err := o.analyze(ctx, log, StageMarket, marketAnalystInstruction, MarketPrompt(len(listings), criteria))
	if err != nil {
		return nil, err
	}
	if market.warning != "" {
		result.Warnings = append(result.Warnings, market.warning)
	}
	result.MarketAnalysis = market.text
	report(ProgressMarket, "Market analysis complete")

	// Stage 3: valuation
	prompt, perr := ValuationPrompt(listings, criteria)
	var valuation stageOutput
	if perr != nil {
		valuation = degraded(log, StageValuation, perr)
	} else if valuation, err = o.analyze(ctx, log, StageValuation, valuationAnalystInstruction, prompt); err != nil {
		return nil, err
	}
	if valuation.warning != "" {
		result.Warnings = append(result.Warnings, valuation.warning)
	}
	result.Valuations = valuation.text
	report(ProgressValuation, "Property valuation complete")

	// Stage 4: synthesis
	doc, err := Synthesize(listings, result.MarketAnalysis, result.Valuations)
	if err != nil {
		log.Error("[orchestrator] Synthesis failed: %v", err)
		return nil, newRunError(StageSynthesis, err, "Could not assemble the report: %v", err)
	}
	result.Synthesis = doc
	result.Elapsed = time.Since(started)
	report(ProgressDone, "Analysis complete")

	log.Info("[orchestrator] Done: %d properties, %d warning(s) in %v",
		result.TotalProperties, len(result.Warnings), result.Elapsed.Round(time.Millisecond))
	return result, nil
}

type stageOutput struct {
	text    string
	warning string
}

// analyze runs one analysis call. Only cancellation of ctx is returned as an
// error; any other failure becomes placeholder text plus a warning.
func (o *Orchestrator) analyze(ctx context.Context, log *utils.Logger, stage Stage, instruction, prompt string) (stageOutput, error) {
	start := time.Now()
	text, err := o.complete(ctx, instruction, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("[orchestrator] Run cancelled during %s", stage)
			return stageOutput{}, newRunError(stage, ctxErr, "Analysis cancelled during %s: %v", stage, ctxErr)
		}
		return degraded(log, stage, err), nil
	}
	log.Info("[orchestrator] %s done in %v", stage, time.Since(start).Round(time.Millisecond))
	return stageOutput{text: text}, nil
}

func (o *Orchestrator) complete(ctx context.Context, instruction, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis call panicked: %v", r)
		}
	}()
	return o.analyst.Complete(ctx, instruction, prompt)
}

func degraded(log *utils.Logger, stage Stage, err error) stageOutput {
	log.Error("[orchestrator] %s failed, continuing with placeholder: %v", stage, err)
	var text string
	switch stage {
	case StageMarket:
		text = fmt.Sprintf("Market analysis unavailable: %v", err)
	default:
		text = fmt.Sprintf("Property valuation unavailable: %v", err)
	}
	return stageOutput{text: text, warning: fmt.Sprintf("%s failed: %v", stage, err)}
}
