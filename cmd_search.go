package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"property-agent/config"
	"property-agent/llm"
	"property-agent/models"
	"property-agent/report"
	"property-agent/scraper"
	"property-agent/scraper/browser"
	"property-agent/scraper/firecrawl"
	"property-agent/services"
	"property-agent/storage"
	"property-agent/ui"
	"property-agent/utils"
)

// Output formats of the search command.
const (
	formatTUI      = "tui"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

type searchFlags struct {
	form       services.SearchForm
	sites      []string
	allSites   bool
	format     string
	csv        bool
	archive    bool
	width      int
	runTimeout time.Duration
}

func newSearchCmd(a *app) *cobra.Command {
	// The site list is only known once config is loaded; the default
	// selection is filled in by runSearch.
	f := &searchFlags{form: services.NewSearchForm(nil)}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search listings and run the market and valuation analysis",
		Example: `  property-agent search --city Dhaka --area Gulshan --type Flat --bedrooms 3
  property-agent search --city ঢাকা --site Bikroy.com --format markdown
  property-agent search --city Chattogram --backend browser --format json --csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.form.City, "city", "", "city, e.g. Dhaka or ঢাকা (required)")
	fl.StringVar(&f.form.Area, "area", "", "area within the city, e.g. Gulshan")
	fl.Int64Var(&f.form.MinPrice, "min-price", f.form.MinPrice, "minimum price in BDT")
	fl.Int64Var(&f.form.MaxPrice, "max-price", f.form.MaxPrice, "maximum price in BDT")
	fl.StringVar(&f.form.PropertyType, "type", f.form.PropertyType, "property type: Any, Flat, House, Land, Office, Shop")
	fl.StringVar(&f.form.Bedrooms, "bedrooms", f.form.Bedrooms, "bedrooms: Any, 1, 2, 3, 4, 5+")
	fl.StringVar(&f.form.Bathrooms, "bathrooms", f.form.Bathrooms, "bathrooms: Any, 1, 1.5, 2, 2.5, 3, 3.5, 4+")
	fl.IntVar(&f.form.MinArea, "min-area", f.form.MinArea, "minimum area in sft (0 for any)")
	fl.StringVar(&f.form.Features, "features", "", "wished features, free text")
	fl.StringSliceVar(&f.sites, "site", nil, "source website by name, repeatable (default: the sites marked default)")
	fl.BoolVar(&f.allSites, "all-sites", false, "search every configured website")
	fl.StringVar(&f.format, "format", formatTUI, "output: tui, markdown or json")
	fl.BoolVar(&f.csv, "csv", false, "also export the listings to CSV_OUTPUT_PATH")
	fl.BoolVar(&f.archive, "archive", false, "also archive the run to PostgreSQL (DATABASE_URL)")
	fl.IntVar(&f.width, "width", 100, "word-wrap width of the tui report")
	fl.DurationVar(&f.runTimeout, "timeout", 0, "abort the run after this long (0 means no limit)")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, f *searchFlags) error {
	if !slices.Contains([]string{formatTUI, formatMarkdown, formatJSON}, f.format) {
		return fmt.Errorf("unknown format %q: use tui, markdown or json", f.format)
	}
	if f.format == formatTUI {
		a.quietLogs()
	}

	sites, err := config.LoadSites(a.cfg.SitesFile)
	if err != nil {
		return err
	}

	form := f.form
	switch {
	case f.allSites:
		form.Sites = siteNames(sites)
	case len(f.sites) > 0:
		form.Sites = f.sites
		for _, name := range f.sites {
			if !slices.Contains(siteNames(sites), name) {
				a.logger.Warn("[search] Unknown website %q ignored", name)
			}
		}
	default:
		form.Sites = config.DefaultSelection(sites)
	}

	if err := form.Validate(a.cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.runTimeout)
		defer cancel()
	}

	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:  a.cfg.GoogleAPIKey,
		Model:   a.cfg.GeminiModel,
		Timeout: a.cfg.LLMTimeout,
	}, a.logger)
	if err != nil {
		return err
	}

	service, closeService, err := a.extractionService(gemini)
	if err != nil {
		return err
	}
	defer closeService()

	orchestrator := services.NewOrchestrator(scraper.NewClient(service, sites, a.logger), gemini, a.logger)
	criteria := form.Criteria()
	run := func(ctx context.Context, progress models.ProgressFunc) (*models.AnalysisResult, error) {
		return orchestrator.Run(ctx, criteria, form.Sites, progress)
	}

	var res *models.AnalysisResult
	if f.format == formatTUI {
		res, err = ui.RunWithProgress(ctx, run)
	} else {
		res, err = run(ctx, func(fraction float64, status string) {
			a.logger.Info("[search] %3.0f%% %s", fraction*100, status)
		})
	}
	if err != nil {
		return err
	}

	a.persist(ctx, f, res)

	insights := services.NewInsightService(a.logger).Generate(res.Properties)
	return writeResult(cmd.OutOrStdout(), f.format, f.width, res, insights)
}

// extractionService builds the configured backend and a func that releases
// it.
func (a *app) extractionService(gemini *llm.Gemini) (scraper.Service, func(), error) {
	switch a.cfg.ExtractionBackend {
	case config.BackendFirecrawl, "":
		return firecrawl.New(firecrawl.Config{
			APIKey:       a.cfg.FirecrawlAPIKey,
			BaseURL:      a.cfg.FirecrawlBaseURL,
			Timeout:      a.cfg.ExtractTimeout,
			PollInterval: a.cfg.ExtractPoll,
		}, a.logger), func() {}, nil
	case config.BackendBrowser:
		renderer := browser.NewChromeRenderer(browser.ChromeOptions{ExecPath: a.cfg.ChromeBin}, a.logger)
		backend := browser.NewBackend(renderer, gemini, browser.Options{RateLimitMs: a.cfg.RateLimitMs}, a.logger)
		return backend, renderer.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown extraction backend %q: use %s or %s",
			a.cfg.ExtractionBackend, config.BackendFirecrawl, config.BackendBrowser)
	}
}

// persist runs the opt-in exports. Failures are logged; the report is still
// printed.
func (a *app) persist(ctx context.Context, f *searchFlags, res *models.AnalysisResult) {
	if f.csv {
		err := func() error {
			w, err := storage.NewCSVWriter(a.cfg.CSVOutputPath)
			if err != nil {
				return err
			}
			return exportListings(w, res)
		}()
		if err != nil {
			a.logger.Error("[csv] Export failed: %v", err)
		} else {
			a.logger.Info("[csv] Listings saved to %s", a.cfg.CSVOutputPath)
		}
	}

	if f.archive {
		if a.cfg.DatabaseURL == "" {
			a.logger.Error("[postgres] --archive needs DATABASE_URL")
			return
		}
		err := func() error {
			pw, err := a.openArchive(ctx)
			if err != nil {
				return err
			}
			return archiveRun(ctx, pw, res)
		}()
		if err != nil {
			a.logger.Error("[postgres] Archive failed: %v", err)
		}
	}
}

// exportListings writes the run's listings and closes w.
func exportListings(w storage.ListingExporter, res *models.AnalysisResult) error {
	if err := w.Write(res.RunID, res.Properties); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// archiveRun stores the run and closes ar.
func archiveRun(ctx context.Context, ar storage.RunArchiver, res *models.AnalysisResult) error {
	if err := ar.Archive(ctx, res); err != nil {
		_ = ar.Close()
		return err
	}
	return ar.Close()
}

func (a *app) openArchive(ctx context.Context) (*storage.PostgresWriter, error) {
	return storage.NewPostgresWriter(ctx, a.cfg.DatabaseURL, &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      a.logger,
	}, a.logger)
}

type jsonOutput struct {
	*models.AnalysisResult
	Insights models.Insights `json:"insights"`
}

func writeResult(w io.Writer, format string, width int, res *models.AnalysisResult, ins models.Insights) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonOutput{AnalysisResult: res, Insights: ins})
	case formatMarkdown:
		_, err := fmt.Fprintf(w, "%s\n\n_%s_\n", res.Synthesis, report.Footer(res))
		return err
	default:
		out, err := report.Render(res, ins, report.Options{Width: width})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
}

func siteNames(sites []config.Site) []string {
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	return names
}
