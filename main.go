package main

import (
	"os"

	"github.com/spf13/cobra"

	"property-agent/config"
	"property-agent/utils"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *utils.Logger

	googleKey    string
	firecrawlKey string
	backend      string
	model        string
	sitesFile    string
	logLevel     string
	logFile      string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "property-agent",
		Short: "Find and analyse Bangladeshi property listings",
		Long: `property-agent searches Bangladeshi real-estate websites for listings that
match your criteria, then runs a market analysis and a per-listing valuation
with Gemini and prints a combined report.

Credentials are read from GOOGLE_API_KEY and FIRECRAWL_API_KEY (or a .env
file) and can be overridden with flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.load()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.googleKey, "google-api-key", "", "Google AI API key (overrides GOOGLE_API_KEY)")
	pf.StringVar(&a.firecrawlKey, "firecrawl-api-key", "", "Firecrawl API key (overrides FIRECRAWL_API_KEY)")
	pf.StringVar(&a.backend, "backend", "", "extraction backend: firecrawl or browser (overrides EXTRACTION_BACKEND)")
	pf.StringVar(&a.model, "model", "", "Gemini model ID (overrides GEMINI_MODEL)")
	pf.StringVar(&a.sitesFile, "sites-file", "", "YAML file with the source websites (overrides SITES_FILE)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr (overrides LOG_FILE)")

	root.AddCommand(
		newSearchCmd(a),
		newSitesCmd(a),
		newNormalizeCmd(),
		newHistoryCmd(a),
	)
	return root
}

// load loads configuration and applies flag overrides. Nothing is written
// back to the process environment.
func (a *app) load() {
	cfg := config.Load()
	override(&cfg.GoogleAPIKey, a.googleKey)
	override(&cfg.FirecrawlAPIKey, a.firecrawlKey)
	override(&cfg.ExtractionBackend, a.backend)
	override(&cfg.GeminiModel, a.model)
	override(&cfg.SitesFile, a.sitesFile)
	override(&cfg.LogLevel, a.logLevel)
	override(&cfg.LogFile, a.logFile)
	a.cfg = cfg

	a.logger = utils.NewLoggerWithOptions(utils.LoggerOptions{Level: cfg.LogLevel, File: cfg.LogFile})
}

// quietLogs raises the log level to error when logs go to the terminal, so
// log lines do not tear the progress screen.
func (a *app) quietLogs() {
	if a.cfg.LogFile != "" || a.cfg.LogLevel == "debug" {
		return
	}
	a.logger.Sync()
	a.logger = utils.NewLoggerWithOptions(utils.LoggerOptions{Level: "error"})
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
