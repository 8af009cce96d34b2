package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Extraction backends.
const (
	BackendFirecrawl = "firecrawl"
	BackendBrowser   = "browser"
)

// Config holds all application configuration loaded from environment variables.
// It is passed explicitly to every component; nothing writes back to the
// process environment.
type Config struct {
	GoogleAPIKey    string
	FirecrawlAPIKey string

	FirecrawlBaseURL  string
	GeminiModel       string
	ExtractionBackend string
	ExtractTimeout    time.Duration
	ExtractPoll       time.Duration
	LLMTimeout        time.Duration

	SitesFile string

	DatabaseURL   string
	CSVOutputPath string
	MaxRetries    int

	ChromeBin   string
	RateLimitMs int

	LogLevel string
	LogFile  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	return &Config{
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
		FirecrawlAPIKey: getEnv("FIRECRAWL_API_KEY", ""),

		FirecrawlBaseURL:  getEnv("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ExtractionBackend: getEnv("EXTRACTION_BACKEND", BackendFirecrawl),
		ExtractTimeout:    time.Duration(getEnvInt("EXTRACT_TIMEOUT_SEC", 180)) * time.Second,
		ExtractPoll:       time.Duration(getEnvInt("EXTRACT_POLL_MS", 2000)) * time.Millisecond,
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 120)) * time.Second,

		SitesFile: getEnv("SITES_FILE", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		MaxRetries:    getEnvInt("MAX_RETRIES", 3),

		ChromeBin:   getEnv("CHROME_BIN", ""),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 1500),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// NeedsFirecrawlKey reports whether the selected backend talks to Firecrawl.
func (c *Config) NeedsFirecrawlKey() bool {
	return c.ExtractionBackend != BackendBrowser
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
