package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Calculator
	CatalogPath        string        // Optional YAML override of the embedded motor catalog
	WizardAdvanceDelay time.Duration // Pause before auto-advancing after a selection
	SessionTTL         time.Duration // Idle wizard sessions are dropped after this
	MaxWizardSessions  int           // Oldest session is evicted beyond this

	// Lead submission rate limiting (per client IP)
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Sales inbox that receives new lead notifications
	SalesEmail string

	// Application base URL (for links in emails)
	BaseURL string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Pipedrive CRM
	// Leads are stored but not forwarded when the API key is empty.
	PipedriveAPIKey        string
	PipedriveCompanyDomain string
	PipedriveBaseURL       string // Overrides https://{domain}.pipedrive.com

	// Monitoring relay for lead events (fail-silent, optional)
	LogEndpoint string

	// NATS server for lead events (optional)
	NATSURL string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// Origins allowed to embed the calculator in an iframe
	FrameAncestors []string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		CatalogPath:        getEnv("CATALOG_PATH", ""),
		WizardAdvanceDelay: getEnvDuration("WIZARD_ADVANCE_DELAY", 300*time.Millisecond),
		SessionTTL:         getEnvDuration("SESSION_TTL", 2*time.Hour),
		MaxWizardSessions:  getEnvInt("MAX_WIZARD_SESSIONS", 10000),

		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_LIMIT", 5),
		SubmitRateWindow: getEnvDuration("SUBMIT_RATE_WINDOW", 15*time.Minute),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@greenmarine.nl"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Green Marine"),
		SalesEmail:   getEnv("SALES_EMAIL", ""),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 2*time.Minute),

		PipedriveAPIKey:        getEnv("PIPEDRIVE_API_KEY", ""),
		PipedriveCompanyDomain: getEnv("PIPEDRIVE_COMPANY_DOMAIN", ""),
		PipedriveBaseURL:       getEnv("PIPEDRIVE_BASE_URL", ""),

		LogEndpoint: getEnv("LOG_ENDPOINT", ""),
		NATSURL:     getEnv("NATS_URL", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		FrameAncestors: getEnvList("FRAME_ANCESTORS"),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	// Pipedrive needs a company domain unless a base URL is given
	if cfg.PipedriveAPIKey != "" && cfg.PipedriveCompanyDomain == "" && cfg.PipedriveBaseURL == "" {
		return fmt.Errorf("PIPEDRIVE_COMPANY_DOMAIN is required when PIPEDRIVE_API_KEY is set")
	}

	if cfg.WizardAdvanceDelay < 0 {
		return fmt.Errorf("WIZARD_ADVANCE_DELAY must not be negative, got: %v", cfg.WizardAdvanceDelay)
	}
	if cfg.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m, got: %v", cfg.SessionTTL)
	}
	if cfg.MaxWizardSessions < 1 {
		return fmt.Errorf("MAX_WIZARD_SESSIONS must be at least 1, got: %d", cfg.MaxWizardSessions)
	}
	if cfg.SubmitRateLimit < 1 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT must be at least 1, got: %d", cfg.SubmitRateLimit)
	}

	return nil
}

// CRMEnabled reports whether leads are forwarded to Pipedrive.
func (cfg *Config) CRMEnabled() bool {
	return cfg.PipedriveAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
