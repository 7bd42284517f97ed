package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
)

// Store backends.
const (
	BackendGoogle   = "google"
	BackendWorkbook = "workbook"
)

// Config represents the full application configuration surface.
type Config struct {
	Store    StoreConfig
	Sheets   SheetsConfig
	Input    InputConfig
	Forecast ForecastConfig
	Market   MarketConfig
	MongoDB  MongoDBConfig
	WhatsApp WhatsAppConfig
	Log      LogConfig
}

// StoreConfig selects where sheets live.
type StoreConfig struct {
	Backend      string
	WorkbookPath string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SpreadsheetName string
	// Header is the row 1 label of each item column, shared by every sheet.
	Header models.Header
}

// InputConfig controls the interactive prompt loop.
type InputConfig struct {
	MaxAttempts int
}

// ForecastConfig controls stock projection.
type ForecastConfig struct {
	HistoryWindow int
}

// MarketConfig describes when markets take place.
type MarketConfig struct {
	Schedule string
	Timezone string
}

// MongoDBConfig holds settings for the optional run journal.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the run journal should be used.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// WhatsAppConfig contains credentials for the optional run summary notification.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	Recipient     string
}

// Enabled reports whether run summaries should be pushed to WhatsApp.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Override adjusts a loaded Config before it is validated, typically from CLI flags.
type Override func(*Config)

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string, overrides ...Override) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	maxAttempts, err := getenvInt("INPUT_MAX_ATTEMPTS", 0)
	if err != nil {
		return nil, err
	}
	window, err := getenvInt("FORECAST_HISTORY_WINDOW", 5)
	if err != nil {
		return nil, err
	}

	header := models.DefaultHeader()
	if raw := os.Getenv("SHEET_HEADER"); raw != "" {
		if header, err = models.ParseHeader(raw); err != nil {
			return nil, fmt.Errorf("SHEET_HEADER: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:      strings.ToLower(getenvWithDefault("STORE_BACKEND", BackendGoogle)),
			WorkbookPath: os.Getenv("WORKBOOK_PATH"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: getenvWithDefault("GOOGLE_SHEETS_CREDENTIALS_PATH", "creds.json"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			SpreadsheetName: getenvWithDefault("GOOGLE_SHEET_NAME", "love_sandwiches"),
			Header:          header,
		},
		Input: InputConfig{
			MaxAttempts: maxAttempts,
		},
		Forecast: ForecastConfig{
			HistoryWindow: window,
		},
		Market: MarketConfig{
			Schedule: os.Getenv("MARKET_SCHEDULE"),
			Timezone: getenvWithDefault("TIMEZONE", "Local"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "sandwiches"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			Recipient:     os.Getenv("WHATSAPP_RECIPIENT"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.Store.Backend {
	case BackendGoogle:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.SpreadsheetID == "" && c.Sheets.SpreadsheetName == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID or GOOGLE_SHEET_NAME must be provided")
		}
	case BackendWorkbook:
		if c.Store.WorkbookPath == "" {
			return errors.New("WORKBOOK_PATH must be provided for the workbook backend")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Input.MaxAttempts < 0 {
		return errors.New("INPUT_MAX_ATTEMPTS must not be negative")
	}

	if c.Forecast.HistoryWindow <= 0 {
		return errors.New("FORECAST_HISTORY_WINDOW must be positive")
	}

	if c.Market.Timezone == "" {
		return errors.New("TIMEZONE must not be empty")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.Recipient == "":
			return errors.New("WHATSAPP_RECIPIENT must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
