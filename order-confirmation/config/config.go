// Package config loads process settings from the environment, with an
// optional .env file in the working directory underneath.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voice-order-confirm/order-confirmation/calls"
	"voice-order-confirm/order-confirmation/classify"
	"voice-order-confirm/order-confirmation/types"
	"voice-order-confirm/order-confirmation/workflows"
)

const (
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	DispatchTemporal = "temporal"
	DispatchLocal    = "local"
)

// Config holds every setting used by the binaries
type Config struct {
	TemporalHost string
	TaskQueue    string

	PublicBaseURL    string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	OpenAIAPIKey       string
	AnthropicAPIKey    string
	ClassifierProvider string
	ClassifierModel    string
	TranscribeModel    string
	MenuTerms          []string

	OrderStore               string
	GoogleServiceAccountJSON string
	OrdersSheetID            string
	OrdersSheetName          string
	SQLitePath               string

	ListenAddr         string
	DefaultCountryCode string
	PollInterval       time.Duration
	MaxCallWait        time.Duration
	CallGap            time.Duration

	DispatchMode            string
	LocalWorkers            int
	RedisAddr               string
	ValidateTwilioSignature bool
	WebhookRPS              float64

	OtelEnabled bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("TEMPORAL_HOST", "localhost:7233")
	v.SetDefault("CONFIRM_TASK_QUEUE", "confirm-task-queue")
	v.SetDefault("CLASSIFIER_PROVIDER", "openai")
	v.SetDefault("ORDER_STORE", StoreSheets)
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_JSON", "credentials.json")
	v.SetDefault("ORDERS_SHEET_NAME", "Sheet1")
	v.SetDefault("SQLITE_PATH", "orders.db")
	v.SetDefault("LISTEN_ADDR", ":5000")
	v.SetDefault("DEFAULT_COUNTRY_CODE", calls.DefaultCountryCode)
	v.SetDefault("POLL_INTERVAL", workflows.DefaultPollInterval)
	v.SetDefault("MAX_CALL_WAIT", workflows.DefaultMaxCallWait)
	v.SetDefault("CALL_GAP", workflows.DefaultCallGap)
	v.SetDefault("DISPATCH_MODE", DispatchTemporal)
	v.SetDefault("LOCAL_WORKERS", 4)
	v.SetDefault("VALIDATE_TWILIO_SIGNATURE", false)
	v.SetDefault("WEBHOOK_RPS", 20)
	v.SetDefault("CONFIRM_OTEL_ENABLED", false)
}

// Load reads .env from the working directory when present, then the environment
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path; a missing file is not an error
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		TemporalHost:             v.GetString("TEMPORAL_HOST"),
		TaskQueue:                v.GetString("CONFIRM_TASK_QUEUE"),
		PublicBaseURL:            strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		TwilioAccountSID:         v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:          v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:         v.GetString("TWILIO_FROM_NUMBER"),
		OpenAIAPIKey:             v.GetString("OPENAI_API_KEY"),
		AnthropicAPIKey:          v.GetString("ANTHROPIC_API_KEY"),
		ClassifierProvider:       strings.ToLower(v.GetString("CLASSIFIER_PROVIDER")),
		ClassifierModel:          v.GetString("CLASSIFIER_MODEL"),
		TranscribeModel:          v.GetString("TRANSCRIBE_MODEL"),
		MenuTerms:                splitList(v.GetString("MENU_TERMS")),
		OrderStore:               strings.ToLower(v.GetString("ORDER_STORE")),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		OrdersSheetID:            v.GetString("ORDERS_SHEET_ID"),
		OrdersSheetName:          v.GetString("ORDERS_SHEET_NAME"),
		SQLitePath:               v.GetString("SQLITE_PATH"),
		ListenAddr:               v.GetString("LISTEN_ADDR"),
		DefaultCountryCode:       v.GetString("DEFAULT_COUNTRY_CODE"),
		PollInterval:             v.GetDuration("POLL_INTERVAL"),
		MaxCallWait:              v.GetDuration("MAX_CALL_WAIT"),
		CallGap:                  v.GetDuration("CALL_GAP"),
		DispatchMode:             strings.ToLower(v.GetString("DISPATCH_MODE")),
		LocalWorkers:             v.GetInt("LOCAL_WORKERS"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		ValidateTwilioSignature:  v.GetBool("VALIDATE_TWILIO_SIGNATURE"),
		WebhookRPS:               v.GetFloat64("WEBHOOK_RPS"),
		OtelEnabled:              v.GetBool("CONFIRM_OTEL_ENABLED"),
	}
	if cfg.TwilioFromNumber == "" {
		cfg.TwilioFromNumber = v.GetString("TWILIO_PHONE_NUMBER")
	}
	if len(cfg.MenuTerms) == 0 {
		cfg.MenuTerms = classify.DefaultMenuTerms
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.OrderStore {
	case StoreSheets, StoreSQLite, StoreMemory:
	default:
		return &types.ValidationError{Msg: fmt.Sprintf("ORDER_STORE must be sheets, sqlite or memory, got %q", c.OrderStore)}
	}
	switch c.DispatchMode {
	case DispatchTemporal, DispatchLocal:
	default:
		return &types.ValidationError{Msg: fmt.Sprintf("DISPATCH_MODE must be temporal or local, got %q", c.DispatchMode)}
	}
	if c.OrderStore == StoreSheets && c.OrdersSheetID == "" {
		return &types.ValidationError{Msg: "ORDERS_SHEET_ID is required for the sheets store"}
	}
	if c.PollInterval <= 0 || c.MaxCallWait <= 0 {
		return &types.ValidationError{Msg: "POLL_INTERVAL and MAX_CALL_WAIT must be positive"}
	}
	return nil
}

// RequireDialer reports the settings missing for placing calls
func (c *Config) RequireDialer() error {
	var missing []string
	for k, v := range map[string]string{
		"TWILIO_ACCOUNT_SID": c.TwilioAccountSID,
		"TWILIO_AUTH_TOKEN":  c.TwilioAuthToken,
		"TWILIO_FROM_NUMBER": c.TwilioFromNumber,
		"PUBLIC_BASE_URL":    c.PublicBaseURL,
	} {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &types.ValidationError{Msg: "missing settings: " + strings.Join(missing, ", ")}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
