package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "EVENTPAY_"

type Config struct {
	Primary      Primary            `koanf:"primary"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Logger       LoggerConfig       `koanf:"logger"`
	Worker       WorkerConfig       `koanf:"worker"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Breaker      BreakerConfig      `koanf:"breaker"`
	Events       EventsConfig       `koanf:"events"`
	Gateways     GatewaysConfig     `koanf:"gateways"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

// WorkerConfig drives the retry sweeper.
type WorkerConfig struct {
	Interval           time.Duration `koanf:"interval" validate:"required"`
	BatchSize          int           `koanf:"batch_size" validate:"required,min=1"`
	RetryCoolDown      time.Duration `koanf:"retry_cool_down" validate:"required"`
	MaxRetries         int           `koanf:"max_retries" validate:"required,min=1"`
	MaxWebhookAttempts int           `koanf:"max_webhook_attempts" validate:"required,min=1"`
	// ReconcileInterval zero disables the scheduled reconciliation pass.
	ReconcileInterval  time.Duration `koanf:"reconcile_interval"`
	ReconcileWindow    time.Duration `koanf:"reconcile_window" validate:"required"`
}

type OrchestratorConfig struct {
	GatewayTimeout time.Duration `koanf:"gateway_timeout" validate:"required"`
	PaymentTTL     time.Duration `koanf:"payment_ttl" validate:"required"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"required,min=1"`
	CoolDown         time.Duration `koanf:"cool_down" validate:"required"`
}

type EventsConfig struct {
	// NATSURL empty means domain events are only logged.
	NATSURL       string        `koanf:"nats_url"`
	ClientName    string        `koanf:"client_name"`
	Stream        string        `koanf:"stream"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	BufferSize    int           `koanf:"buffer_size" validate:"min=0"`
}

type GatewaysConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"required"`
	Stripe  StripeConfig  `koanf:"stripe"`
	PayPal  PayPalConfig  `koanf:"paypal"`
	NeoNet  NeoNetConfig  `koanf:"neonet"`
	BAM     BAMConfig     `koanf:"bam"`
}

type StripeConfig struct {
	Enabled          bool          `koanf:"enabled"`
	BaseURL          string        `koanf:"base_url"`
	SecretKey        string        `koanf:"secret_key"`
	WebhookSecret    string        `koanf:"webhook_secret"`
	WebhookTolerance time.Duration `koanf:"webhook_tolerance"`
}

type PayPalConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BaseURL       string `koanf:"base_url"`
	ClientID      string `koanf:"client_id"`
	ClientSecret  string `koanf:"client_secret"`
	WebhookSecret string `koanf:"webhook_secret"`
}

type NeoNetConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BaseURL       string `koanf:"base_url"`
	MerchantID    string `koanf:"merchant_id"`
	APISecret     string `koanf:"api_secret"`
	WebhookSecret string `koanf:"webhook_secret"`
}

type BAMConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BaseURL       string `koanf:"base_url"`
	ClientID      string `koanf:"client_id"`
	ClientSecret  string `koanf:"client_secret"`
	WebhookSecret string `koanf:"webhook_secret"`
}

// defaults are loaded before the environment so only overrides need to be set.
var defaults = map[string]any{
	"primary.env":                       "development",
	"server.port":                       "8080",
	"server.read_timeout":               "15s",
	"server.write_timeout":              "60s",
	"server.idle_timeout":               "60s",
	"database.host":                     "localhost",
	"database.port":                     5432,
	"database.user":                     "postgres",
	"database.password":                 "postgres",
	"database.name":                     "eventpay",
	"database.ssl_mode":                 "disable",
	"database.max_open_conns":           25,
	"database.max_idle_conns":           5,
	"database.conn_max_lifetime":        "1h",
	"database.conn_max_idle_time":       "30m",
	"logger.level":                      "info",
	"logger.format":                     "json",
	"worker.interval":                   "5m",
	"worker.batch_size":                 50,
	"worker.retry_cool_down":            "2m",
	"worker.max_retries":                3,
	"worker.max_webhook_attempts":       5,
	"worker.reconcile_interval":         "1h",
	"worker.reconcile_window":           "24h",
	"orchestrator.gateway_timeout":      "45s",
	"orchestrator.payment_ttl":          "30m",
	"breaker.failure_threshold":         5,
	"breaker.cool_down":                 "5m",
	"events.client_name":                "eventpay",
	"events.stream":                     "PAYMENTS",
	"events.max_reconnects":             10,
	"events.reconnect_wait":             "2s",
	"events.buffer_size":                256,
	"gateways.timeout":                  "45s",
	"gateways.stripe.webhook_tolerance": "5m",
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
