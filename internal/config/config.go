package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress           string        `envconfig:"RUN_ADDRESS" default:":8080"`
	BackendAddress       string        `envconfig:"BACKEND_ADDRESS"`
	BackendToken         string        `envconfig:"BACKEND_TOKEN"`
	BackendTokenFile     string        `envconfig:"BACKEND_TOKEN_FILE"`
	BackendSigningSecret string        `envconfig:"BACKEND_SIGNING_SECRET"`
	BackendAccountID     string        `envconfig:"BACKEND_ACCOUNT_ID"`
	BackendTokenTTL      time.Duration `envconfig:"BACKEND_TOKEN_TTL" default:"1h"`
	BackendTimeout       time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	BackendRateLimit     float64       `envconfig:"BACKEND_RATE_LIMIT" default:"10"`
	BackendBurst         int           `envconfig:"BACKEND_BURST" default:"5"`
	DeliveryPollInterval time.Duration `envconfig:"DELIVERY_POLL_INTERVAL" default:"30s"`
	OTPDisplayWindow     time.Duration `envconfig:"OTP_DISPLAY_WINDOW" default:"24h"`
	CancelTicketTTL      time.Duration `envconfig:"CANCEL_TICKET_TTL" default:"2m"`
	MutationTimeout      time.Duration `envconfig:"MUTATION_TIMEOUT" default:"15s"`
	AdminKeyHash         string        `envconfig:"ADMIN_KEY_HASH"`
	CORSOrigins          []string      `envconfig:"CORS_ORIGINS"`
	ShutdownTimeout      time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	defaultDeliveryPollInterval = 30 * time.Second
	defaultOTPDisplayWindow     = 24 * time.Hour
	defaultCancelTicketTTL      = 2 * time.Minute
	defaultMutationTimeout      = 15 * time.Second
	defaultBackendTimeout       = 10 * time.Second
	defaultShutdownTimeout      = 10 * time.Second
	defaultBackendRateLimit     = 10
	defaultBackendBurst         = 5
)

// Load parses configuration from environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	fs := flag.NewFlagSet("servicemart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.DeliveryPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.BackendAddress, "b", cfg.BackendAddress, "Marketplace backend base URL")
	fs.StringVar(&cfg.BackendTokenFile, "token-file", cfg.BackendTokenFile, "File holding the backend bearer token")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between delivery status polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.DeliveryPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.BackendTokenFile != "" {
		content, err := os.ReadFile(cfg.BackendTokenFile)
		if err != nil {
			return nil, fmt.Errorf("read backend token file: %w", err)
		}
		cfg.BackendToken = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if cfg.BackendAddress == "" {
		return nil, fmt.Errorf("backend address must be provided")
	}

	parsed, err := url.Parse(cfg.BackendAddress)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("backend address must be an absolute URL")
	}

	for _, origin := range cfg.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("invalid CORS origin %q", origin)
		}
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	origins := cfg.CORSOrigins[:0]
	for _, origin := range cfg.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	cfg.CORSOrigins = origins

	if cfg.DeliveryPollInterval <= 0 {
		cfg.DeliveryPollInterval = defaultDeliveryPollInterval
	}
	if cfg.OTPDisplayWindow <= 0 {
		cfg.OTPDisplayWindow = defaultOTPDisplayWindow
	}
	if cfg.CancelTicketTTL <= 0 {
		cfg.CancelTicketTTL = defaultCancelTicketTTL
	}
	if cfg.MutationTimeout <= 0 {
		cfg.MutationTimeout = defaultMutationTimeout
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.BackendRateLimit <= 0 {
		cfg.BackendRateLimit = defaultBackendRateLimit
	}
	if cfg.BackendBurst <= 0 {
		cfg.BackendBurst = defaultBackendBurst
	}
}
