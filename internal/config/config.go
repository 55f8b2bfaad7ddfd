// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty runs on the in-memory store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBMaxConns caps the pgx pool; 0 keeps the pgxpool default.
	DBMaxConns int32 `mapstructure:"DB_MAX_CONNS"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file. Only cmd/seed signs tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; required by the server to validate bearer tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the lifetime of tokens issued by cmd/seed (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogDev switches zerolog to human-readable console output.
	LogDev bool `mapstructure:"LOG_DEV"`

	// TransferTTL is how long an ownership transfer request stays pending (e.g. "24h").
	TransferTTL string `mapstructure:"TRANSFER_TTL"`
	// TransferMaxCodeAttempts is the number of wrong codes that cancel a transfer.
	TransferMaxCodeAttempts int `mapstructure:"TRANSFER_MAX_CODE_ATTEMPTS"`
	// TransferCodeReturnToClient returns the confirmation code in the InitiateTransfer response
	// instead of only notifying it. Must not be true when Env is production.
	TransferCodeReturnToClient bool `mapstructure:"TRANSFER_CODE_RETURN_TO_CLIENT"`
	// CustomRoleRank is the default role whose rank custom roles take in the hierarchy (VIEWER..ADMIN).
	CustomRoleRank string `mapstructure:"CUSTOM_ROLE_RANK"`
	// JoinCodeRegenInterval is the minimum time between two join code regenerations.
	JoinCodeRegenInterval string `mapstructure:"JOIN_CODE_REGEN_INTERVAL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the Kafka notification sink.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// NotificationKafkaTopic is the topic notification requests are written to.
	NotificationKafkaTopic string `mapstructure:"NOTIFICATION_KAFKA_TOPIC"`

	// OTelEndpoint is the OTLP/gRPC collector address. Empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces plaintext to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is recorded as service.name.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Worker-only: how often the reaper expires stale transfer requests.
	ReaperInterval string `mapstructure:"REAPER_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 0)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "lynkskill-auth")
	v.SetDefault("JWT_AUDIENCE", "lynkskill-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("TRANSFER_TTL", "24h")
	v.SetDefault("TRANSFER_MAX_CODE_ATTEMPTS", 5)
	v.SetDefault("TRANSFER_CODE_RETURN_TO_CLIENT", false)
	v.SetDefault("CUSTOM_ROLE_RANK", "VIEWER")
	v.SetDefault("JOIN_CODE_REGEN_INTERVAL", "1m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("NOTIFICATION_KAFKA_TOPIC", "lynkskill-notifications")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "lynkskill-authz")
	v.SetDefault("REAPER_INTERVAL", "1m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.TransferCodeReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: TRANSFER_CODE_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if cfg.TransferMaxCodeAttempts < 1 {
		return nil, errors.New("config: TRANSFER_MAX_CODE_ATTEMPTS must be at least 1")
	}
	if cfg.DBMaxConns < 0 {
		return nil, errors.New("config: DB_MAX_CONNS must not be negative")
	}
	if _, err := cfg.CustomRank(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CustomRank parses CustomRoleRank. OWNER is rejected.
func (c *Config) CustomRank() (rbac.DefaultRole, error) {
	r, err := rbac.ParseDefaultRole(c.CustomRoleRank)
	if err != nil || r == rbac.RoleOwner {
		return 0, errors.New("config: CUSTOM_ROLE_RANK must be one of VIEWER, HR_RECRUITER, HR_MANAGER, ADMIN")
	}
	return r, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// TransferDuration parses TransferTTL. Returns 24h if unset or invalid.
func (c *Config) TransferDuration() time.Duration {
	return parseDuration(c.TransferTTL, 24*time.Hour)
}

// RegenInterval parses JoinCodeRegenInterval. Returns 1m if unset or invalid.
func (c *Config) RegenInterval() time.Duration {
	return parseDuration(c.JoinCodeRegenInterval, time.Minute)
}

// ReaperEvery parses ReaperInterval. Returns 1m if unset or invalid.
func (c *Config) ReaperEvery() time.Duration {
	return parseDuration(c.ReaperInterval, time.Minute)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the Kafka notification sink.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
