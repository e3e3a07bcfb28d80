package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// DirectoryConfig tunes the administrative organization listing.
type DirectoryConfig struct {
	MemberFetchConcurrency int `mapstructure:"member_fetch_concurrency"`
}

type WorkerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// WebhooksConfig lists endpoints notified of audited mutations.
type WebhooksConfig struct {
	Timeout     time.Duration           `mapstructure:"timeout"`
	MaxAttempts int                     `mapstructure:"max_attempts"`
	Backoff     time.Duration           `mapstructure:"backoff"`
	Endpoints   []WebhookEndpointConfig `mapstructure:"endpoints"`
}

type WebhookEndpointConfig struct {
	URL    string   `mapstructure:"url"`
	Secret string   `mapstructure:"secret"`
	Events []string `mapstructure:"events"`
}

// SeedConfig describes the reference data written once by the migrate command.
type SeedConfig struct {
	DefaultOrganization DefaultOrganizationConfig `mapstructure:"default_organization"`
	Plans               []PlanConfig              `mapstructure:"plans"`
}

type DefaultOrganizationConfig struct {
	Name               string `mapstructure:"name"`
	RegistrationNumber string `mapstructure:"registration_number"`
	TaxNumber          string `mapstructure:"tax_number"`
}

type PlanConfig struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	MaxUsers   int    `mapstructure:"max_users"`
	PriceCents int64  `mapstructure:"price_cents"`
	Currency   string `mapstructure:"currency"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.url", "file:orgconsole.db?_foreign_keys=on")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("directory.member_fetch_concurrency", 4)
	v.SetDefault("worker.reconcile_interval", 5*time.Minute)
	v.SetDefault("webhooks.timeout", 10*time.Second)
	v.SetDefault("webhooks.max_attempts", 3)
	v.SetDefault("webhooks.backoff", time.Second)
	v.SetDefault("seed.default_organization.name", "No Organization")
	v.SetDefault("seed.default_organization.registration_number", "DEFAULT")
	v.SetDefault("seed.default_organization.tax_number", "DEFAULT")
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
