package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Payment  PaymentConfig  `yaml:"payment"`
	Booking  BookingConfig  `yaml:"booking"`
	Passes   PassConfig     `yaml:"passes"`
	Admin    AdminConfig    `yaml:"admin"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	Environment string `yaml:"environment"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	GinMode        string   `yaml:"gin_mode"`
}

type AuthConfig struct {
	JWTSigningKey  string `yaml:"jwt_signing_key"`
	CallbackSecret string `yaml:"callback_secret"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

const (
	PaymentProviderStripe  = "stripe"
	PaymentProviderSandbox = "sandbox"
)

type PaymentConfig struct {
	Provider        string `yaml:"provider"`
	StripeSecretKey string `yaml:"stripe_secret_key"`
	Currency        string `yaml:"currency"`
	SuccessURL      string `yaml:"success_url"`
	CancelURL       string `yaml:"cancel_url"`
	CheckoutBaseURL string `yaml:"checkout_base_url"`
}

type BookingConfig struct {
	PendingTTLMinutes       int               `yaml:"pending_ttl_minutes"`
	CancellationCutoffHours int               `yaml:"cancellation_cutoff_hours"`
	CreditOptionTTLHours    int               `yaml:"credit_option_ttl_hours"`
	SessionsCacheTTLSeconds int               `yaml:"sessions_cache_ttl_seconds"`
	CallbackLockTTLSeconds  int               `yaml:"callback_lock_ttl_seconds"`
	Prices                  map[string]string `yaml:"prices"`
}

func (b BookingConfig) PendingTTL() time.Duration {
	return time.Duration(b.PendingTTLMinutes) * time.Minute
}

func (b BookingConfig) CancellationCutoff() time.Duration {
	return time.Duration(b.CancellationCutoffHours) * time.Hour
}

func (b BookingConfig) CreditOptionTTL() time.Duration {
	return time.Duration(b.CreditOptionTTLHours) * time.Hour
}

func (b BookingConfig) SessionsCacheTTL() time.Duration {
	return time.Duration(b.SessionsCacheTTLSeconds) * time.Second
}

func (b BookingConfig) CallbackLockTTL() time.Duration {
	return time.Duration(b.CallbackLockTTLSeconds) * time.Second
}

// PriceList parses the per-child activity prices.
func (b BookingConfig) PriceList() (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(b.Prices))
	for activity, raw := range b.Prices {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("price for %q: %w", activity, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("price for %q must be positive", activity)
		}
		prices[activity] = price
	}
	return prices, nil
}

type PassConfig struct {
	ValidityDays int `yaml:"validity_days"`
}

func (p PassConfig) Validity() time.Duration {
	return time.Duration(p.ValidityDays) * 24 * time.Hour
}

type AdminConfig struct {
	PaidRemedy string `yaml:"paid_remedy"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
	RefundRetryMinutes     int `yaml:"refund_retry_minutes"`
	SweepBatchSize         int `yaml:"sweep_batch_size"`
}

func (w WorkerConfig) ExpirationSweepInterval() time.Duration {
	return time.Duration(w.ExpirationSweepMinutes) * time.Minute
}

func (w WorkerConfig) RefundRetryInterval() time.Duration {
	return time.Duration(w.RefundRetryMinutes) * time.Minute
}

// InProcess reports whether state lives only inside one process and cannot be shared with a separate worker.
func (s StorageConfig) InProcess() bool {
	return s.Driver == StorageDriverMemory
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		HTTP:    HTTPConfig{Address: ":8080", GinMode: "release"},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Kafka:   KafkaConfig{NotificationsTopic: "booking-notifications", GroupID: "booking-notifier"},
		Payment: PaymentConfig{Provider: PaymentProviderSandbox, Currency: "eur"},
		Booking: BookingConfig{
			PendingTTLMinutes:       30,
			CancellationCutoffHours: 10,
			CreditOptionTTLHours:    72,
			SessionsCacheTTLSeconds: 60,
			CallbackLockTTLSeconds:  30,
		},
		Passes: PassConfig{ValidityDays: 180},
		Admin:  AdminConfig{PaidRemedy: "refund"},
		Worker: WorkerConfig{ExpirationSweepMinutes: 1, RefundRetryMinutes: 15, SweepBatchSize: 100},
	}
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		c.Auth.JWTSigningKey = v
	}
	if v := os.Getenv("GATEWAY_CALLBACK_SECRET"); v != "" {
		c.Auth.CallbackSecret = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Payment.StripeSecretKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JWTSigningKey, validation.Required),
		validation.Field(&c.Auth.CallbackSecret, validation.Required),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validation.ValidateStruct(&c.Storage,
		validation.Field(&c.Storage.Driver, validation.Required, validation.In(StorageDriverPostgres, StorageDriverMemory)),
	); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validation.ValidateStruct(&c.Payment,
		validation.Field(&c.Payment.Provider, validation.Required, validation.In(PaymentProviderStripe, PaymentProviderSandbox)),
		validation.Field(&c.Payment.Currency, validation.Required, validation.Length(3, 3)),
	); err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	if c.Payment.Provider == PaymentProviderStripe && c.Payment.StripeSecretKey == "" {
		return fmt.Errorf("payment: stripe_secret_key is required for the stripe provider")
	}
	if err := validation.ValidateStruct(&c.Booking,
		validation.Field(&c.Booking.PendingTTLMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.Booking.CancellationCutoffHours, validation.Min(0)),
		validation.Field(&c.Booking.CreditOptionTTLHours, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("booking: %w", err)
	}
	if _, err := c.Booking.PriceList(); err != nil {
		return fmt.Errorf("booking: %w", err)
	}
	if err := validation.ValidateStruct(&c.Passes,
		validation.Field(&c.Passes.ValidityDays, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("passes: %w", err)
	}
	if err := validation.ValidateStruct(&c.Admin,
		validation.Field(&c.Admin.PaidRemedy, validation.Required, validation.In("refund", "credit")),
	); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	return validation.ValidateStruct(&c.Worker,
		validation.Field(&c.Worker.ExpirationSweepMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.Worker.RefundRetryMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.Worker.SweepBatchSize, validation.Required, validation.Min(1)),
	)
}
