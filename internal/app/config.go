package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

const (
	// EnvPrefix - префикс переменных окружения сервиса.
	EnvPrefix = "CHECKOUT"
	// ConfigFileEnv - путь к необязательному YAML-файлу конфигурации.
	ConfigFileEnv = "CHECKOUT_CONFIG_FILE"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	EmailDriverLog = "log"
	EmailDriverSES = "ses"
)

// Config описывает настройки запуска приложения.
// Порядок источников: значения по умолчанию, YAML-файл, переменные CHECKOUT_*.
type Config struct {
	HTTPAddr    string `yaml:"http_addr" envconfig:"HTTP_ADDR"`
	GRPCAddr    string `yaml:"grpc_addr" envconfig:"GRPC_ADDR"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	// CORSOrigins - разрешённые Origin для HTTP API, пусто - любые.
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`

	StorageDriver       string `yaml:"storage_driver" envconfig:"STORAGE_DRIVER"`
	PostgresDSN         string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate bool   `yaml:"postgres_auto_migrate" envconfig:"POSTGRES_AUTO_MIGRATE"`

	KafkaBrokers []string `yaml:"kafka_brokers" envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafka_topic" envconfig:"KAFKA_TOPIC"`

	// Пустой PaymentGatewayURL - mock-шлюз, одобряющий все списания.
	PaymentGatewayURL   string        `yaml:"payment_gateway_url" envconfig:"PAYMENT_GATEWAY_URL"`
	PaymentClientID     string        `yaml:"payment_client_id" envconfig:"PAYMENT_CLIENT_ID"`
	PaymentClientSecret string        `yaml:"payment_client_secret" envconfig:"PAYMENT_CLIENT_SECRET"`
	PaymentTokenURL     string        `yaml:"payment_token_url" envconfig:"PAYMENT_TOKEN_URL"`
	PaymentTimeout      time.Duration `yaml:"payment_timeout" envconfig:"PAYMENT_TIMEOUT"`

	EmailDriver  string `yaml:"email_driver" envconfig:"EMAIL_DRIVER"`
	EmailFrom    string `yaml:"email_from" envconfig:"EMAIL_FROM"`
	SESRegion    string `yaml:"ses_region" envconfig:"SES_REGION"`
	SESAccessKey string `yaml:"ses_access_key" envconfig:"SES_ACCESS_KEY"`
	SESSecretKey string `yaml:"ses_secret_key" envconfig:"SES_SECRET_KEY"`

	PremiumDiscount decimal.Decimal `yaml:"premium_discount" envconfig:"PREMIUM_DISCOUNT"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          kafka.TopicCheckoutEvents,
		PaymentTimeout:      10 * time.Second,
		EmailDriver:         EmailDriverLog,
		PremiumDiscount:     domain.DefaultPremiumDiscount,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// LoadConfig собирает конфигурацию из файла (если CHECKOUT_CONFIG_FILE задан)
// и окружения, затем валидирует результат.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.EmailDriver = strings.ToLower(strings.TrimSpace(c.EmailDriver))
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.PaymentGatewayURL = strings.TrimSpace(c.PaymentGatewayURL)
	c.KafkaBrokers = compact(c.KafkaBrokers)
	c.CORSOrigins = compact(c.CORSOrigins)
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres storage requires CHECKOUT_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}

	switch c.EmailDriver {
	case EmailDriverLog:
	case EmailDriverSES:
		if c.EmailFrom == "" {
			errs = append(errs, errors.New("ses email driver requires CHECKOUT_EMAIL_FROM"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown email driver %q", c.EmailDriver))
	}

	if c.PremiumDiscount.IsNegative() || c.PremiumDiscount.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("premium discount %s: %w", c.PremiumDiscount, domain.ErrDiscountRateInvalid))
	}
	if c.PaymentClientID != "" && c.PaymentTokenURL == "" {
		errs = append(errs, errors.New("payment client credentials require CHECKOUT_PAYMENT_TOKEN_URL"))
	}
	if c.PaymentTimeout < 0 {
		errs = append(errs, errors.New("payment timeout must not be negative"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// NewLogger настраивает logrus по конфигурации.
func (c Config) NewLogger() *log.Logger {
	logger := log.New()
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func compact(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
