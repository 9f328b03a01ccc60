package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/notification"
	"github.com/vladislavdragonenkov/checkout/internal/service/payment"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

// orderStore - репозиторий, умеющий и сохранять, и выбирать заказы покупателя.
type orderStore interface {
	domain.OrderRepository
	domain.OrderLister
}

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Orders   orderStore
	Gateway  domain.PaymentGateway
	Notifier domain.EmailNotifier
	Checkout *checkout.Service
	Health   *health.Handler
	Logger   *log.Entry

	store    *postgres.Store
	producer *kafka.Producer
}

// NewDependencies создаёт зависимости по конфигурации. При ошибке уже
// открытые ресурсы закрываются.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry, healthHandler *health.Handler) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &Dependencies{Logger: logger, Health: healthHandler}
	if err := deps.init(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) init(ctx context.Context, cfg Config) error {
	var err error
	if err = d.initStorage(ctx, cfg); err != nil {
		return err
	}
	if d.Gateway, err = newGateway(cfg, d.Logger); err != nil {
		return err
	}
	if d.Notifier, err = newNotifier(ctx, cfg, d.Logger); err != nil {
		return err
	}

	policy, err := domain.NewTierDiscountPolicy(cfg.PremiumDiscount)
	if err != nil {
		return err
	}

	opts := []checkout.Option{
		checkout.WithDiscountPolicy(policy),
		checkout.WithLogger(d.Logger.WithField("component", "checkout")),
		checkout.WithMetrics(metrics.NewCheckoutMetrics()),
	}
	// Kafka необязателен: без брокеров события не публикуются.
	if producer, kafkaErr := initKafkaProducer(cfg.KafkaBrokers, d.Logger); kafkaErr == nil && producer != nil {
		d.producer = producer
		opts = append(opts, checkout.WithEventPublisher(producer, cfg.KafkaTopic))
	}

	d.Checkout = checkout.NewService(d.Gateway, d.Orders, d.Notifier, opts...)
	return nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg Config) error {
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("init postgres storage: %w", err)
		}
		d.store = store

		if cfg.PostgresAutoMigrate {
			applied, err := store.MigrateUp(ctx, 0)
			if err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
			d.Logger.WithField("applied", applied).Info("postgres migrations applied")
		}
		if d.Health != nil {
			d.Health.RegisterChecker("postgres", health.NewSimpleChecker("postgres", store.Ping))
		}

		d.Orders = postgres.NewOrderRepository(store)
		d.Logger.Info("storage: postgres")
	default:
		d.Orders = memory.NewOrderRepository()
		d.Logger.Info("storage: in-memory")
	}
	return nil
}

func newGateway(cfg Config, logger *log.Entry) (domain.PaymentGateway, error) {
	if cfg.PaymentGatewayURL == "" {
		// NOTE: mock одобряет все списания; только для локального запуска.
		logger.Warn("payment gateway url is not set, using mock gateway")
		return payment.NewMockGateway(), nil
	}
	gw, err := payment.NewHTTPGateway(payment.HTTPConfig{
		BaseURL:      cfg.PaymentGatewayURL,
		Timeout:      cfg.PaymentTimeout,
		ClientID:     cfg.PaymentClientID,
		ClientSecret: cfg.PaymentClientSecret,
		TokenURL:     cfg.PaymentTokenURL,
	}, logger.WithField("component", "payment-gateway"))
	if err != nil {
		return nil, fmt.Errorf("init payment gateway: %w", err)
	}
	return gw, nil
}

func newNotifier(ctx context.Context, cfg Config, logger *log.Entry) (domain.EmailNotifier, error) {
	if cfg.EmailDriver != EmailDriverSES {
		return notification.NewLogNotifier(logger.WithField("component", "email-log")), nil
	}
	n, err := notification.NewSESNotifier(ctx, notification.SESConfig{
		From:      cfg.EmailFrom,
		Region:    cfg.SESRegion,
		AccessKey: cfg.SESAccessKey,
		SecretKey: cfg.SESSecretKey,
	}, logger.WithField("component", "email-ses"))
	if err != nil {
		return nil, fmt.Errorf("init ses notifier: %w", err)
	}
	return n, nil
}

// Close освобождает внешние ресурсы: Kafka producer и подключение к Postgres.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	closeKafka(d.producer, d.Logger)
	d.producer = nil
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
		d.store = nil
	}
}
