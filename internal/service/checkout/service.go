package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

const (
	// ConfirmationSubject - тема письма об одобренном заказе.
	ConfirmationSubject = "Seu Pedido foi Aprovado!"
	confirmationBody    = "Pedido %s no valor de R$%s"
)

var (
	// ErrCartRequired - корзина не передана.
	ErrCartRequired = errors.New("cart is required")
	// ErrCartEmpty - в корзине нет позиций.
	ErrCartEmpty = errors.New("cart has no items")
	// ErrNonPositiveTotal - сумма корзины не больше нуля, списывать нечего.
	ErrNonPositiveTotal = errors.New("cart total must be positive")
	// ErrPaymentTokenRequired - не передан платёжный токен.
	ErrPaymentTokenRequired = errors.New("payment token is required")
)

// Stage - этап одной попытки оформления (для логов и метрик).
type Stage string

const (
	StageCharging   Stage = "charge"
	StageDeclined   Stage = "declined"
	StagePersisting Stage = "persist"
	StageNotifying  Stage = "notify"
	StageDone       Stage = "done"
)

// NotificationError - заказ сохранён, но письмо отправить не удалось.
// Заказ остаётся сохранённым; OrderID нужен для сверки вне сервиса.
type NotificationError struct {
	OrderID string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify customer about order %s: %v", e.OrderID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// eventPublisher публикует события в брокер; реализуется kafka.Producer.
type eventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// Option настраивает Service.
type Option func(*Service)

// WithDiscountPolicy задаёт политику скидок.
func WithDiscountPolicy(policy domain.DiscountPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.discount = policy
		}
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает запись метрик Prometheus.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEventPublisher включает публикацию итоговых событий checkout в topic.
func WithEventPublisher(publisher eventPublisher, topic string) Option {
	return func(s *Service) {
		s.events = publisher
		if topic != "" {
			s.topic = topic
		}
	}
}

// Service оформляет заказ: Charge → Save → SendEmail, строго по порядку.
type Service struct {
	gateway  domain.PaymentGateway
	orders   domain.OrderRepository
	notifier domain.EmailNotifier
	discount domain.DiscountPolicy
	logger   *log.Entry
	metrics  *metrics.CheckoutMetrics
	events   eventPublisher
	topic    string
}

// NewService создаёт сервис оформления заказов.
func NewService(
	gateway domain.PaymentGateway,
	orders domain.OrderRepository,
	notifier domain.EmailNotifier,
	opts ...Option,
) *Service {
	s := &Service{
		gateway:  gateway,
		orders:   orders,
		notifier: notifier,
		discount: domain.DefaultDiscountPolicy(),
		logger:   log.New().WithField("component", "checkout"),
		topic:    kafka.TopicCheckoutEvents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessOrder списывает сумму корзины (со скидкой), сохраняет заказ и
// отправляет письмо-подтверждение.
//
// Отказ шлюза не является ошибкой: возвращается nil, nil, а репозиторий и
// уведомления не вызываются. Ошибки коллабораторов возвращаются обёрнутыми,
// без отката уже выполненных шагов.
func (s *Service) ProcessOrder(ctx context.Context, cart *domain.Cart, paymentToken string) (*domain.Order, error) {
	if err := validate(cart, paymentToken); err != nil {
		s.observeOutcome(metrics.OutcomeInvalid, time.Time{})
		return nil, err
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordStarted()
	}

	user := cart.User()
	rawTotal := cart.Total()
	finalTotal := s.discount.Apply(user, rawTotal)

	logger := s.logger.WithFields(log.Fields{
		"customer":  user.Email(),
		"tier":      user.Tier(),
		"raw_total": rawTotal.String(),
		"amount":    finalTotal.String(),
	})

	stepStart := time.Now()
	charge, err := s.gateway.Charge(ctx, finalTotal, paymentToken)
	s.observeStep(StageCharging, stepStart)
	if err != nil {
		logger.WithError(err).WithField("stage", StageCharging).Error("payment charge failed")
		s.fail(user, finalTotal, "", StageCharging, err, start)
		return nil, fmt.Errorf("charge payment: %w", err)
	}
	if !charge.Success {
		logger.WithFields(log.Fields{
			"stage":  StageDeclined,
			"reason": charge.DeclineReason,
		}).Info("payment declined")
		s.observeOutcome(metrics.OutcomeDeclined, start)
		s.publish(kafka.EventTypeCheckoutDeclined, "", user, finalTotal, map[string]interface{}{
			"reason": charge.DeclineReason,
		})
		return nil, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCharged(finalTotal.InexactFloat64())
	}

	stepStart = time.Now()
	order, err := s.orders.Save(ctx, domain.OrderDraft{
		Cart:   cart.Snapshot(),
		Amount: finalTotal,
	})
	s.observeStep(StagePersisting, stepStart)
	if err == nil && order == nil {
		err = domain.ErrOrderNotPersisted
	}
	if err != nil {
		logger.WithError(err).WithFields(log.Fields{
			"stage":          StagePersisting,
			"transaction_id": charge.TransactionID,
		}).Error("order persistence failed after successful charge")
		s.fail(user, finalTotal, "", StagePersisting, err, start)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	logger = logger.WithField("order_id", order.ID)

	stepStart = time.Now()
	body := fmt.Sprintf(confirmationBody, order.ID, order.Amount.String())
	err = s.notifier.SendEmail(ctx, user.Email(), ConfirmationSubject, body)
	s.observeStep(StageNotifying, stepStart)
	if err != nil {
		logger.WithError(err).WithField("stage", StageNotifying).Error("confirmation email failed, order stays persisted")
		s.fail(user, order.Amount, order.ID, StageNotifying, err, start)
		return nil, &NotificationError{OrderID: order.ID, Err: err}
	}

	logger.WithField("stage", StageDone).Info("checkout completed")
	s.observeOutcome(metrics.OutcomeCompleted, start)
	s.publish(kafka.EventTypeCheckoutCompleted, order.ID, user, order.Amount, map[string]interface{}{
		"status":         string(order.Status),
		"transaction_id": charge.TransactionID,
	})
	return order, nil
}

func validate(cart *domain.Cart, paymentToken string) error {
	switch {
	case cart == nil:
		return domain.NewValidationError(ErrCartRequired)
	case cart.IsEmpty():
		return domain.NewValidationError(ErrCartEmpty)
	case cart.Total().Sign() <= 0:
		return domain.NewValidationError(ErrNonPositiveTotal)
	case strings.TrimSpace(paymentToken) == "":
		return domain.NewValidationError(ErrPaymentTokenRequired)
	}
	return nil
}

func (s *Service) fail(user domain.User, amount decimal.Decimal, orderID string, stage Stage, err error, start time.Time) {
	s.observeOutcome(metrics.OutcomeFailed, start)
	s.publish(kafka.EventTypeCheckoutFailed, orderID, user, amount, map[string]interface{}{
		"stage": string(stage),
		"error": err.Error(),
	})
}

func (s *Service) observeStep(stage Stage, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStepDuration(string(stage), time.Since(start))
	}
}

// observeOutcome фиксирует исход. Нулевой start - попытка отклонена
// валидацией до начала обработки.
func (s *Service) observeOutcome(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	if start.IsZero() {
		s.metrics.RecordStarted()
		start = time.Now()
	}
	s.metrics.RecordFinished(outcome, time.Since(start))
}

// publish публикует событие, если publisher настроен. Ошибка публикации
// только логируется и не влияет на результат оформления.
func (s *Service) publish(eventType kafka.EventType, orderID string, user domain.User, amount decimal.Decimal, metadata map[string]interface{}) {
	if s.events == nil {
		return
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadata["tier"] = string(user.Tier())

	event := kafka.NewCheckoutEvent(eventType, orderID, user.Email(), amount.String(), metadata)
	if err := s.events.PublishEvent(s.topic, event.Key(), event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
		}).Warn("failed to publish checkout event to kafka")
	}
}
