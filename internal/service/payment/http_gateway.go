package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCurrency = "BRL"
	chargesPath     = "/charges"
	maxErrorBody    = 4 << 10
)

// ErrGatewayUnavailable - шлюз ответил ошибкой, результат списания неизвестен.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// HTTPConfig описывает подключение к внешнему платёжному шлюзу.
type HTTPConfig struct {
	BaseURL  string
	Currency string
	Timeout  time.Duration

	// OAuth2 client credentials. Пустой ClientID - запросы без авторизации.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

type chargeRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Token    string `json:"token"`
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	DeclineReason string `json:"decline_reason"`
}

// HTTPGateway списывает средства через JSON API шлюза.
type HTTPGateway struct {
	baseURL  string
	currency string
	client   *http.Client
	logger   *log.Entry
}

// NewHTTPGateway создаёт шлюз. Если заданы client credentials, http.Client
// сам получает и обновляет access token.
func NewHTTPGateway(cfg HTTPConfig, logger *log.Entry) (*HTTPGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("payment gateway base url is required")
	}
	if logger == nil {
		logger = log.New().WithField("component", "payment-gateway")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	currency := cfg.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	client := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" {
		if cfg.TokenURL == "" {
			return nil, fmt.Errorf("payment gateway token url is required with client credentials")
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		// Токен запрашивается тем же клиентом с тем же таймаутом.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
		client = cc.Client(ctx)
		client.Timeout = timeout
	}

	return &HTTPGateway{
		baseURL:  baseURL,
		currency: currency,
		client:   client,
		logger:   logger,
	}, nil
}

// Charge отправляет запрос на списание.
//
// 200 с success=false и 402 - отказ (не ошибка). Остальные коды - ошибка,
// обёрнутая в ErrGatewayUnavailable.
func (g *HTTPGateway) Charge(ctx context.Context, amount decimal.Decimal, token string) (domain.ChargeResult, error) {
	payload, err := json.Marshal(chargeRequest{
		Amount:   amount.String(),
		Currency: g.currency,
		Token:    token,
	})
	if err != nil {
		return domain.ChargeResult{}, fmt.Errorf("marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+chargesPath, bytes.NewReader(payload))
	if err != nil {
		return domain.ChargeResult{}, fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ChargeResult{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	logger := g.logger.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started),
	})

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		reason := declineReason(resp.Body)
		logger.WithField("reason", reason).Debug("charge declined by gateway")
		return domain.ChargeResult{Success: false, DeclineReason: reason}, nil
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var body chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return domain.ChargeResult{}, fmt.Errorf("decode charge response: %w", err)
		}
		logger.WithFields(log.Fields{
			"success":        body.Success,
			"transaction_id": body.TransactionID,
		}).Debug("charge response received")
		return domain.ChargeResult{
			Success:       body.Success,
			TransactionID: body.TransactionID,
			DeclineReason: body.DeclineReason,
		}, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WithField("body", string(raw)).Warn("payment gateway returned unexpected status")
		return domain.ChargeResult{}, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
}

// declineReason читает тело ответа 402. Тело может быть пустым или не JSON:
// тогда причиной становится сам текст либо статус.
func declineReason(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var body chargeResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.DeclineReason != "" {
		return body.DeclineReason
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !json.Valid(raw) {
		return text
	}
	return http.StatusText(http.StatusPaymentRequired)
}

var _ domain.PaymentGateway = (*HTTPGateway)(nil)
