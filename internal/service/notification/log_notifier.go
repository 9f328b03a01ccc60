package notification

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Message - отправленное письмо.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// LogNotifier пишет письма в лог вместо отправки. Используется локально.
type LogNotifier struct {
	logger *log.Entry

	mu   sync.Mutex
	sent []Message
}

// NewLogNotifier создаёт notifier для локальной разработки.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "email-log")
	}
	return &LogNotifier{logger: logger}
}

// SendEmail логирует письмо.
func (n *LogNotifier) SendEmail(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	n.sent = append(n.sent, Message{Recipient: recipient, Subject: subject, Body: body})
	n.mu.Unlock()

	n.logger.WithFields(log.Fields{
		"recipient": recipient,
		"subject":   subject,
	}).Info(body)
	return nil
}

// Sent возвращает копию отправленных писем.
func (n *LogNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

var _ domain.EmailNotifier = (*LogNotifier)(nil)
