package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/app"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}
}

// run читает конфигурацию, настраивает logrus и блокируется до отмены ctx.
func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	logger := cfg.NewLogger()
	log.SetFormatter(logger.Formatter)
	log.SetLevel(logger.GetLevel())

	entry := logger.WithField("service", "checkout")
	entry.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"email":        cfg.EmailDriver,
		"version":      version.String(),
	}).Info("запускаем checkout service")

	if err := app.Run(ctx, cfg, entry); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	entry.Info("checkout service остановлен")
	return nil
}
