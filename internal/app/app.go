package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

const (
	shutdownTimeout    = 5 * time.Second
	healthSyncInterval = 10 * time.Second
	readHeaderTimeout  = 5 * time.Second
)

// App - собранное приложение: HTTP API, HTTP метрик/health и gRPC health.
type App struct {
	cfg    Config
	logger *log.Entry
	deps   *Dependencies

	apiSrv     *http.Server
	metricsSrv *http.Server
	grpcSrv    *grpc.Server
	grpcHealth *grpchealth.Server

	apiLis     net.Listener
	metricsLis net.Listener
	grpcLis    net.Listener
}

// New собирает зависимости и открывает все слушающие сокеты.
func New(ctx context.Context, cfg Config, logger *log.Entry) (*App, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	healthHandler := health.NewHandler(version.GetVersion())
	deps, err := NewDependencies(ctx, cfg, logger, healthHandler)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, deps: deps}
	if err := a.listen(); err != nil {
		a.closeListeners()
		deps.Close()
		return nil, err
	}

	a.apiSrv = &http.Server{
		Handler: httpapi.NewRouter(deps.Checkout, deps.Orders, httpapi.Options{
			Orders:         deps.Orders,
			AllowedOrigins: cfg.CORSOrigins,
			Logger:         logger.WithField("component", "http-api"),
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	a.metricsSrv = &http.Server{
		Handler:           newMetricsMux(healthHandler),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	a.grpcSrv, a.grpcHealth = newGRPCServer(logger)

	return a, nil
}

// Run создаёт приложение и блокируется до отмены ctx или падения сервера.
func Run(ctx context.Context, cfg Config, logger *log.Entry) error {
	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func (a *App) listen() error {
	var err error
	if a.apiLis, err = net.Listen("tcp", a.cfg.HTTPAddr); err != nil {
		return fmt.Errorf("listen http api %s: %w", a.cfg.HTTPAddr, err)
	}
	if a.metricsLis, err = net.Listen("tcp", a.cfg.MetricsAddr); err != nil {
		return fmt.Errorf("listen metrics %s: %w", a.cfg.MetricsAddr, err)
	}
	if a.grpcLis, err = net.Listen("tcp", a.cfg.GRPCAddr); err != nil {
		return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPCAddr, err)
	}
	return nil
}

func (a *App) closeListeners() {
	for _, lis := range []net.Listener{a.apiLis, a.metricsLis, a.grpcLis} {
		if lis != nil {
			_ = lis.Close()
		}
	}
}

// APIAddr возвращает фактический адрес HTTP API (полезно при порте :0).
func (a *App) APIAddr() string { return a.apiLis.Addr().String() }

// MetricsAddr возвращает фактический адрес сервера метрик.
func (a *App) MetricsAddr() string { return a.metricsLis.Addr().String() }

// GRPCAddr возвращает фактический адрес gRPC сервера.
func (a *App) GRPCAddr() string { return a.grpcLis.Addr().String() }

// Run обслуживает запросы до отмены ctx. Отмена - штатная остановка, возвращается nil.
func (a *App) Run(ctx context.Context) error {
	defer a.deps.Close()

	errCh := make(chan error, 3)
	serveHTTP := func(name string, srv *http.Server, lis net.Listener) {
		a.logger.Infof("%s слушает %s", name, lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s: %w", name, err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); serveHTTP("http api", a.apiSrv, a.apiLis) }()
	go func() { defer wg.Done(); serveHTTP("metrics", a.metricsSrv, a.metricsLis) }()
	go func() {
		defer wg.Done()
		a.logger.Infof("gRPC сервер слушает %s", a.grpcLis.Addr())
		if err := a.grpcSrv.Serve(a.grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	go a.syncHealth(syncCtx)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("получен сигнал остановки, останавливаем серверы")
	case runErr = <-errCh:
		a.logger.WithError(runErr).Error("сервер завершился с ошибкой")
	}

	stopSync()
	a.shutdown()
	wg.Wait()
	return runErr
}

func (a *App) shutdown() {
	a.grpcHealth.Shutdown()

	stopped := make(chan struct{})
	go func() {
		a.grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		a.logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		a.grpcSrv.Stop()
	}

	shutdownHTTP(a.apiSrv, a.logger)
	shutdownHTTP(a.metricsSrv, a.logger)
}

// syncHealth периодически переносит результат health-проверок в gRPC health.
func (a *App) syncHealth(ctx context.Context) {
	ticker := time.NewTicker(healthSyncInterval)
	defer ticker.Stop()

	for {
		a.deps.Health.SyncGRPC(ctx, a.grpcHealth, "")
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newGRPCServer(logger *log.Entry) (*grpc.Server, *grpchealth.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, healthServer)
	// Reflection для grpcurl.
	reflection.Register(srv)
	grpcMetrics.InitializeMetrics(srv)

	return srv, healthServer
}

func newMetricsMux(healthHandler *health.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	return mux
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
