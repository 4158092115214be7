package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

const httpShutdownTimeout = 5 * time.Second

// Config описывает конфигурацию приложения.
type Config struct {
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string

	// PostgresDSN включает durable-хранилище; пустое значение означает
	// полностью in-memory режим (локальная разработка и тесты).
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	// PreviewTTL — время жизни рассчитанного превью заказа.
	PreviewTTL time.Duration
	// SessionCartTTL — время жизни гостевой корзины в Redis.
	SessionCartTTL time.Duration

	GuestCustomerID  string
	DeliveryLeadTime time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:      ":9090",
		KafkaTopic:       kafka.TopicOrderEvents,
		PreviewTTL:       5 * time.Minute,
		SessionCartTTL:   30 * time.Minute,
		GuestCustomerID:  "guest",
		DeliveryLeadTime: 72 * time.Hour,
	}
}

// Run запускает приложение и блокируется до отмены контекста.
func Run(ctx context.Context, cfg Config, logger *log.Entry) error {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer deps.Close()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	for name, check := range deps.HealthCheckers {
		healthHandler.Register(name, check)
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, healthHandler, logger)

	logger.WithField("version", version.String()).Info("checkout service started")
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownHTTP(metricsServer, logger)
	return ctx.Err()
}

// startMetricsServer поднимает HTTP-сервер с метриками и health-эндпоинтами.
func startMetricsServer(addr string, healthHandler *healthcheck.Handler, logger *log.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.Liveness)
	mux.HandleFunc("/readyz", healthHandler.Readiness)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()

	return server
}

// shutdownHTTP останавливает HTTP-сервер с ограничением по времени.
func shutdownHTTP(server *http.Server, logger *log.Entry) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("failed to shut down metrics server")
	}
}
