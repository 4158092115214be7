package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/app"
)

const (
	envMetricsAddr      = "CHECKOUT_METRICS_ADDR"
	envPostgresDSN      = "CHECKOUT_POSTGRES_DSN"
	envRedisAddr        = "CHECKOUT_REDIS_ADDR"
	envRedisPassword    = "CHECKOUT_REDIS_PASSWORD"
	envRedisDB          = "CHECKOUT_REDIS_DB"
	envKafkaBrokers     = "CHECKOUT_KAFKA_BROKERS"
	envKafkaTopic       = "CHECKOUT_KAFKA_TOPIC"
	envPreviewTTL       = "CHECKOUT_PREVIEW_TTL"
	envSessionCartTTL   = "CHECKOUT_SESSION_CART_TTL"
	envGuestCustomerID  = "CHECKOUT_GUEST_CUSTOMER_ID"
	envDeliveryLeadTime = "CHECKOUT_DELIVERY_LEAD_TIME"
)

// envLookup абстрагирует доступ к переменным окружения для тестируемости.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv формирует конфигурацию приложения из переменных окружения.
// Невалидные значения не прерывают запуск: поле остаётся со значением по
// умолчанию, а причина возвращается в списке предупреждений.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPostgresDSN); ok {
		cfg.PostgresDSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(envRedisAddr); ok {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envRedisPassword); ok {
		cfg.RedisPassword = v
	}
	if v, ok := lookup(envRedisDB); ok {
		db, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envRedisDB, err))
		} else {
			cfg.RedisDB = db
		}
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = splitBrokers(v)
	}
	if v, ok := lookup(envKafkaTopic); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaTopic = strings.TrimSpace(v)
	}
	if v, ok := lookup(envPreviewTTL); ok {
		ttl, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envPreviewTTL, err))
		} else {
			cfg.PreviewTTL = ttl
		}
	}
	if v, ok := lookup(envSessionCartTTL); ok {
		ttl, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envSessionCartTTL, err))
		} else {
			cfg.SessionCartTTL = ttl
		}
	}
	if v, ok := lookup(envGuestCustomerID); ok && strings.TrimSpace(v) != "" {
		cfg.GuestCustomerID = strings.TrimSpace(v)
	}
	if v, ok := lookup(envDeliveryLeadTime); ok {
		lead, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envDeliveryLeadTime, err))
		} else {
			cfg.DeliveryLeadTime = lead
		}
	}

	return cfg, warnings
}

// splitBrokers разбирает список адресов брокеров, разделённых запятыми.
func splitBrokers(value string) []string {
	var brokers []string
	for _, part := range strings.Split(value, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			brokers = append(brokers, addr)
		}
	}
	return brokers
}

func parseInt(value string, valid func(int) bool, rule string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	if !valid(n) {
		return 0, fmt.Errorf("value %d %s", n, rule)
	}
	return n, nil
}

func parseDuration(value string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	if !valid(d) {
		return 0, fmt.Errorf("value %s %s", d, rule)
	}
	return d, nil
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warnf("конфигурация: %s", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"metrics_addr": cfg.MetricsAddr,
		"postgres":     cfg.PostgresDSN != "",
		"redis":        cfg.RedisAddr != "",
		"kafka":        len(cfg.KafkaBrokers) > 0,
	}).Info("запускаем CheckoutService")

	if err := app.Run(ctx, cfg, nil); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("CheckoutService остановлен")
}
