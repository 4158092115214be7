package checkout

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// RetryConfig — конфигурация повторов коммит-транзакции.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// executeWithRetry повторяет fn при транзиентных инфраструктурных ошибках.
// fn обязана выполнять полный read-compute-write цикл: повтор перезапускает
// транзакцию целиком, а не дописывает её половину. Бизнес-ошибки терминальны.
func executeWithRetry(config RetryConfig, logger *log.Entry, onRetry func(), fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.WithField("attempt", attempt).Info("Commit succeeded after retry")
			}
			return nil
		}

		lastErr = err
		if !domain.IsTransient(err) {
			return err
		}

		if attempt < config.MaxAttempts {
			logger.WithFields(log.Fields{
				"attempt": attempt,
				"delay":   delay,
				"error":   err,
			}).Warn("Commit failed with transient error, retrying")

			if onRetry != nil {
				onRetry()
			}
			time.Sleep(delay)

			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return lastErr
}
