package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// CheckFunc проверяет доступность одной внешней зависимости.
type CheckFunc func(ctx context.Context) error

// CheckResult — результат одной проверки в ответе /healthz.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Response — тело ответа /healthz.
type Response struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version,omitempty"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks,omitempty"`
}

// Handler выполняет зарегистрированные проверки и отдаёт сводный статус.
// Каждая проверка ограничена собственным таймаутом: один зависший бекенд
// не должен подвешивать весь health-эндпоинт.
type Handler struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	version   string
	timeout   time.Duration
	startedAt time.Time
}

// NewHandler создаёт handler без зарегистрированных проверок.
func NewHandler(version string) *Handler {
	return &Handler{
		checks:    make(map[string]CheckFunc),
		version:   version,
		timeout:   defaultCheckTimeout,
		startedAt: time.Now(),
	}
}

// Register добавляет именованную проверку зависимости.
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) snapshot() map[string]CheckFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()

	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	return checks
}

func (h *Handler) run(parent context.Context) (map[string]CheckResult, bool) {
	results := make(map[string]CheckResult)
	healthy := true

	for name, check := range h.snapshot() {
		ctx, cancel := context.WithTimeout(parent, h.timeout)
		started := time.Now()
		err := check(ctx)
		cancel()

		result := CheckResult{
			Status:    "healthy",
			LatencyMs: time.Since(started).Milliseconds(),
		}
		if err != nil {
			result.Status = "unhealthy"
			result.Error = err.Error()
			healthy = false
		}
		results[name] = result
	}

	return results, healthy
}

// ServeHTTP отдаёт сводный статус всех проверок; 503 при любой неудаче.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	results, healthy := h.run(r.Context())

	response := Response{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Checks:        results,
	}

	statusCode := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// Readiness отвечает 200, когда все зависимости доступны, иначе 503.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if _, healthy := h.run(r.Context()); !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Liveness всегда отвечает 200: процесс жив, раз обрабатывает запрос.
func Liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
