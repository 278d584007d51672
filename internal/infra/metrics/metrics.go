package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PublishAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_attempts_total",
		Help: "Количество попыток публикации по платформам и результатам",
	}, []string{"platform", "result"})

	PublishAttemptDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publish_attempt_duration_seconds",
		Help:    "Длительность одной попытки публикации",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})

	PostsFinalStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_final_status_total",
		Help: "Количество постов по финальным статусам",
	}, []string{"status"})

	RunnerInflightJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "runner_inflight_jobs",
		Help: "Количество заданий публикации в работе",
	})

	TimerDueTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timer_due_total",
		Help: "Количество наступивших таймеров, забранных раннером",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PublishAttemptsTotal,
		PublishAttemptDuration,
		PostsFinalStatusTotal,
		RunnerInflightJobs,
		TimerDueTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObservePublishAttempt записывает результат и длительность попытки публикации.
func ObservePublishAttempt(platform string, succeeded bool, start time.Time) {
	result := "success"
	if !succeeded {
		result = "failure"
	}
	PublishAttemptsTotal.WithLabelValues(platform, result).Inc()
	PublishAttemptDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
}

// IncPostFinalStatus увеличивает счётчик финальных статусов постов.
func IncPostFinalStatus(status string) {
	PostsFinalStatusTotal.WithLabelValues(status).Inc()
}
