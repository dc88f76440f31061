// Package metrics собирает Prometheus-метрики HTTP и доменных операций.
package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardswap"

var (
	// Registry содержит коллекторы приложения
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	tradeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "events_total",
			Help:      "Trades created and deleted.",
		},
		[]string{"event"},
	)

	collectionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "cards_total",
			Help:      "Card copies added to and removed from collections.",
		},
		[]string{"event"},
	)

	openTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "open",
			Help:      "Number of open trades.",
		},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cards",
			Help:      "Number of cards in the catalog.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		tradeEvents,
		collectionEvents,
		openTrades,
		catalogSize,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler отдаёт метрики в формате Prometheus
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware считает запросы и их длительность
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		method := strings.ToUpper(c.Method())
		path := canonicalPath(c.Path())
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// TradeCreated учитывает созданный обмен
func TradeCreated() { tradeEvents.WithLabelValues("created").Inc() }

// TradeDeleted учитывает удалённый обмен
func TradeDeleted() { tradeEvents.WithLabelValues("deleted").Inc() }

// CardsAdded учитывает добавленные в коллекцию копии
func CardsAdded(n int) { collectionEvents.WithLabelValues("added").Add(float64(n)) }

// CardsRemoved учитывает удалённые из коллекции копии
func CardsRemoved(n int) { collectionEvents.WithLabelValues("removed").Add(float64(n)) }

// SetOpenTrades обновляет число открытых обменов
func SetOpenTrades(n int) { openTrades.Set(float64(n)) }

// SetCatalogSize обновляет размер каталога
func SetCatalogSize(n int) { catalogSize.Set(float64(n)) }

// canonicalPath сворачивает идентификаторы в пути, чтобы не плодить метки:
// /api/trades/42 -> /api/trades/:id
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
