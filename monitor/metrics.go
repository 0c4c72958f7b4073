package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the check cycle.
type Metrics struct {
	Registry           *prometheus.Registry
	ChecksTotal        *prometheus.CounterVec
	ScrapeDuration     prometheus.Histogram
	ProductsFound      prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
	HistorySize        prometheus.Gauge
	CurrentPrice       prometheus.Gauge
	RegularPrice       prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	checks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yochiwatch_checks_total",
			Help: "Total check cycles by result.",
		},
		[]string{"result"},
	)
	scrapeDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yochiwatch_scrape_duration_seconds",
			Help:    "Latency of the search page scrape.",
			Buckets: prometheus.DefBuckets,
		},
	)
	productsFound := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yochiwatch_products_found",
			Help: "Products extracted in the last check.",
		},
	)
	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yochiwatch_notifications_total",
			Help: "Notification attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)
	historySize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yochiwatch_history_size",
			Help: "Observations currently kept in the price history.",
		},
	)
	currentPrice := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yochiwatch_current_price",
			Help: "Cheapest product price from the last check.",
		},
	)
	regularPrice := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yochiwatch_regular_price",
			Help: "Regular price baseline used in the last check.",
		},
	)

	registry.MustRegister(checks, scrapeDuration, productsFound, notifications, historySize, currentPrice, regularPrice)

	return &Metrics{
		Registry:           registry,
		ChecksTotal:        checks,
		ScrapeDuration:     scrapeDuration,
		ProductsFound:      productsFound,
		NotificationsTotal: notifications,
		HistorySize:        historySize,
		CurrentPrice:       currentPrice,
		RegularPrice:       regularPrice,
	}
}

// IncCheck counts one completed check cycle for a result label.
func (m *Metrics) IncCheck(result string) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(result).Inc()
}

// ObserveScrape records the scrape duration.
func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}

// SetProductsFound records how many products the scrape yielded.
func (m *Metrics) SetProductsFound(n int) {
	if m == nil {
		return
	}
	m.ProductsFound.Set(float64(n))
}

// IncNotification counts one notification attempt outcome.
func (m *Metrics) IncNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// SetHistorySize records the current history length.
func (m *Metrics) SetHistorySize(n int) {
	if m == nil {
		return
	}
	m.HistorySize.Set(float64(n))
}

// SetPrices records the current and regular prices of the last check.
func (m *Metrics) SetPrices(current, regular float64) {
	if m == nil {
		return
	}
	m.CurrentPrice.Set(current)
	m.RegularPrice.Set(regular)
}
