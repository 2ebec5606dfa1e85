package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one crawl run. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PagesTotal     *prometheus.CounterVec
	DetailsTotal   *prometheus.CounterVec
	RecordsKept    *prometheus.CounterVec
	CrawlDuration  *prometheus.HistogramVec
	StoreRows      *prometheus.GaugeVec
	PublishedTotal *prometheus.CounterVec
}

// New registers the crawl collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_pages_total",
				Help: "Listing pages visited, by outcome.",
			},
			[]string{"site", "outcome"}, // outcome: ok, fetch_error, empty
		),
		DetailsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_details_total",
				Help: "Detail pages processed, by outcome and failure reason.",
			},
			[]string{"site", "outcome", "reason"},
		),
		RecordsKept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_records_kept_total",
				Help: "Records that survived in-run deduplication.",
			},
			[]string{"site"},
		),
		CrawlDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "listing_crawl_duration_seconds",
				Help:    "Duration of a full crawl run.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"site", "stop_reason"},
		),
		StoreRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "listing_store_rows",
				Help: "Rows in the persisted store after the last merge.",
			},
			[]string{"site"},
		),
		PublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_published_total",
				Help: "Records published to the change stream, by outcome.",
			},
			[]string{"site", "outcome"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Page(site, outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(site, outcome).Inc()
}

func (m *Metrics) Detail(site, outcome, reason string) {
	if m == nil {
		return
	}
	m.DetailsTotal.WithLabelValues(site, outcome, reason).Inc()
}

func (m *Metrics) Kept(site string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsKept.WithLabelValues(site).Add(float64(n))
}

func (m *Metrics) Duration(site, stopReason string, d time.Duration) {
	if m == nil {
		return
	}
	m.CrawlDuration.WithLabelValues(site, stopReason).Observe(d.Seconds())
}

func (m *Metrics) Stored(site string, total int) {
	if m == nil {
		return
	}
	m.StoreRows.WithLabelValues(site).Set(float64(total))
}

func (m *Metrics) Published(site, outcome string) {
	if m == nil {
		return
	}
	m.PublishedTotal.WithLabelValues(site, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
