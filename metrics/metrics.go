// Package metrics exposes scrape and sync counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sisgap"

// Sync results used as the "result" label.
const (
	ResultInserted = "inserted"
	ResultUpdated  = "updated"
	ResultFailed   = "failed"
)

var (
	scrapedDays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_days_total",
		Help:      "Timetable days scraped from SISGAP.",
	})
	scrapedItems = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_items_total",
		Help:      "Timetable items decoded from scraped days.",
	})
	scrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Time spent fetching and decoding one timetable day.",
		Buckets:   prometheus.DefBuckets,
	})
	syncEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_events_total",
		Help:      "Calendar events processed by sync, by result.",
	}, []string{"result"})
	lastSync = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix time of the last completed sync pass.",
	})
)

func ObserveScrapedDay(d time.Duration, items int) {
	scrapedDays.Inc()
	scrapedItems.Add(float64(items))
	scrapeDuration.Observe(d.Seconds())
}

func CountSyncEvent(result string) {
	syncEvents.WithLabelValues(result).Inc()
}

func MarkSyncCompleted(t time.Time) {
	lastSync.Set(float64(t.Unix()))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
