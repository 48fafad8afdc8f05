// Registers:
//
//	#OISentry_scan_cycles_total
//	#OISentry_symbols_scanned_total
//	#OISentry_spikes_flagged_total
//	#OISentry_fetch_errors_total
//	#go_* and process_* system metrics
//
// The registry is exposed through Handler, mounted on the API server.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once            sync.Once
	scanCycles      prometheus.Counter
	symbolsScanned  prometheus.Counter
	spikesFlagged   prometheus.Counter
	spikesLastCycle prometheus.Gauge
	scanDuration    prometheus.Gauge
	fetchErrors     *prometheus.CounterVec
	usedWeight      prometheus.Gauge
)

func Init() {
	once.Do(func() {
		scanCycles = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "OISentry_scan_cycles_total",
			Help: "Number of completed scan cycles",
		})

		symbolsScanned = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "OISentry_symbols_scanned_total",
			Help: "Number of symbols fetched across all cycles",
		})

		spikesFlagged = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "OISentry_spikes_flagged_total",
			Help: "Number of open-interest spikes flagged across all cycles",
		})

		spikesLastCycle = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "OISentry_spikes_last_cycle",
			Help: "Number of spikes flagged by the most recent cycle",
		})

		scanDuration = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "OISentry_scan_duration_seconds",
			Help: "Wall-clock duration of the most recent scan cycle",
		})

		fetchErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "OISentry_fetch_errors_total",
				Help: "Number of failed exchange requests",
			},
			[]string{"stage"},
		)

		usedWeight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "OISentry_binance_used_weight",
			Help: "Request weight used within the current minute as reported by Binance",
		})

		_ = prometheus.Register(scanCycles)
		_ = prometheus.Register(symbolsScanned)
		_ = prometheus.Register(spikesFlagged)
		_ = prometheus.Register(spikesLastCycle)
		_ = prometheus.Register(scanDuration)
		_ = prometheus.Register(fetchErrors)
		_ = prometheus.Register(usedWeight)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler returns the HTTP handler serving the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCycle records the outcome of one scan cycle.
func ObserveCycle(scanned, spikes int, duration time.Duration) {
	if scanCycles == nil {
		return
	}
	scanCycles.Inc()
	symbolsScanned.Add(float64(scanned))
	spikesFlagged.Add(float64(spikes))
	spikesLastCycle.Set(float64(spikes))
	scanDuration.Set(duration.Seconds())
}

// IncFetchError increases the error counter for a given request stage.
func IncFetchError(stage string) {
	if fetchErrors != nil {
		fetchErrors.WithLabelValues(stage).Inc()
	}
}

// SetUsedWeight records the used request weight reported by the exchange.
func SetUsedWeight(weight int64) {
	if usedWeight != nil {
		usedWeight.Set(float64(weight))
	}
}
