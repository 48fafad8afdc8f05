package scanner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"oisentry/internal/metrics"
	"oisentry/internal/models"
	"oisentry/logger"
)

// aggregateAndPublish filters the scan results by the spike threshold and
// replaces the published state. A cycle with no spikes leaves the previous
// result in place so a momentary lull does not blank out consumers.
func (s *Scanner) aggregateAndPublish(ctx context.Context, log *logger.Entry, scanned int, results []models.OIChange, elapsed time.Duration) {
	threshold := s.config.Scanner.SpikeThreshold

	spikes := make([]models.OIChange, 0, len(results))
	for _, r := range results {
		if math.Abs(r.ChangePct) >= threshold {
			spikes = append(spikes, r)
		}
	}

	if len(spikes) > 0 {
		ranked := make([]models.OIChange, len(spikes))
		copy(ranked, spikes)
		sort.SliceStable(ranked, func(i, j int) bool {
			return math.Abs(ranked[i].ChangePct) > math.Abs(ranked[j].ChangePct)
		})
		s.store.Publish(spikes, ranked)
	} else {
		log.Info("no open-interest spikes, retaining previous result")
	}

	metrics.ObserveCycle(scanned, len(spikes), elapsed)
	metrics.PublishCycle(ctx, scanned, len(spikes), elapsed)

	s.logCycleSummary(log, scanned, spikes, elapsed)
}

func (s *Scanner) logCycleSummary(log *logger.Entry, scanned int, spikes []models.OIChange, elapsed time.Duration) {
	top := spikes
	if limit := s.config.Scanner.LogTopSpikes; limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	for _, sp := range top {
		log.WithFields(logger.Fields{
			"symbol":        sp.Symbol,
			"change_pct":    fmt.Sprintf("%+.2f", sp.ChangePct),
			"open_interest": fmt.Sprintf("%.0f", sp.OpenInterest),
		}).Info("open-interest spike")
	}

	log.WithFields(logger.Fields{
		"symbols_scanned": scanned,
		"spike_count":     len(spikes),
		"duration":        elapsed.Round(time.Millisecond).String(),
	}).Info("scan cycle finished")
}
