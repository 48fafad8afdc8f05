package scanner

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "oisentry/config"
	"oisentry/internal/metrics"
	"oisentry/internal/models"
	"oisentry/internal/pool"
	"oisentry/logger"
)

// OIFetcher is the read-only exchange surface the scanner depends on.
type OIFetcher interface {
	FetchSymbolUniverse(ctx context.Context) ([]string, error)
	FetchOIWindow(ctx context.Context, symbol string) (models.OIWindow, error)
}

// Scanner drives one scan-and-publish cycle per period: it recomputes the
// symbol universe, fans out open-interest fetches under a concurrency cap and
// publishes the resulting spike set.
type Scanner struct {
	config  *appconfig.Config
	fetcher OIFetcher
	store   *pool.Store
	log     *logger.Log
	mu      sync.RWMutex
	running bool
}

func NewScanner(cfg *appconfig.Config, fetcher OIFetcher, store *pool.Store) *Scanner {
	return &Scanner{
		config:  cfg,
		fetcher: fetcher,
		store:   store,
		log:     logger.GetLogger(),
	}
}

// Run executes the period-aligned scan loop until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scanner already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log := s.log.WithComponent("scanner")
	log.WithFields(logger.Fields{
		"period":      s.config.Scanner.Period.String(),
		"concurrency": s.config.Scanner.Concurrency,
		"threshold":   s.config.Scanner.SpikeThreshold,
	}).Info("starting scan loop")

	if limit, err := s.weightLimit(ctx); err == nil && limit > 0 {
		log.WithFields(logger.Fields{"weight_limit": limit}).Info("fetched request weight limit")
	}

	for {
		if err := waitForNextPeriod(ctx, s.config.Scanner.Period, log); err != nil {
			log.Info("scan loop stopped")
			return err
		}
		if ctx.Err() != nil {
			log.Info("scan loop stopped")
			return ctx.Err()
		}
		s.runCycle(ctx)
	}
}

// weightLimit asks the exchange for its request weight budget when the
// underlying fetcher supports it.
func (s *Scanner) weightLimit(ctx context.Context) (int64, error) {
	type weightLimiter interface {
		RequestWeightLimit(ctx context.Context) (int64, error)
	}
	wl, ok := s.fetcher.(weightLimiter)
	if !ok {
		return 0, nil
	}
	return wl.RequestWeightLimit(ctx)
}

// runCycle performs one scan-and-publish cycle. A failed or empty universe
// fetch aborts the cycle and leaves the published state untouched.
func (s *Scanner) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := s.log.WithComponent("scanner").WithFields(logger.Fields{"cycle_id": cycleID})
	start := time.Now()

	symbols, err := s.fetcher.FetchSymbolUniverse(ctx)
	if err != nil {
		metrics.IncFetchError("universe")
		log.WithError(err).Warn("failed to fetch perpetual symbol universe, skipping cycle")
		return
	}
	if len(symbols) == 0 {
		log.Warn("empty perpetual symbol universe, skipping cycle")
		return
	}

	log.WithFields(logger.Fields{"symbols": len(symbols)}).Info("scanning open interest")

	results := s.Scan(ctx, symbols)
	s.aggregateAndPublish(ctx, log, len(symbols), results, time.Since(start))
}

// Scan computes the open-interest change for every symbol concurrently,
// bounded by the configured cap. Results arrive in completion order; symbols
// whose data is unavailable contribute nothing.
func (s *Scanner) Scan(ctx context.Context, symbols []string) []models.OIChange {
	sem := make(chan struct{}, s.config.Scanner.Concurrency)
	resultCh := make(chan models.OIChange, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if change, ok := s.computeChange(ctx, sym); ok {
				resultCh <- change
			}
		}(symbol)
	}

	wg.Wait()
	close(resultCh)

	results := make([]models.OIChange, 0, len(symbols))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func (s *Scanner) computeChange(ctx context.Context, symbol string) (models.OIChange, bool) {
	window, err := s.fetcher.FetchOIWindow(ctx, symbol)
	if err != nil {
		metrics.IncFetchError("open_interest")
		s.log.WithComponent("scanner").WithFields(logger.Fields{"symbol": symbol}).WithError(err).Debug("open-interest window unavailable")
		return models.OIChange{}, false
	}

	// A zero prior value makes the percentage undefined; drop the symbol.
	if window.Prior == 0 {
		return models.OIChange{}, false
	}

	changePct := (window.Current - window.Prior) / window.Prior * 100
	if math.IsNaN(changePct) || math.IsInf(changePct, 0) {
		return models.OIChange{}, false
	}

	return models.OIChange{
		Symbol:       symbol,
		ChangePct:    changePct,
		OpenInterest: window.Current,
	}, true
}
