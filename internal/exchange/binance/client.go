package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	futures "github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	appconfig "oisentry/config"
	"oisentry/internal/metrics"
	"oisentry/internal/models"
	"oisentry/logger"
)

const (
	exchangeInfoPath   = "/fapi/v1/exchangeInfo"
	openInterestPath   = "/futures/data/openInterestHist"
	oiHistoryPoints    = 2
	perpetualContract  = "PERPETUAL"
	settlementCurrency = "USDT"
	tradingStatus      = "TRADING"
)

// Sentinel errors let tests distinguish why an open-interest window was
// unavailable. The scanner treats every failure identically: the symbol simply
// contributes nothing to the cycle.
var (
	ErrShortSeries = errors.New("open-interest series shorter than two points")
	ErrBadValue    = errors.New("open-interest value is not numeric")
)

// Client issues the two read-only calls the scanner needs: the instrument
// catalog and per-symbol open-interest history. All calls share one pooled
// HTTP client with a fixed per-call timeout.
type Client struct {
	config  *appconfig.Config
	client  *futures.Client
	limiter *rate.Limiter
	log     *logger.Log
	baseURL string

	weightLimit int64
}

// NewClient creates a Client using the binance-go futures client for
// connection handling.
func NewClient(cfg *appconfig.Config) *Client {
	log := logger.GetLogger()

	transport := &http.Transport{
		MaxIdleConns:        cfg.Source.Binance.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Source.Binance.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Source.Binance.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Source.Binance.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Source.Binance.Timeout,
	}

	client := futures.NewClient("", "")
	client.HTTPClient = httpClient

	baseURL := strings.TrimRight(cfg.Source.Binance.BaseURL, "/")
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		client.SetApiEndpoint(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host))
	}

	rps := cfg.Source.Binance.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.Source.Binance.RateLimit.BurstSize
	if burst <= 0 {
		burst = rps
	}

	c := &Client{
		config:  cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log,
		baseURL: baseURL,
	}

	log.WithComponent("binance_client").WithFields(logger.Fields{
		"base_url":           baseURL,
		"timeout":            cfg.Source.Binance.Timeout,
		"max_conns_per_host": cfg.Source.Binance.ConnectionPool.MaxConnsPerHost,
	}).Info("binance client initialized")

	return c
}

// RequestWeightLimit queries the exchangeInfo endpoint for the REQUEST_WEIGHT
// per minute limit. It returns 0 if the limit cannot be determined.
func (c *Client) RequestWeightLimit(ctx context.Context) (int64, error) {
	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, rl := range info.RateLimits {
		if rl.RateLimitType == "REQUEST_WEIGHT" && rl.Interval == "MINUTE" {
			c.weightLimit = rl.Limit
			return rl.Limit, nil
		}
	}
	return 0, nil
}

// FetchSymbolUniverse returns every USDT-margined perpetual contract currently
// open for trading. The universe is recomputed on every call; callers must
// treat an error as "abort this cycle", not as an empty market.
func (c *Client) FetchSymbolUniverse(ctx context.Context) ([]string, error) {
	var resp models.BinanceExchangeInfoResp
	if err := c.getJSON(ctx, c.baseURL+exchangeInfoPath, &resp); err != nil {
		return nil, fmt.Errorf("fetch exchange info: %w", err)
	}

	symbols := make([]string, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.ContractType == perpetualContract && s.QuoteAsset == settlementCurrency && s.Status == tradingStatus {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// FetchOIWindow fetches the last two points of the open-interest history for
// symbol at the configured period granularity.
func (c *Client) FetchOIWindow(ctx context.Context, symbol string) (models.OIWindow, error) {
	endpoint := fmt.Sprintf("%s%s?symbol=%s&period=%s&limit=%d",
		c.baseURL, openInterestPath, symbol, c.config.Scanner.OIPeriod, oiHistoryPoints)

	var series []models.BinanceOIHistEntry
	if err := c.getJSON(ctx, endpoint, &series); err != nil {
		return models.OIWindow{}, fmt.Errorf("fetch open interest for %s: %w", symbol, err)
	}

	if len(series) < oiHistoryPoints {
		return models.OIWindow{}, fmt.Errorf("%s: %w", symbol, ErrShortSeries)
	}

	prior, err := parseOIValue(series[0].SumOpenInterestValue)
	if err != nil {
		return models.OIWindow{}, fmt.Errorf("%s prior point: %w", symbol, err)
	}
	current, err := parseOIValue(series[1].SumOpenInterestValue)
	if err != nil {
		return models.OIWindow{}, fmt.Errorf("%s current point: %w", symbol, err)
	}

	return models.OIWindow{Symbol: symbol, Prior: prior, Current: current}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	c.reportUsedWeight(resp.Header)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// reportUsedWeight parses the used request weight from the response headers
// and feeds it to the metrics gauge.
func (c *Client) reportUsedWeight(header http.Header) {
	usedStr := header.Get("X-MBX-USED-WEIGHT-1m")
	if usedStr == "" {
		return
	}
	used, err := strconv.ParseInt(usedStr, 10, 64)
	if err != nil {
		return
	}
	metrics.SetUsedWeight(used)

	if c.weightLimit > 0 && used > c.weightLimit*8/10 {
		c.log.WithComponent("binance_client").WithFields(logger.Fields{
			"used_weight":  used,
			"weight_limit": c.weightLimit,
		}).Warn("approaching request weight limit")
	}
}

func parseOIValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadValue, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadValue, raw)
	}
	return v, nil
}
