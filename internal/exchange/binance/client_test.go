package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "oisentry/config"
)

const exchangeInfoJSON = `{
  "symbols": [
    {"symbol": "BTCUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "TRADING"},
    {"symbol": "ETHUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "TRADING"},
    {"symbol": "BTCUSDT_240628", "contractType": "CURRENT_QUARTER", "quoteAsset": "USDT", "status": "TRADING"},
    {"symbol": "BTCUSD_PERP", "contractType": "PERPETUAL", "quoteAsset": "USD", "status": "TRADING"},
    {"symbol": "OLDUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "SETTLING"}
  ]
}`

func testConfig(baseURL string) *appconfig.Config {
	return &appconfig.Config{
		Source: appconfig.SourceConfig{
			Binance: appconfig.BinanceSourceConfig{
				BaseURL: baseURL,
				Timeout: time.Second,
				ConnectionPool: appconfig.ConnectionPoolConfig{
					MaxIdleConns:    2,
					MaxConnsPerHost: 2,
					IdleConnTimeout: time.Second,
				},
				RateLimit: appconfig.RateLimitConfig{
					RequestsPerSecond: 1000,
					BurstSize:         1000,
				},
			},
		},
		Scanner: appconfig.ScannerConfig{OIPeriod: "5m"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MBX-USED-WEIGHT-1m", "42")
		w.Write([]byte(exchangeInfoJSON))
	})
	mux.HandleFunc("/futures/data/openInterestHist", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("period") != "5m" {
			http.Error(w, "bad period", http.StatusBadRequest)
			return
		}
		switch r.URL.Query().Get("symbol") {
		case "BTCUSDT":
			w.Write([]byte(`[
				{"symbol": "BTCUSDT", "sumOpenInterestValue": "100.5", "timestamp": 1700000000000},
				{"symbol": "BTCUSDT", "sumOpenInterestValue": "110.25", "timestamp": 1700000300000}
			]`))
		case "SHORTUSDT":
			w.Write([]byte(`[{"symbol": "SHORTUSDT", "sumOpenInterestValue": "100.5", "timestamp": 1700000000000}]`))
		case "BADUSDT":
			w.Write([]byte(`[
				{"symbol": "BADUSDT", "sumOpenInterestValue": "not-a-number", "timestamp": 1700000000000},
				{"symbol": "BADUSDT", "sumOpenInterestValue": "110.25", "timestamp": 1700000300000}
			]`))
		case "BROKENUSDT":
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			w.Write([]byte(`[]`))
		}
	})
	return httptest.NewServer(mux)
}

func TestFetchSymbolUniverseFiltersCatalog(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	c := NewClient(testConfig(ts.URL))
	symbols, err := c.FetchSymbolUniverse(context.Background())
	if err != nil {
		t.Fatalf("FetchSymbolUniverse: %v", err)
	}

	want := []string{"BTCUSDT", "ETHUSDT"}
	if len(symbols) != len(want) {
		t.Fatalf("universe = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("universe[%d] = %s, want %s", i, symbols[i], want[i])
		}
	}
}

func TestFetchSymbolUniverseUnreachable(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1"))
	if _, err := c.FetchSymbolUniverse(context.Background()); err == nil {
		t.Fatal("expected error for unreachable exchange")
	}
}

func TestFetchOIWindow(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	c := NewClient(testConfig(ts.URL))
	w, err := c.FetchOIWindow(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchOIWindow: %v", err)
	}
	if w.Prior != 100.5 || w.Current != 110.25 {
		t.Errorf("window = %+v, want prior 100.5 current 110.25", w)
	}
}

func TestFetchOIWindowFailureModes(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	c := NewClient(testConfig(ts.URL))
	ctx := context.Background()

	if _, err := c.FetchOIWindow(ctx, "SHORTUSDT"); !errors.Is(err, ErrShortSeries) {
		t.Errorf("short series error = %v, want ErrShortSeries", err)
	}
	if _, err := c.FetchOIWindow(ctx, "UNKNOWNUSDT"); !errors.Is(err, ErrShortSeries) {
		t.Errorf("empty series error = %v, want ErrShortSeries", err)
	}
	if _, err := c.FetchOIWindow(ctx, "BADUSDT"); !errors.Is(err, ErrBadValue) {
		t.Errorf("bad value error = %v, want ErrBadValue", err)
	}
	if _, err := c.FetchOIWindow(ctx, "BROKENUSDT"); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestParseOIValue(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"100.5", 100.5, false},
		{"0", 0, false},
		{"1e9", 1e9, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
	}
	for _, c := range cases {
		got, err := parseOIValue(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseOIValue(%q): expected error", c.in)
			} else if !errors.Is(err, ErrBadValue) {
				t.Errorf("parseOIValue(%q) error = %v, want ErrBadValue", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOIValue(%q): %v", c.in, err)
		} else if got != c.want {
			t.Errorf("parseOIValue(%q) = %f, want %f", c.in, got, c.want)
		}
	}
}
