package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "oisentry/config"
	"oisentry/internal/models"
	"oisentry/internal/pool"
)

func testServer(store *pool.Store) *Server {
	cfg := &appconfig.Config{
		Oisentry: appconfig.OisentryConfig{Name: "OISentry", Version: "test"},
		Scanner:  appconfig.ScannerConfig{OIPeriod: "5m"},
		API: appconfig.APIConfig{
			Address:      "127.0.0.1:0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewServer(cfg, store)
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	return rec
}

func TestCoinPoolResponse(t *testing.T) {
	store := pool.NewStore()
	store.Publish(
		[]models.OIChange{
			{Symbol: "AUSDT", ChangePct: 9, OpenInterest: 109},
			{Symbol: "CUSDT", ChangePct: -12, OpenInterest: 44},
		},
		[]models.OIChange{
			{Symbol: "CUSDT", ChangePct: -12, OpenInterest: 44},
			{Symbol: "AUSDT", ChangePct: 9, OpenInterest: 109},
		},
	)

	rec := doRequest(t, testServer(store), "/coinpool")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Coins []struct {
				Pair string `json:"pair"`
			} `json:"coins"`
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.Count != 2 || len(resp.Data.Coins) != 2 {
		t.Fatalf("count = %d, coins = %+v", resp.Data.Count, resp.Data.Coins)
	}
	if resp.Data.Coins[0].Pair != "AUSDT" || resp.Data.Coins[1].Pair != "CUSDT" {
		t.Errorf("coins = %+v", resp.Data.Coins)
	}
}

func TestOITopResponse(t *testing.T) {
	store := pool.NewStore()
	store.Publish(
		[]models.OIChange{{Symbol: "AUSDT", ChangePct: 9}, {Symbol: "CUSDT", ChangePct: -12}},
		[]models.OIChange{{Symbol: "CUSDT", ChangePct: -12}, {Symbol: "AUSDT", ChangePct: 9}},
	)

	rec := doRequest(t, testServer(store), "/oitop")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Positions []struct {
				Symbol string `json:"symbol"`
			} `json:"positions"`
			Count     int    `json:"count"`
			Exchange  string `json:"exchange"`
			TimeRange string `json:"time_range"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.Exchange != "binance" || resp.Data.TimeRange != "5m" {
		t.Errorf("exchange = %q, time_range = %q", resp.Data.Exchange, resp.Data.TimeRange)
	}
	if resp.Data.Count != 2 || len(resp.Data.Positions) != 2 {
		t.Fatalf("count = %d, positions = %+v", resp.Data.Count, resp.Data.Positions)
	}
	if resp.Data.Positions[0].Symbol != "CUSDT" {
		t.Errorf("first position = %q, want CUSDT (largest absolute change)", resp.Data.Positions[0].Symbol)
	}
}

func TestEmptyStateReadsSucceed(t *testing.T) {
	s := testServer(pool.NewStore())

	for _, path := range []string{"/coinpool", "/oitop", "/health"} {
		rec := doRequest(t, s, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}

	rec := doRequest(t, s, "/coinpool")
	var resp struct {
		Data struct {
			Coins []interface{} `json:"coins"`
			Count int           `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Data.Count)
	}
	if resp.Data.Coins == nil {
		t.Error("coins should be an empty array, not null")
	}
}
