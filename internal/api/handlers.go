package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type coinEntry struct {
	Pair string `json:"pair"`
}

type coinPoolData struct {
	Coins []coinEntry `json:"coins"`
	Count int         `json:"count"`
}

type positionEntry struct {
	Symbol string `json:"symbol"`
}

type oiTopData struct {
	Positions []positionEntry `json:"positions"`
	Count     int             `json:"count"`
	Exchange  string          `json:"exchange"`
	TimeRange string          `json:"time_range"`
}

// handleCoinPool renders the candidate pool in scan-completion order.
func (s *Server) handleCoinPool(c *gin.Context) {
	entries := s.store.CoinPool()

	coins := make([]coinEntry, 0, len(entries))
	for _, e := range entries {
		coins = append(coins, coinEntry{Pair: e.Symbol})
	}

	c.JSON(http.StatusOK, response{
		Success: true,
		Data: coinPoolData{
			Coins: coins,
			Count: len(coins),
		},
	})
}

// handleOITop renders the spikes ranked by absolute open-interest change.
func (s *Server) handleOITop(c *gin.Context) {
	entries := s.store.OITop()

	positions := make([]positionEntry, 0, len(entries))
	for _, e := range entries {
		positions = append(positions, positionEntry{Symbol: e.Symbol})
	}

	c.JSON(http.StatusOK, response{
		Success: true,
		Data: oiTopData{
			Positions: positions,
			Count:     len(positions),
			Exchange:  "binance",
			TimeRange: s.config.Scanner.OIPeriod,
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    s.config.Oisentry.Name,
		"version":    s.config.Oisentry.Version,
		"updated_at": s.store.UpdatedAt().Format(time.RFC3339),
	})
}
