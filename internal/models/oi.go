package models

// OIWindow holds two open-interest observations one period apart, as returned
// by the exchange history endpoint with a two point limit.
type OIWindow struct {
	Symbol  string
	Prior   float64
	Current float64
}

// OIChange is the per-symbol scan result derived from an OIWindow.
type OIChange struct {
	Symbol       string  `json:"symbol"`
	ChangePct    float64 `json:"change_pct"`
	OpenInterest float64 `json:"open_interest"`
}

// BinanceExchangeInfoResp mirrors the subset of /fapi/v1/exchangeInfo needed to
// build the tradable perpetual universe.
type BinanceExchangeInfoResp struct {
	Symbols []BinanceSymbolInfo `json:"symbols"`
}

type BinanceSymbolInfo struct {
	Symbol       string `json:"symbol"`
	ContractType string `json:"contractType"`
	QuoteAsset   string `json:"quoteAsset"`
	Status       string `json:"status"`
}

// BinanceOIHistEntry is one point of /futures/data/openInterestHist. Binance
// serialises the open-interest figures as strings.
type BinanceOIHistEntry struct {
	Symbol               string `json:"symbol"`
	SumOpenInterest      string `json:"sumOpenInterest"`
	SumOpenInterestValue string `json:"sumOpenInterestValue"`
	Timestamp            int64  `json:"timestamp"`
}
