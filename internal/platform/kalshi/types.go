package kalshi

import "encoding/json"

// KalshiMarket represents a market as returned by the Kalshi REST API.
// Integer price fields are in cents (1-99); the *_dollars and *_fp variants
// are decimal strings. Raw preserves the exact provider payload for audit.
type KalshiMarket struct {
	Ticker           string   `json:"ticker"`
	EventTicker      string   `json:"event_ticker"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle"`
	Status           string   `json:"status"` // "open", "closed", "settled"
	LastPrice        *float64 `json:"last_price"`
	LastPriceDollars string   `json:"last_price_dollars"`
	YesBid           *float64 `json:"yes_bid"`
	YesAsk           *float64 `json:"yes_ask"`
	NoBid            *float64 `json:"no_bid"`
	NoAsk            *float64 `json:"no_ask"`
	Volume           *float64 `json:"volume"`
	VolumeFP         string   `json:"volume_fp"`
	Liquidity        *float64 `json:"liquidity"`
	LiquidityDollars string   `json:"liquidity_dollars"`
	CloseTime        string   `json:"close_time"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the market and keeps a copy of the original bytes so
// snapshots can carry the untruncated provider payload.
func (m *KalshiMarket) UnmarshalJSON(data []byte) error {
	type alias KalshiMarket
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = KalshiMarket(a)
	m.Raw = append([]byte(nil), data...)
	return nil
}

// marketsResponse is the envelope of the GET /markets endpoint.
type marketsResponse struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}
