package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexNumber unmarshals a numeric field that the Gamma API sends as either a
// JSON number or a numeric string. Missing, null, or malformed values leave
// Value nil rather than failing the decode: ingestion is best-effort on
// market numerics.
type flexNumber struct {
	Value *float64
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	f.Value = nil

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = &n
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	f.Value = &v
	return nil
}

// APIEvent represents an event as returned by the Gamma API. An event groups
// zero or more related markets and carries the tags used for categorisation.
type APIEvent struct {
	ID      string      `json:"id"`
	Slug    string      `json:"slug"`
	Title   string      `json:"title"`
	Tags    []APITag    `json:"tags"`
	Markets []APIMarket `json:"markets"`
}

// APITag is a category tag attached to a Gamma event.
type APITag struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// APIMarket represents a market nested inside a Gamma event. Outcomes and
// OutcomePrices are JSON-encoded string arrays (e.g. "[\"Yes\",\"No\"]" and
// "[\"0.65\",\"0.35\"]"). Raw preserves the exact provider payload for audit.
type APIMarket struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Slug          string     `json:"slug"`
	OutcomePrices string     `json:"outcomePrices"`
	Outcomes      string     `json:"outcomes"`
	Volume        flexNumber `json:"volume"`
	VolumeNum     *float64   `json:"volumeNum"`
	LiquidityNum  *float64   `json:"liquidityNum"`
	LiquidityClob *float64   `json:"liquidityClob"`
	Spread        *float64   `json:"spread"`
	BestBid       *float64   `json:"bestBid"`
	BestAsk       *float64   `json:"bestAsk"`
	Active        flexBool   `json:"active"`
	Closed        bool       `json:"closed"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the market and keeps a copy of the original bytes so
// snapshots can carry the untruncated provider payload.
func (m *APIMarket) UnmarshalJSON(data []byte) error {
	type alias APIMarket
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = APIMarket(a)
	m.Raw = append([]byte(nil), data...)
	return nil
}
