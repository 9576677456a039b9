package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/platform/kalshi"
)

// kalshiMaxPageLimit is the largest page size the Kalshi markets endpoint
// accepts.
const kalshiMaxPageLimit = 200

// KalshiAdapter normalizes markets from the Kalshi trade API. Kalshi returns
// a flat market list with cursor pagination; integer prices are in cents and
// some fields arrive as decimal-dollar strings instead.
type KalshiAdapter struct {
	client  *kalshi.Client
	webBase string // public site root used to build market URLs
}

// NewKalshiAdapter creates an adapter over the given Kalshi client.
// webBase is the public site root, e.g. "https://kalshi.com".
func NewKalshiAdapter(client *kalshi.Client, webBase string) *KalshiAdapter {
	return &KalshiAdapter{
		client:  client,
		webBase: strings.TrimRight(webBase, "/"),
	}
}

// Source returns the provider tag.
func (a *KalshiAdapter) Source() domain.Source { return domain.SourceKalshi }

// Fetch follows the cursor until limit markets are normalized or the provider
// stops returning a continuation cursor.
func (a *KalshiAdapter) Fetch(ctx context.Context, limit int) ([]domain.NormalizedMarket, error) {
	var results []domain.NormalizedMarket
	cursor := ""

	for {
		pageLimit := limit - len(results)
		if pageLimit > kalshiMaxPageLimit {
			pageLimit = kalshiMaxPageLimit
		}

		markets, next, err := a.client.Markets(ctx, pageLimit, cursor)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			break
		}

		for i := range markets {
			if len(results) >= limit {
				break
			}
			results = append(results, a.normalize(&markets[i]))
		}

		cursor = next
		if cursor == "" || len(results) >= limit {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (a *KalshiAdapter) normalize(m *kalshi.KalshiMarket) domain.NormalizedMarket {
	lastPrice := centsToDecimal(m.LastPrice)
	if lastPrice == nil {
		lastPrice = parseDollars(m.LastPriceDollars)
	}
	yesBid := centsToDecimal(m.YesBid)
	yesAsk := centsToDecimal(m.YesAsk)
	noBid := centsToDecimal(m.NoBid)
	noAsk := centsToDecimal(m.NoAsk)

	var spread *float64
	if yesBid != nil && yesAsk != nil {
		spread = ptr(*yesAsk - *yesBid)
	}

	var complement *float64
	if lastPrice != nil {
		complement = ptr(1 - *lastPrice)
	}

	title := m.Title
	if title == "" {
		title = m.Subtitle
	}
	if title == "" {
		title = m.Ticker
	}

	urlTicker := m.EventTicker
	if urlTicker == "" {
		urlTicker = m.Ticker
	}
	url := a.webBase + "/markets/" + urlTicker

	status := m.Status
	if status == "" {
		status = "active"
	}

	return domain.NormalizedMarket{
		Source:      domain.SourceKalshi,
		ExternalID:  m.Ticker,
		Title:       title,
		URL:         &url,
		Status:      status,
		Probability: lastPrice,
		PriceYes:    first(lastPrice, yesBid, yesAsk),
		PriceNo:     first(noBid, noAsk, complement),
		Volume:      first(m.Volume, parseDollars(m.VolumeFP)),
		Liquidity:   first(m.Liquidity, parseDollars(m.LiquidityDollars)),
		Spread:      spread,
		Raw:         m.Raw,
	}
}

// centsToDecimal converts an integer cent price (1-99) to a decimal in [0,1].
func centsToDecimal(cents *float64) *float64 {
	if cents == nil || finite(*cents) == nil {
		return nil
	}
	return ptr(*cents / 100)
}

// parseDollars parses a decimal-dollar string field, returning nil for empty
// or malformed values.
func parseDollars(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return finite(v)
}
