package source

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/platform/polymarket"
)

const polymarketPageSize = 50

// PolymarketAdapter normalizes markets from the Polymarket Gamma API. Gamma
// nests markets inside events; the adapter walks event pages by offset and
// flattens the nested markets.
type PolymarketAdapter struct {
	gamma    *polymarket.GammaClient
	webBase  string // public site root used to build market URLs
	pageSize int
}

// NewPolymarketAdapter creates an adapter over the given Gamma client.
// webBase is the public site root, e.g. "https://polymarket.com".
func NewPolymarketAdapter(gamma *polymarket.GammaClient, webBase string) *PolymarketAdapter {
	return &PolymarketAdapter{
		gamma:    gamma,
		webBase:  strings.TrimRight(webBase, "/"),
		pageSize: polymarketPageSize,
	}
}

// Source returns the provider tag.
func (a *PolymarketAdapter) Source() domain.Source { return domain.SourcePolymarket }

// Fetch pages through active events until limit markets are normalized or
// the provider runs out of events.
func (a *PolymarketAdapter) Fetch(ctx context.Context, limit int) ([]domain.NormalizedMarket, error) {
	var results []domain.NormalizedMarket
	offset := 0

	for len(results) < limit {
		events, err := a.gamma.Events(ctx, a.pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			break
		}

		for i := range events {
			event := &events[i]
			category := eventCategory(event)
			if len(event.Markets) == 0 {
				continue
			}

			for j := range event.Markets {
				if len(results) >= limit {
					break
				}
				m := &event.Markets[j]
				if m.Closed && !bool(m.Active) {
					continue
				}
				results = append(results, a.normalize(event, m, category))
			}
			if len(results) >= limit {
				break
			}
		}

		offset += a.pageSize
		if len(events) < a.pageSize {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (a *PolymarketAdapter) normalize(event *polymarket.APIEvent, m *polymarket.APIMarket, category *string) domain.NormalizedMarket {
	yes, no := parseOutcomePrices(m.OutcomePrices, m.Outcomes)

	status := "inactive"
	switch {
	case m.Closed:
		status = "closed"
	case bool(m.Active):
		status = "active"
	}

	title := m.Question
	if title == "" {
		title = event.Title
	}

	url := a.webBase + "/event/" + event.Slug

	return domain.NormalizedMarket{
		Source:      domain.SourcePolymarket,
		ExternalID:  m.ID,
		Title:       title,
		URL:         &url,
		Category:    category,
		Status:      status,
		Probability: yes,
		PriceYes:    yes,
		PriceNo:     no,
		Volume:      first(m.Volume.Value, m.VolumeNum),
		Liquidity:   first(m.LiquidityNum, m.LiquidityClob),
		Spread:      m.Spread,
		Raw:         m.Raw,
	}
}

// eventCategory takes the first tag's label, falling back to its slug.
func eventCategory(event *polymarket.APIEvent) *string {
	if len(event.Tags) == 0 {
		return nil
	}
	if label := event.Tags[0].Label; label != "" {
		return &label
	}
	if slug := event.Tags[0].Slug; slug != "" {
		return &slug
	}
	return nil
}

// parseOutcomePrices resolves yes/no prices from the JSON-encoded price and
// outcome-name arrays. Outcome names are matched case-insensitively; when
// neither "yes" nor "no" appears, positions 0 and 1 are assumed. A malformed
// array yields nil prices rather than an error.
func parseOutcomePrices(outcomePrices, outcomes string) (yes, no *float64) {
	if outcomePrices == "" {
		return nil, nil
	}

	var prices []string
	if err := json.Unmarshal([]byte(outcomePrices), &prices); err != nil || len(prices) == 0 {
		return nil, nil
	}

	outcomeNames := []string{"Yes", "No"}
	if outcomes != "" {
		if err := json.Unmarshal([]byte(outcomes), &outcomeNames); err != nil {
			return nil, nil
		}
	}

	yesIdx, noIdx := -1, -1
	for i, name := range outcomeNames {
		switch strings.ToLower(name) {
		case "yes":
			if yesIdx < 0 {
				yesIdx = i
			}
		case "no":
			if noIdx < 0 {
				noIdx = i
			}
		}
	}
	if yesIdx < 0 {
		yesIdx = 0
	}
	if noIdx < 0 {
		noIdx = 1
		if len(prices) == 1 {
			noIdx = 0
		}
	}

	return ptr(priceAt(prices, yesIdx)), ptr(priceAt(prices, noIdx))
}

// priceAt parses the decimal string at idx, treating out-of-range or
// unparseable entries as 0.
func priceAt(prices []string, idx int) float64 {
	if idx < 0 || idx >= len(prices) {
		return 0
	}
	v, err := strconv.ParseFloat(prices[idx], 64)
	if err != nil || finite(v) == nil {
		return 0
	}
	return v
}
