package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/platform/polymarket"
)

const gammaEventsPage = `[
  {
    "id": "evt-1",
    "slug": "fed-decision-march",
    "title": "Fed decision in March",
    "tags": [{"slug": "economics", "label": "Economics"}],
    "markets": [
      {
        "id": "mkt-1",
        "question": "Will the Fed cut rates in March?",
        "outcomePrices": "[\"0.65\",\"0.35\"]",
        "outcomes": "[\"Yes\",\"No\"]",
        "volume": "12345.6",
        "liquidityNum": 5000.5,
        "spread": 0.02,
        "active": true,
        "closed": false
      },
      {
        "id": "mkt-2",
        "question": "Already resolved",
        "outcomePrices": "[\"0.9\",\"0.1\"]",
        "outcomes": "[\"Yes\",\"No\"]",
        "active": false,
        "closed": true
      },
      {
        "id": "mkt-3",
        "question": "Reversed outcome order",
        "outcomePrices": "[\"0.30\",\"0.70\"]",
        "outcomes": "[\"No\",\"Yes\"]",
        "active": "true",
        "closed": false
      }
    ]
  }
]`

func newGammaTestServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("active"))
		require.Equal(t, "false", r.URL.Query().Get("closed"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") != "0" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(page))
	}))
}

func TestPolymarketFetchNormalizesMarkets(t *testing.T) {
	ts := newGammaTestServer(t, gammaEventsPage)
	defer ts.Close()

	adapter := NewPolymarketAdapter(polymarket.NewGammaClient(ts.URL), "https://polymarket.com")
	results, err := adapter.Fetch(context.Background(), 10)
	require.NoError(t, err)

	// mkt-2 is closed and inactive, so only two markets survive.
	require.Len(t, results, 2)

	m := results[0]
	require.Equal(t, domain.SourcePolymarket, m.Source)
	require.Equal(t, "mkt-1", m.ExternalID)
	require.Equal(t, "Will the Fed cut rates in March?", m.Title)
	require.NotNil(t, m.URL)
	require.Equal(t, "https://polymarket.com/event/fed-decision-march", *m.URL)
	require.NotNil(t, m.Category)
	require.Equal(t, "Economics", *m.Category)
	require.Equal(t, "active", m.Status)
	require.NotNil(t, m.Probability)
	require.InDelta(t, 0.65, *m.Probability, 1e-9)
	require.NotNil(t, m.PriceYes)
	require.InDelta(t, 0.65, *m.PriceYes, 1e-9)
	require.NotNil(t, m.PriceNo)
	require.InDelta(t, 0.35, *m.PriceNo, 1e-9)
	require.NotNil(t, m.Volume)
	require.InDelta(t, 12345.6, *m.Volume, 1e-9)
	require.NotNil(t, m.Liquidity)
	require.InDelta(t, 5000.5, *m.Liquidity, 1e-9)
	require.NotNil(t, m.Spread)
	require.InDelta(t, 0.02, *m.Spread, 1e-9)
	require.NotEmpty(t, m.Raw)

	// Outcome names drive the yes/no mapping, not positions.
	rev := results[1]
	require.Equal(t, "mkt-3", rev.ExternalID)
	require.NotNil(t, rev.PriceYes)
	require.InDelta(t, 0.70, *rev.PriceYes, 1e-9)
	require.NotNil(t, rev.PriceNo)
	require.InDelta(t, 0.30, *rev.PriceNo, 1e-9)
}

func TestPolymarketFetchHonorsLimit(t *testing.T) {
	ts := newGammaTestServer(t, gammaEventsPage)
	defer ts.Close()

	adapter := NewPolymarketAdapter(polymarket.NewGammaClient(ts.URL), "https://polymarket.com")
	results, err := adapter.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "mkt-1", results[0].ExternalID)
}

func TestPolymarketFetchPropagatesProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	adapter := NewPolymarketAdapter(polymarket.NewGammaClient(ts.URL), "https://polymarket.com")
	_, err := adapter.Fetch(context.Background(), 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 500")
}

func TestParseOutcomePrices(t *testing.T) {
	t.Run("malformed prices array yields nil", func(t *testing.T) {
		yes, no := parseOutcomePrices("not json", `["Yes","No"]`)
		require.Nil(t, yes)
		require.Nil(t, no)
	})

	t.Run("empty prices string yields nil", func(t *testing.T) {
		yes, no := parseOutcomePrices("", `["Yes","No"]`)
		require.Nil(t, yes)
		require.Nil(t, no)
	})

	t.Run("missing outcomes defaults to positional yes/no", func(t *testing.T) {
		yes, no := parseOutcomePrices(`["0.25","0.75"]`, "")
		require.NotNil(t, yes)
		require.InDelta(t, 0.25, *yes, 1e-9)
		require.NotNil(t, no)
		require.InDelta(t, 0.75, *no, 1e-9)
	})

	t.Run("unparseable price entry becomes zero", func(t *testing.T) {
		yes, no := parseOutcomePrices(`["abc","0.4"]`, `["Yes","No"]`)
		require.NotNil(t, yes)
		require.Zero(t, *yes)
		require.NotNil(t, no)
		require.InDelta(t, 0.4, *no, 1e-9)
	})

	t.Run("case-insensitive outcome names", func(t *testing.T) {
		yes, no := parseOutcomePrices(`["0.6","0.4"]`, `["YES","no"]`)
		require.NotNil(t, yes)
		require.InDelta(t, 0.6, *yes, 1e-9)
		require.NotNil(t, no)
		require.InDelta(t, 0.4, *no, 1e-9)
	})
}
