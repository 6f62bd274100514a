// Package providers implements the outbound data collaborators: historical
// series, fundamentals and sentiment bundles, news scraping, universe
// resolution, and market regime assessment.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/pkg/config"
	"github.com/jaehyun-dev/concord/pkg/httputil"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// MarketClient talks to the market data service over HTTP. All calls go
// through the shared rate-limited client.
type MarketClient struct {
	httpClient *httputil.Client
	news       *NewsScraper // optional; nil skips headline sentiment
	baseURL    string
	logger     *logger.Logger
}

// NewMarketClient creates a market data client.
func NewMarketClient(httpClient *httputil.Client, cfg config.ProviderConfig, news *NewsScraper, log *logger.Logger) *MarketClient {
	return &MarketClient{
		httpClient: httpClient,
		news:       news,
		baseURL:    cfg.SeriesBaseURL,
		logger:     log,
	}
}

// chartResponse is the market data service's chart payload.
type chartResponse struct {
	Symbol  string `json:"symbol"`
	Candles []struct {
		Date   string  `json:"date"` // 2006-01-02
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"candles"`
	Error string `json:"error,omitempty"`
}

// summaryResponse is the market data service's per-instrument summary payload.
type summaryResponse struct {
	Symbol string `json:"symbol"`

	PER           *float64 `json:"per"`
	PBR           *float64 `json:"pbr"`
	ROE           *float64 `json:"roe"`
	DebtRatio     *float64 `json:"debt_ratio"`
	ProfitMargin  *float64 `json:"profit_margin"`
	RevenueGrowth *float64 `json:"revenue_growth"`

	AnalystRating *float64 `json:"analyst_rating"`
	TargetPrice   *float64 `json:"target_price"`

	InstNetFlow5D  *float64 `json:"inst_net_flow_5d"`
	InstNetFlow20D *float64 `json:"inst_net_flow_20d"`
	InstOwnership  *float64 `json:"inst_ownership_pct"`

	PutCallRatio *float64 `json:"put_call_ratio"`
	ImpliedVol   *float64 `json:"implied_vol"`
}

// FetchSeries fetches daily candles for the given symbols. Results may be
// partial: a symbol that fails stays absent from the map and the batch
// records it as a fetch failure. Only a blanket failure returns an error.
func (c *MarketClient) FetchSeries(ctx context.Context, symbols []string, period, interval string) (map[string]*contracts.PriceSeries, error) {
	out := make(map[string]*contracts.PriceSeries, len(symbols))
	var lastErr error

	for _, symbol := range symbols {
		series, err := c.fetchOne(ctx, symbol, period, interval)
		if err != nil {
			lastErr = err
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Series fetch failed")
			continue
		}
		out[symbol] = series
	}

	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all %d series requests failed: %w", len(symbols), lastErr)
	}
	return out, nil
}

// fetchOne fetches and normalizes one symbol's series.
func (c *MarketClient) fetchOne(ctx context.Context, symbol, period, interval string) (*contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf("%s/v1/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period), url.QueryEscape(interval))

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("provider error for %s: %s", symbol, resp.Error)
	}
	if len(resp.Candles) == 0 {
		return nil, fmt.Errorf("empty series for %s", symbol)
	}

	candles := make([]contracts.Candle, 0, len(resp.Candles))
	for _, raw := range resp.Candles {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			continue
		}
		candles = append(candles, contracts.Candle{
			Date:   date,
			Open:   raw.Open,
			High:   raw.High,
			Low:    raw.Low,
			Close:  raw.Close,
			Volume: int64(raw.Volume),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no parsable candles for %s", symbol)
	}

	// Oldest first; downstream indicators assume chronological order.
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })

	return &contracts.PriceSeries{Symbol: symbol, Candles: candles}, nil
}

// FetchSideData fetches the optional bundles for one instrument. Bundles the
// service does not cover stay nil and degrade to neutral defaults downstream.
func (c *MarketClient) FetchSideData(ctx context.Context, symbol string) (contracts.SideData, error) {
	fullURL := fmt.Sprintf("%s/v1/summary/%s", c.baseURL, url.PathEscape(symbol))

	var resp summaryResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return contracts.SideData{}, err
	}

	side := contracts.SideData{}

	if resp.PER != nil || resp.PBR != nil || resp.ROE != nil {
		fund := *contracts.NeutralFundamentals()
		assign(&fund.PER, resp.PER)
		assign(&fund.PBR, resp.PBR)
		assign(&fund.ROE, resp.ROE)
		assign(&fund.DebtRatio, resp.DebtRatio)
		assign(&fund.ProfitMargin, resp.ProfitMargin)
		assign(&fund.RevenueGrowth, resp.RevenueGrowth)
		side.Fundamentals = &fund
	}

	if resp.AnalystRating != nil || resp.TargetPrice != nil {
		sent := *contracts.NeutralSentiment()
		assign(&sent.AnalystRating, resp.AnalystRating)
		assign(&sent.TargetPrice, resp.TargetPrice)
		side.Sentiment = &sent
	}

	if resp.InstNetFlow5D != nil || resp.InstNetFlow20D != nil {
		inst := contracts.Institutional{}
		assign(&inst.NetFlow5D, resp.InstNetFlow5D)
		assign(&inst.NetFlow20D, resp.InstNetFlow20D)
		assign(&inst.OwnershipPct, resp.InstOwnership)
		side.Institutional = &inst
	}

	if resp.PutCallRatio != nil || resp.ImpliedVol != nil {
		opts := *contracts.NeutralOptions()
		assign(&opts.PutCallRatio, resp.PutCallRatio)
		assign(&opts.ImpliedVol, resp.ImpliedVol)
		side.Options = &opts
	}

	if c.news != nil {
		score, err := c.news.Score(ctx, symbol)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Debug("Headline sentiment unavailable")
		} else {
			if side.Sentiment == nil {
				side.Sentiment = contracts.NeutralSentiment()
			}
			side.Sentiment.NewsScore = score
		}
	}

	return side, nil
}

// assign copies an optional field when the service provided it.
func assign(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
