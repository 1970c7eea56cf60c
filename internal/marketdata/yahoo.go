package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/httputil"
	"github.com/wonny/varcalc/pkg/logger"
)

// YahooProvider Yahoo Finance v8 chart API 일봉 종가 공급자
// ⭐ SSOT: Yahoo 호출은 이 타입에서만
type YahooProvider struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	minCoverage float64
	now         func() time.Time
}

// chartResponse v8 chart 응답 (필요 필드만)
// 휴장/결측일의 close는 null
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
				Timezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahooProvider creates a provider; httpClient should carry the retry and rate-limit policy.
func NewYahooProvider(httpClient *httputil.Client, log *logger.Logger, baseURL string, minCoverage float64) *YahooProvider {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	httpClient.
		WithHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15").
		WithHeader("Accept", "application/json")

	return &YahooProvider{
		httpClient:  httpClient,
		logger:      log.Component("marketdata.yahoo"),
		baseURL:     strings.TrimRight(baseURL, "/"),
		minCoverage: minCoverage,
		now:         time.Now,
	}
}

// calendarSpan window 거래일을 덮는 달력 기간 (주말 + 휴장 여유)
func calendarSpan(window int) time.Duration {
	days := window*7/5 + 15
	return time.Duration(days) * 24 * time.Hour
}

func (p *YahooProvider) chartURL(symbol string, window int) string {
	end := p.now().UTC()
	start := end.Add(-calendarSpan(window))

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())
}

// Fetch 최근 window 거래일의 로그수익률
func (p *YahooProvider) Fetch(ctx context.Context, symbol string, window int) (risk.ReturnSeries, error) {
	log := p.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"window": window,
	})
	if window <= 0 {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrInvalidConfiguration, "window",
			fmt.Errorf("must be positive, got %d", window))
	}

	points, err := p.fetchPrices(ctx, symbol, window)
	if err != nil {
		log.WithError(err).Warn("price fetch failed")
		return risk.ReturnSeries{}, err
	}

	series, err := buildSeries(symbol, points, window, p.minCoverage)
	if err != nil {
		log.WithError(err).WithField("prices", len(points)).Warn("price history rejected")
		return risk.ReturnSeries{}, err
	}

	log.WithField("returns", series.Len()).Info("returns fetched")
	return series, nil
}

func (p *YahooProvider) fetchPrices(ctx context.Context, symbol string, window int) ([]PricePoint, error) {
	var resp chartResponse
	err := p.httpClient.GetJSON(ctx, p.chartURL(symbol, window), &resp)

	var statusErr *httputil.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return nil, risk.NewError(risk.ErrDataUnavailable, "symbol", fmt.Errorf("%s not found on Yahoo", symbol))
	case err != nil:
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, risk.NewError(risk.ErrDataUnavailable, "symbol",
			fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description))
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, risk.NewError(risk.ErrDataUnavailable, "symbol", fmt.Errorf("no chart data for %s", symbol))
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, PricePoint{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	if len(points) == 0 {
		return nil, risk.NewError(risk.ErrDataUnavailable, "symbol", fmt.Errorf("no closing prices for %s", symbol))
	}
	return points, nil
}
