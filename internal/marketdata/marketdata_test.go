package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/httputil"
	"github.com/wonny/varcalc/pkg/logger"
	"github.com/wonny/varcalc/pkg/redis"
)

// =============================================================================
// Exchange
// =============================================================================

func TestSymbol(t *testing.T) {
	tests := []struct {
		ticker   string
		exchange string
		want     string
		wantErr  bool
	}{
		{"INFY", "NSE", "INFY.NS", false},
		{"reliance", "nse", "RELIANCE.NS", false},
		{"TCS", "BSE", "TCS.BO", false},
		{"AAPL", "NASDAQ", "", true},
		{"", "NSE", "", true},
		{"A B", "NSE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ticker+"_"+tt.exchange, func(t *testing.T) {
			ex, err := ParseExchange(tt.exchange)
			if err == nil {
				var sym string
				sym, err = Symbol(tt.ticker, ex)
				if !tt.wantErr {
					require.NoError(t, err)
					assert.Equal(t, tt.want, sym)
					return
				}
			}
			require.True(t, tt.wantErr, "unexpected error: %v", err)
			assert.ErrorIs(t, err, risk.ErrInvalidConfiguration)
		})
	}
}

// =============================================================================
// Returns
// =============================================================================

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 110, math.NaN(), 99, 0, 99})
	require.Len(t, got, 3)
	assert.InDelta(t, math.Log(1.1), got[0], 1e-12)
	assert.InDelta(t, math.Log(99.0/110), got[1], 1e-12)
	assert.InDelta(t, 0, got[2], 1e-12)
}

func TestSimpleReturns(t *testing.T) {
	got := SimpleReturns([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, -0.10, got[1], 1e-12)
}

func pricePath(n int) []PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]PricePoint, n)
	price := 100.0
	for i := range out {
		price *= 1 + 0.01*math.Sin(float64(i))
		out[i] = PricePoint{Date: start.AddDate(0, 0, i), Close: price}
	}
	return out
}

func TestBuildSeries(t *testing.T) {
	// 301 prices → 300 returns, trimmed to the 252 most recent
	s, err := buildSeries("X.NS", pricePath(301), 252, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 252, s.Len())
	assert.Equal(t, risk.ReturnLog, s.Type())

	// 228 prices → 227 returns = ceil(0.9·252)
	s, err = buildSeries("X.NS", pricePath(228), 252, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 227, s.Len())

	_, err = buildSeries("X.NS", pricePath(227), 252, 0.9)
	assert.ErrorIs(t, err, risk.ErrInsufficientData)

	_, err = buildSeries("X.NS", nil, 252, 0.9)
	assert.ErrorIs(t, err, risk.ErrDataUnavailable)

	_, err = buildSeries("X.NS", pricePath(20), 0, 0.9)
	assert.ErrorIs(t, err, risk.ErrInvalidConfiguration)
}

func TestBuildSeriesSortsByDate(t *testing.T) {
	points := pricePath(30)
	reversed := make([]PricePoint, len(points))
	for i, p := range points {
		reversed[len(points)-1-i] = p
	}

	a, err := buildSeries("X.NS", points, 20, 0.9)
	require.NoError(t, err)
	b, err := buildSeries("X.NS", reversed, 20, 0.9)
	require.NoError(t, err)
	assert.Equal(t, a.Values(), b.Values())
}

func TestRequiredReturns(t *testing.T) {
	assert.Equal(t, 227, requiredReturns(252, 0.9))
	assert.Equal(t, 90, requiredReturns(100, 0.9))
	assert.Equal(t, 9, requiredReturns(10, 0.9))
}

// =============================================================================
// Yahoo
// =============================================================================

func chartJSON(points []PricePoint, nullAt map[int]bool) []byte {
	ts := make([]int64, len(points))
	closes := make([]*float64, len(points))
	for i, p := range points {
		ts[i] = p.Date.Unix()
		if !nullAt[i] {
			v := p.Close
			closes[i] = &v
		}
	}
	body := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []interface{}{map[string]interface{}{
				"meta":      map[string]interface{}{"symbol": "INFY.NS", "currency": "INR"},
				"timestamp": ts,
				"indicators": map[string]interface{}{
					"quote": []interface{}{map[string]interface{}{"close": closes}},
				},
			}},
			"error": nil,
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := httputil.New(&config.Config{}, logger.Nop()).WithRetry(0, time.Millisecond)
	p := NewYahooProvider(client, logger.Nop(), server.URL, 0.9)
	p.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestYahooFetch(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/INFY.NS", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write(chartJSON(pricePath(260), map[int]bool{5: true, 17: true}))
	})

	s, err := p.Fetch(context.Background(), "INFY.NS", 252)
	require.NoError(t, err)
	// 258 closes → 257 returns → trimmed to 252
	assert.Equal(t, 252, s.Len())
}

func TestYahooFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			},
			wantErr: risk.ErrDataUnavailable,
		},
		{
			name: "chart error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`))
			},
			wantErr: risk.ErrDataUnavailable,
		},
		{
			name: "empty result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
			},
			wantErr: risk.ErrDataUnavailable,
		},
		{
			name: "short history",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(chartJSON(pricePath(100), nil))
			},
			wantErr: risk.ErrInsufficientData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestYahoo(t, tt.handler)
			_, err := p.Fetch(context.Background(), "DELISTED.NS", 252)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestYahooServerErrorNotClassified(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := p.Fetch(context.Background(), "INFY.NS", 252)
	require.Error(t, err)
	assert.NotErrorIs(t, err, risk.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestCalendarSpan(t *testing.T) {
	// 252 거래일 ≈ 1년 + 여유
	assert.Equal(t, 367*24*time.Hour, calendarSpan(252))
}

// =============================================================================
// File
// =============================================================================

func writePrices(t *testing.T, path string, points []PricePoint) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,close\n")
	for i, p := range points {
		if i == 3 {
			fmt.Fprintf(&b, "%s,null\n", p.Date.Format("2006-01-02"))
			continue
		}
		fmt.Fprintf(&b, "%s,%.6f\n", p.Date.Format("2006-01-02"), p.Close)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	writePrices(t, path, pricePath(40))

	s, err := NewFileProvider(path, 0.9).Fetch(context.Background(), "ANY.NS", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Len())
}

func TestFileProviderDirectory(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, filepath.Join(dir, "INFY.NS.csv"), pricePath(40))
	p := NewFileProvider(dir, 0.9)

	s, err := p.Fetch(context.Background(), "infy.ns", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Len())

	_, err = p.Fetch(context.Background(), "TCS.NS", 30)
	assert.ErrorIs(t, err, risk.ErrDataUnavailable)
}

func TestReadPricesRejectsGarbage(t *testing.T) {
	_, err := ReadPrices(strings.NewReader("date,close\n2024-01-01,abc\n"))
	assert.Error(t, err)

	_, err = ReadPrices(strings.NewReader("date,close\nyesterday,100\n"))
	assert.Error(t, err)
}

// =============================================================================
// Cache
// =============================================================================

type countingProvider struct {
	calls int
	inner Provider
}

func (c *countingProvider) Fetch(ctx context.Context, symbol string, window int) (risk.ReturnSeries, error) {
	c.calls++
	return c.inner.Fetch(ctx, symbol, window)
}

func TestCachedProviderPassThroughWhenDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	writePrices(t, path, pricePath(40))

	inner := &countingProvider{inner: NewFileProvider(path, 0.9)}
	p := NewCachedProvider(inner, redis.NewCache(redis.Disabled(), "test"), 0, logger.Nop())

	for i := 0; i < 2; i++ {
		s, err := p.Fetch(context.Background(), "X.NS", 30)
		require.NoError(t, err)
		assert.Equal(t, 30, s.Len())
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderHit(t *testing.T) {
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	client, err := redis.New(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	path := filepath.Join(t.TempDir(), "prices.csv")
	writePrices(t, path, pricePath(40))

	cache := redis.NewCache(client, "varcalc-test-"+time.Now().Format("150405.000"))
	inner := &countingProvider{inner: NewFileProvider(path, 0.9)}
	p := NewCachedProvider(inner, cache, time.Minute, logger.Nop())

	a, err := p.Fetch(context.Background(), "X.NS", 30)
	require.NoError(t, err)
	b, err := p.Fetch(context.Background(), "X.NS", 30)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, a.Values(), b.Values())
}
