package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/varcalc/internal/api/handlers"
	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/logger"
)

type fakeProvider struct{}

func (fakeProvider) Fetch(_ context.Context, symbol string, window int) (risk.ReturnSeries, error) {
	if symbol == "MISSING.NS" {
		return risk.ReturnSeries{}, risk.NewError(risk.ErrDataUnavailable, "symbol", errors.New("no price data"))
	}
	return risk.NewReturnSeries(wave(window), risk.ReturnLog)
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.02 * math.Sin(float64(i)*0.9)
	}
	return out
}

func newTestRouter(t *testing.T, journal audit.Journal) http.Handler {
	t.Helper()
	defaults := config.RiskDefaults{Confidence: 0.95, Horizon: 1, Window: 100, Simulations: 2000, Seed: 1, Workers: 1}

	var sink audit.Sink
	if journal != nil {
		sink = journal
	}
	o := pipeline.NewOrchestrator(fakeProvider{}, sink, logger.Nop())
	return NewRouter(
		handlers.NewVarHandler(o, defaults, "api", logger.Nop()),
		handlers.NewRunsHandler(journal, logger.Nop()),
		logger.Nop(),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestRouter(t, nil), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
}

func TestCalculate(t *testing.T) {
	journal, err := audit.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	defer journal.Close()
	h := newTestRouter(t, journal)

	rec, body := do(t, h, "POST", "/api/var", map[string]interface{}{
		"ticker": "infy", "exchange": "NSE", "portfolio_value": 1_000_000,
		"confidence": 0.99, "save": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	run := body["run"].(map[string]interface{})
	assert.Equal(t, "INFY.NS", run["symbol"])
	assert.Equal(t, "api", run["operator"])
	assert.Equal(t, 0.99, body["config"].(map[string]interface{})["confidence"])

	values := body["detail"].(map[string]interface{})["var"].(map[string]interface{})
	for _, m := range []string{"Parametric", "Historical", "MonteCarlo"} {
		assert.Greater(t, values[m].(float64), 0.0, m)
	}

	// 저장된 실행 조회
	runID := run["run_id"].(string)
	rec, body = do(t, h, "GET", "/api/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, runID, body["run"].(map[string]interface{})["run_id"])

	rec, body = do(t, h, "GET", "/api/runs?symbol=infy.ns&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, _ = do(t, h, "GET", "/api/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, "GET", "/api/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateErrors(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
		kind   string
	}{
		{"bad exchange", map[string]interface{}{"ticker": "INFY", "exchange": "NYSE", "portfolio_value": 1}, 422, "invalid configuration"},
		{"confidence out of range", map[string]interface{}{"ticker": "INFY", "exchange": "NSE", "portfolio_value": 1, "confidence": 0.5}, 422, "invalid configuration"},
		{"horizon beyond window", map[string]interface{}{"ticker": "INFY", "exchange": "NSE", "portfolio_value": 1, "horizon": 200}, 422, "insufficient data"},
		{"no data", map[string]interface{}{"ticker": "MISSING", "exchange": "NSE", "portfolio_value": 1}, 404, "data unavailable"},
		{"unknown field", map[string]interface{}{"ticker": "INFY", "exchange": "NSE", "portfolio_value": 1, "confidance": 0.9}, 400, ""},
		{"malformed", "{", 400, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, "POST", "/api/var", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, body["error"])
			if tt.kind != "" {
				assert.Equal(t, tt.kind, body["kind"])
			}
		})
	}
}

func TestCompute(t *testing.T) {
	h := newTestRouter(t, nil)
	returns := []float64{-0.02, 0.01, -0.015, 0.005, 0.02, -0.01, 0.0, 0.015, -0.025, 0.01}

	rec, body := do(t, h, "POST", "/api/var/compute", map[string]interface{}{
		"returns": returns, "portfolio_value": 1_000_000, "seed": 42,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := body["detail"].(map[string]interface{})
	assert.Equal(t, float64(10), detail["observations"])
	assert.Equal(t, "log", detail["return_type"])

	rec, body = do(t, h, "POST", "/api/var/compute", map[string]interface{}{
		"returns": returns[:9], "portfolio_value": 1_000_000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient data", body["kind"])

	rec, _ = do(t, h, "POST", "/api/var/compute", map[string]interface{}{
		"returns": returns, "portfolio_value": 1_000_000, "simulations": 500,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRunsJournalDisabled(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, nil), "GET", "/api/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutingErrors(t *testing.T) {
	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/var", http.StatusMethodNotAllowed},
		{"GET", "/api/var/compute", http.StatusMethodNotAllowed},
		{"POST", "/api/runs", http.StatusMethodNotAllowed},
		{"DELETE", "/api/runs/abc", http.StatusMethodNotAllowed},
		{"POST", "/health", http.StatusMethodNotAllowed},
		{"GET", "/api/unknown", http.StatusNotFound},
	}
	router := newTestRouter(t, nil)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, body := do(t, router, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, http.StatusText(tt.want), body["error"])
		})
	}
}

func TestCalculateSaveFailureKeepsResult(t *testing.T) {
	journal, err := audit.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	rec, body := do(t, newTestRouter(t, journal), "POST", "/api/var", map[string]interface{}{
		"ticker": "INFY", "exchange": "NSE", "portfolio_value": 1e6, "save": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["save_error"])
	assert.NotNil(t, body["detail"])
	assert.Contains(t, body["completed_stages"], pipeline.StageVaR)
	assert.NotContains(t, body["completed_stages"], pipeline.StageSave)
}
