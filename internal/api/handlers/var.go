package handlers

import (
	"net/http"

	"github.com/wonny/varcalc/internal/pipeline"
	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/config"
	"github.com/wonny/varcalc/pkg/logger"
)

// VarHandler handles VaR calculation endpoints
// ⭐ SSOT: VaR API 핸들러는 이 구조체에서만
type VarHandler struct {
	orchestrator *pipeline.Orchestrator
	defaults     config.RiskDefaults
	operator     string
	logger       *logger.Logger
}

// NewVarHandler creates a new VaR handler
func NewVarHandler(o *pipeline.Orchestrator, defaults config.RiskDefaults, operator string, log *logger.Logger) *VarHandler {
	return &VarHandler{
		orchestrator: o,
		defaults:     defaults,
		operator:     operator,
		logger:       log.Component("api.var"),
	}
}

// RiskParams 선택 파라미터 (생략 시 서버 기본값)
type RiskParams struct {
	Confidence  *float64 `json:"confidence,omitempty"`
	Horizon     *int     `json:"horizon,omitempty"`
	Window      *int     `json:"window,omitempty"`
	Simulations *int     `json:"simulations,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

func (p RiskParams) apply(d config.RiskDefaults) config.RiskDefaults {
	if p.Confidence != nil {
		d.Confidence = *p.Confidence
	}
	if p.Horizon != nil {
		d.Horizon = *p.Horizon
	}
	if p.Window != nil {
		d.Window = *p.Window
	}
	if p.Simulations != nil {
		d.Simulations = *p.Simulations
	}
	if p.Seed != nil {
		d.Seed = *p.Seed
	}
	return d
}

// CalculateRequest fetch + compute request
type CalculateRequest struct {
	Ticker         string  `json:"ticker"`
	Exchange       string  `json:"exchange"`
	PortfolioValue float64 `json:"portfolio_value"`
	Operator       string  `json:"operator,omitempty"`
	Save           bool    `json:"save,omitempty"`
	RiskParams
}

// Calculate fetches returns for a ticker and computes all three VaR figures
// POST /api/var
func (h *VarHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	operator := req.Operator
	if operator == "" {
		operator = h.operator
	}

	res, err := h.orchestrator.Run(r.Context(), pipeline.RunConfig{
		Ticker:         req.Ticker,
		Exchange:       req.Exchange,
		PortfolioValue: req.PortfolioValue,
		Risk:           req.apply(h.defaults),
		Operator:       operator,
		Save:           req.Save,
	})
	if err != nil && !res.Computed() {
		h.logger.WithFields(map[string]interface{}{
			"ticker":   req.Ticker,
			"exchange": req.Exchange,
			"status":   StatusFor(err),
		}).WithError(err).Warn("VaR calculation failed")
		respondRiskError(w, err)
		return
	}

	resp := CalculateResponse{RunResult: res}
	if err != nil {
		// 계산은 완료, 저널 저장만 실패
		h.logger.WithField("run_id", res.Run.RunID).WithError(err).Error("run journal save failed")
		resp.SaveError = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// CalculateResponse run result; SaveError is set when only persistence failed
type CalculateResponse struct {
	*pipeline.RunResult
	SaveError string `json:"save_error,omitempty"`
}

// ComputeRequest caller-supplied returns
type ComputeRequest struct {
	Returns        []float64       `json:"returns"`
	ReturnType     risk.ReturnType `json:"return_type,omitempty"`
	PortfolioValue float64         `json:"portfolio_value"`
	RiskParams
}

// ComputeResponse VaR + sample statistics
type ComputeResponse struct {
	Config risk.RiskConfig `json:"config"`
	Detail risk.Detail     `json:"detail"`
}

// Compute runs the three estimators on returns supplied in the body
// POST /api/var/compute
func (h *VarHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReturnType == "" {
		req.ReturnType = risk.ReturnLog
	}

	series, err := risk.NewReturnSeries(req.Returns, req.ReturnType)
	if err != nil {
		respondRiskError(w, err)
		return
	}

	d := req.apply(h.defaults)
	cfg := risk.RiskConfig{
		Confidence:     d.Confidence,
		Horizon:        d.Horizon,
		Simulations:    d.Simulations,
		PortfolioValue: req.PortfolioValue,
	}

	detail, err := risk.NewReport(risk.Options{Seed: d.Seed, Workers: d.Workers}).ComputeDetailed(series, cfg)
	if err != nil {
		h.logger.WithField("observations", series.Len()).WithError(err).Warn("VaR compute failed")
		respondRiskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ComputeResponse{Config: cfg, Detail: detail})
}
