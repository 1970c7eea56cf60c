package riskprofile

import (
	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/config"
)

// Profile VaR 실행 프로파일 (YAML)
type Profile struct {
	Meta      Meta       `yaml:"meta" json:"meta"`
	Risk      Risk       `yaml:"risk" json:"risk"`
	Watchlist []Position `yaml:"watchlist" json:"watchlist"`
	Schedule  Schedule   `yaml:"schedule" json:"schedule"`
	Output    Output     `yaml:"output" json:"output"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
	Timezone  string `yaml:"timezone" json:"timezone"` // 예: Asia/Kolkata
}

// Risk VaR 파라미터 (0 이면 환경변수 기본값 사용)
type Risk struct {
	Confidence  float64 `yaml:"confidence" json:"confidence"`
	Horizon     int     `yaml:"horizon" json:"horizon"`
	Window      int     `yaml:"window" json:"window"`
	Simulations int     `yaml:"simulations" json:"simulations"`
	Seed        int64   `yaml:"seed" json:"seed"`
	Workers     int     `yaml:"workers" json:"workers"`
}

// Position 워치리스트 한 종목
type Position struct {
	Ticker         string  `yaml:"ticker" json:"ticker"`
	Exchange       string  `yaml:"exchange" json:"exchange"`
	PortfolioValue float64 `yaml:"portfolio_value" json:"portfolio_value"`
}

// Schedule EOD 리포트 스케줄 (초 포함 6필드 cron)
type Schedule struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Cron    string `yaml:"cron" json:"cron"` // 예: "0 30 16 * * 1-5"

	// Prefetch 리포트 전에 수익률 캐시를 채우는 시각 (선택)
	Prefetch string `yaml:"prefetch,omitempty" json:"prefetch,omitempty"`
}

// Output 저장 대상
type Output struct {
	CSV   bool `yaml:"csv" json:"csv"`
	Chart bool `yaml:"chart" json:"chart"`
}

// DefaultCron 평일 16:30 (NSE 장 마감 후)
const DefaultCron = "0 30 16 * * 1-5"

// Merge overlays the non-zero profile risk values on the env defaults.
func (p *Profile) Merge(d config.RiskDefaults) config.RiskDefaults {
	if p == nil {
		return d
	}
	if p.Risk.Confidence != 0 {
		d.Confidence = p.Risk.Confidence
	}
	if p.Risk.Horizon != 0 {
		d.Horizon = p.Risk.Horizon
	}
	if p.Risk.Window != 0 {
		d.Window = p.Risk.Window
	}
	if p.Risk.Simulations != 0 {
		d.Simulations = p.Risk.Simulations
	}
	if p.Risk.Seed != 0 {
		d.Seed = p.Risk.Seed
	}
	if p.Risk.Workers != 0 {
		d.Workers = p.Risk.Workers
	}
	return d
}

// RiskConfig builds the core config for one position.
func RiskConfig(d config.RiskDefaults, portfolioValue float64) risk.RiskConfig {
	return risk.RiskConfig{
		Confidence:     d.Confidence,
		Horizon:        d.Horizon,
		Simulations:    d.Simulations,
		PortfolioValue: portfolioValue,
	}
}
