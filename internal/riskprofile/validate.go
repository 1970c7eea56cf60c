package riskprofile

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"github.com/wonny/varcalc/internal/marketdata"
	"github.com/wonny/varcalc/internal/risk"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// cronParser 스케줄러와 동일한 초 포함 형식
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if p.Meta.Timezone != "" {
		if _, err := time.LoadLocation(p.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Risk === (0 = 미지정)
	r := p.Risk
	if r.Confidence != 0 && (r.Confidence < risk.MinConfidence || r.Confidence > risk.MaxConfidence) {
		return ValidationError{"risk.confidence", fmt.Sprintf("must be in [%.2f, %.2f]", risk.MinConfidence, risk.MaxConfidence)}
	}
	if r.Horizon < 0 {
		return ValidationError{"risk.horizon", "must be >= 1"}
	}
	if r.Window < 0 {
		return ValidationError{"risk.window", "must be > 0"}
	}
	if r.Window != 0 && r.Window < risk.MinObservations {
		return ValidationError{"risk.window", fmt.Sprintf("must be >= %d", risk.MinObservations)}
	}
	if r.Simulations != 0 && r.Simulations < risk.MinSimulations {
		return ValidationError{"risk.simulations", fmt.Sprintf("must be >= %d", risk.MinSimulations)}
	}
	if r.Simulations < 0 {
		return ValidationError{"risk.simulations", "must be >= 0"}
	}
	if r.Workers < 0 {
		return ValidationError{"risk.workers", "must be >= 0"}
	}

	// === Watchlist ===
	seen := make(map[string]bool, len(p.Watchlist))
	for i, pos := range p.Watchlist {
		field := fmt.Sprintf("watchlist[%d]", i)
		ex, err := marketdata.ParseExchange(pos.Exchange)
		if err != nil {
			return ValidationError{field + ".exchange", fmt.Sprintf("unsupported exchange %q", pos.Exchange)}
		}
		symbol, err := marketdata.Symbol(pos.Ticker, ex)
		if err != nil {
			return ValidationError{field + ".ticker", fmt.Sprintf("invalid ticker %q", pos.Ticker)}
		}
		if !(pos.PortfolioValue > 0) {
			return ValidationError{field + ".portfolio_value", "must be > 0"}
		}
		if seen[symbol] {
			return ValidationError{field, "duplicate symbol " + symbol}
		}
		seen[symbol] = true
	}

	// === Schedule ===
	if p.Schedule.Enabled {
		if len(p.Watchlist) == 0 {
			return ValidationError{"schedule", "enabled with empty watchlist"}
		}
		if _, err := cronParser.Parse(p.Schedule.Cron); err != nil {
			return ValidationError{"schedule.cron", err.Error()}
		}
		if p.Schedule.Prefetch != "" {
			if _, err := cronParser.Parse(p.Schedule.Prefetch); err != nil {
				return ValidationError{"schedule.prefetch", err.Error()}
			}
		}
	}

	return nil
}

// CheckWarnings returns non-fatal recommendations
func CheckWarnings(p *Profile) []Warning {
	var warnings []Warning

	if p.Risk.Simulations != 0 && p.Risk.Simulations < risk.DefaultResamples {
		warnings = append(warnings, Warning{
			Code:    "LOW_SIMULATIONS",
			Message: fmt.Sprintf("simulations=%d; Monte Carlo VaR is noisy below %d", p.Risk.Simulations, risk.DefaultResamples),
		})
	}
	if p.Risk.Window != 0 && p.Risk.Window < risk.TradingDays {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WINDOW",
			Message: fmt.Sprintf("window=%d is shorter than one trading year", p.Risk.Window),
		})
	}
	if p.Risk.Window != 0 && p.Risk.Horizon*20 > p.Risk.Window {
		warnings = append(warnings, Warning{
			Code:    "FEW_HORIZON_BLOCKS",
			Message: fmt.Sprintf("horizon=%d leaves few independent blocks in window=%d", p.Risk.Horizon, p.Risk.Window),
		})
	}
	if len(p.Watchlist) > 0 && !p.Output.CSV && !p.Output.Chart {
		warnings = append(warnings, Warning{
			Code:    "NO_FILE_OUTPUT",
			Message: "watchlist runs will only be journaled",
		})
	}

	return warnings
}
