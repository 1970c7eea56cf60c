package marketdata

import (
	"fmt"
	"strings"

	"github.com/wonny/varcalc/internal/risk"
)

// Exchange 지원 거래소
type Exchange string

const (
	NSE Exchange = "NSE" // National Stock Exchange of India → .NS
	BSE Exchange = "BSE" // Bombay Stock Exchange → .BO
)

var exchangeSuffix = map[Exchange]string{
	NSE: ".NS",
	BSE: ".BO",
}

// ParseExchange accepts NSE or BSE, case-insensitive.
func ParseExchange(s string) (Exchange, error) {
	ex := Exchange(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := exchangeSuffix[ex]; !ok {
		return "", risk.NewError(risk.ErrInvalidConfiguration, "exchange",
			fmt.Errorf("unsupported exchange %q (want NSE or BSE)", s))
	}
	return ex, nil
}

// Symbol Yahoo 심볼 (INFY + NSE → INFY.NS)
func Symbol(ticker string, ex Exchange) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", risk.NewError(risk.ErrInvalidConfiguration, "ticker", fmt.Errorf("empty ticker"))
	}
	if strings.ContainsAny(t, " /?&#") {
		return "", risk.NewError(risk.ErrInvalidConfiguration, "ticker", fmt.Errorf("invalid ticker %q", ticker))
	}
	suffix, ok := exchangeSuffix[ex]
	if !ok {
		return "", risk.NewError(risk.ErrInvalidConfiguration, "exchange", fmt.Errorf("unsupported exchange %q", ex))
	}
	return t + suffix, nil
}
