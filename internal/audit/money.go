package audit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount 통화 금액 → 소수 둘째 자리 고정 문자열 (CSV/DB 저장용)
func Amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatAmount 천 단위 구분 기호 포함 (1234567.891 → 1,234,567.89)
func FormatAmount(v float64) string {
	s := Amount(v)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
