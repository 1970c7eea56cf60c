package risk

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

var (
	// ErrInvalidConfiguration 범위를 벗어난 설정 (재시도 불가)
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInsufficientData 관측치 부족 또는 보유기간 > 시계열 길이
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDataUnavailable 데이터 제공자가 해당 심볼 데이터를 찾지 못함 (제공자 소유)
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrCalculationFailure 비유한 결과 등 예상치 못한 수치 오류
	ErrCalculationFailure = errors.New("calculation failure")
)

// Error carries the method and offending parameter alongside the kind.
// errors.Is matches both Kind and the wrapped cause.
type Error struct {
	Kind   error
	Method Method // 0 when not tied to one estimator
	Param  string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Method.Valid() {
		fmt.Fprintf(&b, " [%s]", e.Method)
	}
	if e.Param != "" {
		b.WriteString(": ")
		b.WriteString(e.Param)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError lets collaborators (providers, sinks) report in the same taxonomy.
func NewError(kind error, param string, err error) error {
	return &Error{Kind: kind, Param: param, Err: err}
}

func invalidConfig(m Method, param, format string, args ...any) error {
	return &Error{Kind: ErrInvalidConfiguration, Method: m, Param: param, Err: fmt.Errorf(format, args...)}
}

func insufficientData(m Method, param string, got, need int) error {
	return &Error{
		Kind:   ErrInsufficientData,
		Method: m,
		Param:  param,
		Err:    fmt.Errorf("need %d observations, got %d", need, got),
	}
}

func calculationFailure(m Method, param string, cause error) error {
	return &Error{Kind: ErrCalculationFailure, Method: m, Param: param, Err: cause}
}

// withMethod tags a method-less *Error; other errors pass through.
func withMethod(err error, m Method) error {
	var e *Error
	if errors.As(err, &e) && !e.Method.Valid() {
		tagged := *e
		tagged.Method = m
		return &tagged
	}
	return err
}
