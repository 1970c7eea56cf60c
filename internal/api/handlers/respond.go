package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/internal/risk"
)

// maxBodyBytes 요청 본문 상한 (수익률 배열 포함)
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// ErrorResponse 오류 응답 (kind 는 분류 가능한 경우에만)
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Method string `json:"method,omitempty"`
	Param  string `json:"param,omitempty"`
}

// StatusFor maps an error chain to an HTTP status
// InvalidConfiguration/InsufficientData → 422, DataUnavailable → 404
func StatusFor(err error) int {
	switch {
	case errors.Is(err, risk.ErrInvalidConfiguration), errors.Is(err, risk.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, risk.ErrDataUnavailable), errors.Is(err, audit.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondRiskError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var rerr *risk.Error
	if errors.As(err, &rerr) {
		resp.Kind = rerr.Kind.Error()
		resp.Param = rerr.Param
		if rerr.Method.Valid() {
			resp.Method = rerr.Method.String()
		}
	}
	respondJSON(w, StatusFor(err), resp)
}

// decodeJSON 알 수 없는 필드 거부
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
