package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/varcalc/internal/api/handlers"
	"github.com/wonny/varcalc/pkg/logger"
)

// ServiceName health 응답 서비스 이름
const ServiceName = "varcalc-api"

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(varHandler *handlers.VarHandler, runsHandler *handlers.RunsHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	log = log.Component("api")

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// 서브라우터는 메서드 불일치를 404로 돌려주므로 전체 경로로 등록

	// VaR endpoints
	r.HandleFunc("/api/var", varHandler.Calculate).Methods("POST")
	r.HandleFunc("/api/var/compute", varHandler.Compute).Methods("POST")

	// Journal endpoints
	r.HandleFunc("/api/runs", runsHandler.List).Methods("GET")
	r.HandleFunc("/api/runs/{id}", runsHandler.Get).Methods("GET")

	r.NotFoundHandler = errorHandler(http.StatusNotFound)
	r.MethodNotAllowedHandler = errorHandler(http.StatusMethodNotAllowed)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// errorHandler handlers.ErrorResponse 형식의 라우팅 오류 응답
func errorHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(handlers.ErrorResponse{Error: http.StatusText(status)})
	})
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": ServiceName,
	})
}

// statusRecorder 응답 코드 기록용
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
