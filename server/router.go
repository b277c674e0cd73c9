package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter 注册所有路由
func NewRouter(api *APIHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	methods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	router.HandleFunc("/v2/lookup", api.LookupHandler()).Methods(methods...)
	router.HandleFunc("/v2/submit", api.SubmitHandler()).Methods(methods...)
	router.HandleFunc("/v2/submission_status", api.SubmissionStatusHandler()).Methods(methods...)

	router.HandleFunc("/_health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/_health_ro", health.ReadOnly).Methods(http.MethodGet)
	router.HandleFunc("/_health_docker", health.ReadOnly).Methods(http.MethodGet)

	return router
}
