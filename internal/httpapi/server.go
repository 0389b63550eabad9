package httpapi

import (
	"net/http"
	"time"

	"climate-server/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, metrics *Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           withRequestID(requestLogger(metrics, mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
