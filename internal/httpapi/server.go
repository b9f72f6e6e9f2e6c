package httpapi

import (
	"net/http"
	"time"

	"berlin-airquality/internal/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	// Heatmap partials over the full period can take a while to aggregate.
	writeTimeout = 60 * time.Second
	idleTimeout  = 2 * time.Minute
)

// NewServer wraps mux with the request middleware. metrics may be nil.
func NewServer(cfg config.Config, mux *http.ServeMux, metrics *Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux, metrics),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
