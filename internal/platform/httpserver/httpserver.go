package httpserver

import (
	"net/http"
	"time"
)

// New builds the governance API server. Every handler finishes in one store
// round trip, so the write timeout can stay tight; the idle timeout keeps
// Prometheus scrape connections from piling up.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
