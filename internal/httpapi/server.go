package httpapi

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"climate-server/internal/config"
)

const idleTimeout = 60 * time.Second

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      Handler(mux, clockwork.NewRealClock()),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Handler wraps mux with request id assignment and request logging.
func Handler(mux *http.ServeMux, clock clockwork.Clock) http.Handler {
	return requestID(requestLogger(clock)(mux))
}
