package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 15 * time.Second
	// The write deadline must stay past the request timeout middleware.
	writeGrace = 5 * time.Second
)

type Option func(*http.Server)

// WithRequestTimeout aligns read and write deadlines with REQUEST_TIMEOUT.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *http.Server) {
		if timeout <= 0 {
			return
		}
		s.ReadTimeout = timeout
		s.WriteTimeout = timeout + writeGrace
	}
}

// New builds the API server.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       defaultRequestTimeout,
		WriteTimeout:      defaultRequestTimeout + writeGrace,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
