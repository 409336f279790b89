package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Handler defines an HTTP handler that knows its own routes.
type Handler interface {
	http.Handler
	Routes() []string // Routes returns the path patterns this handler serves
}

// Loopback manages the short-lived callback server's lifecycle.
type Loopback struct {
	server *http.Server
	errs   chan error
}

// NewLoopback creates a loopback server on addr serving the given handlers.
func NewLoopback(addr string, handlers ...Handler) *Loopback {
	mux := http.NewServeMux()
	for _, h := range handlers {
		for _, route := range h.Routes() {
			mux.Handle(route, h)
		}
	}

	return &Loopback{
		server: &http.Server{Addr: addr, Handler: mux},
		errs:   make(chan error, 1),
	}
}

// Start begins serving in the background. Startup or serve failures are
// delivered on the returned channel.
func (l *Loopback) Start() <-chan error {
	go func() {
		if err := l.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.errs <- fmt.Errorf("callback server error: %w", err)
		}
	}()
	return l.errs
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (l *Loopback) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}
