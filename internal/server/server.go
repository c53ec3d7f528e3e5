// Package server hosts the temporary localhost HTTP server used by the
// browser OAuth flow.
//
// When the user authenticates with a redirect rather than a device code, a
// short-lived server starts on the configured redirect address, receives the
// provider's callback exactly once, hands the authorization code back to the
// CLI through a channel, and shuts down.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers.
// Implementations serve specific endpoints and declare their own routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// RequestLogger logs method, path, and latency for every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// Serve runs an HTTP server for the given handler until ctx is canceled,
// then shuts it down gracefully. The handler's routes are registered on a
// fresh mux with the middleware applied outermost-first.
func Serve(ctx context.Context, addr string, handler Handler, middleware ...Middleware) error {
	mux := http.NewServeMux()

	var wrapped http.Handler = handler
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}

	for _, route := range handler.Routes() {
		mux.Handle(route, wrapped)
	}

	srv := &http.Server{Addr: addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
